package models

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	assignId(&c.ID)
	return nil
}
