package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Email       string     `gorm:"size:191;not null;uniqueIndex" json:"email"`
	Role        UserRole   `gorm:"type:varchar(20);not null;default:BUYER;index" json:"role"`
	CompanyId   *string    `gorm:"size:36;index" json:"companyId"`
	Company     *Company   `gorm:"foreignKey:CompanyId" json:"company,omitempty"`
	IsActive    bool       `gorm:"not null;default:true" json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	Orders      []Order    `gorm:"foreignKey:UserId" json:"orders,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

/*
caches:
	User:$id
*/

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignId(&u.ID)
	return nil
}

func (u User) CacheKey() string {
	return "User:" + u.ID
}

func (u User) CompanyName() string {
	if u.Company == nil {
		return ""
	}
	return u.Company.Name
}
