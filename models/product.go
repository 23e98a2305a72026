package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

type Product struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Sku        string          `gorm:"size:100;not null;uniqueIndex" json:"sku"`
	Price      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
	Stock      int             `gorm:"not null;default:0" json:"stock"`
	MinStock   int             `gorm:"not null;default:0" json:"minStock"`
	Status     ProductStatus   `gorm:"type:varchar(20);not null;default:ACTIVE" json:"status"`
	CategoryId *string         `gorm:"size:36;index" json:"categoryId"`
	Category   *Category       `gorm:"foreignKey:CategoryId" json:"category,omitempty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	assignId(&c.ID)
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	assignId(&p.ID)
	return nil
}

func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// IsLowStock includes out-of-stock products.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

func (p Product) IsOutOfStock() bool {
	return p.Stock == 0
}

func (p Product) InventoryValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
}
