package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order totals follow total = subtotal + tax + shipping - discount by convention only.
type Order struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	OrderNumber string          `gorm:"size:50;not null;uniqueIndex" json:"orderNumber"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:PENDING;index" json:"status"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	Tax         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tax"`
	Shipping    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"shipping"`
	Discount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discount"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	UserId      string          `gorm:"size:36;not null;index" json:"userId"`
	User        *User           `gorm:"foreignKey:UserId" json:"user,omitempty"`
	CompanyId   *string         `gorm:"size:36;index" json:"companyId"`
	Company     *Company        `gorm:"foreignKey:CompanyId" json:"company,omitempty"`
	Items       []OrderItem     `gorm:"foreignKey:OrderId" json:"items,omitempty"`
	Payments    []Payment       `gorm:"foreignKey:OrderId" json:"payments,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type OrderItem struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	OrderId   string          `gorm:"size:36;not null;index" json:"orderId"`
	ProductId string          `gorm:"size:36;not null;index" json:"productId"`
	Product   *Product        `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

type Payment struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	OrderId   string          `gorm:"size:36;not null;index" json:"orderId"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Method    string          `gorm:"size:50" json:"method"`
	Status    string          `gorm:"size:20" json:"status"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	assignId(&o.ID)
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	assignId(&i.ID)
	return nil
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	assignId(&p.ID)
	return nil
}

// LineTotal is quantity × the price snapshot taken when the order was placed.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FirstPayment returns the earliest payment, or nil.
func (o Order) FirstPayment() *Payment {
	var first *Payment
	for i := range o.Payments {
		p := &o.Payments[i]
		if first == nil || p.CreatedAt.Before(first.CreatedAt) {
			first = p
		}
	}
	return first
}

func (o Order) CompanyName() string {
	if o.Company == nil {
		return ""
	}
	return o.Company.Name
}

// Customer returns the ordering user's name and email, empty when not loaded.
func (o Order) Customer() (string, string) {
	if o.User == nil {
		return "", ""
	}
	return o.User.Name, o.User.Email
}
