package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Order is a sales order aggregate. It exclusively owns its detail lines.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID uuid.UUID         `gorm:"column:customer_id;type:uuid;not null" json:"customer_id"`
	InvoiceNo  string            `gorm:"column:invoice_no;not null;uniqueIndex" json:"invoice_no"`
	OrderDate  time.Time         `gorm:"column:order_date;type:date;not null" json:"order_date"`
	Status     enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	SubTotal   decimal.Decimal   `gorm:"column:sub_total;type:numeric(12,2);not null" json:"sub_total"`
	Vat        decimal.Decimal   `gorm:"column:vat;type:numeric(12,2);not null;default:0" json:"vat"`
	Discount   decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null;default:0" json:"discount"`
	Shipping   decimal.Decimal   `gorm:"column:shipping;type:numeric(12,2);not null;default:0" json:"shipping"`
	Total      decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Pay        decimal.Decimal   `gorm:"column:pay;type:numeric(12,2);not null;default:0" json:"pay"`
	Due        decimal.Decimal   `gorm:"column:due;type:numeric(12,2);not null;default:0" json:"due"`
	CreatedBy  uuid.UUID         `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	UpdatedBy  *uuid.UUID        `gorm:"column:updated_by;type:uuid" json:"updated_by,omitempty"`
	Customer   *Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Details    []OrderDetail     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
