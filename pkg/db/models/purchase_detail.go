package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseDetail is a single product line on a purchase. Like order lines it
// carries no surrogate key; identity is (purchase_id, product_id, created_at).
type PurchaseDetail struct {
	PurchaseID uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;index" json:"purchase_id"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null" json:"unit_cost"`
	Total      decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
