package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Purchase is a supplier purchase aggregate. It exclusively owns its lines.
type Purchase struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID   uuid.UUID            `gorm:"column:supplier_id;type:uuid;not null" json:"supplier_id"`
	PurchaseNo   string               `gorm:"column:purchase_no;not null;uniqueIndex" json:"purchase_no"`
	PurchaseDate time.Time            `gorm:"column:purchase_date;type:date;not null" json:"purchase_date"`
	Status       enums.PurchaseStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	TotalAmount  decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	CreatedBy    uuid.UUID            `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	UpdatedBy    *uuid.UUID           `gorm:"column:updated_by;type:uuid" json:"updated_by,omitempty"`
	Supplier     *Supplier            `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Details      []PurchaseDetail     `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
