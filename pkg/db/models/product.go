package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Product is the canonical stock item. Quantity is only mutated by the
// order/purchase lifecycle transitions, never by plain updates.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Code         string          `gorm:"column:code;not null" json:"code"`
	Quantity     int             `gorm:"column:quantity;not null;default:0" json:"quantity"`
	BuyingPrice  decimal.Decimal `gorm:"column:buying_price;type:numeric(12,2);not null" json:"buying_price"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null" json:"selling_price"`
	Tax          decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null;default:0" json:"tax"`
	TaxType      enums.TaxType   `gorm:"column:tax_type;not null;default:'exclusive'" json:"tax_type"`
	CategoryID   uuid.UUID       `gorm:"column:category_id;type:uuid;not null" json:"category_id"`
	UnitID       uuid.UUID       `gorm:"column:unit_id;type:uuid;not null" json:"unit_id"`
	Category     *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Unit         *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"column:deleted_at;index" json:"-"`
}
