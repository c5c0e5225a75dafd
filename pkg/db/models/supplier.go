package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier is the vendor a purchase is sourced from.
type Supplier struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	ShopName  *string        `gorm:"column:shop_name" json:"shop_name,omitempty"`
	Email     *string        `gorm:"column:email" json:"email,omitempty"`
	Phone     string         `gorm:"column:phone;not null" json:"phone"`
	Address   *string        `gorm:"column:address" json:"address,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}
