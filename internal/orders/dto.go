package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one requested product line on a new order.
type LineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateRequest carries everything needed to create an order.
type CreateRequest struct {
	CustomerID      uuid.UUID       `json:"customer_id" validate:"required"`
	OrderDate       time.Time       `json:"order_date" validate:"required"`
	Lines           []LineInput     `json:"lines" validate:"required,min=1,dive"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Shipping        decimal.Decimal `json:"shipping"`
	Pay             decimal.Decimal `json:"pay"`
}

// OutOfStockItem reports one product whose stock cannot cover the request.
type OutOfStockItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Available int       `json:"available"`
	Required  int       `json:"required"`
}

// quantityChange is recorded into the audit log for every adjusted product.
type quantityChange struct {
	ProductID   uuid.UUID `json:"product_id"`
	Code        string    `json:"code"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	Delta       int       `json:"delta"`
}
