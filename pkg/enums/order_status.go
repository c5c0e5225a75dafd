package enums

import "fmt"

// OrderStatus tracks the lifecycle of a sales order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusComplete OrderStatus = "complete"
	OrderStatusCancel   OrderStatus = "cancel"
	OrderStatusReturn   OrderStatus = "return"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusComplete,
	OrderStatusCancel,
	OrderStatusReturn,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from the status.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCancel || o == OrderStatusReturn
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
