package audit

import (
	"testing"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDiffKeepsOnlyChangedFields(t *testing.T) {
	oldValues := map[string]any{
		"name":     "Widget",
		"quantity": 10,
		"status":   enums.OrderStatusPending,
	}
	newValues := map[string]any{
		"name":     "Widget",
		"quantity": 7,
		"status":   enums.OrderStatusComplete,
	}

	changes := Diff(oldValues, newValues)
	require.Len(t, changes, 2)
	require.Equal(t, 10, changes["quantity"].Old)
	require.Equal(t, 7, changes["quantity"].New)
	require.Equal(t, enums.OrderStatusComplete, changes["status"].New)
	require.NotContains(t, changes, "name")
}

func TestDiffComparesByStringForm(t *testing.T) {
	oldValues := map[string]any{
		"status": "pending",
		"price":  decimal.NewFromInt(100),
	}
	newValues := map[string]any{
		"status": enums.OrderStatusPending,
		"price":  "100",
	}

	require.Nil(t, Diff(oldValues, newValues))
}

func TestDiffRecordsRemovedFields(t *testing.T) {
	changes := Diff(map[string]any{"shop_name": "Old Shop"}, map[string]any{})
	require.Len(t, changes, 1)
	require.Equal(t, "Old Shop", changes["shop_name"].Old)
	require.Nil(t, changes["shop_name"].New)
}

func TestDiffReturnsNilWhenUnchanged(t *testing.T) {
	values := map[string]any{"name": "Same"}
	require.Nil(t, Diff(values, values))
}
