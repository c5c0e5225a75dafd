package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeClampsInputs(t *testing.T) {
	n := Params{Page: 0, PerPage: 0}.Normalize()
	require.Equal(t, 1, n.Page)
	require.Equal(t, DefaultPerPage, n.PerPage)

	n = Params{Page: 3, PerPage: 500}.Normalize()
	require.Equal(t, MaxPerPage, n.PerPage)
}

func TestOffsetUsesNormalizedPage(t *testing.T) {
	require.Equal(t, 0, Params{Page: 1, PerPage: 10}.Offset())
	require.Equal(t, 20, Params{Page: 3, PerPage: 10}.Offset())
	require.Equal(t, 0, Params{Page: -4, PerPage: 10}.Offset())
}

func TestNewPageComputesTotals(t *testing.T) {
	page := NewPage([]int{1, 2, 3}, Params{Page: 1, PerPage: 10}, 21)
	require.Equal(t, 3, len(page.Items))
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, int64(21), page.TotalRows)

	empty := NewPage[int](nil, Params{}, 0)
	require.NotNil(t, empty.Items)
	require.Equal(t, 0, empty.TotalPages)
}
