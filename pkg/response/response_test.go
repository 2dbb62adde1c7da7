package response

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMeta(t *testing.T) {
	meta := NewMeta(2, 10, 10, 42)
	require.Equal(t, 42, meta.TotalItems)
	require.Equal(t, 10, meta.ItemCount)
	require.Equal(t, 10, meta.ItemsPerPage)
	require.Equal(t, 5, meta.TotalPages)
	require.Equal(t, 2, meta.CurrentPage)

	meta = NewMeta(1, 10, 0, 0)
	require.Equal(t, 0, meta.TotalPages)

	meta = NewMeta(1, 10, 10, 30)
	require.Equal(t, 3, meta.TotalPages)
}

func TestNewMetaDefaults(t *testing.T) {
	meta := NewMeta(0, 0, 3, 3)
	require.Equal(t, 1, meta.CurrentPage)
	require.Equal(t, 10, meta.ItemsPerPage)
	require.Equal(t, 1, meta.TotalPages)
}
