package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing search", func(t *testing.T) {
		srv, err := NewServer(&Ports{Catalog: &mockCatalog{}}, nil)
		require.Error(t, err)
		assert.Nil(t, srv)
		assert.ErrorIs(t, err, ErrMissingSearch)
	})

	t.Run("missing catalog", func(t *testing.T) {
		_, err := NewServer(&Ports{Search: &mockSearch{}}, nil)
		assert.ErrorIs(t, err, ErrMissingCatalog)
	})

	t.Run("gaps optional", func(t *testing.T) {
		srv, err := NewServer(&Ports{Search: &mockSearch{}, Catalog: &mockCatalog{}}, nil)
		require.NoError(t, err)
		assert.NotNil(t, srv.Handler())
	})
}
