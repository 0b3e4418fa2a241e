// Package storetest holds behaviour checks shared by every store backend.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lda/pkg/lda/store"
)

// Run exercises s against the store.Store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing", func(t *testing.T) {
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		blob := []byte{0x4c, 0x44, 0x41, 0x00, 0xff}
		require.NoError(t, s.Save(ctx, "news/2024", blob))

		got, err := s.Load(ctx, "news/2024")
		require.NoError(t, err)
		assert.Equal(t, blob, got)

		blob[0] = 0
		got, err = s.Load(ctx, "news/2024")
		require.NoError(t, err)
		assert.Equal(t, byte(0x4c), got[0])
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "news/2024", []byte("second")))
		got, err := s.Load(ctx, "news/2024")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("list by prefix", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "news/2023", []byte("a")))
		require.NoError(t, s.Save(ctx, "papers/2024", []byte("b")))

		ids, err := s.List(ctx, "news/")
		require.NoError(t, err)
		assert.Equal(t, []string{"news/2023", "news/2024"}, ids)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"news/2023", "news/2024", "papers/2024"}, all)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "news/2023"))
		require.NoError(t, s.Delete(ctx, "news/2023"))

		_, err := s.Load(ctx, "news/2023")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		assert.Error(t, s.Save(ctx, "", []byte("x")))
		assert.Error(t, s.Save(ctx, " padded ", []byte("x")))
	})
}
