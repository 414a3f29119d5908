// Package storetest holds a behavioural suite every store backend must pass.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/store"
)

// Run exercises s through the store.Store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := s.Get("absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set("loggedIn", "true"))
		v, ok, err := s.Get("loggedIn")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "true", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set("todos", `["a"]`))
		require.NoError(t, s.Set("todos", `["a","b"]`))
		v, _, err := s.Get("todos")
		require.NoError(t, err)
		assert.Equal(t, `["a","b"]`, v)
	})

	t.Run("empty value is present", func(t *testing.T) {
		require.NoError(t, s.Set("blank", ""))
		v, ok, err := s.Get("blank")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("markup and unicode survive byte for byte", func(t *testing.T) {
		val := `["<script>alert(1)</script>","café ☑","\u001b[31mred"]`
		require.NoError(t, s.Set("raw", val))
		v, _, err := s.Get("raw")
		require.NoError(t, err)
		assert.Equal(t, val, v)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, s.Set("gone", "1"))
		require.NoError(t, s.Remove("gone"))
		require.NoError(t, s.Remove("gone"))
		_, ok, err := s.Get("gone")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, s.Set("k1", "v1"))
		require.NoError(t, s.Set("k2", "v2"))
		require.NoError(t, s.Remove("k1"))
		v, ok, err := s.Get("k2")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v2", v)
	})
}

// RunPersistent checks that values written through one handle are visible
// through a second handle opened on the same origin.
func RunPersistent(t *testing.T, open func() store.Store) {
	t.Helper()

	first := open()
	require.NoError(t, first.Set("todos", `["Buy milk"]`))
	require.NoError(t, first.Set("loggedIn", "true"))
	require.NoError(t, first.Remove("loggedIn"))

	second := open()
	v, ok, err := second.Get("todos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["Buy milk"]`, v)

	_, ok, err = second.Get("loggedIn")
	require.NoError(t, err)
	assert.False(t, ok)
}
