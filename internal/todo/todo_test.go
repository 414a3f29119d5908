package todo

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/apperr"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/memstore"
	"github.com/Makepad-fr/tada/internal/store/sqlitestore"
)

func loaded(t *testing.T, s store.Store) *Manager {
	t.Helper()
	m := NewManager(s)
	_, err := m.Load()
	require.NoError(t, err)
	return m
}

func stored(t *testing.T, s store.Store) string {
	t.Helper()
	v, ok, err := s.Get(Key)
	require.NoError(t, err)
	require.True(t, ok, "todos key missing")
	return v
}

func TestLoadAbsentIsEmpty(t *testing.T) {
	m := NewManager(memstore.New())
	items, err := m.Load()
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, m.Count())
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed", `["a",`},
		{"null", `null`},
		{"object", `{"a":1}`},
		{"numbers", `[1,2]`},
		{"empty string", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memstore.New()
			m := loaded(t, s)
			_, err := m.Add("keep me")
			require.NoError(t, err)

			require.NoError(t, s.Set(Key, tt.raw))
			_, err = m.Load()
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeStoreCorrupt))
			assert.Equal(t, []string{"keep me"}, m.Items(), "in-memory list untouched")
			assert.Equal(t, tt.raw, stored(t, s), "corrupt data not overwritten by load")
		})
	}
}

func TestAddCountsOnlyNonBlank(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)

	inputs := []string{"a", "", " ", "b", "   ", "\t\n", "a"}
	want := 0
	for _, in := range inputs {
		_, err := m.Add(in)
		if err == nil {
			want++
		} else {
			assert.True(t, apperr.Is(err, apperr.CodeRejected))
		}
	}
	assert.Equal(t, 3, want)
	assert.Equal(t, want, m.Count())
	assert.Equal(t, []string{"a", "b", "a"}, m.Items(), "duplicates allowed")
}

func TestRejectedDoesNotWrite(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)
	for _, in := range []string{"", " ", "   "} {
		_, err := m.Add(in)
		assert.True(t, apperr.Is(err, apperr.CodeRejected))
	}
	_, ok, err := s.Get(Key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddTrims(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)
	idx, err := m.Add("  X  ")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, `["X"]`, stored(t, s))
}

func TestAddTrimsByteOrderMark(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)

	_, err := m.Add("\ufeff \u00a0")
	assert.True(t, apperr.Is(err, apperr.CodeRejected))
	assert.Equal(t, 0, m.Count())

	_, err = m.Add("\ufeffX\ufeff")
	require.NoError(t, err)
	assert.Equal(t, `["X"]`, stored(t, s))
}

func TestAddInvalidUTF8MatchesReload(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)

	_, err := m.Add("caf\xe9")
	require.NoError(t, err)
	assert.Equal(t, []string{"caf\uFFFD"}, m.Items())

	items, err := NewManager(s).Load()
	require.NoError(t, err)
	assert.Equal(t, m.Items(), items)
}

func TestCorruptLoadBlocksMutations(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)
	_, err := m.Add("a")
	require.NoError(t, err)

	require.NoError(t, s.Set(Key, `["a","b",`))
	_, err = m.Load()
	require.Error(t, err)
	assert.True(t, m.Corrupt())

	_, err = m.Add("c")
	assert.True(t, apperr.Is(err, apperr.CodeStoreCorrupt))
	assert.True(t, apperr.Is(m.Delete(0), apperr.CodeStoreCorrupt))
	assert.Equal(t, `["a","b",`, stored(t, s), "corrupt value kept")

	// a repaired store unblocks the manager
	require.NoError(t, s.Set(Key, `["a","b"]`))
	_, err = m.Load()
	require.NoError(t, err)
	assert.False(t, m.Corrupt())
	_, err = m.Add("c")
	require.NoError(t, err)
	assert.Equal(t, `["a","b","c"]`, stored(t, s))
}

func TestAddReturnsIndex(t *testing.T) {
	m := loaded(t, memstore.New())
	for i, text := range []string{"one", "two", "three"} {
		idx, err := m.Add(text)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}
}

func TestDeleteShifts(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)
	_, _ = m.Add("a")
	_, _ = m.Add("b")
	require.NoError(t, m.Delete(0))

	fresh := NewManager(s)
	items, err := fresh.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, items)
}

func TestDeleteMiddle(t *testing.T) {
	m := loaded(t, memstore.New())
	for _, text := range []string{"a", "b", "c", "d"} {
		_, _ = m.Add(text)
	}
	require.NoError(t, m.Delete(1))
	assert.Equal(t, []string{"a", "c", "d"}, m.Items())
	require.NoError(t, m.Delete(2))
	assert.Equal(t, []string{"a", "c"}, m.Items())
}

func TestDeleteOutOfRange(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)
	_, _ = m.Add("a")
	_, _ = m.Add("b")
	before := stored(t, s)

	for _, idx := range []int{-1, 2, 3, 100} {
		err := m.Delete(idx)
		assert.True(t, apperr.Is(err, apperr.CodeOutOfRange), "index %d", idx)
	}
	assert.Equal(t, []string{"a", "b"}, m.Items())
	assert.Equal(t, before, stored(t, s))

	empty := loaded(t, memstore.New())
	assert.True(t, apperr.Is(empty.Delete(0), apperr.CodeOutOfRange))
}

func TestMarkupRoundTrip(t *testing.T) {
	s := memstore.New()
	m := loaded(t, s)
	text := `<script>alert(1)</script> & "quotes"`
	_, err := m.Add(text)
	require.NoError(t, err)
	assert.Equal(t, `["<script>alert(1)</script> & \"quotes\""]`, stored(t, s))

	items, err := NewManager(s).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{text}, items)
}

func TestItemsIsACopy(t *testing.T) {
	m := loaded(t, memstore.New())
	_, _ = m.Add("a")
	items := m.Items()
	items[0] = "mutated"
	assert.Equal(t, []string{"a"}, m.Items())
}

type brokenStore struct{ *memstore.Store }

func (brokenStore) Set(string, string) error { return apperr.StoreIO("write", errors.New("read-only")) }

func TestFailedPersistIsAtomic(t *testing.T) {
	inner := memstore.New()
	require.NoError(t, inner.Set(Key, `["a","b"]`))
	m := loaded(t, brokenStore{inner})

	_, err := m.Add("c")
	assert.True(t, apperr.Is(err, apperr.CodeStoreIO))
	assert.Equal(t, []string{"a", "b"}, m.Items())

	err = m.Delete(0)
	assert.True(t, apperr.Is(err, apperr.CodeStoreIO))
	assert.Equal(t, []string{"a", "b"}, m.Items())
}

// Sequence of adds and deletes, then a simulated restart against each backend.
func TestPersistReloadRoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) func() store.Store{
		"memory": func(t *testing.T) func() store.Store {
			s := memstore.New()
			return func() store.Store { return s }
		},
		"json": func(t *testing.T) func() store.Store {
			path := filepath.Join(t.TempDir(), jsonstore.DefaultFileName)
			return func() store.Store { return jsonstore.New(path) }
		},
		"sqlite": func(t *testing.T) func() store.Store {
			path := filepath.Join(t.TempDir(), sqlitestore.DefaultFileName)
			return func() store.Store {
				s, err := sqlitestore.Open(path)
				require.NoError(t, err)
				t.Cleanup(func() { s.Close() })
				return s
			}
		},
	}
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			open := mk(t)
			m := loaded(t, open())
			for _, text := range []string{"Buy milk", "Call mom", "  pay rent ", "", "water plants"} {
				_, _ = m.Add(text)
			}
			require.NoError(t, m.Delete(1))
			require.NoError(t, m.Delete(0))
			_, _ = m.Add("<i>late</i>")

			restarted := NewManager(open())
			items, err := restarted.Load()
			require.NoError(t, err)
			assert.Equal(t, m.Items(), items)
			assert.Equal(t, []string{"pay rent", "water plants", "<i>late</i>"}, items)
		})
	}
}
