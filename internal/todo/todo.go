// Package todo owns the ordered list of todo texts and its persistence.
//
// The list is stored as a JSON array of strings under a single key and every
// mutation rewrites the whole array. Entries are identified by position only,
// so deleting an entry shifts the indices of everything after it.
package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Makepad-fr/tada/internal/apperr"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/store"
)

// Key is the store key holding the list.
const Key = "todos"

var log = logging.NewLogger("todo")

type Manager struct {
	store store.Store
	items []string
	// corrupt holds the decode error of the last Load; mutations are refused
	// while it is set so the stored value is never overwritten.
	corrupt error
}

// NewManager returns an empty manager; call Load to hydrate it.
func NewManager(s store.Store) *Manager {
	return &Manager{store: s, items: []string{}}
}

// Load reads the list from the store and replaces the in-memory copy. An
// absent key yields an empty list. Undecodable data is reported as
// STORE_CORRUPT, leaves the in-memory list as it was and blocks Add and
// Delete until a later Load succeeds.
func (m *Manager) Load() ([]string, error) {
	raw, ok, err := m.store.Get(Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		m.items, m.corrupt = []string{}, nil
		return m.Items(), nil
	}
	items, err := decode(raw)
	if err != nil {
		log.WithError(err).Error("stored todo list is corrupt")
		m.corrupt = err
		return nil, apperr.StoreCorrupt(Key, err)
	}
	m.items, m.corrupt = items, nil
	return m.Items(), nil
}

// Corrupt reports whether the last Load found undecodable data.
func (m *Manager) Corrupt() bool { return m.corrupt != nil }

// Add trims text and appends it. Empty text is rejected without touching
// the store. Invalid UTF-8 is replaced with U+FFFD before storing, so the
// list in memory matches what a reload returns. It returns the index of the
// new entry.
func (m *Manager) Add(text string) (int, error) {
	if m.corrupt != nil {
		return 0, apperr.StoreCorrupt(Key, m.corrupt)
	}
	text = normalize(text)
	if text == "" {
		return 0, apperr.Rejected()
	}
	next := make([]string, len(m.items), len(m.items)+1)
	copy(next, m.items)
	next = append(next, text)
	if err := m.persist(next); err != nil {
		return 0, err
	}
	m.items = next
	return len(next) - 1, nil
}

// Delete removes the entry at index and shifts later entries down.
func (m *Manager) Delete(index int) error {
	if m.corrupt != nil {
		return apperr.StoreCorrupt(Key, m.corrupt)
	}
	if index < 0 || index >= len(m.items) {
		return apperr.OutOfRange(index, len(m.items))
	}
	next := make([]string, 0, len(m.items)-1)
	next = append(next, m.items[:index]...)
	next = append(next, m.items[index+1:]...)
	if err := m.persist(next); err != nil {
		return err
	}
	m.items = next
	return nil
}

// normalize trims surrounding whitespace, including the byte order mark,
// and makes text valid UTF-8.
func normalize(text string) string {
	text = strings.ToValidUTF8(text, "\uFFFD")
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

func (m *Manager) Count() int { return len(m.items) }

// Items returns a copy of the current list.
func (m *Manager) Items() []string {
	out := make([]string, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) persist(items []string) error {
	raw, err := encode(items)
	if err != nil {
		return fmt.Errorf("encode todos: %w", err)
	}
	return m.store.Set(Key, raw)
}

// encode writes compact JSON without HTML escaping so markup-like text is
// stored exactly as typed.
func encode(items []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decode(raw string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, errors.New("todos is not an array")
	}
	return items, nil
}
