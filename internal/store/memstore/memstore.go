package memstore

import "sync"

// Store keeps values in process memory. Nothing survives a restart, which
// makes it the fake of choice for tests.
type Store struct {
	sync.RWMutex
	inner map[string]string
}

func New() *Store {
	return &Store{
		inner: make(map[string]string),
	}
}

func (s *Store) Get(key string) (string, bool, error) {
	s.RLock()
	val, ok := s.inner[key]
	s.RUnlock()
	return val, ok, nil
}

func (s *Store) Set(key, value string) error {
	s.Lock()
	s.inner[key] = value
	s.Unlock()
	return nil
}

func (s *Store) Remove(key string) error {
	s.Lock()
	delete(s.inner, key)
	s.Unlock()
	return nil
}

// Snapshot returns a copy of every key currently held.
func (s *Store) Snapshot() map[string]string {
	s.RLock()
	defer s.RUnlock()
	out := make(map[string]string, len(s.inner))
	for k, v := range s.inner {
		out[k] = v
	}
	return out
}
