// Package store defines the key/value string storage the application persists
// its session flag and todo list in. Implementations live in subpackages.
package store

import "context"

// Store is a persistent string key/value store scoped to one application
// origin. A missing key is reported with ok == false, never as an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Watcher is implemented by stores that can report changes made by other
// processes sharing the same origin. The channel is closed when ctx ends.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Backend names accepted by configuration.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)
