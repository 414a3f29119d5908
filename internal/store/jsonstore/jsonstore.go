package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Makepad-fr/tada/internal/apperr"
	"github.com/Makepad-fr/tada/internal/logging"
)

// JSON-backed storage. Single file holding every key, human-readable.
// Each Set/Remove rewrites the whole file through a temp file + rename.
// No locking across processes: last writer wins.

const DefaultFileName = "storage.json"

var log = logging.NewLogger("jsonstore")

type Store struct {
	path string
}

// New returns a store backed by the file at path. The file is created lazily
// on the first write.
func New(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get(key string) (string, bool, error) {
	data, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

func (s *Store) Remove(key string) error {
	data, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.save(data)
}

func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, apperr.StoreIO("read", fmt.Errorf("read file: %w", err))
	}
	data := map[string]string{}
	if len(bytes.TrimSpace(b)) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, apperr.StoreCorrupt(s.path, fmt.Errorf("json unmarshal: %w", err))
	}
	if data == nil {
		data = map[string]string{}
	}
	return data, nil
}

func (s *Store) save(data map[string]string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return apperr.StoreIO("write", fmt.Errorf("json marshal: %w", err))
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperr.StoreIO("write", fmt.Errorf("mkdir: %w", err))
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return apperr.StoreIO("write", fmt.Errorf("create temp: %w", err))
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperr.StoreIO("write", fmt.Errorf("write file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperr.StoreIO("write", fmt.Errorf("close file: %w", err))
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return apperr.StoreIO("write", fmt.Errorf("chmod: %w", err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return apperr.StoreIO("write", fmt.Errorf("rename: %w", err))
	}
	return nil
}

// Watch reports changes to the backing file, including ones made by other
// processes. Bursts of events coalesce into a single pending notification.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperr.StoreIO("watch", fmt.Errorf("mkdir: %w", err))
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperr.StoreIO("watch", err)
	}
	// The directory is watched rather than the file so renames onto the path
	// keep being observed.
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, apperr.StoreIO("watch", fmt.Errorf("watch %s: %w", dir, err))
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != s.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
					!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("store watch error")
			}
		}
	}()
	return out, nil
}
