package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/storetest"
)

var _ store.Store = (*Store)(nil)

func TestContract(t *testing.T) {
	storetest.Run(t, New())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	_ = s.Set("a", "1")
	snap := s.Snapshot()
	snap["a"] = "changed"
	v, _, _ := s.Get("a")
	assert.Equal(t, "1", v)
}
