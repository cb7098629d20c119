package inmemory

import (
	"context"
	"sync"

	"github.com/PalMeany/l7-dstat/internal/errs"
	"github.com/PalMeany/l7-dstat/model"
	"github.com/PalMeany/l7-dstat/storage"
)

var _ storage.Storage = (*MemStorage)(nil)

// MemStorage keeps the latest snapshot for concurrent readers.
type MemStorage struct {
	snapshot model.Snapshot
	saved    bool
	mu       sync.RWMutex
}

func NewMemStorage() *MemStorage {
	return &MemStorage{}
}

func (store *MemStorage) Save(ctx context.Context, snap model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := snap.Clone()

	store.mu.Lock()
	defer store.mu.Unlock()

	store.snapshot = c
	store.saved = true
	return nil
}

// Publish saves snap, ignoring the result; it satisfies monitor.Publisher.
func (store *MemStorage) Publish(snap model.Snapshot) {
	_ = store.Save(context.Background(), snap)
}

func (store *MemStorage) Get(ctx context.Context) (model.Snapshot, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if !store.saved {
		return model.Snapshot{}, errs.ErrNoSnapshot
	}
	return store.snapshot.Clone(), nil
}

func (store *MemStorage) Ping(ctx context.Context) error {
	return nil
}
