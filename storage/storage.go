// Package storage defines where published dashboard snapshots are kept.
package storage

import (
	"context"

	"github.com/PalMeany/l7-dstat/model"
)

type Storage interface {
	Save(ctx context.Context, snap model.Snapshot) error
	Get(ctx context.Context) (model.Snapshot, error)
	Ping(ctx context.Context) error
}
