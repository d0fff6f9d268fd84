// Package store persists judge records keyed by their external identifier.
package store

import (
	"context"
	"errors"

	"github.com/tabscout/tabscout/pkg/models"
)

// ErrNotFound is returned by Get for an unknown judge ID.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract the pipeline writes through. Writes are
// serialized by the caller (a single writer goroutine); implementations only
// need to survive a process restart.
type Store interface {
	// Upsert inserts or replaces the record with judge.ID as the key.
	Upsert(ctx context.Context, judge models.Judge) error
	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Judge, error)
	// List returns all records.
	List(ctx context.Context) ([]models.Judge, error)
	// Remove deletes one record. Removal is always explicit and manual;
	// the pipeline never calls this.
	Remove(ctx context.Context, id string) error
}
