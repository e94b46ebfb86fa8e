// Package repository stores the shots of the current estimate.
package repository

import (
	"context"

	"github.com/okian/framecount/internal/domain/model"
)

// Store provides read/write access to the shot collection.
//
// Implementations keep insertion order: List and Names return shots in the
// order they were first inserted, and Update keeps a shot in its place.
type Store interface {
	// Insert appends a shot. Returns ErrDuplicateID if the id is taken.
	Insert(ctx context.Context, shot model.Shot) error

	// Get returns the shot with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Shot, error)

	// Update replaces the stored shot with the same id or returns ErrNotFound.
	Update(ctx context.Context, shot model.Shot) error

	// Delete removes a shot or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns every shot in insertion order.
	List(ctx context.Context) []model.Shot

	// Names returns every stored shot name in insertion order.
	Names(ctx context.Context) []string

	// Count returns the number of stored shots.
	Count(ctx context.Context) int

	// ReplaceAll swaps the whole collection in one step, e.g. after re-pricing.
	ReplaceAll(ctx context.Context, shots []model.Shot) error
}
