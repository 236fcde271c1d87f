// Package store keeps finished optimization runs so they can be fetched by
// ID after the request that produced them.
package store

import (
	"context"
	"errors"

	"offgrid-planner/internal/optimize"
)

var ErrNotFound = errors.New("result not found")

type Store interface {
	Put(ctx context.Context, r *optimize.Result) error
	// Get returns ErrNotFound for unknown or expired IDs.
	Get(ctx context.Context, id string) (*optimize.Result, error)
	Close() error
}
