// Package storage defines the persistence interface for embedding space snapshots.
package storage

import (
	"context"
	"time"

	"github.com/hyperjump/wordspace/internal/space"
)

// SnapshotInfo describes a stored space.
type SnapshotInfo struct {
	Words     int       `json:"words"`
	Dimension int       `json:"dimension"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage persists a loaded space so it can be reopened without parsing the
// source vectors file.
type Storage interface {
	// SaveSpace replaces the stored snapshot with s.
	SaveSpace(ctx context.Context, s *space.Space, source string) error
	// LoadSpace reads the snapshot back in store order.
	LoadSpace(ctx context.Context, opts ...space.Option) (*space.Space, *SnapshotInfo, error)
	// Info describes the snapshot without reading vectors.
	Info(ctx context.Context) (*SnapshotInfo, error)
	// LookupWord returns the stored vector of the first entry named word.
	LookupWord(ctx context.Context, word string) (space.Embedding, error)

	Close() error
}
