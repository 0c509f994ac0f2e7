// Package models defines request and response types for word, similarity,
// and analogy queries.
package models

import "time"

// SpaceStatus describes the currently loaded embedding space.
type SpaceStatus struct {
	Loaded          bool      `json:"loaded"`
	Words           int       `json:"words"`
	Dimension       int       `json:"dimension"`
	Source          string    `json:"source,omitempty"`
	LoadedAt        time.Time `json:"loaded_at,omitempty"`
	SnapshotBytes   int64     `json:"snapshot_bytes,omitempty"`
	VocabularyIndex bool      `json:"vocabulary_index"`
}

// WordInfo is a resolved word and its vector.
type WordInfo struct {
	Query  string    `json:"query"`
	Word   string    `json:"word"`
	Exact  bool      `json:"exact"`
	Norm   float32   `json:"norm"`
	Vector []float32 `json:"vector,omitempty"`
}
