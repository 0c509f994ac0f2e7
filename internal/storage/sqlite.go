package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vector"
)

// ErrNoSnapshot is returned when the database holds no saved space.
var ErrNoSnapshot = errors.New("no snapshot stored")

const (
	metaDimension = "dimension"
	metaWords     = "words"
	metaSource    = "source"
	metaCreatedAt = "created_at"

	// maxPrealloc bounds the entries allocated from the stored word count
	maxPrealloc = 1 << 16
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS embeddings (
		position INTEGER PRIMARY KEY,
		word TEXT NOT NULL,
		vector BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_word ON embeddings(word);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSpace replaces the stored snapshot with s in one transaction.
func (s *SQLiteStorage) SaveSpace(ctx context.Context, sp *space.Space, source string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meta`); err != nil {
		return fmt.Errorf("failed to clear meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embeddings (position, word, vector) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < sp.Len(); i++ {
		e := sp.At(i)
		if _, err := stmt.ExecContext(ctx, i, e.Word, e.Vector.Bytes()); err != nil {
			return fmt.Errorf("failed to store %q: %w", e.Word, err)
		}
	}

	meta := map[string]string{
		metaDimension: strconv.Itoa(sp.Dimension()),
		metaWords:     strconv.Itoa(sp.Len()),
		metaSource:    source,
		metaCreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to store meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Info reads the snapshot metadata.
func (s *SQLiteStorage) Info(ctx context.Context) (*SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, ok := meta[metaDimension]; !ok {
		return nil, ErrNoSnapshot
	}

	info := &SnapshotInfo{Source: meta[metaSource]}
	if info.Dimension, err = strconv.Atoi(meta[metaDimension]); err != nil {
		return nil, fmt.Errorf("invalid snapshot dimension: %w", err)
	}
	if info.Words, err = strconv.Atoi(meta[metaWords]); err != nil {
		return nil, fmt.Errorf("invalid snapshot word count: %w", err)
	}
	if info.Dimension <= 0 || info.Words < 0 {
		return nil, fmt.Errorf("invalid snapshot shape %d x %d", info.Words, info.Dimension)
	}
	if ts := meta[metaCreatedAt]; ts != "" {
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("invalid snapshot timestamp: %w", err)
		}
	}
	return info, nil
}

// LoadSpace reads every stored embedding in position order.
func (s *SQLiteStorage) LoadSpace(ctx context.Context, opts ...space.Option) (*space.Space, *SnapshotInfo, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT word, vector FROM embeddings ORDER BY position`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	want := info.Dimension * vector.ComponentSize
	entries := make([]space.Embedding, 0, min(info.Words, maxPrealloc))
	for rows.Next() {
		var word string
		var blob []byte
		if err := rows.Scan(&word, &blob); err != nil {
			return nil, nil, err
		}
		if len(blob) != want {
			return nil, nil, fmt.Errorf("snapshot vector for %q has %d bytes, want %d", word, len(blob), want)
		}
		entries = append(entries, space.Embedding{Word: word, Vector: vector.FromBytes(blob)})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return space.New(info.Dimension, entries, opts...), info, nil
}

// LookupWord returns the first stored entry named word.
func (s *SQLiteStorage) LookupWord(ctx context.Context, word string) (space.Embedding, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE word = ? ORDER BY position LIMIT 1`, word,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return space.Embedding{}, fmt.Errorf("%w: %q", space.ErrNotFound, word)
	}
	if err != nil {
		return space.Embedding{}, err
	}
	return space.Embedding{Word: word, Vector: vector.FromBytes(blob)}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
