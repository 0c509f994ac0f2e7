// Package loader reads word2vec embedding files into a space.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/config"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/storage"
)

// ErrMalformed is returned when a vectors file cannot be parsed.
var ErrMalformed = errors.New("malformed vectors file")

// Format names a vectors file layout.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatText   Format = "text"
	FormatBinary Format = "binary"
	FormatSQLite Format = "sqlite"
)

// ParseFormat accepts a format name; empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatText, FormatBinary, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("unknown vectors format %q (want auto, text, binary or sqlite)", s)
	}
}

// DetectFormat picks a format from the file extension once any compression
// suffix is removed.
func DetectFormat(path string) Format {
	base, _ := SplitCompression(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".bin":
		return FormatBinary
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatText
	}
}

// Limits bounds how many words are read from a file.
type Limits struct {
	// Limit is an absolute word count; 0 means unset.
	Limit int
	// Fraction is a share of the header's word count, used when Limit is unset.
	Fraction float64
}

// apply returns how many entries to read from a file announcing count words.
func (l Limits) apply(count int) int {
	n := l.Limit
	if n <= 0 && l.Fraction > 0 {
		n = int(l.Fraction * float64(count))
	}
	if n > 0 && n < count {
		return n
	}
	return count
}

// Options select the format and limits of a single load.
type Options struct {
	Format Format
	Limits Limits
}

// Loader opens local or object store vectors files.
type Loader struct {
	objectStore config.ObjectStoreConfig
	spaceOpts   []space.Option
	logger      *zap.Logger

	clientOnce sync.Once
	client     *minio.Client
	clientErr  error
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a logger for load progress and skipped lines.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithObjectStore sets the credentials used for s3:// paths.
func WithObjectStore(cfg config.ObjectStoreConfig) Option {
	return func(ld *Loader) { ld.objectStore = cfg }
}

// WithSpaceOptions are passed to every space the loader builds.
func WithSpaceOptions(opts ...space.Option) Option {
	return func(ld *Loader) { ld.spaceOpts = append(ld.spaceOpts, opts...) }
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads path into a new space.
func (l *Loader) Load(ctx context.Context, path string, opts Options) (*space.Space, error) {
	start := time.Now()
	format := opts.Format
	if format == "" || format == FormatAuto {
		format = DetectFormat(path)
	}

	var (
		s   *space.Space
		err error
	)
	if format == FormatSQLite {
		s, err = l.loadSnapshot(ctx, path)
	} else {
		s, err = l.loadStream(ctx, path, format, opts.Limits)
	}
	if err != nil {
		return nil, err
	}

	if s.Len() == 0 {
		l.logger.Warn("no embeddings loaded", zap.String("path", path))
	}
	l.logger.Info("vectors loaded",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("words", s.Len()),
		zap.Int("dimension", s.Dimension()),
		zap.Duration("elapsed", time.Since(start)))
	return s, nil
}

func (l *Loader) loadStream(ctx context.Context, path string, format Format, lim Limits) (*space.Space, error) {
	raw, err := l.open(ctx, path)
	if err != nil {
		return nil, err
	}
	_, codec := SplitCompression(path)
	r, err := Decompress(raw, codec)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var (
		dim     int
		entries []space.Embedding
	)
	switch format {
	case FormatBinary:
		dim, entries, err = DecodeBinary(r, lim, l.logger)
	case FormatText:
		dim, entries, err = DecodeText(r, lim, l.logger)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return space.New(dim, entries, l.spaceOpts...), nil
}

// loadSnapshot opens a SQLite snapshot. Remote or compressed snapshots are
// first copied to a temporary file since SQLite needs a seekable file.
func (l *Loader) loadSnapshot(ctx context.Context, path string) (*space.Space, error) {
	dbPath := path
	if _, codec := SplitCompression(path); codec != CompressionNone || IsObjectURL(path) {
		tmp, err := l.fetchTemp(ctx, path, codec)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		dbPath = tmp
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	s, _, err := store.LoadSpace(ctx, l.spaceOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", path, err)
	}
	return s, nil
}

func (l *Loader) fetchTemp(ctx context.Context, path string, codec Compression) (string, error) {
	raw, err := l.open(ctx, path)
	if err != nil {
		return "", err
	}
	r, err := Decompress(raw, codec)
	if err != nil {
		return "", err
	}
	defer r.Close()

	f, err := os.CreateTemp("", "wordspace-*.db")
	if err != nil {
		return "", fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to copy snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Reloader returns a function that loads the configured vectors, suitable
// for search.WithReloader.
func (l *Loader) Reloader(cfg config.VectorsConfig) func(ctx context.Context) (*space.Space, string, error) {
	return func(ctx context.Context) (*space.Space, string, error) {
		format, err := ParseFormat(cfg.Format)
		if err != nil {
			return nil, "", err
		}
		s, err := l.Load(ctx, cfg.Path, Options{
			Format: format,
			Limits: Limits{Limit: cfg.Limit, Fraction: cfg.Fraction},
		})
		if err != nil {
			return nil, "", err
		}
		return s, cfg.Path, nil
	}
}

// WriteFile writes s to a local path in format, compressing by suffix.
// FormatAuto picks the format from the path.
func WriteFile(path string, s *space.Space, format Format) (err error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(path)
	}
	base, codec := SplitCompression(path)
	if format == FormatSQLite {
		if codec != CompressionNone {
			return fmt.Errorf("compressed snapshots are not written directly: %s", path)
		}
		store, err := storage.NewSQLiteStorage(base)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.SaveSpace(context.Background(), s, filepath.Base(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w, err := Compress(f, codec)
	if err != nil {
		return err
	}
	switch format {
	case FormatBinary:
		err = EncodeBinary(w, s)
	case FormatText:
		err = EncodeText(w, s)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
