package vocab

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

const (
	fieldLower = "lower"
	fieldRank  = "rank"

	fingerprintKey = "vocab_fingerprint"
	batchSize      = 5000
)

// BleveIndex implements WordIndex using Bleve. Each unique word is one
// document whose ID is the word itself.
type BleveIndex struct {
	path string

	mu    sync.RWMutex
	index bleve.Index
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	wordMapping := bleve.NewDocumentMapping()
	wordMapping.Dynamic = false
	// keyword analyzer: words are matched whole, only case folded at index time
	lower := bleve.NewKeywordFieldMapping()
	lower.IncludeInAll = false
	wordMapping.AddFieldMappingsAt(fieldLower, lower)
	rank := bleve.NewNumericFieldMapping()
	rank.IncludeInAll = false
	wordMapping.AddFieldMappingsAt(fieldRank, rank)

	im.DefaultMapping = wordMapping
	return im
}

// NewBleveIndex opens the index at path, or creates an empty one. An empty
// path keeps the index in memory.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{path: path, index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{path: path, index: index}, nil
}

func fingerprint(words []string) string {
	h := fnv.New64a()
	for _, w := range words {
		_, _ = h.Write([]byte(w))
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16) + "-" + strconv.Itoa(len(words))
}

// Rebuild indexes words, first occurrence ranked first. It is a no-op when
// the index already holds exactly this vocabulary. Queries keep using the
// previous index until the new one is complete.
func (b *BleveIndex) Rebuild(ctx context.Context, words []string) error {
	fp := fingerprint(words)
	b.mu.RLock()
	current, _ := b.index.GetInternal([]byte(fingerprintKey))
	b.mu.RUnlock()
	if string(current) == fp {
		return nil
	}

	buildPath := ""
	if b.path != "" {
		buildPath = b.path + ".building"
		if err := os.RemoveAll(buildPath); err != nil {
			return err
		}
	}

	var (
		next bleve.Index
		err  error
	)
	if buildPath == "" {
		next, err = bleve.NewMemOnly(newMapping())
	} else {
		next, err = bleve.New(buildPath, newMapping())
	}
	if err != nil {
		return fmt.Errorf("failed to create Bleve index: %w", err)
	}
	if err := fill(ctx, next, words); err != nil {
		_ = next.Close()
		return err
	}
	if err := next.SetInternal([]byte(fingerprintKey), []byte(fp)); err != nil {
		_ = next.Close()
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if buildPath == "" {
		old := b.index
		b.index = next
		return old.Close()
	}

	if err := next.Close(); err != nil {
		return err
	}
	if err := b.index.Close(); err != nil {
		return err
	}
	if err := os.RemoveAll(b.path); err != nil {
		return err
	}
	if err := os.Rename(buildPath, b.path); err != nil {
		return fmt.Errorf("failed to move rebuilt index: %w", err)
	}
	b.index, err = bleve.Open(b.path)
	if err != nil {
		return fmt.Errorf("failed to open Bleve index: %w", err)
	}
	return nil
}

func fill(ctx context.Context, index bleve.Index, words []string) error {
	batch := index.NewBatch()
	seen := make(map[string]struct{}, len(words))
	for rank, w := range words {
		if _, ok := seen[w]; ok || w == "" {
			continue
		}
		seen[w] = struct{}{}
		doc := map[string]interface{}{
			fieldLower: strings.ToLower(w),
			fieldRank:  float64(rank),
		}
		if err := batch.Index(w, doc); err != nil {
			return fmt.Errorf("failed to index %q: %w", w, err)
		}
		if batch.Size() >= batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index batch: %w", err)
		}
	}
	return nil
}

// Prefix returns up to limit words starting with prefix, ignoring case,
// most frequent first.
func (b *BleveIndex) Prefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	q := bleve.NewPrefixQuery(strings.ToLower(prefix))
	q.SetField(fieldLower)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.SortBy([]string{fieldRank, "_id"})
	return b.search(ctx, req)
}

// Fuzzy returns up to limit words within fuzziness edits of term, closest
// first and then most frequent.
func (b *BleveIndex) Fuzzy(ctx context.Context, term string, fuzziness, limit int) ([]string, error) {
	q := bleve.NewFuzzyQuery(strings.ToLower(term))
	q.SetField(fieldLower)
	q.SetFuzziness(fuzziness)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.SortBy([]string{"-_score", fieldRank, "_id"})
	return b.search(ctx, req)
}

func (b *BleveIndex) search(ctx context.Context, req *bleve.SearchRequest) ([]string, error) {
	if req.Size <= 0 {
		return nil, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]string, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = hit.ID
	}
	return out, nil
}

// DocCount returns the number of indexed words.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}
