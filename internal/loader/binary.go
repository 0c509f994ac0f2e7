package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vector"
)

// sentenceEnd is the end-of-sentence token word2vec writes as its first word.
const sentenceEnd = "</s>"

// DecodeBinary reads the word2vec binary format: a "count dimension" text
// header, then for each word the word, a space, and dimension little-endian
// float32 values, usually followed by a newline. A leading </s> entry is
// skipped but counts towards the limit.
func DecodeBinary(r io.Reader, lim Limits, logger *zap.Logger) (int, []space.Embedding, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	br := bufio.NewReaderSize(r, 1<<16)

	first, err := readLine(br)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read header: %w", err)
	}
	h, err := parseHeader(first)
	if err != nil {
		return 0, nil, err
	}
	want := lim.apply(h.count)

	buf := make([]byte, h.dimension*vector.ComponentSize)
	entries := make([]space.Embedding, 0, min(want, maxPrealloc))
	for read := 0; read < want; read++ {
		word, err := br.ReadString(' ')
		if errors.Is(err, io.EOF) && strings.TrimSpace(word) == "" {
			break
		}
		if err != nil {
			return 0, nil, fmt.Errorf("%w: entry %d: %v", ErrMalformed, read, err)
		}
		word = strings.TrimLeft(strings.TrimSuffix(word, " "), "\n")

		if _, err := io.ReadFull(br, buf); err != nil {
			return 0, nil, fmt.Errorf("%w: vector of %q: %v", ErrMalformed, word, err)
		}
		if next, err := br.Peek(1); err == nil && next[0] == '\n' {
			_, _ = br.Discard(1)
		}

		if read == 0 && word == sentenceEnd {
			logger.Debug("skipping sentence end token")
			continue
		}
		entries = append(entries, space.Embedding{Word: word, Vector: vector.FromBytes(buf)})
	}
	return h.dimension, entries, nil
}

// EncodeBinary writes s in the word2vec binary format.
func EncodeBinary(w io.Writer, s *space.Space) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", s.Len(), s.Dimension()); err != nil {
		return err
	}
	for i := 0; i < s.Len(); i++ {
		e := s.At(i)
		if _, err := bw.WriteString(e.Word + " "); err != nil {
			return err
		}
		if _, err := bw.Write(e.Vector.Bytes()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
