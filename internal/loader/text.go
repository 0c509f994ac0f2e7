package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vector"
)

// maxDimension bounds the vector length a header may declare.
const maxDimension = 1 << 16

// maxPrealloc bounds how many entries are allocated before any are read;
// the slice grows past it as lines arrive.
const maxPrealloc = 1 << 16

// header is the "count dimension" first line shared by both word2vec formats.
type header struct {
	count     int
	dimension int
}

func parseHeader(line string) (header, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return header{}, fmt.Errorf("%w: header %q is not \"count dimension\"", ErrMalformed, strings.TrimSpace(line))
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return header{}, fmt.Errorf("%w: bad word count %q", ErrMalformed, fields[0])
	}
	dim, err := strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return header{}, fmt.Errorf("%w: bad dimension %q", ErrMalformed, fields[1])
	}
	if dim > maxDimension {
		return header{}, fmt.Errorf("%w: dimension %d exceeds %d", ErrMalformed, dim, maxDimension)
	}
	return header{count: count, dimension: dim}, nil
}

// readLine returns the next line without its terminator. io.EOF is only
// returned when no bytes were left.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// DecodeText reads the word2vec text format: a "count dimension" header
// followed by one "word c1 c2 ... cd" line per word. Empty lines are ignored
// and lines with the wrong number of components are skipped. A line with no
// separator ends the read.
func DecodeText(r io.Reader, lim Limits, logger *zap.Logger) (int, []space.Embedding, error) {
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

	entries := make([]space.Embedding, 0, min(want, maxPrealloc))
	lineNo, read, skipped := 1, 0, 0
	for read < want {
		line, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, nil, fmt.Errorf("failed to read line %d: %w", lineNo+1, err)
		}
		lineNo++
		if line == "" {
			continue
		}
		read++

		word, rest, ok := strings.Cut(line, " ")
		if !ok {
			logger.Warn("vectors file does not appear to be space separated, stopping",
				zap.Int("line", lineNo))
			break
		}

		components, err := parseComponents(rest, h.dimension)
		if err != nil {
			skipped++
			logger.Warn("skipping malformed line",
				zap.Int("line", lineNo),
				zap.String("word", word),
				zap.Error(err))
			continue
		}
		entries = append(entries, space.Embedding{Word: word, Vector: vector.New(components)})
	}

	if skipped > 0 {
		logger.Info("malformed lines skipped", zap.Int("count", skipped))
	}
	return h.dimension, entries, nil
}

func parseComponents(s string, dimension int) ([]float32, error) {
	fields := strings.Fields(s)
	if len(fields) != dimension {
		return nil, fmt.Errorf("%d components, want %d", len(fields), dimension)
	}
	out := make([]float32, dimension)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// EncodeText writes s in the word2vec text format.
func EncodeText(w io.Writer, s *space.Space) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", s.Len(), s.Dimension()); err != nil {
		return err
	}
	var buf []byte
	for i := 0; i < s.Len(); i++ {
		e := s.At(i)
		buf = append(buf[:0], e.Word...)
		for j := 0; j < e.Vector.Len(); j++ {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, float64(e.Vector.At(j)), 'g', -1, 32)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
