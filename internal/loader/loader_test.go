package loader

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/wordspace/internal/config"
	"github.com/hyperjump/wordspace/internal/space"
	"github.com/hyperjump/wordspace/internal/vector"
)

func sampleSpace() *space.Space {
	e := func(w string, c ...float32) space.Embedding {
		return space.Embedding{Word: w, Vector: vector.New(c)}
	}
	return space.New(3, []space.Embedding{
		e("king", 0.9, 0.1, 0.25),
		e("queen", 0.85, -0.15, 0.3),
		e("man", 0.1, 0.95, -0.05),
		e("woman", 0.05, 0.7, 0.6),
	})
}

func assertSameSpace(t *testing.T, want, got *space.Space) {
	t.Helper()
	require.Equal(t, want.Dimension(), got.Dimension())
	require.Equal(t, want.Len(), got.Len())
	for i := 0; i < want.Len(); i++ {
		assert.Equal(t, want.At(i).Word, got.At(i).Word)
		assert.True(t, want.At(i).Vector.Equal(got.At(i).Vector), "vector of %s", want.At(i).Word)
	}
}

func binaryEntry(word string, c ...float32) []byte {
	b := []byte(word + " ")
	for _, f := range c {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func TestDecodeText(t *testing.T) {
	in := "4 2\n" +
		"a 1 0\n" +
		"\n" +
		"b 0.5 0.5\n" +
		"c 1\n" +
		"d 0 1\n"

	dim, entries, err := DecodeText(strings.NewReader(in), Limits{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)
	words := make([]string, len(entries))
	for i, e := range entries {
		words[i] = e.Word
	}
	assert.Equal(t, []string{"a", "b", "d"}, words)
	assert.InDelta(t, 0.5, entries[1].Vector.At(1), 1e-6)
}

func TestDecodeTextLimits(t *testing.T) {
	in := "4 1\na 1\nb 2\nc 3\nd 4\n"

	_, entries, err := DecodeText(strings.NewReader(in), Limits{Limit: 2}, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, entries, err = DecodeText(strings.NewReader(in), Limits{Fraction: 0.75}, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// a limit past the header count reads everything
	_, entries, err = DecodeText(strings.NewReader(in), Limits{Limit: 10}, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestDecodeTextMalformedLineCountsTowardsLimit(t *testing.T) {
	in := "3 2\na 1 0\nbad 1\nc 0 1\n"
	_, entries, err := DecodeText(strings.NewReader(in), Limits{Limit: 2}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Word)
}

func TestDecodeTextStopsWithoutSeparator(t *testing.T) {
	in := "3 2\na 1 0\nb\tstuff\nc 0 1\n"
	_, entries, err := DecodeText(strings.NewReader(in), Limits{}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Word)
}

func TestDecodeTextBadHeader(t *testing.T) {
	for _, in := range []string{"", "3\n", "x 2\n", "3 0\n", "3 2 1\n"} {
		_, _, err := DecodeText(strings.NewReader(in), Limits{}, nil)
		assert.Error(t, err, "input %q", in)
	}
	_, _, err := DecodeText(strings.NewReader("3\n"), Limits{}, nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeOversizedHeader(t *testing.T) {
	// a huge count only bounds how much is read
	dim, entries, err := DecodeText(strings.NewReader("9223372036854775807 3\nfoo 1 2 3\n"), Limits{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, dim)
	require.Len(t, entries, 1)
	assert.Equal(t, "foo", entries[0].Word)

	var buf bytes.Buffer
	buf.WriteString("9223372036854775807 2\n")
	buf.Write(binaryEntry("a", 1, 2))
	_, entries, err = DecodeBinary(&buf, Limits{}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	for _, in := range []string{"1 9223372036854775807\n", "1 65537\n"} {
		_, _, err = DecodeText(strings.NewReader(in), Limits{}, nil)
		assert.ErrorIs(t, err, ErrMalformed, "text %q", in)
		_, _, err = DecodeBinary(strings.NewReader(in), Limits{}, nil)
		assert.ErrorIs(t, err, ErrMalformed, "binary %q", in)
	}
}

func TestDecodeBinary(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("3 2\n")
	buf.Write(binaryEntry("</s>", 0, 0))
	buf.WriteByte('\n')
	buf.Write(binaryEntry("a", 1, 0.5))
	buf.WriteByte('\n')
	buf.Write(binaryEntry("b", -1, 2))

	dim, entries, err := DecodeBinary(bytes.NewReader(buf.Bytes()), Limits{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Word)
	assert.Equal(t, []float32{1, 0.5}, entries[0].Vector.Components())
	assert.Equal(t, "b", entries[1].Word)
	assert.Equal(t, []float32{-1, 2}, entries[1].Vector.Components())

	// the skipped sentence token still counts towards the limit
	_, entries, err = DecodeBinary(bytes.NewReader(buf.Bytes()), Limits{Limit: 2}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Word)
}

func TestDecodeBinaryTruncated(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("1 2\n")
	buf.Write(binaryEntry("a", 1, 2)[:5])
	_, _, err := DecodeBinary(&buf, Limits{}, nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleSpace()

	var text bytes.Buffer
	require.NoError(t, EncodeText(&text, want))
	dim, entries, err := DecodeText(&text, Limits{}, nil)
	require.NoError(t, err)
	assertSameSpace(t, want, space.New(dim, entries))

	var bin bytes.Buffer
	require.NoError(t, EncodeBinary(&bin, want))
	dim, entries, err = DecodeBinary(&bin, Limits{}, nil)
	require.NoError(t, err)
	assertSameSpace(t, want, space.New(dim, entries))
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"vectors.txt":       FormatText,
		"vectors.vec":       FormatText,
		"vectors.bin":       FormatBinary,
		"vectors.bin.gz":    FormatBinary,
		"vectors.txt.zst":   FormatText,
		"space.db":          FormatSQLite,
		"space.sqlite.lz4":  FormatSQLite,
		"s3://b/glove.bin":  FormatBinary,
		"GoogleNews.BIN.GZ": FormatBinary,
		"vectors":           FormatText,
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectFormat(path), path)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)
	f, err = ParseFormat(" Binary ")
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, f)
	_, err = ParseFormat("glove")
	assert.Error(t, err)
}

func TestParseObjectURL(t *testing.T) {
	bucket, key, err := ParseObjectURL("s3://models/en/vectors.bin.gz")
	require.NoError(t, err)
	assert.Equal(t, "models", bucket)
	assert.Equal(t, "en/vectors.bin.gz", key)

	for _, bad := range []string{"/tmp/x", "s3://", "s3://bucket", "s3://bucket/"} {
		_, _, err := ParseObjectURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	want := sampleSpace()
	ld := New()
	ctx := context.Background()

	for _, name := range []string{
		"vectors.txt",
		"vectors.bin",
		"vectors.txt.gz",
		"vectors.bin.zst",
		"vectors.txt.lz4",
		"space.db",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, want, FormatAuto))
			got, err := ld.Load(ctx, path, Options{})
			require.NoError(t, err)
			assertSameSpace(t, want, got)
		})
	}
}

func TestLoadCompressedSnapshot(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "space.db")
	require.NoError(t, WriteFile(db, sampleSpace(), FormatSQLite))

	raw, err := os.ReadFile(db)
	require.NoError(t, err)
	gzPath := db + ".gz"
	f, err := os.Create(gzPath)
	require.NoError(t, err)
	w, err := Compress(f, CompressionGzip)
	require.NoError(t, err)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	got, err := New().Load(context.Background(), gzPath, Options{})
	require.NoError(t, err)
	assertSameSpace(t, sampleSpace(), got)
}

func TestLoadExplicitFormatAndLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.data")
	require.NoError(t, WriteFile(path, sampleSpace(), FormatBinary))

	got, err := New().Load(context.Background(), path, Options{
		Format: FormatBinary,
		Limits: Limits{Limit: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, "queen", got.At(1).Word)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = New().Load(context.Background(), filepath.Join(t.TempDir(), "nope.db"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReloader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, WriteFile(path, sampleSpace(), FormatText))

	reload := New().Reloader(config.VectorsConfig{Path: path, Fraction: 0.5})
	s, source, err := reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Equal(t, 2, s.Len())

	bad := New().Reloader(config.VectorsConfig{Path: path, Format: "csv"})
	_, _, err = bad(context.Background())
	assert.Error(t, err)
}
