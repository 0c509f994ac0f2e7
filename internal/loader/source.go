package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pierrec/lz4/v4"
)

const objectScheme = "s3://"

// Compression is a stream codec recognised by file suffix.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var compressionSuffixes = map[string]Compression{
	".gz":   CompressionGzip,
	".gzip": CompressionGzip,
	".zst":  CompressionZstd,
	".zstd": CompressionZstd,
	".lz4":  CompressionLZ4,
}

// SplitCompression returns the path without its compression suffix and the
// codec that suffix names.
func SplitCompression(path string) (string, Compression) {
	ext := strings.ToLower(filepath.Ext(path))
	if c, ok := compressionSuffixes[ext]; ok {
		return strings.TrimSuffix(path, filepath.Ext(path)), c
	}
	return path, CompressionNone
}

// IsObjectURL reports whether path names an object store key.
func IsObjectURL(path string) bool {
	return strings.HasPrefix(path, objectScheme)
}

// ParseObjectURL splits s3://bucket/key.
func ParseObjectURL(path string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(path, objectScheme)
	if !ok {
		return "", "", fmt.Errorf("not an object URL: %q", path)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("object URL %q needs a bucket and a key", path)
	}
	return bucket, key, nil
}

// open returns the raw (still compressed) bytes of path.
func (l *Loader) open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !IsObjectURL(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open vectors: %w", err)
		}
		return f, nil
	}

	bucket, key, err := ParseObjectURL(path)
	if err != nil {
		return nil, err
	}
	client, err := l.objectClient()
	if err != nil {
		return nil, err
	}
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}
	// GetObject is lazy; Stat surfaces missing keys and bad credentials here.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}
	return obj, nil
}

func (l *Loader) objectClient() (*minio.Client, error) {
	l.clientOnce.Do(func() {
		o := l.objectStore
		l.client, l.clientErr = minio.New(o.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
			Secure: o.UseSSLOrDefault(),
			Region: o.Region,
		})
		if l.clientErr != nil {
			l.clientErr = fmt.Errorf("failed to create object store client: %w", l.clientErr)
		}
	})
	return l.client, l.clientErr
}

// stackedCloser closes a decoder and then the stream it reads from.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type closeFunc func()

func (f closeFunc) Close() error { f(); return nil }

// Decompress wraps rc with a decoder for c. Closing the result closes rc.
func Decompress(rc io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return rc, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return &stackedCloser{Reader: dec, closers: []io.Closer{closeFunc(dec.Close), rc}}, nil
	case CompressionLZ4:
		return &stackedCloser{Reader: lz4.NewReader(rc), closers: []io.Closer{rc}}, nil
	default:
		_ = rc.Close()
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

// Compress wraps w with an encoder for c. The returned writer must be closed
// to flush the stream; it does not close w.
func Compress(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
