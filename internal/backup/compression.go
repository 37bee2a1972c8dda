package backup

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType identifies a compression algorithm
type CompressionType string

const (
	CompressionTypeNone CompressionType = "NONE"
	CompressionTypeGzip CompressionType = "GZIP"
	CompressionTypeZstd CompressionType = "ZSTD"
	CompressionTypeLZ4  CompressionType = "LZ4"
)

// Compressor wraps a destination writer with a compressing writer. The
// export stream is piped through it so artifacts are compressed without
// buffering the whole dump in memory.
type Compressor interface {
	// NewWriter returns a compressing writer around w. Close must be called
	// to flush the compressed stream.
	NewWriter(w io.Writer, level int) (io.WriteCloser, error)

	// Algorithm returns the compression type
	Algorithm() CompressionType

	// Extension returns the filename extension contributed by this
	// algorithm, without a leading dot ("gz", "zst", "lz4", "").
	Extension() string

	// DefaultLevel returns the level used when none is configured
	DefaultLevel() int
}

// GzipCompressor implements Compressor using klauspost/compress gzip
type GzipCompressor struct{}

func (g *GzipCompressor) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	// Level 0 means "unconfigured" here, not gzip's NoCompression.
	if level <= 0 || level > gzip.BestCompression {
		level = g.DefaultLevel()
	}
	zw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil, NewCompressionError("failed to create gzip writer", err)
	}
	return zw, nil
}

func (g *GzipCompressor) Algorithm() CompressionType { return CompressionTypeGzip }
func (g *GzipCompressor) Extension() string          { return "gz" }
func (g *GzipCompressor) DefaultLevel() int          { return gzip.DefaultCompression }

// ZstdCompressor implements Compressor using klauspost/compress zstd
type ZstdCompressor struct{}

func (z *ZstdCompressor) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	encLevel := zstd.EncoderLevelFromZstd(level)
	if level <= 0 {
		encLevel = zstd.SpeedDefault
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, NewCompressionError("failed to create zstd writer", err)
	}
	return zw, nil
}

func (z *ZstdCompressor) Algorithm() CompressionType { return CompressionTypeZstd }
func (z *ZstdCompressor) Extension() string          { return "zst" }
func (z *ZstdCompressor) DefaultLevel() int          { return 3 }

// LZ4Compressor implements Compressor using pierrec/lz4
type LZ4Compressor struct{}

func (l *LZ4Compressor) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	// The lz4 frame writer's default level favors speed, which matches the
	// use case of large dump streams.
	return lz4.NewWriter(w), nil
}

func (l *LZ4Compressor) Algorithm() CompressionType { return CompressionTypeLZ4 }
func (l *LZ4Compressor) Extension() string          { return "lz4" }
func (l *LZ4Compressor) DefaultLevel() int          { return 0 }

// NopCompressor implements Compressor with no compression
type NopCompressor struct{}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func (n *NopCompressor) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (n *NopCompressor) Algorithm() CompressionType { return CompressionTypeNone }
func (n *NopCompressor) Extension() string          { return "" }
func (n *NopCompressor) DefaultLevel() int          { return 0 }

// NewCompressor returns the compressor for the configured algorithm name.
// An empty name selects gzip.
func NewCompressor(algorithm string) (Compressor, error) {
	switch strings.ToLower(algorithm) {
	case "", "gzip":
		return &GzipCompressor{}, nil
	case "zstd":
		return &ZstdCompressor{}, nil
	case "lz4":
		return &LZ4Compressor{}, nil
	case "none":
		return &NopCompressor{}, nil
	default:
		return nil, NewCompressionError(
			fmt.Sprintf("unsupported compression algorithm: %s", algorithm), nil)
	}
}
