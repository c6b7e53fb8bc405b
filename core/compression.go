package core

import (
	"compress/gzip"
	"fmt"
	"strings"

	"github.com/containerd/stargz-snapshotter/estargz"
	"github.com/containerd/stargz-snapshotter/estargz/zstdchunked"
	"github.com/klauspost/compress/zstd"
)

// Format names a supported compression format.
type Format string

// Supported formats.
const (
	FormatGzip Format = "gzip"
	FormatZstd Format = "zstd"
)

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatZstd:
		return ".zst"
	default:
		return ".gz"
	}
}

// ParseFormat parses a format name. Accepts "gzip", "gz", "zstd" and "zst".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gzip", "gz":
		return FormatGzip, nil
	case "zstd", "zst":
		return FormatZstd, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// gzipCompression implements estargz.Compression for gzip.
type gzipCompression struct {
	*estargz.GzipCompressor
	estargz.GzipDecompressor
}

// GzipCompression returns gzip compression at the default level.
func GzipCompression() Compression {
	return GzipCompressionLevel(gzip.DefaultCompression)
}

// GzipCompressionLevel returns gzip compression at the given level
// (gzip.HuffmanOnly through gzip.BestCompression).
func GzipCompressionLevel(level int) Compression {
	return &gzipCompression{
		GzipCompressor:   estargz.NewGzipCompressorWithLevel(level),
		GzipDecompressor: estargz.GzipDecompressor{},
	}
}

// zstdCompression implements estargz.Compression for zstd.
type zstdCompression struct {
	*zstdchunked.Compressor
	zstdchunked.Decompressor
}

// ZstdCompression returns zstd compression at the default level.
func ZstdCompression() Compression {
	return ZstdCompressionLevel(zstd.SpeedDefault)
}

// ZstdCompressionLevel returns zstd compression at the given encoder level.
func ZstdCompressionLevel(level zstd.EncoderLevel) Compression {
	return &zstdCompression{
		Compressor: &zstdchunked.Compressor{
			CompressionLevel: level,
		},
		Decompressor: zstdchunked.Decompressor{},
	}
}

// CompressionFor returns the compression for a format and numeric level.
// A level of 0 selects the format's default. For zstd the level is mapped
// with zstd.EncoderLevelFromZstd.
func CompressionFor(format Format, level int) (Compression, error) {
	switch format {
	case FormatGzip:
		if level == 0 {
			return GzipCompression(), nil
		}
		if level < gzip.HuffmanOnly || level > gzip.BestCompression {
			return nil, fmt.Errorf("%w: gzip level %d out of range", ErrInvalidOption, level)
		}
		return GzipCompressionLevel(level), nil
	case FormatZstd:
		if level == 0 {
			return ZstdCompression(), nil
		}
		if level < 0 {
			return nil, fmt.Errorf("%w: zstd level %d out of range", ErrInvalidOption, level)
		}
		return ZstdCompressionLevel(zstd.EncoderLevelFromZstd(level)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
