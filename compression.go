package squeeze

import (
	"github.com/meigma/squeeze/core"
)

// Compression provides compression/decompression for squeeze streams.
// This is a type alias for estargz.Compression, allowing custom implementations.
//
// Use GzipCompression or ZstdCompression for built-in implementations.
type Compression = core.Compression

// Format names a supported compression format.
type Format = core.Format

// Supported formats.
const (
	FormatGzip = core.FormatGzip
	FormatZstd = core.FormatZstd
)

// GzipCompression returns gzip compression (default).
func GzipCompression() Compression {
	return core.GzipCompression()
}

// ZstdCompression returns zstd compression.
func ZstdCompression() Compression {
	return core.ZstdCompression()
}

// ParseFormat parses a format name such as "gzip" or "zst".
func ParseFormat(name string) (Format, error) {
	return core.ParseFormat(name)
}

// CompressionFor returns the compression for a format at a numeric level.
// Level 0 selects the format default.
func CompressionFor(format Format, level int) (Compression, error) {
	return core.CompressionFor(format, level)
}
