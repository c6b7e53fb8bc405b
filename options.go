package squeeze

import (
	"log/slog"
)

// Default Writer settings.
const (
	// DefaultBlockSize is the uncompressed size of a block.
	DefaultBlockSize = 1 << 20
)

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

// writerConfig holds configuration for a Writer.
type writerConfig struct {
	compression  Compression
	blockSize    int
	streamBlocks int
	observers    []Observer
	sinkOpts     []SinkOption
}

// WithLogger sets a logger for the sink. By default, logging is disabled.
func WithLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserverErrorHandler sets a function that receives every observer
// failure as an *ObserverError. It runs on the encoding goroutine.
func WithObserverErrorHandler(fn func(error)) SinkOption {
	return func(s *Sink) {
		s.onError = fn
	}
}

// WithCompression sets the compression algorithm (gzip or zstd).
func WithCompression(c Compression) WriterOption {
	return func(cfg *writerConfig) {
		cfg.compression = c
	}
}

// WithBlockSize sets the uncompressed block size in bytes.
// Each block is flushed to the destination and reported separately.
func WithBlockSize(n int) WriterOption {
	return func(cfg *writerConfig) {
		cfg.blockSize = n
	}
}

// WithStreamBlocks starts a new independent stream every n blocks.
// Zero, the default, writes a single stream.
func WithStreamBlocks(n int) WriterOption {
	return func(cfg *writerConfig) {
		cfg.streamBlocks = n
	}
}

// WithObserver registers an observer before the first block is written.
func WithObserver(o Observer) WriterOption {
	return func(cfg *writerConfig) {
		cfg.observers = append(cfg.observers, o)
	}
}

// WithSinkOptions configures the Writer's embedded Sink.
func WithSinkOptions(opts ...SinkOption) WriterOption {
	return func(cfg *writerConfig) {
		cfg.sinkOpts = append(cfg.sinkOpts, opts...)
	}
}
