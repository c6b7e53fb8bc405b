package squeeze

import (
	_ "crypto/sha256" // registers digest.Canonical
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/squeeze/internal/progress"
)

// flushWriter is the encoder returned by Compression.Writer.
type flushWriter interface {
	io.WriteCloser
	Flush() error
}

// Writer compresses data into a block-based, multi-stream format.
//
// Input is cut into blocks of a fixed uncompressed size. Each block is
// compressed and flushed to the destination, recorded on the embedded Sink and
// reported to its observers. With WithStreamBlocks, the output is a
// concatenation of independent gzip members or zstd frames that standard
// decoders read back as one stream.
//
// A Writer is not safe for concurrent use. Observers may be registered and
// removed concurrently through the embedded Sink.
type Writer struct {
	*Sink

	compression  Compression
	blockSize    int
	streamBlocks int

	dst      *progress.Writer
	digester digest.Digester
	enc      flushWriter
	buf      []byte

	block        int
	stream       int
	uncompressed int64
	err          error
	closed       bool
}

// NewWriter returns a Writer that writes compressed data to w.
// Closing the Writer does not close w.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{
		compression: GzipCompression(),
		blockSize:   DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.compression == nil {
		return nil, fmt.Errorf("%w: compression is nil", ErrInvalidOption)
	}
	if cfg.blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidOption, cfg.blockSize)
	}
	if cfg.streamBlocks < 0 {
		return nil, fmt.Errorf("%w: stream blocks must not be negative, got %d", ErrInvalidOption, cfg.streamBlocks)
	}

	digester := digest.Canonical.Digester()
	sink := NewSink(cfg.sinkOpts...)
	for _, o := range cfg.observers {
		sink.Register(o)
	}

	return &Writer{
		Sink:         sink,
		compression:  cfg.compression,
		blockSize:    cfg.blockSize,
		streamBlocks: cfg.streamBlocks,
		dst:          progress.NewWriter(io.MultiWriter(w, digester.Hash())),
		digester:     digester,
		buf:          make([]byte, 0, cfg.blockSize),
	}, nil
}

// Write buffers p and emits every block it completes.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if w.err != nil {
		return 0, w.err
	}

	written := 0
	for len(p) > 0 {
		// A full block is only emitted once more input arrives, so Close
		// always has a final block to terminate.
		if len(w.buf) == w.blockSize {
			if err := w.emit(false); err != nil {
				return written, err
			}
		}
		n := copy(w.buf[len(w.buf):w.blockSize], p)
		w.buf = w.buf[:len(w.buf)+n]
		p = p[n:]
		written += n
		w.uncompressed += int64(n)
	}
	return written, nil
}

// Close emits the final block and terminates the current stream.
// Close is idempotent; the destination is left open.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	return w.emit(true)
}

// Digest returns the digest of the compressed bytes written so far.
// After Close it identifies the complete output.
func (w *Writer) Digest() digest.Digest {
	return w.digester.Digest()
}

// UncompressedBytes returns the bytes accepted by Write so far.
func (w *Writer) UncompressedBytes() int64 {
	return w.uncompressed
}

// Streams returns the number of streams started so far.
func (w *Writer) Streams() int {
	if w.enc != nil || w.block > 0 {
		return w.stream + 1
	}
	return w.stream
}

// emit compresses the buffered block, commits it to the destination and
// reports it. The stream is terminated when final is set or the block
// completes the configured stream length.
func (w *Writer) emit(final bool) error {
	if w.enc == nil {
		enc, err := w.compression.Writer(w.dst)
		if err != nil {
			return w.fail(fmt.Errorf("start stream %d: %w", w.stream, err))
		}
		w.enc = enc
		w.logger.Debug("stream started", "sink", w.id, "stream", w.stream)
	}

	if _, err := w.enc.Write(w.buf); err != nil {
		return w.fail(fmt.Errorf("compress block %d of stream %d: %w", w.block, w.stream, err))
	}

	endStream := final || (w.streamBlocks > 0 && w.block+1 == w.streamBlocks)
	if endStream {
		if err := w.enc.Close(); err != nil {
			return w.fail(fmt.Errorf("close stream %d: %w", w.stream, err))
		}
		w.enc = nil
	} else if err := w.enc.Flush(); err != nil {
		return w.fail(fmt.Errorf("flush block %d of stream %d: %w", w.block, w.stream, err))
	}

	n := w.dst.Drain()
	if err := w.RecordWritten(n); err != nil {
		return w.fail(err)
	}
	w.ReportProgress(w.block, w.stream, n)
	w.buf = w.buf[:0]

	if endStream {
		w.logger.Debug("stream finished",
			"sink", w.id,
			"stream", w.stream,
			"blocks", w.block+1,
			"total", w.TotalBytesWritten())
		w.stream++
		w.block = 0
	} else {
		w.block++
	}
	return nil
}

// fail records err as the sticky error for all later calls.
func (w *Writer) fail(err error) error {
	w.err = err
	return err
}

// NewReader returns a reader that decompresses data produced by a Writer
// using the same compression. Multi-stream output is read as one stream.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: compression is nil", ErrInvalidOption)
	}
	rc, err := c.Reader(r)
	if err != nil {
		return nil, fmt.Errorf("open decompressor: %w", err)
	}
	return rc, nil
}
