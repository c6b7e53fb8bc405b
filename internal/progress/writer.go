package progress

import "io"

// Writer wraps an io.Writer and counts the bytes the destination accepted.
//
// Pending returns the bytes accepted since the last Drain, which lets an
// encoder attribute transport writes to the block that caused them.
type Writer struct {
	writer  io.Writer
	written int64
	pending int64
}

// NewWriter creates a counting writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{writer: w}
}

// Write implements io.Writer. Short writes are counted by what was accepted.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	w.written += int64(n)
	w.pending += int64(n)
	return n, err
}

// Count returns the bytes accepted so far.
func (w *Writer) Count() int64 {
	return w.written
}

// Drain returns the bytes accepted since the previous Drain and resets the
// pending count.
func (w *Writer) Drain() int64 {
	n := w.pending
	w.pending = 0
	return n
}
