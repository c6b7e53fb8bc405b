// Package progress provides byte accounting and progress fan-out for
// squeeze sinks.
package progress

import "io"

// Callback is called with the running byte count after each I/O call.
type Callback func(n int64)

// Reader wraps an io.Reader and counts the bytes read through it.
type Reader struct {
	reader   io.Reader
	callback Callback
	read     int64
}

// NewReader creates a counting reader. The callback may be nil.
func NewReader(r io.Reader, callback Callback) *Reader {
	return &Reader{
		reader:   r,
		callback: callback,
	}
}

// Read implements io.Reader and reports the running count after each read.
func (r *Reader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	if n > 0 {
		r.read += int64(n)
		if r.callback != nil {
			r.callback(r.read)
		}
	}
	return n, err
}

// Count returns the bytes read so far.
func (r *Reader) Count() int64 {
	return r.read
}

// Close closes the underlying reader if it implements io.Closer.
func (r *Reader) Close() error {
	if closer, ok := r.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
