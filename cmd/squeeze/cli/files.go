package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// stdio is the path that selects stdin or stdout.
const stdio = "-"

// openInput opens src for reading, or stdin for "-" or "".
// The returned size is -1 when unknown.
func openInput(src string) (io.ReadCloser, int64, error) {
	if src == "" || src == stdio {
		return io.NopCloser(os.Stdin), -1, nil
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	size := int64(-1)
	if info.Mode().IsRegular() {
		size = info.Size()
	}
	return f, size, nil
}

// openOutput creates dst for writing, or returns stdout for "-".
// Existing files are only replaced when force is set.
func openOutput(dst string, force bool) (io.WriteCloser, error) {
	if dst == stdio {
		return nopWriteCloser{os.Stdout}, nil
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	//nolint:gosec // G304: path comes from the command line
	f, err := os.OpenFile(dst, flags, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// stripExtension removes ext from path, reporting whether it was present.
func stripExtension(path, ext string) (string, bool) {
	if strings.HasSuffix(path, ext) && len(path) > len(ext) {
		return strings.TrimSuffix(path, ext), true
	}
	return path, false
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// contextReader fails reads once ctx is done so long copies stop on SIGINT.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// closeAll closes c and joins its error into err.
func closeAll(err *error, c io.Closer, what string) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close %s: %w", what, cerr)
	}
}
