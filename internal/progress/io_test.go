package progress

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_TracksProgress(t *testing.T) {
	t.Parallel()

	data := []byte("hello world")
	var counts []int64
	pr := NewReader(bytes.NewReader(data), func(n int64) {
		counts = append(counts, n)
	})

	buf := make([]byte, 5)
	n, err := pr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []int64{5}, counts)

	_, err = io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, int64(11), counts[len(counts)-1])
	assert.Equal(t, int64(11), pr.Count())
}

func TestReader_NilCallback(t *testing.T) {
	t.Parallel()

	data := []byte("hello")
	pr := NewReader(bytes.NewReader(data), nil)

	buf, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, data, buf)
}

func TestReader_CloseClosesUnderlying(t *testing.T) {
	t.Parallel()

	closed := false
	r := &mockCloser{
		Reader: bytes.NewReader([]byte("test")),
		onClose: func() error {
			closed = true
			return nil
		},
	}

	require.NoError(t, NewReader(r, nil).Close())
	assert.True(t, closed)
}

func TestReader_CloseNonCloser(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewReader(bytes.NewReader([]byte("test")), nil).Close())
}

func TestWriter_CountsAndDrains(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)

	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = w.Write([]byte("de"))
	require.NoError(t, err)

	assert.Equal(t, int64(5), w.Count())
	assert.Equal(t, int64(5), w.Drain())
	assert.Equal(t, int64(0), w.Drain())

	_, err = w.Write([]byte("f"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Drain())
	assert.Equal(t, int64(6), w.Count())
	assert.Equal(t, "abcdef", buf.String())
}

func TestWriter_ShortWrite(t *testing.T) {
	t.Parallel()

	w := NewWriter(&shortWriter{limit: 2})
	n, err := w.Write([]byte("abcd"))
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), w.Count())
}

type mockCloser struct {
	io.Reader
	onClose func() error
}

func (m *mockCloser) Close() error {
	return m.onClose()
}

type shortWriter struct {
	limit int
}

func (s *shortWriter) Write(p []byte) (int, error) {
	if len(p) > s.limit {
		return s.limit, errors.New("short write")
	}
	return len(p), nil
}
