package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/squeeze"
)

func TestObserver_RecordsWriterBlocks(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	obs, err := NewObserver(reg)
	require.NoError(t, err)

	var out bytes.Buffer
	w, err := squeeze.NewWriter(&out,
		squeeze.WithBlockSize(128),
		squeeze.WithStreamBlocks(2),
		squeeze.WithObserver(obs),
	)
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte("metrics "), 64))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	sink := w.ID()
	assert.InDelta(t, 4, testutil.ToFloat64(obs.blocksTotal.WithLabelValues(sink)), 0)
	assert.InDelta(t, float64(out.Len()), testutil.ToFloat64(obs.totalBytes.WithLabelValues(sink)), 0)
	assert.InDelta(t, float64(out.Len()), testutil.ToFloat64(obs.compressedBytes.WithLabelValues(sink)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(obs.currentStream.WithLabelValues(sink)), 0)
}

func TestObserver_DuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewObserver(reg)
	require.NoError(t, err)

	_, err = NewObserver(reg)
	require.Error(t, err)
}

func TestObserver_Forget(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	obs, err := NewObserver(reg)
	require.NoError(t, err)

	sink := squeeze.NewSink()
	sink.Register(obs)
	sink.ReportProgress(0, 0, 10)
	assert.Equal(t, 1, testutil.CollectAndCount(obs.blocksTotal))

	obs.Forget(sink)
	assert.Equal(t, 0, testutil.CollectAndCount(obs.blocksTotal))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	obs, err := NewObserver(reg)
	require.NoError(t, err)

	sink := squeeze.NewSink()
	sink.Register(obs)
	require.NoError(t, sink.RecordWritten(42))
	sink.ReportProgress(0, 0, 42)

	path := filepath.Join(t.TempDir(), "squeeze.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "squeeze_written_bytes")
	assert.Contains(t, string(data), sink.ID())
}

func TestFormatRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		compressed, uncompressed int64
		want                     string
	}{
		{compressed: 50, uncompressed: 100, want: "0.500"},
		{compressed: 1, uncompressed: 3, want: "0.333"},
		{compressed: 10, uncompressed: 0, want: "0.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRatio(tt.compressed, tt.uncompressed))
	}
}
