package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/squeeze"
	"github.com/meigma/squeeze/cmd/squeeze/cli/config"
)

func TestShouldShowBar(t *testing.T) {
	t.Parallel()

	assert.True(t, shouldShowBar(config.ProgressTTY))
	assert.False(t, shouldShowBar(config.ProgressPlain))
	assert.False(t, shouldShowBar(config.ProgressNone))
}

func TestFraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		done, total int64
		want        float64
	}{
		{done: 0, total: 100, want: 0},
		{done: 50, total: 100, want: 0.5},
		{done: 150, total: 100, want: 1},
		{done: 10, total: 0, want: 0},
		{done: 10, total: -1, want: 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, fraction(tt.done, tt.total), 1e-9)
	}
}

func TestBarObserver_UnknownSize(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	bar := newBarObserver(&out, -1, func() int64 { return 2048 })

	require.NoError(t, bar.OnProgress(squeeze.ProgressEvent{TotalBytesWritten: 1024, StreamIndex: 2}))
	bar.finish()

	assert.Equal(t, "\rCompressing 2.0 KiB -> 1.0 KiB, stream 2\n", out.String())
}

func TestBarObserver_KnownSize(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	bar := newBarObserver(&out, 4096, func() int64 { return 2048 })

	require.NoError(t, bar.OnProgress(squeeze.ProgressEvent{TotalBytesWritten: 512}))
	assert.Contains(t, out.String(), "50%")
	assert.Contains(t, out.String(), "2.0 KiB -> 512 B, stream 0")
}

func TestBarObserver_FinishWithoutDraw(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	newBarObserver(&out, 10, func() int64 { return 0 }).finish()
	assert.Empty(t, out.String())
}

func TestLogObserver_StreamBoundaries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	obs := &logObserver{
		logger:     slog.New(slog.NewTextHandler(&buf, nil)),
		lastStream: -1,
	}

	for _, e := range []squeeze.ProgressEvent{
		{StreamIndex: 0, BlockIndex: 0},
		{StreamIndex: 0, BlockIndex: 1},
		{StreamIndex: 1, BlockIndex: 0},
	} {
		require.NoError(t, obs.OnProgress(e))
	}

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("stream started")))
	assert.NotContains(t, buf.String(), "block written")
}
