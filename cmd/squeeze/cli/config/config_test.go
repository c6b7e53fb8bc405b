package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ProgressAuto, cfg.Progress)
	assert.Equal(t, "gzip", cfg.Compress.Format)
	assert.Equal(t, 0, cfg.Compress.Level)
	assert.Equal(t, 0, cfg.Compress.StreamBlocks)

	size, err := cfg.Compress.BlockSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, 1<<20, size)
}

func TestLoad_FromYAML(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
progress: plain
compress:
  format: zstd
  level: 3
  block-size: 64KiB
  stream-blocks: 8
metrics:
  file: /tmp/squeeze.prom
`)))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ProgressPlain, cfg.Progress)
	assert.Equal(t, CompressConfig{Format: "zstd", Level: 3, BlockSize: "64KiB", StreamBlocks: 8}, cfg.Compress)
	assert.Equal(t, "/tmp/squeeze.prom", cfg.Metrics.File)
}

func TestLoad_InvalidProgress(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v)
	v.Set(KeyProgress, "fancy")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid progress mode")
}

func TestBlockSizeBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "4096", want: 4096},
		{in: "64KiB", want: 64 << 10},
		{in: "1MB", want: 1000 * 1000},
		{in: "0", wantErr: true},
		{in: "lots", wantErr: true},
		{in: "8GiB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := CompressConfig{BlockSize: tt.in}.BlockSizeBytes()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPath_UsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "squeeze", FileName), got)
}
