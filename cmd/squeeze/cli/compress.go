package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/meigma/squeeze"
	"github.com/meigma/squeeze/cmd/squeeze/cli/config"
	countio "github.com/meigma/squeeze/internal/progress"
	"github.com/meigma/squeeze/metrics"
)

var (
	compressOutput string
	compressForce  bool
)

var compressCmd = &cobra.Command{
	Use:   "compress [file]",
	Short: "Compress a file",
	Long: `Compress writes a block-framed gzip or zstd stream.

Without a file, or with "-", input is read from stdin and written to stdout.
Otherwise the output defaults to the input path plus .gz or .zst.

Examples:
  squeeze compress data.bin
  squeeze compress data.bin --format zstd --block-size 4MiB --stream-blocks 16
  tar cf - ./dir | squeeze compress > dir.tar.gz`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompress,
}

func init() {
	flags := compressCmd.Flags()
	flags.StringVarP(&compressOutput, "output", "o", "", `Output path ("-" for stdout)`)
	flags.BoolVarP(&compressForce, "force", "f", false, "Overwrite an existing output file")
	flags.String("format", "gzip", "Compression format (gzip, zstd)")
	flags.Int("level", 0, "Compression level (0 selects the format default)")
	flags.String("block-size", "1MiB", "Uncompressed block size (e.g. 64KiB, 4MiB)")
	flags.Int("stream-blocks", 0, "Start a new independent stream every N blocks (0 for a single stream)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile when done")

	mustBind(config.KeyFormat, flags.Lookup("format"))
	mustBind(config.KeyLevel, flags.Lookup("level"))
	mustBind(config.KeyBlockSize, flags.Lookup("block-size"))
	mustBind(config.KeyStreamBlocks, flags.Lookup("stream-blocks"))
	mustBind(config.KeyMetricsFile, flags.Lookup("metrics-file"))

	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := squeeze.ParseFormat(cfg.Compress.Format)
	if err != nil {
		return err
	}
	compression, err := squeeze.CompressionFor(format, cfg.Compress.Level)
	if err != nil {
		return err
	}
	blockSize, err := cfg.Compress.BlockSizeBytes()
	if err != nil {
		return fmt.Errorf("%w: %w", squeeze.ErrInvalidOption, err)
	}

	src := stdio
	if len(args) == 1 {
		src = args[0]
	}
	dst := compressOutput
	if dst == "" {
		dst = stdio
		if src != stdio {
			dst = src + format.Extension()
		}
	}

	in, size, err := openInput(src)
	if err != nil {
		return err
	}
	defer closeAll(&err, in, "input")

	out, err := openOutput(dst, compressForce)
	if err != nil {
		return err
	}
	defer closeAll(&err, out, "output")

	logger := newLogger()
	input := countio.NewReader(contextReader{ctx: cmd.Context(), r: in}, nil)

	opts := []squeeze.WriterOption{
		squeeze.WithCompression(compression),
		squeeze.WithBlockSize(blockSize),
		squeeze.WithStreamBlocks(cfg.Compress.StreamBlocks),
		squeeze.WithSinkOptions(squeeze.WithLogger(logger)),
	}

	display, finish := newCompressProgress(cfg.Progress, logger, size, input.Count)
	if display != nil {
		opts = append(opts, squeeze.WithObserver(display))
	}

	var reg *prometheus.Registry
	if cfg.Metrics.File != "" {
		reg = prometheus.NewRegistry()
		obs, obsErr := metrics.NewObserver(reg)
		if obsErr != nil {
			return fmt.Errorf("create metrics observer: %w", obsErr)
		}
		opts = append(opts, squeeze.WithObserver(obs))
	}

	w, err := squeeze.NewWriter(out, opts...)
	if err != nil {
		return err
	}

	logger.Debug("compressing",
		"src", src,
		"dst", dst,
		"format", format,
		"block_size", blockSize,
		"stream_blocks", cfg.Compress.StreamBlocks,
		"sink", w.ID())

	if _, err := io.Copy(w, input); err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	finish()

	if reg != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.File, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "%s -> %s: %s -> %s (ratio %s, %d stream(s))\n",
		displayName(src), displayName(dst),
		humanize.IBytes(uint64(input.Count())), //nolint:gosec // G115: counts are non-negative
		humanize.IBytes(uint64(w.TotalBytesWritten())), //nolint:gosec // G115: counts are non-negative
		metrics.FormatRatio(w.TotalBytesWritten(), input.Count()),
		w.Streams())
	fmt.Fprintf(os.Stderr, "digest: %s\n", w.Digest())
	return nil
}

// displayName renders "-" as the stream it stands for.
func displayName(path string) string {
	if path == stdio {
		return "<stdio>"
	}
	return path
}
