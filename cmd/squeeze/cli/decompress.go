package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/squeeze"
	countio "github.com/meigma/squeeze/internal/progress"
)

var (
	decompressFormat string
	decompressOutput string
	decompressForce  bool
)

var decompressCmd = &cobra.Command{
	Use:   "decompress [file]",
	Short: "Decompress a file",
	Long: `Decompress reads a gzip or zstd stream, including multi-stream output.

The format is taken from --format, or else from the .gz or .zst extension.
The output defaults to the input path without its extension.

Examples:
  squeeze decompress data.bin.zst
  squeeze decompress --format gzip - < data.gz > data`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecompress,
}

func init() {
	flags := decompressCmd.Flags()
	flags.StringVar(&decompressFormat, "format", "", "Compression format (gzip, zstd); inferred from the extension if empty")
	flags.StringVarP(&decompressOutput, "output", "o", "", `Output path ("-" for stdout)`)
	flags.BoolVarP(&decompressForce, "force", "f", false, "Overwrite an existing output file")
	rootCmd.AddCommand(decompressCmd)
}

func runDecompress(cmd *cobra.Command, args []string) (err error) {
	src := stdio
	if len(args) == 1 {
		src = args[0]
	}

	format, dst, err := resolveDecompress(src, decompressFormat, decompressOutput)
	if err != nil {
		return err
	}

	in, _, err := openInput(src)
	if err != nil {
		return err
	}
	defer closeAll(&err, in, "input")

	compression, err := squeeze.CompressionFor(format, 0)
	if err != nil {
		return err
	}
	rc, err := squeeze.NewReader(contextReader{ctx: cmd.Context(), r: in}, compression)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", src, err)
	}
	defer closeAll(&err, rc, "decompressor")

	out, err := openOutput(dst, decompressForce)
	if err != nil {
		return err
	}
	defer closeAll(&err, out, "output")

	counted := countio.NewReader(rc, nil)
	if _, err := io.Copy(out, counted); err != nil {
		return fmt.Errorf("decompress %s: %w", src, err)
	}

	newLogger().Debug("decompressed", "src", src, "dst", dst, "format", format, "bytes", counted.Count())
	fmt.Fprintf(os.Stderr, "%s -> %s: %s\n",
		displayName(src), displayName(dst),
		humanize.IBytes(uint64(counted.Count()))) //nolint:gosec // G115: counts are non-negative
	return nil
}

// resolveDecompress picks the format and output path for src.
func resolveDecompress(src, formatFlag, outputFlag string) (squeeze.Format, string, error) {
	var format squeeze.Format
	if formatFlag != "" {
		f, err := squeeze.ParseFormat(formatFlag)
		if err != nil {
			return "", "", err
		}
		format = f
	}

	stripped := ""
	if src != stdio {
		for _, f := range []squeeze.Format{squeeze.FormatGzip, squeeze.FormatZstd} {
			if base, ok := stripExtension(src, f.Extension()); ok {
				stripped = base
				if format == "" {
					format = f
				}
				break
			}
		}
	}
	if format == "" {
		return "", "", fmt.Errorf("%w: cannot infer format of %s, use --format", squeeze.ErrUnknownFormat, displayName(src))
	}

	dst := outputFlag
	switch {
	case dst != "":
	case src == stdio:
		dst = stdio
	case stripped != "":
		dst = stripped
	default:
		dst = src + ".out"
	}
	return format, dst, nil
}
