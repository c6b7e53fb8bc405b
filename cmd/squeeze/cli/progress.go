package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/meigma/squeeze"
	"github.com/meigma/squeeze/cmd/squeeze/cli/config"
)

// progressBarWidth is the rendered width of the bar, excluding counters.
const progressBarWidth = 40

// shouldShowBar reports whether mode selects the terminal bar.
func shouldShowBar(mode string) bool {
	switch mode {
	case config.ProgressTTY:
		return true
	case config.ProgressAuto:
		return term.IsTerminal(int(os.Stderr.Fd()))
	default:
		return false
	}
}

// newCompressProgress returns the observer that displays compression progress
// for mode, and a finish function to call once the writer is closed. The
// observer is nil when nothing should be displayed.
func newCompressProgress(mode string, logger *slog.Logger, size int64, consumed func() int64) (squeeze.Observer, func()) {
	switch {
	case shouldShowBar(mode):
		bar := newBarObserver(os.Stderr, size, consumed)
		return bar, bar.finish
	case mode == config.ProgressPlain:
		return &logObserver{logger: logger, lastStream: -1}, func() {}
	default:
		return nil, func() {}
	}
}

// barObserver redraws a single terminal line after every block.
type barObserver struct {
	out      io.Writer
	bar      progress.Model
	size     int64
	consumed func() int64
	drawn    bool
}

func newBarObserver(out io.Writer, size int64, consumed func() int64) *barObserver {
	return &barObserver{
		out:      out,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressBarWidth)),
		size:     size,
		consumed: consumed,
	}
}

// OnProgress implements squeeze.Observer.
func (b *barObserver) OnProgress(event squeeze.ProgressEvent) error {
	b.drawn = true
	_, err := fmt.Fprintf(b.out, "\r%s", b.render(event.TotalBytesWritten, event.StreamIndex))
	return err
}

// render formats one progress line. Without a known input size the bar is
// replaced by plain counters.
func (b *barObserver) render(written int64, stream int) string {
	read := b.consumed()
	counters := fmt.Sprintf("%s -> %s, stream %d",
		humanize.IBytes(uint64(read)),    //nolint:gosec // G115: counts are non-negative
		humanize.IBytes(uint64(written)), //nolint:gosec // G115: counts are non-negative
		stream)
	if b.size <= 0 {
		return "Compressing " + counters
	}
	return fmt.Sprintf("%s %s", b.bar.ViewAs(fraction(read, b.size)), counters)
}

func (b *barObserver) finish() {
	if b.drawn {
		fmt.Fprintln(b.out)
	}
}

// fraction returns done/total clamped to [0, 1].
func fraction(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	f := float64(done) / float64(total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// logObserver logs stream boundaries at info and every block at debug.
type logObserver struct {
	logger     *slog.Logger
	lastStream int
}

// OnProgress implements squeeze.Observer.
func (l *logObserver) OnProgress(event squeeze.ProgressEvent) error {
	if event.StreamIndex != l.lastStream {
		l.lastStream = event.StreamIndex
		l.logger.Info("stream started", "stream", event.StreamIndex, "written", event.TotalBytesWritten)
	}
	l.logger.Debug("block written",
		"stream", event.StreamIndex,
		"block", event.BlockIndex,
		"compressed", event.CompressedBytesInCurrentUnit,
		"written", event.TotalBytesWritten)
	return nil
}
