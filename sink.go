package squeeze

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/meigma/squeeze/core"
	"github.com/meigma/squeeze/internal/progress"
)

// Sink is the progress-tracking core shared by squeeze encoders.
//
// An encoder calls RecordWritten after bytes reach its transport and
// ReportProgress whenever it wants observers to hear about it. The Sink never
// reports on its own. Observers may be added and removed from any goroutine,
// including from inside a callback; changes apply from the next report.
//
// RecordWritten and ReportProgress are meant to be called from a single
// encoding goroutine.
type Sink struct {
	id       string
	counter  progress.Counter
	registry *progress.Registry
	logger   *slog.Logger
	onError  func(error)
}

var _ core.Source = (*Sink)(nil)

// NewSink creates a Sink with a zero byte count and no observers.
func NewSink(opts ...SinkOption) *Sink {
	s := &Sink{
		id:       uuid.NewString(),
		registry: progress.NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the random identifier assigned to the sink.
func (s *Sink) ID() string {
	return s.id
}

// Register adds an observer. Registering the same observer twice yields two
// notifications per report.
func (s *Sink) Register(o Observer) {
	s.registry.Register(o)
}

// Unregister removes the first registration of o. Unknown observers are
// ignored. Function observers cannot be matched; use Subscribe for those.
func (s *Sink) Unregister(o Observer) {
	s.registry.Unregister(o)
}

// Subscribe adds an observer and returns a function that removes it again.
func (s *Sink) Subscribe(o Observer) (cancel func()) {
	return s.registry.Subscribe(o)
}

// RecordWritten adds n to the byte count. It returns an error wrapping
// ErrNegativeCount, and leaves the count untouched, when n is negative.
func (s *Sink) RecordWritten(n int64) error {
	return s.counter.Add(n)
}

// TotalBytesWritten returns the bytes recorded so far.
// Safe to call from any goroutine.
func (s *Sink) TotalBytesWritten() int64 {
	return s.counter.Total()
}

// ReportProgress notifies every observer registered when the call begins.
//
// The event carries the current byte count. Observer failures never reach the
// caller: each one is logged and passed to the ObserverErrorHandler, if any.
func (s *Sink) ReportProgress(blockIndex, streamIndex int, compressedBytesInCurrentUnit int64) {
	event := ProgressEvent{
		Source:                       s,
		BlockIndex:                   blockIndex,
		StreamIndex:                  streamIndex,
		CompressedBytesInCurrentUnit: compressedBytesInCurrentUnit,
		TotalBytesWritten:            s.counter.Total(),
	}

	for _, failure := range s.registry.Notify(event) {
		s.logger.Warn("progress observer failed",
			"sink", s.id,
			"block", blockIndex,
			"stream", streamIndex,
			"error", failure.Err)
		if s.onError != nil {
			s.onError(failure)
		}
	}
}
