package squeeze

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog is a comparable observer that keeps every event it receives.
type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
	err    error
}

func (l *eventLog) OnProgress(event ProgressEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return l.err
}

func (l *eventLog) snapshot() []ProgressEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ProgressEvent(nil), l.events...)
}

func TestSink_RecordWrittenSums(t *testing.T) {
	t.Parallel()

	s := NewSink()
	var want int64
	for _, n := range []int64{10, 0, 250, 1} {
		require.NoError(t, s.RecordWritten(n))
		want += n
		assert.Equal(t, want, s.TotalBytesWritten())
	}
}

func TestSink_RecordWrittenRejectsNegative(t *testing.T) {
	t.Parallel()

	s := NewSink()
	require.NoError(t, s.RecordWritten(5))
	require.ErrorIs(t, s.RecordWritten(-1), ErrNegativeCount)
	assert.Equal(t, int64(5), s.TotalBytesWritten())
}

func TestSink_ReportProgressScenario(t *testing.T) {
	t.Parallel()

	s := NewSink()
	a, b := &eventLog{}, &eventLog{}
	s.Register(a)
	s.Register(b)

	require.NoError(t, s.RecordWritten(100))
	s.ReportProgress(0, 0, 100)

	want := ProgressEvent{
		Source:                       s,
		BlockIndex:                   0,
		StreamIndex:                  0,
		CompressedBytesInCurrentUnit: 100,
		TotalBytesWritten:            100,
	}
	assert.Equal(t, []ProgressEvent{want}, a.snapshot())
	assert.Equal(t, []ProgressEvent{want}, b.snapshot())

	s.Unregister(a)
	require.NoError(t, s.RecordWritten(50))
	s.ReportProgress(1, 0, 50)

	assert.Len(t, a.snapshot(), 1)
	got := b.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[1].BlockIndex)
	assert.Equal(t, 0, got[1].StreamIndex)
	assert.Equal(t, int64(50), got[1].CompressedBytesInCurrentUnit)
	assert.Equal(t, int64(150), got[1].TotalBytesWritten)
}

func TestSink_EventSourceIdentity(t *testing.T) {
	t.Parallel()

	s := NewSink()
	other := NewSink()
	log := &eventLog{}
	s.Register(log)
	s.ReportProgress(0, 0, 0)

	got := log.snapshot()
	require.Len(t, got, 1)
	assert.Same(t, s, got[0].Source)
	assert.Equal(t, s.ID(), got[0].Source.ID())
	assert.NotEqual(t, s.ID(), other.ID())
}

func TestSink_FailingObserverIsIsolated(t *testing.T) {
	t.Parallel()

	var handled []error
	var logBuf bytes.Buffer
	s := NewSink(
		WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))),
		WithObserverErrorHandler(func(err error) { handled = append(handled, err) }),
	)

	first, last := &eventLog{}, &eventLog{}
	boom := errors.New("boom")
	s.Register(first)
	s.Subscribe(ObserverFunc(func(ProgressEvent) error { return boom }))
	s.Subscribe(ObserverFunc(func(ProgressEvent) error { panic("observer panic") }))
	s.Register(last)

	require.NotPanics(t, func() { s.ReportProgress(2, 1, 10) })

	assert.Len(t, first.snapshot(), 1)
	assert.Len(t, last.snapshot(), 1)

	require.Len(t, handled, 2)
	assert.ErrorIs(t, handled[0], boom)
	assert.ErrorIs(t, handled[0], ErrObserver)
	assert.ErrorContains(t, handled[1], "observer panic")

	var oerr *ObserverError
	require.ErrorAs(t, handled[1], &oerr)
	assert.Equal(t, 2, oerr.Index)

	assert.Contains(t, logBuf.String(), "progress observer failed")
	assert.Contains(t, logBuf.String(), "block=2")
}

func TestSink_MutationInsideCallback(t *testing.T) {
	t.Parallel()

	s := NewSink()
	late := &eventLog{}
	removed := &eventLog{}
	once := sync.Once{}
	s.Subscribe(ObserverFunc(func(ProgressEvent) error {
		once.Do(func() {
			s.Register(late)
			s.Unregister(removed)
		})
		return nil
	}))
	s.Register(removed)

	s.ReportProgress(0, 0, 1)
	assert.Empty(t, late.snapshot())
	assert.Len(t, removed.snapshot(), 1)

	s.ReportProgress(1, 0, 1)
	assert.Len(t, late.snapshot(), 1)
	assert.Len(t, removed.snapshot(), 1)
}

func TestSink_NoObservers(t *testing.T) {
	t.Parallel()

	s := NewSink()
	assert.NotPanics(t, func() { s.ReportProgress(0, 0, 0) })
}

func TestSink_ConcurrentRegistration(t *testing.T) {
	t.Parallel()

	s := NewSink()
	stable := &eventLog{}
	s.Register(stable)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				cancel := s.Subscribe(ObserverFunc(func(ProgressEvent) error { return nil }))
				cancel()
			}
		}()
	}

	for i := range 100 {
		require.NoError(t, s.RecordWritten(1))
		s.ReportProgress(i, 0, 1)
	}
	wg.Wait()

	got := stable.snapshot()
	require.Len(t, got, 100)
	for i, e := range got {
		assert.Equal(t, int64(i+1), e.TotalBytesWritten)
	}
}
