package squeeze

import "github.com/meigma/squeeze/core"

// ProgressEvent describes one progress notification.
// Re-exported from core package.
type ProgressEvent = core.ProgressEvent

// Observer receives progress events from a Sink.
// Implementations run on the encoding goroutine, so a slow observer slows
// the encoder down.
type Observer = core.Observer

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc = core.ObserverFunc

// ObserverError records the failure of a single observer invocation.
type ObserverError = core.ObserverError

// Source identifies the sink that produced a ProgressEvent.
type Source = core.Source
