// Package core provides the shared types and interfaces for squeeze.
//
// This package exists to break import cycles between the root squeeze package
// and internal implementation packages. The squeeze package re-exports all
// public types from this package, so external users should import squeeze
// directly, not squeeze/core.
package core

import (
	"errors"
	"fmt"

	"github.com/containerd/stargz-snapshotter/estargz"
)

// Sentinel errors for common failure conditions.
var (
	// ErrNegativeCount indicates a negative byte count was recorded.
	ErrNegativeCount = errors.New("squeeze: negative byte count")

	// ErrInvalidOption indicates an option was given an unusable value.
	ErrInvalidOption = errors.New("squeeze: invalid option")

	// ErrUnknownFormat indicates the compression format is not recognized.
	ErrUnknownFormat = errors.New("squeeze: unknown compression format")

	// ErrClosed indicates an operation was attempted on a closed resource.
	ErrClosed = errors.New("squeeze: resource closed")

	// ErrObserver indicates an observer failed while handling a progress event.
	ErrObserver = errors.New("squeeze: observer failed")
)

// Compression provides compression/decompression for squeeze streams.
type Compression = estargz.Compression

// Source identifies the sink that produced a ProgressEvent.
type Source interface {
	// ID returns the unique identifier of the sink.
	ID() string
	// TotalBytesWritten returns the bytes the sink has recorded so far.
	TotalBytesWritten() int64
}

// ProgressEvent describes a single progress notification.
// It is constructed fresh for every report and never mutated afterwards.
type ProgressEvent struct {
	// Source is the sink that reported the progress.
	Source Source
	// BlockIndex is the encoder-defined index of the current block.
	BlockIndex int
	// StreamIndex is the encoder-defined index of the current stream.
	StreamIndex int
	// CompressedBytesInCurrentUnit is the compressed size of the current
	// block or stream, as supplied by the encoder.
	CompressedBytesInCurrentUnit int64
	// TotalBytesWritten is the sink's byte counter when the event was built.
	TotalBytesWritten int64
}

// Observer receives progress events.
//
// A failing observer returns an error or panics. Either way the failure is
// isolated from other observers and from the encoder.
type Observer interface {
	OnProgress(event ProgressEvent) error
}

// ObserverFunc adapts a function to the Observer interface.
//
// Function values are not comparable, so an ObserverFunc cannot be removed
// with Unregister. Use the cancel function returned by Subscribe instead.
type ObserverFunc func(event ProgressEvent) error

// OnProgress calls f(event).
func (f ObserverFunc) OnProgress(event ProgressEvent) error {
	return f(event)
}

// ObserverError records the failure of a single observer invocation.
type ObserverError struct {
	// Index is the observer's position in the notification snapshot.
	Index int
	// Observer is the observer that failed.
	Observer Observer
	// Err is the returned error, or a wrapped panic value.
	Err error
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("squeeze: observer %d (%T) failed: %v", e.Index, e.Observer, e.Err)
}

// Unwrap returns the cause along with ErrObserver so both match errors.Is.
func (e *ObserverError) Unwrap() []error {
	return []error{ErrObserver, e.Err}
}
