package squeeze

import "github.com/meigma/squeeze/core"

// Sentinel errors for common failure conditions.
// Re-exported from core package.
var (
	// ErrNegativeCount indicates a negative byte count was recorded.
	ErrNegativeCount = core.ErrNegativeCount

	// ErrInvalidOption indicates an option was given an unusable value.
	ErrInvalidOption = core.ErrInvalidOption

	// ErrUnknownFormat indicates the compression format is not recognized.
	ErrUnknownFormat = core.ErrUnknownFormat

	// ErrClosed indicates a write was attempted on a closed Writer.
	ErrClosed = core.ErrClosed

	// ErrObserver matches every observer failure reported to an
	// ObserverErrorHandler.
	ErrObserver = core.ErrObserver
)
