package progress

import (
	"fmt"
	"sync/atomic"

	"github.com/meigma/squeeze/core"
)

// Counter is a monotonically non-decreasing byte total.
//
// Total is safe to call from any goroutine. Add is meant for a single writer
// (the encoding goroutine); concurrent writers must synchronize themselves.
type Counter struct {
	total atomic.Int64
}

// Add increases the total by delta. A negative delta is rejected with
// core.ErrNegativeCount and leaves the total unchanged.
func (c *Counter) Add(delta int64) error {
	if delta < 0 {
		return fmt.Errorf("%w: %d", core.ErrNegativeCount, delta)
	}
	c.total.Add(delta)
	return nil
}

// Total returns the accumulated total.
func (c *Counter) Total() int64 {
	return c.total.Load()
}
