package scan

import (
	"context"
	"time"
)

// Source is the observation capability the scheduler samples from: one call
// performs a single scan pass of roughly the given duration and returns the
// raw device readings observed in that window. A source may return multiple
// readings for the same address; the scheduler collapses them. Sample may
// fail transiently; the scheduler treats a failed pass as empty and keeps
// cycling.
//
// The context covers the source's own I/O (opening a capture handle, serial
// reads). The scheduler never cancels it to preempt an in-flight sample: stop
// requests are observed only at cycle boundaries.
type Source interface {
	Sample(ctx context.Context, d time.Duration) ([]Device, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, d time.Duration) ([]Device, error)

// Sample calls f.
func (f SourceFunc) Sample(ctx context.Context, d time.Duration) ([]Device, error) {
	return f(ctx, d)
}
