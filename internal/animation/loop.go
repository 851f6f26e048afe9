// Package animation runs the single cooperative tick loop.
package animation

import (
	"context"
	"time"
)

// Run calls step, waits delay, and repeats until ctx is cancelled. The
// context is only checked between ticks; a step in progress always finishes.
// Run returns ctx.Err().
func Run(ctx context.Context, delay time.Duration, step func()) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		step()

		// The channel is always drained before the next Reset
		if timer == nil {
			timer = time.NewTimer(delay)
		} else {
			timer.Reset(delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
