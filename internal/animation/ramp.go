package animation

import (
	"context"
	"math"
	"time"
)

// ProgressDuration is how long the confidence ramp takes to reach its target.
const ProgressDuration = 1500 * time.Millisecond

// EaseOutCubic maps linear progress p in [0,1] to 1-(1-p)^3. Inputs are clamped.
func EaseOutCubic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return 1 - math.Pow(1-p, 3)
}

// Interpolate returns the eased value between from and to after elapsed of duration.
func Interpolate(from, to float64, duration, elapsed time.Duration) float64 {
	if duration <= 0 {
		return to
	}
	p := float64(elapsed) / float64(duration)
	return from + (to-from)*EaseOutCubic(p)
}

// Ramp calls step with a rounded eased value for every frame until duration has
// elapsed since the first frame. The last call always receives to.
func Ramp(ctx context.Context, frames Scheduler, from, to int, duration time.Duration, step func(int)) error {
	ticks := frames.Frames()
	defer frames.Stop()

	var start time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts, ok := <-ticks:
			if !ok {
				step(to)
				return nil
			}
			if start.IsZero() {
				start = ts
			}
			elapsed := ts.Sub(start)
			if elapsed >= duration {
				step(to)
				return nil
			}
			step(int(math.Round(Interpolate(float64(from), float64(to), duration, elapsed))))
		}
	}
}
