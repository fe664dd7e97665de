package animation

import "context"

const (
	// LoaderCircumference is the dash length of the loading circle.
	LoaderCircumference = 220
	loaderStepDegrees   = 4
)

// LoaderOffset returns the dash offset of the loading circle after frame frames.
func LoaderOffset(frame int) float64 {
	angle := (frame * loaderStepDegrees) % 360
	return LoaderCircumference - float64(angle)/360*LoaderCircumference
}

// Spin calls step with the frame index and loader offset on every frame until ctx is done.
func Spin(ctx context.Context, frames Scheduler, step func(frame int, offset float64)) {
	ticks := frames.Frames()
	defer frames.Stop()

	frame := 0
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			frame++
			step(frame, LoaderOffset(frame))
		}
	}
}
