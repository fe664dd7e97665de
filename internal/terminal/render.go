// Package terminal draws upload displays on a text stream.
package terminal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/example/pawprint/internal/animation"
	"github.com/example/pawprint/internal/view"
)

const barWidth = 20

// Renderer writes displays to out. It also serves as the alert notifier.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	frames   func() animation.Scheduler
	duration time.Duration
}

// New returns a renderer animating with schedulers produced by frames.
func New(out io.Writer, frames func() animation.Scheduler) *Renderer {
	if frames == nil {
		frames = func() animation.Scheduler { return animation.NewTickerScheduler(animation.FrameInterval) }
	}
	return &Renderer{out: out, frames: frames, duration: animation.ProgressDuration}
}

// Loading shows the spinner until the returned stop function is called.
func (r *Renderer) Loading(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.printf("%s\n", view.LoadingMessage)
	go func() {
		defer close(done)
		animation.Spin(ctx, r.frames(), func(_ int, offset float64) {
			filled := int((animation.LoaderCircumference - offset) / animation.LoaderCircumference * barWidth)
			r.printf("\r[%s%s]", strings.Repeat("=", filled), strings.Repeat(" ", barWidth-filled))
		})
	}()

	return func() {
		cancel()
		<-done
		r.printf("\r%s\r", strings.Repeat(" ", barWidth+2))
	}
}

// Render draws d. Result displays animate the confidence ramp first.
func (r *Renderer) Render(ctx context.Context, d view.Display) error {
	switch d.State {
	case "loading", "error":
		r.printf("%s\n", d.Message)
	case "result":
		err := animation.Ramp(ctx, r.frames(), 0, d.Percent, r.duration, func(v int) {
			r.printf("\r%3d%%", v)
		})
		r.printf("\n")
		if err != nil {
			return err
		}
		r.printf("%s\n%s\n", d.BreedName, d.Description)
		if d.Summary != "" {
			r.printf("%s\n", d.Summary)
		}
		r.printf("Example: %s\n", d.ExampleImage)
		if d.Report != nil {
			r.printf("[%s]\n", d.Report.Label)
		}
	}
	return nil
}

// Alert prints a modal-style message.
func (r *Renderer) Alert(message string) {
	r.printf("! %s\n", message)
}

func (r *Renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}
