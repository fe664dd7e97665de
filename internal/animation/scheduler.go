package animation

import "time"

// FrameInterval approximates a 60Hz display refresh.
const FrameInterval = 16 * time.Millisecond

// Scheduler delivers frame timestamps until stopped.
type Scheduler interface {
	Frames() <-chan time.Time
	Stop()
}

// TickerScheduler schedules frames from a time.Ticker.
type TickerScheduler struct {
	ticker *time.Ticker
}

// NewTickerScheduler starts a scheduler firing every interval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = FrameInterval
	}
	return &TickerScheduler{ticker: time.NewTicker(interval)}
}

func (s *TickerScheduler) Frames() <-chan time.Time { return s.ticker.C }

func (s *TickerScheduler) Stop() { s.ticker.Stop() }
