package ports

import "time"

// Clock abstracts sleeping and monotonic reads so the settle, warmup, idle
// and backoff waits are reproducible under test.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the real-time Clock used outside tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

var _ Clock = SystemClock{}
