package session

import (
	"fmt"
	"time"
)

const (
	DefaultDuration     = 60 * time.Second
	MinDuration         = 1 * time.Second
	MaxDuration         = 60 * time.Second
	DefaultTickInterval = 10 * time.Millisecond
)

// Config holds the settings for one run. It is fixed while a run is active.
type Config struct {
	Duration     time.Duration
	TickInterval time.Duration
}

// DefaultConfig returns a 60 second session ticking every 10ms.
func DefaultConfig() Config {
	return Config{Duration: DefaultDuration, TickInterval: DefaultTickInterval}
}

// Validate rejects non-positive durations and tick intervals.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidConfig, c.Duration)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %s", ErrInvalidConfig, c.TickInterval)
	}
	return nil
}

// Timer tracks elapsed time against a configured duration.
// It never advances on its own; callers feed it ticks.
type Timer struct {
	duration time.Duration
	elapsed  time.Duration
	running  bool
}

// NewTimer returns a timer configured for d.
func NewTimer(d time.Duration) (*Timer, error) {
	t := &Timer{}
	if err := t.Configure(d); err != nil {
		return nil, err
	}
	return t, nil
}

// Configure sets the duration. It fails while the timer is running.
func (t *Timer) Configure(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidConfig, d)
	}
	if t.running {
		return fmt.Errorf("%w: cannot reconfigure a running timer", ErrInvalidTransition)
	}
	t.duration = d
	return nil
}

// Start resets elapsed time to zero and accepts ticks.
func (t *Timer) Start() {
	t.elapsed = 0
	t.running = true
}

// Tick advances elapsed time by delta, clamped to the duration, and reports
// whether the duration has been reached. Ticks on a stopped timer are ignored.
func (t *Timer) Tick(delta time.Duration) bool {
	if !t.running || delta <= 0 {
		return t.running && t.elapsed >= t.duration
	}
	t.elapsed += delta
	if t.elapsed >= t.duration {
		t.elapsed = t.duration
		return true
	}
	return false
}

// Stop halts ticking; elapsed time is kept.
func (t *Timer) Stop() { t.running = false }

// Reset zeroes elapsed time on a stopped timer.
func (t *Timer) Reset() {
	if !t.running {
		t.elapsed = 0
	}
}

func (t *Timer) Running() bool            { return t.running }
func (t *Timer) Elapsed() time.Duration   { return t.elapsed }
func (t *Timer) Duration() time.Duration  { return t.duration }
func (t *Timer) Remaining() time.Duration { return t.duration - t.elapsed }

// Progress returns elapsed/duration in [0,1].
func (t *Timer) Progress() float64 {
	if t.duration <= 0 {
		return 0
	}
	p := float64(t.elapsed) / float64(t.duration)
	if p > 1 {
		return 1
	}
	return p
}
