package session

import (
	"context"
	"time"
)

// Source streams recognized speech. onUpdate receives the full cumulative
// transcript each time, never a delta. onError reports a failure after Start
// has returned. Both may be called from any goroutine.
type Source interface {
	Start(ctx context.Context, onUpdate func(text string), onError func(err error)) error
	Stop() error
}

// Authorizer asks the speech service for microphone and speech access.
type Authorizer interface {
	RequestAccess(ctx context.Context) (Access, error)
}

// Dispatcher runs fn on the controller's thread. Implementations must keep
// the order of calls made from a single goroutine.
type Dispatcher func(fn func())

// Inline runs fn immediately. Only safe when every caller is already on the
// controller's thread.
func Inline(fn func()) { fn() }

// Scheduler invokes fn every interval on the controller's thread until the
// returned cancel func is called. cancel must be called on that same thread;
// once it returns fn is never invoked again.
type Scheduler interface {
	Every(interval time.Duration, fn func(now time.Time)) (cancel func())
}

// TickerScheduler drives repeating tasks from a time.Ticker and delivers them
// through Dispatch.
type TickerScheduler struct {
	Dispatch Dispatcher
}

func (s TickerScheduler) Every(interval time.Duration, fn func(now time.Time)) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	cancelled := new(bool)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				s.Dispatch(func() {
					if !*cancelled {
						fn(now)
					}
				})
			}
		}
	}()

	return func() {
		if *cancelled {
			return
		}
		*cancelled = true
		close(done)
	}
}
