package session

import (
	"fmt"
	"time"
)

// Status is the controller's position in the Idle → Running → Finished cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is a snapshot of the controller, handed to observers by value.
type State struct {
	Status        Status
	RunID         string
	Elapsed       time.Duration
	Duration      time.Duration
	Transcript    string
	MicAuthorized bool
	Recording     bool

	// Message is user-facing text describing the last failure, if any.
	Message string
	Err     error
}

// Progress returns the fraction of the configured duration that has elapsed.
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Elapsed) / float64(s.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// EndReason records why a run finished.
type EndReason string

const (
	ReasonStopped     EndReason = "stopped"
	ReasonTimeout     EndReason = "timeout"
	ReasonDeviceError EndReason = "device_error"
	ReasonInterrupted EndReason = "interrupted"
)

// Result is produced once per finished run.
type Result struct {
	RunID string
	Counts
	Elapsed time.Duration
	Reason  EndReason
	Err     error
}

// WordsPerMinute scales the word count to a one minute rate.
func (r Result) WordsPerMinute() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.WordCount) / r.Elapsed.Minutes()
}

// Summary formats the result the way the result dialog shows it.
func (r Result) Summary() string {
	return fmt.Sprintf("%d Words in %.2f sec!\n%d Unique Words!",
		r.WordCount, r.Elapsed.Seconds(), r.UniqueWordCount)
}

// Access reports which authorizations the speech service holds.
type Access struct {
	Microphone bool
	Speech     bool
}

// Granted is true when both microphone and speech access are available.
func (a Access) Granted() bool { return a.Microphone && a.Speech }

// Err returns a *PermissionError naming the first missing permission, or nil.
// Microphone is checked first, matching the order the prompts are shown.
func (a Access) Err() error {
	if !a.Microphone {
		return &PermissionError{Missing: PermissionMicrophone}
	}
	if !a.Speech {
		return &PermissionError{Missing: PermissionSpeech}
	}
	return nil
}

// Observer receives controller notifications on the controller's thread.
type Observer interface {
	StateChanged(State)
	SessionFinished(Result)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnState  func(State)
	OnResult func(Result)
}

func (o ObserverFuncs) StateChanged(s State) {
	if o.OnState != nil {
		o.OnState(s)
	}
}

func (o ObserverFuncs) SessionFinished(r Result) {
	if o.OnResult != nil {
		o.OnResult(r)
	}
}
