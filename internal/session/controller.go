// Package session holds the reading session core: the timer, the run/stop
// state machine and transcript analysis. It has no UI dependencies.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options wires a Controller to its collaborators.
type Options struct {
	Source     Source
	Authorizer Authorizer
	Dispatch   Dispatcher
	Scheduler  Scheduler // defaults to a TickerScheduler on Dispatch
	Logger     logrus.FieldLogger
	Clock      func() time.Time
	NewRunID   func() string
}

// Controller owns the session state machine. Every method must be called on
// the controller's thread, the same one Dispatch delivers to.
type Controller struct {
	cfg      Config
	timer    *Timer
	source   Source
	auth     Authorizer
	dispatch Dispatcher
	sched    Scheduler
	log      logrus.FieldLogger
	now      func() time.Time
	newRunID func() string

	state      State
	access     *Access
	cancelTick func()
	lastTick   time.Time
	result     *Result

	observers map[int]Observer
	nextObs   int
}

// New builds an idle controller.
func New(cfg Config, opts Options) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Source == nil {
		return nil, errors.New("session: a transcription source is required")
	}
	if opts.Dispatch == nil {
		return nil, errors.New("session: a dispatcher is required")
	}

	timer, err := NewTimer(cfg.Duration)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:       cfg,
		timer:     timer,
		source:    opts.Source,
		auth:      opts.Authorizer,
		dispatch:  opts.Dispatch,
		sched:     opts.Scheduler,
		log:       opts.Logger,
		now:       opts.Clock,
		newRunID:  opts.NewRunID,
		observers: make(map[int]Observer),
	}
	if c.sched == nil {
		c.sched = TickerScheduler{Dispatch: c.dispatch}
	}
	if c.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		c.log = l
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newRunID == nil {
		c.newRunID = uuid.NewString
	}
	c.state.Duration = cfg.Duration
	return c, nil
}

// State returns a snapshot of the current state.
func (c *Controller) State() State { return c.state }

// Config returns the active configuration.
func (c *Controller) Config() Config { return c.cfg }

// LastResult returns the result of the most recent finished run.
func (c *Controller) LastResult() (Result, bool) {
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

// Subscribe registers o and returns a func that removes it.
func (c *Controller) Subscribe(o Observer) func() {
	id := c.nextObs
	c.nextObs++
	c.observers[id] = o
	return func() { delete(c.observers, id) }
}

// Configure replaces the configuration between runs.
func (c *Controller) Configure(cfg Config) error {
	if c.state.Status == StatusRunning {
		return fmt.Errorf("%w: cannot change settings while running", ErrInvalidTransition)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := c.timer.Configure(cfg.Duration); err != nil {
		return err
	}
	c.cfg = cfg
	c.state.Duration = cfg.Duration
	c.publish()
	return nil
}

// RequestAccess asks the authorizer for access in the background. The answer
// is applied on the controller's thread.
func (c *Controller) RequestAccess(ctx context.Context) {
	if c.auth == nil {
		c.SetAccess(Access{Microphone: true, Speech: true})
		return
	}
	go func() {
		access, err := c.auth.RequestAccess(ctx)
		c.dispatch(func() { c.applyAccess(access, err) })
	}()
}

// SetAccess records the authorization state directly.
func (c *Controller) SetAccess(a Access) {
	c.applyAccess(a, nil)
}

func (c *Controller) applyAccess(a Access, err error) {
	if err != nil {
		c.log.WithError(err).Warn("access request failed")
		c.access = &Access{}
		c.state.MicAuthorized = false
		c.state.Err = err
		c.state.Message = fmt.Sprintf("Speech service unavailable.\n\n%v", err)
		c.publish()
		return
	}

	c.access = &a
	c.state.MicAuthorized = a.Granted()
	if perr := a.Err(); perr != nil {
		var pe *PermissionError
		errors.As(perr, &pe)
		c.state.Err = perr
		c.state.Message = pe.Message()
	} else if errors.Is(c.state.Err, ErrPermissionDenied) || c.state.Status == StatusIdle {
		c.state.Err = nil
		c.state.Message = ""
	}
	c.log.WithFields(logrus.Fields{
		"microphone": a.Microphone,
		"speech":     a.Speech,
	}).Info("access updated")
	c.publish()
}

// Start begins a run from Idle. It returns ErrInvalidTransition when a run is
// active or unacknowledged, and a *PermissionError when access is missing.
func (c *Controller) Start(ctx context.Context) error {
	if c.state.Status != StatusIdle {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, c.state.Status)
	}
	if err := c.accessErr(); err != nil {
		c.state.Err = err
		var pe *PermissionError
		if errors.As(err, &pe) {
			c.state.Message = pe.Message()
		} else {
			c.state.Message = "Waiting for microphone and speech access."
		}
		c.publish()
		return err
	}

	runID := c.newRunID()
	c.timer.Start()
	c.result = nil
	c.state = State{
		Status:        StatusRunning,
		RunID:         runID,
		Duration:      c.cfg.Duration,
		MicAuthorized: true,
		Recording:     true,
	}

	if err := c.source.Start(ctx, c.transcriptFunc(runID), c.errorFunc(runID)); err != nil {
		c.timer.Stop()
		c.timer.Reset()
		c.state.Status = StatusIdle
		c.state.Recording = false
		c.state.Err = err
		var pe *PermissionError
		switch {
		case errors.As(err, &pe):
			c.access = &Access{Microphone: pe.Missing != PermissionMicrophone, Speech: false}
			c.state.MicAuthorized = false
			c.state.Message = pe.Message()
		default:
			c.state.Message = fmt.Sprintf("Could not start transcription.\n\n%v", err)
		}
		c.log.WithError(err).WithField("run_id", runID).Warn("transcription source failed to start")
		c.publish()
		return err
	}

	c.lastTick = c.now()
	c.cancelTick = c.sched.Every(c.cfg.TickInterval, func(now time.Time) { c.tick(runID, now) })
	c.log.WithFields(logrus.Fields{
		"run_id":   runID,
		"duration": c.cfg.Duration,
		"interval": c.cfg.TickInterval,
	}).Info("session started")
	c.publish()
	return nil
}

func (c *Controller) accessErr() error {
	if c.access == nil {
		return fmt.Errorf("%w: access has not been requested", ErrPermissionDenied)
	}
	return c.access.Err()
}

// Stop ends the active run. It is a no-op unless a run is active.
func (c *Controller) Stop() {
	if c.state.Status != StatusRunning {
		return
	}
	c.finish(ReasonStopped, nil)
}

// Interrupt ends the active run because the application is going away.
func (c *Controller) Interrupt() {
	if c.state.Status != StatusRunning {
		return
	}
	c.finish(ReasonInterrupted, nil)
}

// Reset acknowledges a finished run and returns to Idle.
func (c *Controller) Reset() error {
	switch c.state.Status {
	case StatusIdle:
		return nil
	case StatusRunning:
		return fmt.Errorf("%w: reset while running", ErrInvalidTransition)
	}

	c.timer.Reset()
	c.state = State{
		Status:        StatusIdle,
		Duration:      c.cfg.Duration,
		MicAuthorized: c.state.MicAuthorized,
	}
	if err := c.accessErr(); err != nil && c.access != nil {
		var pe *PermissionError
		if errors.As(err, &pe) {
			c.state.Err = err
			c.state.Message = pe.Message()
		}
	}
	c.publish()
	return nil
}

// Close interrupts any active run.
func (c *Controller) Close() {
	c.Interrupt()
}

func (c *Controller) transcriptFunc(runID string) func(string) {
	return func(text string) {
		c.dispatch(func() { c.applyTranscript(runID, text) })
	}
}

func (c *Controller) errorFunc(runID string) func(error) {
	return func(err error) {
		c.dispatch(func() { c.fail(runID, err) })
	}
}

func (c *Controller) current(runID string) bool {
	return c.state.Status == StatusRunning && c.state.RunID == runID
}

func (c *Controller) applyTranscript(runID, text string) {
	if !c.current(runID) {
		c.log.WithField("run_id", runID).Debug("discarding late transcript update")
		return
	}
	c.state.Transcript = text
	c.publish()
}

func (c *Controller) fail(runID string, err error) {
	if !c.current(runID) {
		return
	}
	var de *DeviceError
	if !errors.As(err, &de) {
		err = &DeviceError{Op: "transcribe", Err: err}
	}
	c.log.WithError(err).WithField("run_id", runID).Error("transcription source failed")
	c.finish(ReasonDeviceError, err)
}

func (c *Controller) tick(runID string, now time.Time) {
	if !c.current(runID) {
		return
	}
	delta := now.Sub(c.lastTick)
	c.lastTick = now
	exhausted := c.timer.Tick(delta)
	c.state.Elapsed = c.timer.Elapsed()
	if exhausted {
		c.finish(ReasonTimeout, nil)
		return
	}
	c.publish()
}

func (c *Controller) finish(reason EndReason, cause error) {
	if c.cancelTick != nil {
		c.cancelTick()
		c.cancelTick = nil
	}
	c.timer.Stop()
	if err := c.source.Stop(); err != nil {
		c.log.WithError(err).WithField("run_id", c.state.RunID).Warn("stopping transcription source")
	}

	c.state.Status = StatusFinished
	c.state.Recording = false
	c.state.Elapsed = c.timer.Elapsed()
	c.state.Err = cause
	if cause != nil {
		c.state.Message = cause.Error()
	}

	result := Result{
		RunID:   c.state.RunID,
		Counts:  Analyze(c.state.Transcript),
		Elapsed: c.state.Elapsed,
		Reason:  reason,
		Err:     cause,
	}
	c.result = &result

	c.log.WithFields(logrus.Fields{
		"run_id":  result.RunID,
		"reason":  reason,
		"elapsed": result.Elapsed,
		"words":   result.WordCount,
		"unique":  result.UniqueWordCount,
	}).Info("session finished")

	c.publish()
	for _, o := range c.observers {
		o.SessionFinished(result)
	}
}

func (c *Controller) publish() {
	for _, o := range c.observers {
		o.StateChanged(c.state)
	}
}
