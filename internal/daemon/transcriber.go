package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jwulff/wpm/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	commandTimeout = 3 * time.Second
	stopTimeout    = time.Second
)

// Transcriber is a session.Source and session.Authorizer backed by the
// speech daemon. It holds two connections while recording: one for commands
// and one for the event subscription.
type Transcriber struct {
	socketPath string
	locale     string
	device     string
	log        logrus.FieldLogger

	mu      sync.Mutex
	client  *Client
	evConn  *Client
	run     int
	release func() bool
}

// NewTranscriber returns a transcriber for the daemon at socketPath.
func NewTranscriber(socketPath, locale, device string, log logrus.FieldLogger) *Transcriber {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Transcriber{
		socketPath: socketPath,
		locale:     locale,
		device:     device,
		log:        log.WithField("component", "daemon"),
	}
}

// RequestAccess asks the daemon which permissions it holds.
func (t *Transcriber) RequestAccess(ctx context.Context) (session.Access, error) {
	resp, err := t.oneShot(ctx, Command{Cmd: "permissions"})
	if err != nil {
		return session.Access{}, err
	}
	if !resp.OK {
		return session.Access{}, fmt.Errorf("permissions: %s", resp.Error)
	}
	return session.Access{
		Microphone: boolValue(resp.Microphone),
		Speech:     boolValue(resp.Speech),
	}, nil
}

// Status fetches the daemon status on a short-lived connection.
func (t *Transcriber) Status(ctx context.Context) (Response, error) {
	return t.oneShot(ctx, Command{Cmd: "status"})
}

func (t *Transcriber) oneShot(ctx context.Context, cmd Command) (Response, error) {
	client, err := Connect(t.socketPath)
	if err != nil {
		return Response{}, err
	}
	defer client.Close()

	if err := client.SetDeadline(deadline(ctx, commandTimeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	return client.SendCommand(cmd)
}

// deadline is now+timeout, or ctx's deadline when that comes first.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}

// Start subscribes to transcript events and starts recording. onUpdate gets
// the cumulative transcript: every finalized segment followed by the current
// partial utterance.
//
// The subscribe and start exchange shares one commandTimeout and is abandoned
// as soon as ctx is done. Cancelling ctx later ends the event stream without
// reporting an error; the caller is expected to Stop.
func (t *Transcriber) Start(ctx context.Context, onUpdate func(string), onError func(error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		return &session.DeviceError{Op: "start", Err: errors.New("already recording")}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}

	evConn, err := Connect(t.socketPath)
	if err != nil {
		return &session.DeviceError{Op: "connect", Err: err}
	}
	client, err := Connect(t.socketPath)
	if err != nil {
		evConn.Close()
		return &session.DeviceError{Op: "connect", Err: err}
	}

	closeBoth := func() {
		evConn.Close()
		client.Close()
	}
	abandon := context.AfterFunc(ctx, closeBoth)
	fail := func(err error) error {
		abandon()
		closeBoth()
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("start recording: %w", cerr)
		}
		return err
	}

	handshake := deadline(ctx, commandTimeout)
	evConn.SetDeadline(handshake)
	client.SetDeadline(handshake)

	// Subscribe first so no event between start and subscribe is missed.
	resp, err := evConn.SendCommand(Command{
		Cmd:    "subscribe",
		Events: []string{EventPartial, EventSegment, EventError, EventStatus},
	})
	if err != nil {
		return fail(&session.DeviceError{Op: "subscribe", Err: err})
	}
	if !resp.OK {
		return fail(&session.DeviceError{Op: "subscribe", Err: errors.New(resp.Error)})
	}

	resp, err = client.SendCommand(Command{Cmd: "start", Locale: t.locale, Device: t.device})
	if err != nil {
		return fail(&session.DeviceError{Op: "start", Err: err})
	}
	if !resp.OK {
		return fail(responseError(resp))
	}
	if !abandon() {
		// ctx finished during the exchange and the connections are gone.
		return fail(nil)
	}
	evConn.SetDeadline(time.Time{})
	client.SetDeadline(time.Time{})

	t.client = client
	t.evConn = evConn
	t.run++
	run := t.run
	t.release = context.AfterFunc(ctx, func() { evConn.Close() })

	t.log.WithFields(logrus.Fields{
		"daemon_session": resp.SessionID,
		"device":         resp.Device,
	}).Info("recording started")

	go t.readEvents(ctx, evConn, run, onUpdate, onError)
	return nil
}

// Stop asks the daemon to stop recording and closes both connections. It does
// not wait for the event reader; events it reads afterwards are dropped. The
// stop command gets stopTimeout, since it runs on the caller's UI thread.
func (t *Transcriber) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil
	}
	t.run++
	if t.release != nil {
		t.release()
		t.release = nil
	}

	var stopErr error
	t.client.SetDeadline(time.Now().Add(stopTimeout))
	resp, err := t.client.SendCommand(Command{Cmd: "stop"})
	switch {
	case err != nil:
		stopErr = fmt.Errorf("stop recording: %w", err)
	case !resp.OK:
		stopErr = fmt.Errorf("stop recording: %s", resp.Error)
	}

	t.client.Close()
	t.evConn.Close()
	t.client = nil
	t.evConn = nil
	t.log.Info("recording stopped")
	return stopErr
}

func (t *Transcriber) active(run int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run == run && t.client != nil
}

func (t *Transcriber) readEvents(ctx context.Context, conn *Client, run int, onUpdate func(string), onError func(error)) {
	var tr transcript
	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			// A cancelled ctx closed the stream; the run is being interrupted,
			// not failing.
			if ctx.Err() == nil && t.active(run) {
				onError(&session.DeviceError{Op: "subscription", Err: err})
			}
			return
		}
		if !t.active(run) {
			return
		}

		switch ev.Event {
		case EventPartial:
			tr.partial = ev.Text
			onUpdate(tr.String())

		case EventSegment:
			tr.segments = append(tr.segments, ev.Text)
			tr.partial = ""
			onUpdate(tr.String())

		case EventError:
			if boolValue(ev.Transient) {
				t.log.WithField("message", ev.Message).Warn("transient recognizer error")
				continue
			}
			onError(&session.DeviceError{Op: "recognize", Err: errors.New(ev.Message)})
			return

		case EventStatus:
			if ev.Recording != nil && !*ev.Recording {
				onError(&session.DeviceError{Op: "recognize", Err: errors.New("daemon stopped recording")})
				return
			}
		}
	}
}

// transcript accumulates finalized segments plus the in-flight partial.
type transcript struct {
	segments []string
	partial  string
}

func (t transcript) String() string {
	parts := make([]string, 0, len(t.segments)+1)
	for _, s := range t.segments {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if p := strings.TrimSpace(t.partial); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func responseError(resp Response) error {
	switch resp.Code {
	case CodeMicDenied:
		return &session.PermissionError{Missing: session.PermissionMicrophone}
	case CodeSpeechDenied:
		return &session.PermissionError{Missing: session.PermissionSpeech}
	default:
		msg := resp.Error
		if msg == "" {
			msg = "daemon refused to start"
		}
		return &session.DeviceError{Op: "start", Err: errors.New(msg)}
	}
}
