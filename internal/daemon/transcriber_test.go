package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwulff/wpm/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	updates chan string
	errs    chan error
}

func newRecorder() *recorder {
	return &recorder{updates: make(chan string, 16), errs: make(chan error, 4)}
}

func (r *recorder) onUpdate(s string) { r.updates <- s }
func (r *recorder) onError(err error) { r.errs <- err }

func (r *recorder) next(t *testing.T) string {
	t.Helper()
	select {
	case s := <-r.updates:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no transcript update")
		return ""
	}
}

func TestTranscriberCumulativeTranscript(t *testing.T) {
	d := newMockDaemon(t, map[string]Response{
		"start": {OK: true, SessionID: "sess-1"},
	})
	tr := NewTranscriber(d.path, "en_US", "", nil)
	rec := newRecorder()

	require.NoError(t, tr.Start(context.Background(), rec.onUpdate, rec.onError))
	defer tr.Stop()
	conn := <-d.subscribers

	emit(t, conn, Event{Event: EventPartial, Text: "the"})
	emit(t, conn, Event{Event: EventPartial, Text: "the quick"})
	emit(t, conn, Event{Event: EventSegment, Text: "the quick fox"})
	emit(t, conn, Event{Event: EventPartial, Text: "jumps"})
	emit(t, conn, Event{Event: EventPartial, Text: "jumps over"})

	assert.Equal(t, "the", rec.next(t))
	assert.Equal(t, "the quick", rec.next(t))
	assert.Equal(t, "the quick fox", rec.next(t))
	assert.Equal(t, "the quick fox jumps", rec.next(t))
	assert.Equal(t, "the quick fox jumps over", rec.next(t))
	assert.Equal(t, []string{"subscribe", "start"}, d.sent())
}

func TestTranscriberStopDropsLaterEvents(t *testing.T) {
	d := newMockDaemon(t, nil)
	tr := NewTranscriber(d.path, "", "", nil)
	rec := newRecorder()

	require.NoError(t, tr.Start(context.Background(), rec.onUpdate, rec.onError))
	conn := <-d.subscribers
	emit(t, conn, Event{Event: EventPartial, Text: "before"})
	assert.Equal(t, "before", rec.next(t))

	require.NoError(t, tr.Stop())
	conn.Write([]byte(`{"event":"partial","text":"after"}` + "\n"))

	select {
	case s := <-rec.updates:
		t.Fatalf("unexpected update after stop: %q", s)
	case err := <-rec.errs:
		t.Fatalf("unexpected error after stop: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Contains(t, d.sent(), "stop")
	assert.NoError(t, tr.Stop(), "second stop is a no-op")
}

func TestTranscriberStartPermissionDenied(t *testing.T) {
	tests := []struct {
		code    string
		missing session.Permission
	}{
		{CodeMicDenied, session.PermissionMicrophone},
		{CodeSpeechDenied, session.PermissionSpeech},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			d := newMockDaemon(t, map[string]Response{
				"start": {OK: false, Code: tt.code, Error: "denied"},
			})
			tr := NewTranscriber(d.path, "", "", nil)
			rec := newRecorder()

			err := tr.Start(context.Background(), rec.onUpdate, rec.onError)
			require.ErrorIs(t, err, session.ErrPermissionDenied)
			var pe *session.PermissionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.missing, pe.Missing)

			assert.NoError(t, tr.Stop())
		})
	}
}

func TestTranscriberStartDeviceFailure(t *testing.T) {
	d := newMockDaemon(t, map[string]Response{
		"start": {OK: false, Code: CodeNoDevice, Error: "no input device"},
	})
	tr := NewTranscriber(d.path, "", "", nil)
	err := tr.Start(context.Background(), func(string) {}, func(error) {})
	assert.ErrorIs(t, err, session.ErrDevice)
	assert.ErrorContains(t, err, "no input device")
}

func TestTranscriberDaemonNotRunning(t *testing.T) {
	tr := NewTranscriber("/nonexistent/speechd.sock", "", "", nil)
	err := tr.Start(context.Background(), func(string) {}, func(error) {})
	assert.ErrorIs(t, err, session.ErrDevice)

	_, err = tr.RequestAccess(context.Background())
	assert.Error(t, err)
}

func TestTranscriberFatalErrorEvent(t *testing.T) {
	d := newMockDaemon(t, nil)
	tr := NewTranscriber(d.path, "", "", nil)
	rec := newRecorder()

	require.NoError(t, tr.Start(context.Background(), rec.onUpdate, rec.onError))
	defer tr.Stop()
	conn := <-d.subscribers

	emit(t, conn, Event{Event: EventError, Message: "hiccup", Transient: BoolPtr(true)})
	emit(t, conn, Event{Event: EventError, Message: "audio engine stopped"})

	select {
	case err := <-rec.errs:
		assert.ErrorIs(t, err, session.ErrDevice)
		assert.ErrorContains(t, err, "audio engine stopped")
	case <-time.After(2 * time.Second):
		t.Fatal("fatal error was not reported")
	}
}

func TestTranscriberConnectionLost(t *testing.T) {
	d := newMockDaemon(t, nil)
	tr := NewTranscriber(d.path, "", "", nil)
	rec := newRecorder()

	require.NoError(t, tr.Start(context.Background(), rec.onUpdate, rec.onError))
	defer tr.Stop()
	conn := <-d.subscribers
	conn.Close()

	select {
	case err := <-rec.errs:
		assert.ErrorIs(t, err, session.ErrDevice)
		assert.NotContains(t, err.Error(), "read event: read event")
	case <-time.After(2 * time.Second):
		t.Fatal("lost connection was not reported")
	}
}

func TestTranscriberContextCancelIsNotAnError(t *testing.T) {
	d := newMockDaemon(t, nil)
	tr := NewTranscriber(d.path, "", "", nil)
	rec := newRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, tr.Start(ctx, rec.onUpdate, rec.onError))
	conn := <-d.subscribers
	emit(t, conn, Event{Event: EventPartial, Text: "so far"})
	assert.Equal(t, "so far", rec.next(t))

	cancel()

	select {
	case err := <-rec.errs:
		t.Fatalf("cancelled context reported as error: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
	assert.NoError(t, tr.Stop())
	assert.Contains(t, d.sent(), "stop")
}

func TestTranscriberStartCancelledContext(t *testing.T) {
	d := newMockDaemon(t, nil)
	tr := NewTranscriber(d.path, "", "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tr.Start(ctx, func(string) {}, func(error) {})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, d.sent(), "start")
}

func TestTranscriberStartGivesUpWithContext(t *testing.T) {
	d := newMockDaemon(t, nil)
	d.hangOn("start")
	tr := NewTranscriber(d.path, "", "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	began := time.Now()
	err := tr.Start(ctx, func(string) {}, func(error) {})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(began), time.Second)

	// The failed start left nothing behind to stop.
	assert.NoError(t, tr.Stop())
	assert.NotContains(t, d.sent(), "stop")
}

func TestTranscriberRequestAccess(t *testing.T) {
	d := newMockDaemon(t, map[string]Response{
		"permissions": {OK: true, Microphone: BoolPtr(true), Speech: BoolPtr(false)},
	})
	tr := NewTranscriber(d.path, "", "", nil)

	access, err := tr.RequestAccess(context.Background())
	require.NoError(t, err)
	assert.True(t, access.Microphone)
	assert.False(t, access.Speech)
	assert.False(t, access.Granted())
}

func TestTranscriptString(t *testing.T) {
	tests := []struct {
		name string
		tr   transcript
		want string
	}{
		{"empty", transcript{}, ""},
		{"partial only", transcript{partial: "hi"}, "hi"},
		{"segments and partial", transcript{segments: []string{"a b", "c"}, partial: "d"}, "a b c d"},
		{"trims edges", transcript{segments: []string{" a "}, partial: " "}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tr.String())
		})
	}
}
