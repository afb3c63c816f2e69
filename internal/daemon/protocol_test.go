package daemon

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jwulff/wpm/internal/session"
)

func TestResponseDeniedCode(t *testing.T) {
	j := `{"ok":false,"error":"Microphone permission denied","code":"mic_denied"}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.OK {
		t.Error("ok = true, want false")
	}

	err := responseError(resp)
	var pe *session.PermissionError
	if !errors.As(err, &pe) || pe.Missing != session.PermissionMicrophone {
		t.Errorf("responseError = %v, want microphone permission error", err)
	}
}

func TestResponseErrorWithoutMessage(t *testing.T) {
	err := responseError(Response{OK: false})
	if !errors.Is(err, session.ErrDevice) {
		t.Errorf("err = %v, want a device error", err)
	}
	if err.Error() != "start: daemon refused to start" {
		t.Errorf("err = %q", err.Error())
	}
}

func TestEventDecoding(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		check func(t *testing.T, ev Event)
	}{
		{
			name: "partial",
			json: `{"event":"partial","text":"hello world"}`,
			check: func(t *testing.T, ev Event) {
				if ev.Event != EventPartial || ev.Text != "hello world" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
		{
			name: "segment",
			json: `{"event":"segment","text":"Hello there","sessionId":"sess-1","sequenceNumber":5}`,
			check: func(t *testing.T, ev Event) {
				if ev.SequenceNumber == nil || *ev.SequenceNumber != 5 {
					t.Errorf("sequenceNumber = %v, want 5", ev.SequenceNumber)
				}
				if ev.SessionID != "sess-1" {
					t.Errorf("sessionId = %q", ev.SessionID)
				}
			},
		},
		{
			name: "transient error",
			json: `{"event":"error","message":"recognizer hiccup","transient":true}`,
			check: func(t *testing.T, ev Event) {
				if !boolValue(ev.Transient) || ev.Message != "recognizer hiccup" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
		{
			name: "status stopped",
			json: `{"event":"status","recording":false}`,
			check: func(t *testing.T, ev Event) {
				if ev.Recording == nil || *ev.Recording {
					t.Errorf("recording = %v, want false", ev.Recording)
				}
			},
		},
		{
			name: "unknown fields ignored",
			json: `{"event":"level","mic":0.75}`,
			check: func(t *testing.T, ev Event) {
				if ev.Event != "level" {
					t.Errorf("event = %q", ev.Event)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev Event
			if err := json.Unmarshal([]byte(tt.json), &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			tt.check(t, ev)
		})
	}
}
