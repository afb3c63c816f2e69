// Package daemon talks to the speech daemon over a Unix socket using NDJSON
// and adapts it to the session's transcription source.
package daemon

// Command is sent from a client to the daemon.
type Command struct {
	Cmd    string   `json:"cmd"`
	Locale string   `json:"locale,omitempty"`
	Device string   `json:"device,omitempty"`
	Events []string `json:"events,omitempty"`
}

// Error codes carried in Response.Code.
const (
	CodeMicDenied    = "mic_denied"
	CodeSpeechDenied = "speech_denied"
	CodeNoDevice     = "no_device"
)

// Response is returned by the daemon after processing a command.
type Response struct {
	OK         bool     `json:"ok"`
	SessionID  string   `json:"sessionId,omitempty"`
	Recording  *bool    `json:"recording,omitempty"`
	Devices    []string `json:"devices,omitempty"`
	Error      string   `json:"error,omitempty"`
	Code       string   `json:"code,omitempty"`
	Status     string   `json:"status,omitempty"`
	Device     string   `json:"device,omitempty"`
	Microphone *bool    `json:"microphone,omitempty"`
	Speech     *bool    `json:"speech,omitempty"`
}

// Event is streamed from the daemon to subscribed clients.
//
// A "partial" event carries the in-progress utterance and replaces the
// previous partial. A "segment" event finalizes an utterance.
type Event struct {
	Event          string `json:"event"`
	Text           string `json:"text,omitempty"`
	SessionID      string `json:"sessionId,omitempty"`
	SequenceNumber *int   `json:"sequenceNumber,omitempty"`
	Message        string `json:"message,omitempty"`
	Transient      *bool  `json:"transient,omitempty"`
	Recording      *bool  `json:"recording,omitempty"`
}

// Event names.
const (
	EventPartial = "partial"
	EventSegment = "segment"
	EventError   = "error"
	EventStatus  = "status"
)

// BoolPtr returns a pointer to a bool value. Convenience for building responses.
func BoolPtr(b bool) *bool { return &b }

func boolValue(p *bool) bool { return p != nil && *p }
