package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig     = errors.New("invalid session config")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrDevice            = errors.New("transcription device error")
)

// Permission names an authorization the reader must grant before recording.
type Permission string

const (
	PermissionMicrophone Permission = "microphone"
	PermissionSpeech     Permission = "speech"
)

// PermissionError reports which authorization is missing.
type PermissionError struct {
	Missing Permission
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s access denied", e.Missing)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// Message returns the text shown in place of the transcript when access is missing.
func (e *PermissionError) Message() string {
	switch e.Missing {
	case PermissionSpeech:
		return "Speech Recognition Access Denied.\n\nGrant speech recognition access to the speech daemon and press r to retry."
	default:
		return "Mic Access Denied.\n\nGrant microphone access to the speech daemon and press r to retry."
	}
}

// DeviceError wraps a failure reported by a transcription source.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() []error { return []error{ErrDevice, e.Err} }
