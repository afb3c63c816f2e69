// Package db persists reader settings in SQLite.
package db

import "time"

// Settings are the reader-adjustable options shown on the settings screen.
type Settings struct {
	TimerLength         time.Duration
	RingColor           string
	RingCardColor       string
	TranscriptCardColor string
	UpdatedAt           time.Time
}

// DefaultSettings are restored by Reset: a one minute timer, blue ring on a
// green card, blue transcript card.
func DefaultSettings() Settings {
	return Settings{
		TimerLength:         60 * time.Second,
		RingColor:           "blue",
		RingCardColor:       "green",
		TranscriptCardColor: "blue",
	}
}
