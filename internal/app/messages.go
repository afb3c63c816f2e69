package app

import (
	"github.com/jwulff/wpm/internal/db"
)

// DispatchMsg carries controller work onto the update loop.
type DispatchMsg struct {
	Fn func()
}

// requestAccessMsg asks the controller to (re)query permissions.
type requestAccessMsg struct{}

// SettingsLoadedMsg carries settings read from SQLite at startup.
type SettingsLoadedMsg struct {
	Settings db.Settings
	Err      error
}

// SettingsSavedMsg carries the settings stored after the form completes.
type SettingsSavedMsg struct {
	Settings db.Settings
	Err      error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
