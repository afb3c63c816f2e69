package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwulff/wpm/internal/app"
	"github.com/jwulff/wpm/internal/logging"
	"github.com/jwulff/wpm/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// runTUI runs the full-screen UI. Logs go to the log file because the UI
// owns the terminal.
func (a *App) runTUI(ctx context.Context) error {
	log, closeLog, err := logging.ToFile(a.Config.LogLevel, a.Config.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := a.openStore()
	if err != nil {
		log.WithError(err).Warn("settings will not be saved")
		store = nil
	}

	src := a.source(log)
	bridge := &app.Bridge{}
	ctrl, err := session.New(session.Config{
		Duration:     session.DefaultDuration,
		TickInterval: a.Config.TickInterval,
	}, session.Options{
		Source:     src,
		Authorizer: src,
		Dispatch:   bridge.Dispatch,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	p := tea.NewProgram(app.New(ctx, ctrl, store, log), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	log.Info("tui started")
	_, err = p.Run()
	// The program loop is gone; nothing else touches the controller now.
	ctrl.Close()
	log.Info("tui stopped")

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
