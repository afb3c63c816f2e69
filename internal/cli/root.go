// Package cli wires the wpm commands: the interactive TUI, a plain
// line-mode session, and helpers for transcripts, settings and the daemon.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jwulff/wpm/internal/config"
	"github.com/jwulff/wpm/internal/daemon"
	"github.com/jwulff/wpm/internal/db"
	"github.com/jwulff/wpm/internal/logging"
	"github.com/jwulff/wpm/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Transcription is a source that can also report its permissions.
type Transcription interface {
	session.Source
	session.Authorizer
}

// App holds what the commands share. Zero fields are filled in from the
// config file when a command runs.
type App struct {
	ConfigPath string
	Config     *config.Config
	Log        *logrus.Logger
	Version    string

	// In is read by analyze and by plain mode; defaults to os.Stdin.
	In io.Reader

	// IsInteractive reports whether the TUI can take over the terminal.
	IsInteractive func() bool

	// NewSource builds the transcription source; defaults to the speech
	// daemon at Config.SocketPath.
	NewSource func(cfg *config.Config, log logrus.FieldLogger) Transcription

	store *db.Store
}

// NewRootCmd creates the top-level "wpm" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var plain bool
	var seconds int

	root := &cobra.Command{
		Use:   "wpm",
		Short: "Time a read-aloud session and count the words you spoke",
		Long: `wpm records you reading aloud through the speech daemon, transcribes as you
go, and when the timer runs out (or you stop) reports how many words and
unique words you read.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain || !app.interactive() {
				return app.runPlain(cmd.Context(), cmd.OutOrStdout(), seconds)
			}
			if cmd.Flags().Changed("duration") {
				return fmt.Errorf("--duration applies to --plain runs; use the settings screen in the TUI")
			}
			return app.runTUI(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigPath, "config", app.ConfigPath, "Config file (default ~/.wpm/config.yaml)")
	root.Flags().BoolVar(&plain, "plain", false, "Run without the full-screen UI")
	root.Flags().IntVar(&seconds, "duration", 0, "Timer length in seconds for a --plain run (default: saved setting)")

	root.AddCommand(
		newAnalyzeCmd(app),
		newSettingsCmd(app),
		newStatusCmd(app),
		newMCPCmd(app),
	)

	return root
}

func (a *App) setup(cmd *cobra.Command) error {
	if a.Config == nil {
		cfg, err := config.Load(a.ConfigPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a.Config = cfg
	}
	if a.Log == nil {
		log, err := logging.New(a.Config.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		a.Log = log
	}
	return nil
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) in() io.Reader {
	if a.In == nil {
		return os.Stdin
	}
	return a.In
}

func (a *App) source(log logrus.FieldLogger) Transcription {
	if a.NewSource != nil {
		return a.NewSource(a.Config, log)
	}
	return daemon.NewTranscriber(a.Config.SocketPath, a.Config.Locale, a.Config.Device, log)
}

// openStore opens the settings database once per process.
func (a *App) openStore() (*db.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := db.Open(a.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.store = store
	return store, nil
}

// Close releases the database, if one was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// sessionConfig resolves the timer length: an explicit seconds value wins,
// then the saved setting, then the default.
func (a *App) sessionConfig(ctx context.Context, store *db.Store, seconds int) (session.Config, error) {
	cfg := session.Config{Duration: session.DefaultDuration, TickInterval: a.Config.TickInterval}
	if store != nil {
		st, err := store.Settings(ctx)
		if err != nil {
			a.Log.WithError(err).Warn("loading saved settings")
		} else {
			cfg.Duration = st.TimerLength
		}
	}
	if seconds != 0 {
		cfg.Duration = time.Duration(seconds) * time.Second
		if cfg.Duration < session.MinDuration || cfg.Duration > session.MaxDuration {
			return cfg, fmt.Errorf("%w: --duration must be between %d and %d seconds, got %d",
				session.ErrInvalidConfig, int(session.MinDuration/time.Second),
				int(session.MaxDuration/time.Second), seconds)
		}
	}
	return cfg, cfg.Validate()
}
