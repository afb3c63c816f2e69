package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides access to the wpm SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases from splitting per
	// connection and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Settings returns the saved settings, or DefaultSettings if none were saved.
func (s *Store) Settings(ctx context.Context) (Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT timerLengthSec, ringColor, ringCardColor, transcriptCardColor, updatedAt
		FROM settings
		WHERE id = 1
	`)

	var st Settings
	var secs int64
	var updatedAt float64
	if err := row.Scan(&secs, &st.RingColor, &st.RingCardColor,
		&st.TranscriptCardColor, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("scan settings: %w", err)
	}
	st.TimerLength = time.Duration(secs) * time.Second
	st.UpdatedAt = timeFromUnix(updatedAt)
	return st, nil
}

// SaveSettings stores st, replacing any saved settings. The timer length is
// kept in whole seconds.
func (s *Store) SaveSettings(ctx context.Context, st Settings) (Settings, error) {
	secs := int64(st.TimerLength.Round(time.Second) / time.Second)
	if secs < 1 || secs > 60 {
		return Settings{}, fmt.Errorf("timer length must be 1-60 seconds, got %s", st.TimerLength)
	}

	st.TimerLength = time.Duration(secs) * time.Second
	st.UpdatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, timerLengthSec, ringColor, ringCardColor, transcriptCardColor, updatedAt)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timerLengthSec = excluded.timerLengthSec,
			ringColor = excluded.ringColor,
			ringCardColor = excluded.ringCardColor,
			transcriptCardColor = excluded.transcriptCardColor,
			updatedAt = excluded.updatedAt
	`, secs, st.RingColor, st.RingCardColor, st.TranscriptCardColor, unixFromTime(st.UpdatedAt))
	if err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return st, nil
}

// ResetSettings forgets saved settings and returns the defaults.
func (s *Store) ResetSettings(ctx context.Context) (Settings, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE id = 1`); err != nil {
		return Settings{}, fmt.Errorf("reset settings: %w", err)
	}
	return DefaultSettings(), nil
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
