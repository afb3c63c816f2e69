package db

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		id                    INTEGER PRIMARY KEY CHECK (id = 1),
		timerLengthSec        INTEGER NOT NULL CHECK (timerLengthSec BETWEEN 1 AND 60),
		ringColor             TEXT NOT NULL,
		ringCardColor         TEXT NOT NULL,
		transcriptCardColor   TEXT NOT NULL,
		updatedAt             REAL NOT NULL
	)`,
}

// Migrate runs all schema migrations. Each statement is idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
