package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

//go:embed schema.sql
var initialSchema string

type migration struct {
	version int
	name    string
	up      string
}

func migrations() []migration {
	return []migration{
		{version: 1, name: "initial_schema", up: initialSchema},
	}
}

// migrate applies every migration newer than the recorded version.
func migrate(ctx context.Context, db *DB) error {
	_, err := db.conn.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return types.WrapError(types.DB_MIGRATION_FAILED, "failed to create migrations table", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, mig := range migrations() {
		if mig.version <= current {
			continue
		}
		err := db.WithTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range splitSQL(mig.up) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
				}
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
				mig.version, mig.name)
			return err
		})
		if err != nil {
			return types.WrapError(types.DB_MIGRATION_FAILED,
				fmt.Sprintf("failed to apply migration %d (%s)", mig.version, mig.name), err)
		}
	}
	return nil
}

func currentVersion(ctx context.Context, db *DB) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, types.WrapError(types.DB_MIGRATION_FAILED, "failed to query schema version", err)
	}
	return version, nil
}

// splitSQL splits a script on ';' and strips comment lines. The schema has
// no string literals containing semicolons.
func splitSQL(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		if s := strings.TrimSpace(strings.Join(lines, "\n")); s != "" {
			out = append(out, s)
		}
	}
	return out
}
