package migrations

import (
	"database/sql"
	"fmt"

	"wealthtrack/internal/utils"
)

type Migration struct {
	Version     int
	Description string
	Func        func(*sql.DB) error
}

var Migrations = []Migration{
	{
		Version:     1,
		Description: "Create portfolio snapshots",
		Func:        CreatePortfolioSnapshots,
	},
	// Add future migrations here
}

// RunMigrations applies every migration not yet recorded in
// schema_migrations, in version order.
func RunMigrations(db *sql.DB, logger utils.Logger) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version INTEGER PRIMARY KEY,
            description TEXT NOT NULL,
            applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
    `)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %v", err)
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %v", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %v", err)
		}
		applied[version] = true
	}

	for _, migration := range Migrations {
		if applied[migration.Version] {
			continue
		}
		logger.Info("Running migration %d: %s", migration.Version, migration.Description)

		if err := migration.Func(db); err != nil {
			return fmt.Errorf("migration %d failed: %v", migration.Version, err)
		}

		_, err := db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version,
			migration.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %v", migration.Version, err)
		}

		logger.Info("Migration %d completed", migration.Version)
	}

	return nil
}

// CreatePortfolioSnapshots creates the table holding full analysis results.
// The summary columns make history queries cheap; the JSONB column keeps the
// complete result so the latest snapshot can be served without recomputing.
func CreatePortfolioSnapshots(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS portfolio_snapshots (
            id SERIAL PRIMARY KEY,
            total_value DOUBLE PRECISION NOT NULL DEFAULT 0,
            total_invested DOUBLE PRECISION NOT NULL DEFAULT 0,
            xirr DOUBLE PRECISION NOT NULL DEFAULT 0,
            upload_date TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            data JSONB NOT NULL
        );
    `)
	if err != nil {
		return fmt.Errorf("failed to create portfolio_snapshots table: %v", err)
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_portfolio_snapshots_upload_date
        ON portfolio_snapshots (upload_date DESC);
    `)
	if err != nil {
		return fmt.Errorf("failed to create portfolio_snapshots index: %v", err)
	}

	return nil
}
