package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage handles database operations for the report history.
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new storage instance
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &Storage{db: db}
	if err := storage.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates the database tables and handles migrations
func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			status TEXT NOT NULL,
			target_name TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL,
			project TEXT NOT NULL,
			collected_at DATETIME NOT NULL,
			finished_at DATETIME,
			duration TEXT,
			total_pipelines INTEGER NOT NULL DEFAULT 0,
			total_pipeline_types INTEGER NOT NULL DEFAULT 0,
			payload TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pipeline_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id INTEGER NOT NULL,
			pipeline_id TEXT NOT NULL,
			ref TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			job_count INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(report_id) REFERENCES reports(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_collected_at ON reports(collected_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_target_name ON reports(target_name)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_snapshots_report_id ON pipeline_snapshots(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_snapshots_status ON pipeline_snapshots(status)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	// Migrate existing tables if needed
	if err := s.migrateSchema(); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

// migrateSchema adds new columns to existing tables if they don't exist
func (s *Storage) migrateSchema() error {
	migrations := []string{
		// Add target_name to reports if it doesn't exist
		`ALTER TABLE reports ADD COLUMN target_name TEXT NOT NULL DEFAULT ''`,
		// Add source to pipeline_snapshots if it doesn't exist
		`ALTER TABLE pipeline_snapshots ADD COLUMN source TEXT NOT NULL DEFAULT ''`,
	}

	for _, migration := range migrations {
		// Ignore errors if column already exists
		s.db.Exec(migration)
	}

	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
