package storage

import (
	"database/sql"
	"fmt"

	"cilens/insight"
)

// SavePipelineSnapshots stores one row per ingested pipeline for a report
func (s *Storage) SavePipelineSnapshots(reportID int, runs []*insight.PipelineRun) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO pipeline_snapshots (report_id, pipeline_id, ref, source, status, started_at, finished_at, job_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, run := range runs {
		_, err := stmt.Exec(reportID, run.ID, run.Ref, run.Source, run.Status, run.StartedAt, run.FinishedAt, len(run.Jobs))
		if err != nil {
			return fmt.Errorf("failed to insert pipeline snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// GetPipelineSnapshots retrieves all pipeline snapshots for a report
func (s *Storage) GetPipelineSnapshots(reportID int) ([]*PipelineSnapshot, error) {
	rows, err := s.db.Query(
		`SELECT id, report_id, pipeline_id, ref, source, status, started_at, finished_at, job_count
		 FROM pipeline_snapshots WHERE report_id = ? ORDER BY started_at DESC`,
		reportID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*PipelineSnapshot
	for rows.Next() {
		var snap PipelineSnapshot
		var finishedAt sql.NullTime

		err := rows.Scan(&snap.ID, &snap.ReportID, &snap.PipelineID, &snap.Ref, &snap.Source,
			&snap.Status, &snap.StartedAt, &finishedAt, &snap.JobCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pipeline snapshot: %w", err)
		}

		if finishedAt.Valid {
			snap.FinishedAt = &finishedAt.Time
		}

		snapshots = append(snapshots, &snap)
	}

	return snapshots, rows.Err()
}
