package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateReport creates a new report record in running state
func (s *Storage) CreateReport(targetName, provider, project string) (*ReportRecord, error) {
	now := time.Now()
	result, err := s.db.Exec(
		"INSERT INTO reports (status, target_name, provider, project, collected_at) VALUES (?, ?, ?, ?, ?)",
		"running", targetName, provider, project, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get report ID: %w", err)
	}

	return &ReportRecord{
		ID:          int(id),
		Status:      "running",
		TargetName:  targetName,
		Provider:    provider,
		Project:     project,
		CollectedAt: now,
	}, nil
}

// FinishReport records a report's final status, totals, and payload
func (s *Storage) FinishReport(reportID int, status string, totalPipelines, totalTypes int, duration time.Duration, payload []byte) error {
	now := time.Now()
	durationStr := duration.String()
	_, err := s.db.Exec(
		"UPDATE reports SET status = ?, finished_at = ?, duration = ?, total_pipelines = ?, total_pipeline_types = ?, payload = ? WHERE id = ?",
		status, now, durationStr, totalPipelines, totalTypes, payload, reportID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish report: %w", err)
	}
	return nil
}

// GetReports retrieves recent report records without payloads, most recent first
func (s *Storage) GetReports(limit int) ([]*ReportRecord, error) {
	query := `SELECT id, status, target_name, provider, project, collected_at, finished_at, duration,
		total_pipelines, total_pipeline_types FROM reports ORDER BY collected_at DESC LIMIT ?`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*ReportRecord
	for rows.Next() {
		record, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		reports = append(reports, record)
	}

	return reports, rows.Err()
}

// GetReport retrieves a single report including its payload
func (s *Storage) GetReport(reportID int) (*ReportRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, status, target_name, provider, project, collected_at, finished_at, duration,
			total_pipelines, total_pipeline_types, payload FROM reports WHERE id = ?`,
		reportID,
	)

	var r ReportRecord
	var finishedAt sql.NullTime
	var duration sql.NullString
	var payload sql.NullString

	err := row.Scan(&r.ID, &r.Status, &r.TargetName, &r.Provider, &r.Project, &r.CollectedAt,
		&finishedAt, &duration, &r.TotalPipelines, &r.TotalPipelineTypes, &payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	if duration.Valid {
		durationStr := duration.String
		r.Duration = &durationStr
	}
	if payload.Valid {
		r.Payload = []byte(payload.String)
	}

	return &r, nil
}

func scanReport(scan func(dest ...any) error) (*ReportRecord, error) {
	var r ReportRecord
	var finishedAt sql.NullTime
	var duration sql.NullString

	err := scan(&r.ID, &r.Status, &r.TargetName, &r.Provider, &r.Project, &r.CollectedAt,
		&finishedAt, &duration, &r.TotalPipelines, &r.TotalPipelineTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	if duration.Valid {
		durationStr := duration.String
		r.Duration = &durationStr
	}

	return &r, nil
}
