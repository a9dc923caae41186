package storage

import (
	"database/sql"
	"fmt"
)

// TargetReportStats represents the latest reports grouped by target
type TargetReportStats struct {
	TargetName         string  `json:"target_name"`
	ReportID           int     `json:"report_id"`
	Status             string  `json:"status"`
	Duration           *string `json:"duration,omitempty"`
	CollectedAt        string  `json:"collected_at"`
	TotalPipelines     int     `json:"total_pipelines"`
	TotalPipelineTypes int     `json:"total_pipeline_types"`
}

// GetLatestReportsByTarget returns the latest reports for each target
func (s *Storage) GetLatestReportsByTarget(limit int) ([]TargetReportStats, error) {
	// Simple query without window functions for better SQLite compatibility
	query := `
		SELECT
			r.target_name,
			r.id,
			r.status,
			r.duration,
			r.collected_at,
			r.total_pipelines,
			r.total_pipeline_types
		FROM reports r
		ORDER BY r.target_name, r.collected_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reports: %w", err)
	}
	defer rows.Close()

	// Group by target and limit per target
	targetCounts := make(map[string]int)
	stats := make([]TargetReportStats, 0)

	for rows.Next() {
		var stat TargetReportStats
		var duration sql.NullString

		err := rows.Scan(
			&stat.TargetName,
			&stat.ReportID,
			&stat.Status,
			&duration,
			&stat.CollectedAt,
			&stat.TotalPipelines,
			&stat.TotalPipelineTypes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report stats: %w", err)
		}

		// Limit reports per target
		if targetCounts[stat.TargetName] >= limit {
			continue
		}
		targetCounts[stat.TargetName]++

		if duration.Valid {
			durationStr := duration.String
			stat.Duration = &durationStr
		}

		stats = append(stats, stat)
	}

	return stats, rows.Err()
}
