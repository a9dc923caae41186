package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cilens/config"
	"cilens/gitlab"
	"cilens/insight"
	"cilens/storage"
)

// Options configures a collection run
type Options struct {
	Store *storage.Storage // optional report history persistence
	Token gitlab.Token
}

// Result is the outcome of one collection run
type Result struct {
	ReportID int // 0 when no storage was provided
	Report   *insight.Report
	Duration time.Duration
}

// Run fetches the target's pipelines, analyzes them, and optionally persists
// the report. Data-integrity findings do not fail the run; they are logged and
// the partial report is kept.
func Run(ctx context.Context, target config.Target, opts Options) (*Result, error) {
	start := time.Now()

	provider, err := gitlab.NewProvider(target.URL, target.Project, opts.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	result := &Result{}

	// Create report record in database if storage is provided
	var record *storage.ReportRecord
	if opts.Store != nil {
		record, err = opts.Store.CreateReport(target.Name, "gitlab", target.Project)
		if err != nil {
			return nil, fmt.Errorf("failed to create report record: %w", err)
		}
		result.ReportID = record.ID
	}

	runs, err := provider.CollectRuns(ctx, target.Limit, target.Branch)
	if err != nil {
		result.Duration = time.Since(start)
		if opts.Store != nil && record != nil {
			_ = opts.Store.FinishReport(record.ID, "failed", 0, 0, result.Duration, nil)
		}
		return result, fmt.Errorf("collection failed for %s: %w", target.Name, err)
	}

	report, analysisErr := insight.Analyze(insight.Input{
		Provider:    "gitlab",
		Project:     target.Project,
		CollectedAt: time.Now().UTC(),
		Runs:        runs,
		Links:       provider.Links(),
	}, insight.Config{MinTypePercentage: target.Threshold()})
	if report == nil {
		result.Duration = time.Since(start)
		if opts.Store != nil && record != nil {
			_ = opts.Store.FinishReport(record.ID, "failed", 0, 0, result.Duration, nil)
		}
		return result, fmt.Errorf("analysis failed for %s: %w", target.Name, analysisErr)
	}
	if analysisErr != nil {
		log.Printf("⚠️  Analysis finished with data issues for %s: %v", target.Name, analysisErr)
	}

	result.Report = report
	result.Duration = time.Since(start)

	if opts.Store != nil && record != nil {
		payload, err := json.Marshal(report)
		if err != nil {
			return result, fmt.Errorf("failed to marshal report: %w", err)
		}
		err = opts.Store.FinishReport(record.ID, "success", report.TotalPipelines, report.TotalPipelineTypes, result.Duration, payload)
		if err != nil {
			return result, fmt.Errorf("failed to store report: %w", err)
		}
		if err := opts.Store.SavePipelineSnapshots(record.ID, runs); err != nil {
			return result, fmt.Errorf("failed to store pipeline snapshots: %w", err)
		}
	}

	log.Printf("✅ Collected %s: %d pipelines, %d types in %s",
		target.Name, report.TotalPipelines, report.TotalPipelineTypes, result.Duration.Round(time.Millisecond))

	return result, nil
}
