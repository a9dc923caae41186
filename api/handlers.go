package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"cilens/collector"
	"cilens/config"
	"cilens/events"
	"cilens/gitlab"
	"cilens/storage"
)

// GetReports returns recent report records
func GetReports(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		reports, err := store.GetReports(limit)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get reports: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reports)
	}
}

// GetReport returns a single report with its full payload
func GetReport(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		reportID, ok := parseReportID(w, r)
		if !ok {
			return
		}

		record, err := store.GetReport(reportID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Report not found: %v", err), http.StatusNotFound)
			return
		}

		// Build response with the stored payload inlined as JSON
		response := map[string]interface{}{
			"record": record,
		}
		if len(record.Payload) > 0 {
			response["report"] = json.RawMessage(record.Payload)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// GetReportPipelines returns the pipeline snapshots behind a report
func GetReportPipelines(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		reportID, ok := parseReportID(w, r)
		if !ok {
			return
		}

		snapshots, err := store.GetPipelineSnapshots(reportID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get pipelines: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snapshots)
	}
}

// parseReportID extracts the report ID from /api/reports/:id paths
func parseReportID(w http.ResponseWriter, r *http.Request) (int, bool) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return 0, false
	}

	reportID, err := strconv.Atoi(pathParts[2])
	if err != nil {
		http.Error(w, "Invalid report ID", http.StatusBadRequest)
		return 0, false
	}
	return reportID, true
}

// PostAnalyze triggers a collection run for a configured target
func PostAnalyze(store *storage.Storage, targetsConfig *config.TargetsConfig, token gitlab.Token) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": "Method not allowed",
			})
			return
		}

		var req struct {
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": fmt.Sprintf("Invalid request: %v", err),
			})
			return
		}
		if req.Target == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": "target is required",
			})
			return
		}

		target, err := targetsConfig.GetTarget(req.Target)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": fmt.Sprintf("Target not found: %v", err),
			})
			return
		}

		log.Printf("🚀 Triggering analysis for target %s (%s)", target.Name, target.Project)

		broker := events.GetBroker()
		broker.Broadcast("analysis_started", map[string]interface{}{
			"target":  target.Name,
			"project": target.Project,
			"type":    "manual",
		})

		// Run collection in goroutine - completely async
		go func(target config.Target) {
			result, err := collector.Run(context.Background(), target, collector.Options{
				Store: store,
				Token: token,
			})

			if err != nil {
				log.Printf("❌ Analysis failed for %s: %v", target.Name, err)
				broker.Broadcast("analysis_failed", map[string]interface{}{
					"target": target.Name,
					"error":  err.Error(),
				})
				return
			}

			broker.Broadcast("analysis_completed", map[string]interface{}{
				"target":    target.Name,
				"report_id": result.ReportID,
			})
		}(*target)

		// Return immediately - the report record will appear and polling/SSE picks it up
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": fmt.Sprintf("Analysis started for %s", target.Name),
			"status":  "starting",
		})
	}
}

// GetTargets returns all configured targets with their latest report stats
func GetTargets(targetsConfig *config.TargetsConfig, store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		stats, err := store.GetLatestReportsByTarget(5)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get target stats: %v", err), http.StatusInternalServerError)
			return
		}

		statsByTarget := make(map[string][]storage.TargetReportStats)
		for _, stat := range stats {
			statsByTarget[stat.TargetName] = append(statsByTarget[stat.TargetName], stat)
		}

		type TargetResponse struct {
			config.Target
			Reports []storage.TargetReportStats `json:"reports"`
		}

		targets := make([]TargetResponse, 0, len(targetsConfig.Targets))
		for _, target := range targetsConfig.Targets {
			reports := statsByTarget[target.Name]
			if reports == nil {
				reports = []storage.TargetReportStats{}
			}
			targets = append(targets, TargetResponse{Target: target, Reports: reports})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(targets)
	}
}
