package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cilens/collector"
	"cilens/config"
	"cilens/gitlab"
	"cilens/storage"
)

var analyzeFlags struct {
	url               string
	project           string
	branch            string
	token             string
	limit             int
	minTypePercentage float64
	output            string
	pretty            bool
	save              bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Collect and analyze pipelines for one project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze()
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlags.url, "url", "https://gitlab.com", "GitLab instance URL")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.project, "project", "P", "", "project ID or path (e.g. group/project)")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.branch, "branch", "b", "", "branch to filter pipelines")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.token, "token", "t", "", "GitLab API token (defaults to GITLAB_TOKEN)")
	analyzeCmd.Flags().IntVarP(&analyzeFlags.limit, "limit", "l", 20, "number of pipelines to analyze")
	analyzeCmd.Flags().Float64Var(&analyzeFlags.minTypePercentage, "min-type-percentage", 1.0, "drop pipeline types below this share of all pipelines")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.output, "output", "o", "", "output file path (defaults to stdout)")
	analyzeCmd.Flags().BoolVarP(&analyzeFlags.pretty, "pretty", "p", false, "pretty print JSON output")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.save, "save", false, "also store the report in the local history database")
	_ = analyzeCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze() error {
	// Load .env file if it exists (ignore errors if it doesn't)
	_ = godotenv.Load()

	token := analyzeFlags.token
	if token == "" {
		token = os.Getenv("GITLAB_TOKEN")
	}

	target := config.Target{
		Name:              analyzeFlags.project,
		URL:               analyzeFlags.url,
		Project:           analyzeFlags.project,
		Branch:            analyzeFlags.branch,
		Limit:             analyzeFlags.limit,
		MinTypePercentage: &analyzeFlags.minTypePercentage,
	}
	if err := target.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	opts := collector.Options{Token: gitlab.NewToken(token)}

	if analyzeFlags.save {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	result, err := collector.Run(context.Background(), target, opts)
	if err != nil {
		return err
	}

	var payload []byte
	if analyzeFlags.pretty {
		payload, err = json.MarshalIndent(result.Report, "", "  ")
	} else {
		payload, err = json.Marshal(result.Report)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	if analyzeFlags.output != "" {
		if err := os.WriteFile(analyzeFlags.output, payload, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.Printf("📄 Report written to %s", analyzeFlags.output)
		return nil
	}

	fmt.Println(string(payload))
	return nil
}

// openStorage initializes the history database in the data directory of the
// current working directory
func openStorage() (*storage.Storage, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	dataDir := filepath.Join(cwd, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.NewStorage(filepath.Join(dataDir, "cilens.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}
