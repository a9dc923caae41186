package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cilens/api"
	"cilens/config"
	"cilens/gitlab"
	"cilens/scheduler"
)

var serveFlags struct {
	port       string
	configPath string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.port, "port", "", "port to listen on (defaults to PORT or 8080)")
	serveCmd.Flags().StringVarP(&serveFlags.configPath, "config", "c", "targets.yml", "targets configuration file")

	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	// Load .env file if it exists (ignore errors if it doesn't)
	_ = godotenv.Load()

	port := serveFlags.port
	if port == "" {
		port = getEnv("PORT", "8080")
	}

	token := gitlab.NewToken(os.Getenv("GITLAB_TOKEN"))

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	// Load targets configuration
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	configPath := serveFlags.configPath
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(cwd, configPath)
	}

	targetsConfig, err := config.LoadTargets(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load targets config: %v", err)
		targetsConfig = &config.TargetsConfig{Targets: []config.Target{}}
	} else {
		log.Printf("📁 Loaded %d target(s)", len(targetsConfig.Targets))
	}

	// Start the collection scheduler
	sched := scheduler.NewScheduler(targetsConfig, store, token)
	go sched.Start()
	defer sched.Stop()

	// Setup HTTP routes
	mux := http.NewServeMux()

	// CORS middleware
	corsMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Serve the dashboard build
	webDir := filepath.Join(cwd, "web", "dist")
	fileServer := http.FileServer(http.Dir(webDir))

	mux.Handle("/assets/", fileServer)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		indexPath := filepath.Join(webDir, "index.html")
		http.ServeFile(w, r, indexPath)
	})

	// API endpoints
	mux.HandleFunc("/api/reports", api.GetReports(store))
	mux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/pipelines") {
			api.GetReportPipelines(store)(w, r)
		} else {
			api.GetReport(store)(w, r)
		}
	})
	mux.HandleFunc("/api/analyze", api.PostAnalyze(store, targetsConfig, token))
	mux.HandleFunc("/api/targets", api.GetTargets(targetsConfig, store))
	mux.HandleFunc("/api/events", api.SSEHandler())

	// Start HTTP server with CORS
	serverAddr := ":" + port
	log.Printf("🚀 Starting cilens server on port %s...", port)
	log.Printf("📊 Dashboard: http://localhost:%s", port)

	if err := http.ListenAndServe(serverAddr, corsMiddleware(mux)); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// getEnv gets environment variable or returns default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
