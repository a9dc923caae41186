package scheduler

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"cilens/collector"
	"cilens/config"
	"cilens/events"
	"cilens/gitlab"
	"cilens/storage"
)

// Scheduler triggers automatic insight collections based on target schedules
type Scheduler struct {
	targetsConfig *config.TargetsConfig
	storage       *storage.Storage
	token         gitlab.Token
	stopChan      chan struct{}
	lastRuns      map[string]time.Time // track last execution per schedule
	mu            sync.RWMutex         // protect lastRuns map
	runningJobs   map[string]bool      // track currently running schedules
}

// NewScheduler creates a new scheduler instance
func NewScheduler(targetsConfig *config.TargetsConfig, storage *storage.Storage, token gitlab.Token) *Scheduler {
	return &Scheduler{
		targetsConfig: targetsConfig,
		storage:       storage,
		token:         token,
		stopChan:      make(chan struct{}),
		lastRuns:      make(map[string]time.Time),
		runningJobs:   make(map[string]bool),
	}
}

// Start begins the scheduler loop
func (s *Scheduler) Start() {
	log.Println("📅 Scheduler started")
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run tick immediately on start
	s.tick()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopChan:
			log.Println("📅 Scheduler stopped")
			return
		}
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// tick checks all schedules and triggers collections if needed
func (s *Scheduler) tick() {
	for _, target := range s.targetsConfig.Targets {
		for i, schedule := range target.Schedules {
			scheduleKey := fmt.Sprintf("%s-schedule-%d", target.Name, i)

			s.mu.RLock()
			lastRun := s.lastRuns[scheduleKey]
			isRunning := s.runningJobs[scheduleKey]
			s.mu.RUnlock()

			// Skip if already running
			if isRunning {
				continue
			}

			if !s.shouldRun(schedule, lastRun) {
				continue
			}

			// Mark as running
			s.mu.Lock()
			s.runningJobs[scheduleKey] = true
			s.lastRuns[scheduleKey] = time.Now()
			s.mu.Unlock()

			// Execute in goroutine
			go func(target config.Target, sched config.Schedule, key string) {
				s.executeSchedule(target, sched)

				// Mark as not running
				s.mu.Lock()
				delete(s.runningJobs, key)
				s.mu.Unlock()
			}(target, schedule, scheduleKey)
		}
	}
}

// shouldRun determines if a schedule should be triggered now
func (s *Scheduler) shouldRun(schedule config.Schedule, lastRun time.Time) bool {
	now := time.Now()

	// Time-based schedule (at: "HH:MM")
	if schedule.At != "" {
		hour, minute, err := parseAtTime(schedule.At)
		if err != nil {
			log.Printf("⚠️  Invalid time format '%s': %v", schedule.At, err)
			return false
		}

		// Check if current time matches schedule time
		if now.Hour() == hour && now.Minute() == minute {
			// Ensure we only run once per day at this time
			if lastRun.IsZero() || now.Sub(lastRun) >= 23*time.Hour {
				return true
			}
		}
		return false
	}

	// Interval-based schedule (every: "1h", "30m", etc.)
	if schedule.Every != "" {
		interval, err := parseInterval(schedule.Every)
		if err != nil {
			log.Printf("⚠️  Invalid interval format '%s': %v", schedule.Every, err)
			return false
		}

		// First run or interval elapsed
		if lastRun.IsZero() || now.Sub(lastRun) >= interval {
			return true
		}
		return false
	}

	return false
}

// executeSchedule triggers a collection run for the given schedule
func (s *Scheduler) executeSchedule(target config.Target, schedule config.Schedule) {
	scheduleType := schedule.At
	if scheduleType == "" {
		scheduleType = schedule.Every
	}

	log.Printf("⏰ Schedule triggered: %s (%s) - %s", target.Name, target.Project, scheduleType)

	broker := events.GetBroker()
	broker.Broadcast("analysis_started", map[string]interface{}{
		"target":  target.Name,
		"project": target.Project,
		"type":    "scheduled",
	})

	result, err := collector.Run(context.Background(), target, collector.Options{
		Store: s.storage,
		Token: s.token,
	})
	if err != nil {
		log.Printf("❌ Scheduled collection failed for %s: %v", target.Name, err)
		broker.Broadcast("analysis_failed", map[string]interface{}{
			"target": target.Name,
			"error":  err.Error(),
		})
		return
	}

	log.Printf("✅ Scheduled collection completed: %s", target.Name)
	broker.Broadcast("analysis_completed", map[string]interface{}{
		"target":    target.Name,
		"report_id": result.ReportID,
	})
}

// parseAtTime parses "HH:MM" format
func parseAtTime(at string) (hour, minute int, err error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format, expected HH:MM")
	}

	var hourVal int
	hourVal, err = strconv.Atoi(parts[0])
	if err != nil || hourVal < 0 || hourVal > 23 {
		return 0, 0, fmt.Errorf("invalid hour")
	}
	hour = hourVal

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute")
	}

	return hour, minute, nil
}

// parseInterval parses duration strings like "1h", "30m", "1h30m"
func parseInterval(every string) (time.Duration, error) {
	// Handle combined formats like "1h30m"
	if strings.Contains(every, "h") && strings.Contains(every, "m") {
		re := regexp.MustCompile(`(\d+)h(\d+)m`)
		matches := re.FindStringSubmatch(every)
		if len(matches) == 3 {
			hours, _ := strconv.Atoi(matches[1])
			minutes, _ := strconv.Atoi(matches[2])
			return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
		}
	}

	// Simple formats like "1h", "30m", "24h"
	duration, err := time.ParseDuration(every)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format")
	}

	return duration, nil
}
