package ops

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/paulbrigner/xmonitor/internal/log"
)

// SchedulerJob is one launchd collector job.
type SchedulerJob struct {
	Label     string
	PlistPath string
}

// DefaultSchedulerJobs returns the collector launchd jobs for the given
// user home directory.
func DefaultSchedulerJobs(home string) []SchedulerJob {
	labels := []string{
		"com.openclaw.xmonitor.priority",
		"com.openclaw.xmonitor.discovery",
	}
	jobs := make([]SchedulerJob, 0, len(labels))
	for _, label := range labels {
		jobs = append(jobs, SchedulerJob{
			Label:     label,
			PlistPath: fmt.Sprintf("%s/Library/LaunchAgents/%s.plist", strings.TrimRight(home, "/"), label),
		})
	}
	return jobs
}

// Scheduler pauses and resumes the collector jobs around a purge so a
// scheduled run cannot re-ingest rows mid-delete. All launchctl calls
// are best effort.
type Scheduler struct {
	jobs   []SchedulerJob
	domain string
	logger *log.Logger
}

// NewScheduler creates a scheduler controller for the given launchd
// GUI domain (for example "gui/501").
func NewScheduler(jobs []SchedulerJob, domain string, logger *log.Logger) *Scheduler {
	return &Scheduler{jobs: jobs, domain: domain, logger: logger}
}

// Pause disables and boots out every collector job.
func (s *Scheduler) Pause(ctx context.Context) {
	for _, job := range s.jobs {
		s.run(ctx, "launchctl", "disable", s.domain+"/"+job.Label)
		s.run(ctx, "launchctl", "bootout", s.domain+"/"+job.Label)
	}
}

// Resume bootstraps, enables, and kickstarts every collector job.
func (s *Scheduler) Resume(ctx context.Context) {
	for _, job := range s.jobs {
		s.run(ctx, "launchctl", "bootstrap", s.domain, job.PlistPath)
		s.run(ctx, "launchctl", "enable", s.domain+"/"+job.Label)
		s.run(ctx, "launchctl", "kickstart", "-k", s.domain+"/"+job.Label)
	}
}

// APIKeyFromScheduler reads an environment value from the scheduler
// domain. Returns empty when unset or when launchctl is unavailable.
func APIKeyFromScheduler(ctx context.Context, key string) string {
	out, err := exec.CommandContext(ctx, "launchctl", "getenv", key).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (s *Scheduler) run(ctx context.Context, name string, args ...string) {
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		s.logger.Debug("scheduler command failed",
			"command", name+" "+strings.Join(args, " "),
			"output", strings.TrimSpace(string(out)),
			"error", err)
	}
}
