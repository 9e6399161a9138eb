package service

import (
	"context"
	"fmt"

	"github.com/paulbrigner/xmonitor/domain/monitor"
	"github.com/paulbrigner/xmonitor/infrastructure/ops"
	"github.com/paulbrigner/xmonitor/infrastructure/sqlitesource"
	"github.com/paulbrigner/xmonitor/internal/log"
)

// PurgeRequest configures one omit-and-purge run.
type PurgeRequest struct {
	Handles []string

	CollectorConfigPath string
	ProvisionScriptPath string
	ReadmePath          string

	LocalDBPath string

	APIBaseURL string
	APIKey     string

	LambdaFunction string
	AWSProfile     string
	AWSRegion      string

	SkipFileUpdates bool
	SkipLocalPurge  bool
	SkipRemotePurge bool
	UpdateLambdaEnv bool
	PauseJobs       bool
}

// PurgeSummary is the omit command's stdout payload.
type PurgeSummary struct {
	Handles         []string                  `json:"handles"`
	Files           []ops.FileUpdate          `json:"files"`
	LocalPurge      *sqlitesource.PurgeResult `json:"local_purge"`
	RemotePurge     []ops.RemoteResult        `json:"remote_purge"`
	LambdaEnvUpdate *ops.LambdaUpdate         `json:"lambda_env_update"`
}

// Purger adds handles to every omit list and deletes their rows locally
// and remotely.
type Purger struct {
	scheduler *ops.Scheduler
	lambda    *ops.LambdaUpdater
	logger    *log.Logger
}

// NewPurger creates a purge orchestrator. scheduler and lambda may be nil
// when the respective phases are disabled.
func NewPurger(scheduler *ops.Scheduler, lambda *ops.LambdaUpdater, logger *log.Logger) *Purger {
	return &Purger{scheduler: scheduler, lambda: lambda, logger: logger}
}

// Run executes the omit-and-purge phases in order: pause collectors,
// update omit files, purge the local database, purge the remote database,
// update the cloud function environment, resume collectors. Collectors
// are resumed even when a phase fails.
func (p *Purger) Run(ctx context.Context, req PurgeRequest) (PurgeSummary, error) {
	handles := monitor.ParseHandles(req.Handles...)
	summary := PurgeSummary{Handles: handles, Files: []ops.FileUpdate{}}
	if len(handles) == 0 {
		return summary, fmt.Errorf("no valid handles provided")
	}

	if req.PauseJobs && p.scheduler != nil {
		p.logger.Info("pausing collector jobs")
		p.scheduler.Pause(ctx)
		defer func() {
			p.logger.Info("resuming collector jobs")
			p.scheduler.Resume(ctx)
		}()
	}

	if !req.SkipFileUpdates {
		updates := []struct {
			path   string
			update func(string, []string) (ops.FileUpdate, error)
		}{
			{req.CollectorConfigPath, ops.UpdateCollectorConfig},
			{req.ProvisionScriptPath, ops.UpdateProvisionDefault},
			{req.ReadmePath, ops.UpdateReadmeDefault},
		}
		for _, u := range updates {
			if u.path == "" {
				continue
			}
			update, err := u.update(u.path, handles)
			if err != nil {
				return summary, err
			}
			summary.Files = append(summary.Files, update)
			p.logger.Info("omit file updated", "file", update.File, "changed", update.Changed)
		}
	}

	if !req.SkipLocalPurge {
		source, err := sqlitesource.Open(ctx, req.LocalDBPath)
		if err != nil {
			return summary, err
		}
		defer source.Close()

		result, err := source.PurgeHandles(ctx, handles)
		if err != nil {
			return summary, err
		}
		summary.LocalPurge = &result
		p.logger.Info("local purge complete",
			"tweets_before", result.Before[sqlitesource.TableTweets],
			"tweets_after", result.After[sqlitesource.TableTweets])
	}

	if !req.SkipRemotePurge {
		if req.APIKey == "" {
			return summary, fmt.Errorf("missing API key: pass --api-key or set XMONITOR_API_KEY")
		}
		purger := ops.NewRemotePurger(req.APIBaseURL, req.APIKey)
		summary.RemotePurge = purger.PurgeHandles(ctx, handles)
		for _, result := range summary.RemotePurge {
			if !result.OK {
				p.logger.Warn("remote purge failed", "handle", result.AuthorHandle, "error", result.Error)
			}
		}
	}

	if req.UpdateLambdaEnv && p.lambda != nil {
		update, err := p.lambda.MergeOmitHandles(ctx, handles)
		if err != nil {
			return summary, err
		}
		summary.LambdaEnvUpdate = &update
		p.logger.Info("lambda environment updated", "function", update.FunctionName, "changed", update.Changed)
	}

	return summary, nil
}
