package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paulbrigner/xmonitor/application/service"
	"github.com/paulbrigner/xmonitor/infrastructure/ops"
	"github.com/paulbrigner/xmonitor/internal/config"
	"github.com/paulbrigner/xmonitor/internal/log"
)

func omitCmd() *cobra.Command {
	var (
		envFile         string
		collectorConfig string
		provisionScript string
		readmePath      string
		localDB         string
		apiBaseURL      string
		apiKey          string
		updateLambdaEnv bool
		lambdaFunction  string
		awsProfile      string
		awsRegion       string
		skipFileUpdates bool
		skipLocalPurge  bool
		skipRemotePurge bool
		noPauseJobs     bool
	)

	cmd := &cobra.Command{
		Use:   "omit HANDLE...",
		Short: "Add handles to the omit lists and purge their rows",
		Long: `Add one or more author handles (with or without @, comma-separated lists
accepted) to every omit list, then purge their rows from the local SQLite
database and, through the ops API, from the hosted database.

Collector jobs are paused for the duration of the purge so a scheduled
run cannot re-ingest rows mid-delete, and resumed afterwards even when a
phase fails. The phase summary is printed to stdout as JSON.

Environment variables:
  XMONITOR_SQLITE_PATH    Local SQLite database path
  XMONITOR_API_BASE_URL   Ops API base URL
  XMONITOR_API_KEY        Ops API key`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOmit(cmd.Context(), args, omitOptions{
				envFile:         envFile,
				collectorConfig: collectorConfig,
				provisionScript: provisionScript,
				readmePath:      readmePath,
				localDB:         localDB,
				apiBaseURL:      apiBaseURL,
				apiKey:          apiKey,
				updateLambdaEnv: updateLambdaEnv,
				lambdaFunction:  lambdaFunction,
				awsProfile:      awsProfile,
				awsRegion:       awsRegion,
				skipFileUpdates: skipFileUpdates,
				skipLocalPurge:  skipLocalPurge,
				skipRemotePurge: skipRemotePurge,
				noPauseJobs:     noPauseJobs,
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&collectorConfig, "collector-config", "", "Collector YAML config holding the omit_handles list")
	cmd.Flags().StringVar(&provisionScript, "provision-script", "", "Provisioning script holding the INGEST_OMIT_HANDLES default")
	cmd.Flags().StringVar(&readmePath, "readme", "", "README holding the documented omit default")
	cmd.Flags().StringVar(&localDB, "local-db", "", "Local SQLite database to purge")
	cmd.Flags().StringVar(&apiBaseURL, "api-base-url", "", "Ops API base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Ops API key (overrides XMONITOR_API_KEY)")
	cmd.Flags().BoolVar(&updateLambdaEnv, "update-lambda-env", false, "Merge the handles into the ingest lambda's environment")
	cmd.Flags().StringVar(&lambdaFunction, "lambda-function-name", config.DefaultLambdaFunction, "Ingest lambda function name")
	cmd.Flags().StringVar(&awsProfile, "aws-profile", "", "AWS CLI profile")
	cmd.Flags().StringVar(&awsRegion, "aws-region", config.DefaultLambdaRegion, "AWS region")
	cmd.Flags().BoolVar(&skipFileUpdates, "skip-file-updates", false, "Skip omit-file edits")
	cmd.Flags().BoolVar(&skipLocalPurge, "skip-local-purge", false, "Skip the local SQLite purge")
	cmd.Flags().BoolVar(&skipRemotePurge, "skip-remote-purge", false, "Skip the remote API purge")
	cmd.Flags().BoolVar(&noPauseJobs, "no-pause-jobs", false, "Leave the collector jobs running during the purge")

	return cmd
}

type omitOptions struct {
	envFile         string
	collectorConfig string
	provisionScript string
	readmePath      string
	localDB         string
	apiBaseURL      string
	apiKey          string
	updateLambdaEnv bool
	lambdaFunction  string
	awsProfile      string
	awsRegion       string
	skipFileUpdates bool
	skipLocalPurge  bool
	skipRemotePurge bool
	noPauseJobs     bool
}

func runOmit(ctx context.Context, handles []string, opts omitOptions) error {
	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return err
	}
	if opts.localDB != "" {
		cfg = cfg.Apply(config.WithSourceDBPath(opts.localDB))
	}
	if opts.apiBaseURL != "" {
		cfg = cfg.Apply(config.WithAPIBaseURL(opts.apiBaseURL))
	}
	if opts.apiKey != "" {
		cfg = cfg.Apply(config.WithAPIKey(opts.apiKey))
	}

	logger := log.Configure(cfg)
	ctx, _ = log.NewRunContext(ctx)
	logger = logger.WithContext(ctx)

	apiKey := cfg.APIKey()
	if apiKey == "" && !opts.skipRemotePurge {
		apiKey = ops.APIKeyFromScheduler(ctx, "XMONITOR_API_KEY")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	scheduler := ops.NewScheduler(
		ops.DefaultSchedulerJobs(home),
		fmt.Sprintf("gui/%d", os.Getuid()),
		logger)
	lambda := ops.NewLambdaUpdater(opts.lambdaFunction, opts.awsProfile, opts.awsRegion)

	summary, err := service.NewPurger(scheduler, lambda, logger).Run(ctx, service.PurgeRequest{
		Handles:             handles,
		CollectorConfigPath: opts.collectorConfig,
		ProvisionScriptPath: opts.provisionScript,
		ReadmePath:          opts.readmePath,
		LocalDBPath:         cfg.SourceDBPath(),
		APIBaseURL:          cfg.APIBaseURL(),
		APIKey:              apiKey,
		LambdaFunction:      opts.lambdaFunction,
		AWSProfile:          opts.awsProfile,
		AWSRegion:           opts.awsRegion,
		SkipFileUpdates:     opts.skipFileUpdates,
		SkipLocalPurge:      opts.skipLocalPurge,
		SkipRemotePurge:     opts.skipRemotePurge,
		UpdateLambdaEnv:     opts.updateLambdaEnv,
		PauseJobs:           !opts.noPauseJobs,
	})
	if err != nil {
		return err
	}

	return printJSON(summary)
}
