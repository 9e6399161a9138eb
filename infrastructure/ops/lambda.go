package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/paulbrigner/xmonitor/domain/monitor"
)

const omitHandlesEnvKey = "XMONITOR_INGEST_OMIT_HANDLES"

// LambdaUpdate reports a cloud function environment update.
type LambdaUpdate struct {
	FunctionName string   `json:"function_name"`
	AWSProfile   string   `json:"aws_profile"`
	AWSRegion    string   `json:"aws_region"`
	Changed      bool     `json:"changed"`
	Handles      []string `json:"handles"`
}

// LambdaUpdater merges omit handles into the ingest lambda's environment
// through the aws CLI.
type LambdaUpdater struct {
	FunctionName string
	Profile      string
	Region       string

	// runCommand is swappable for tests; defaults to exec.CommandContext.
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewLambdaUpdater creates an updater for the given function.
func NewLambdaUpdater(functionName, profile, region string) *LambdaUpdater {
	return &LambdaUpdater{
		FunctionName: functionName,
		Profile:      profile,
		Region:       region,
		runCommand:   runAWSCommand,
	}
}

func runAWSCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s failed: %s", strings.Join(append([]string{name}, args...), " "), strings.TrimSpace(string(out)))
	}
	return out, nil
}

func (u *LambdaUpdater) baseArgs() []string {
	var args []string
	if u.Profile != "" {
		args = append(args, "--profile", u.Profile)
	}
	if u.Region != "" {
		args = append(args, "--region", u.Region)
	}
	return args
}

// MergeOmitHandles reads the function's environment, merge-appends the
// handles into the omit list, and pushes the updated environment when it
// changed, waiting for the update to land.
func (u *LambdaUpdater) MergeOmitHandles(ctx context.Context, handles []string) (LambdaUpdate, error) {
	update := LambdaUpdate{
		FunctionName: u.FunctionName,
		AWSProfile:   u.Profile,
		AWSRegion:    u.Region,
	}

	getArgs := append(u.baseArgs(),
		"lambda", "get-function-configuration",
		"--function-name", u.FunctionName,
		"--query", "Environment.Variables",
		"--output", "json")
	out, err := u.runCommand(ctx, "aws", getArgs...)
	if err != nil {
		return update, fmt.Errorf("read lambda environment: %w", err)
	}

	variables := map[string]string{}
	if len(strings.TrimSpace(string(out))) > 0 && strings.TrimSpace(string(out)) != "null" {
		if err := json.Unmarshal(out, &variables); err != nil {
			return update, fmt.Errorf("parse lambda environment: %w", err)
		}
	}

	existing := monitor.ParseHandles(variables[omitHandlesEnvKey])
	merged := monitor.MergeHandles(existing, handles)
	update.Handles = merged
	update.Changed = len(merged) != len(existing)
	if !update.Changed {
		return update, nil
	}

	variables[omitHandlesEnvKey] = strings.Join(merged, ",")
	environment, err := json.Marshal(map[string]any{"Variables": variables})
	if err != nil {
		return update, fmt.Errorf("encode lambda environment: %w", err)
	}

	updateArgs := append(u.baseArgs(),
		"lambda", "update-function-configuration",
		"--function-name", u.FunctionName,
		"--environment", string(environment))
	if _, err := u.runCommand(ctx, "aws", updateArgs...); err != nil {
		return update, fmt.Errorf("update lambda environment: %w", err)
	}

	waitArgs := append(u.baseArgs(),
		"lambda", "wait", "function-updated",
		"--function-name", u.FunctionName)
	if _, err := u.runCommand(ctx, "aws", waitArgs...); err != nil {
		return update, fmt.Errorf("wait for lambda update: %w", err)
	}

	return update, nil
}
