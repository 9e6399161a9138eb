package monitor

import "strings"

// RunMode identifies what kind of pipeline run produced a row.
type RunMode string

// RunMode values.
const (
	RunModePriority  RunMode = "priority"
	RunModeDiscovery RunMode = "discovery"
	RunModeBoth      RunMode = "both"
	RunModeRefresh   RunMode = "refresh24h"
	RunModeManual    RunMode = "manual"
)

// Historical spellings accepted on input.
var runModeAliases = map[string]RunMode{
	"refresh-24h": RunModeRefresh,
	"refresh_24h": RunModeRefresh,
}

// ParseRunMode lower-cases a mode value, maps known spelling variants to
// the canonical token, and validates against the fixed mode set.
func ParseRunMode(raw string) (RunMode, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := runModeAliases[text]; ok {
		return canonical, true
	}
	switch RunMode(text) {
	case RunModePriority, RunModeDiscovery, RunModeBoth, RunModeRefresh, RunModeManual:
		return RunMode(text), true
	default:
		return "", false
	}
}
