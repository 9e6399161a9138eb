// Package monitor holds the canonical XMonitor vocabulary and records:
// normalized handles, watch tiers, pipeline run modes, and the row shapes
// shared by the migration and ops tooling.
package monitor

import (
	"regexp"
	"strings"
)

var handleSplitRe = regexp.MustCompile(`[,\s]+`)

// NormalizeHandle trims whitespace, strips leading "@" characters and
// lower-cases the result. An empty result is reported as absent.
func NormalizeHandle(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	text = strings.TrimLeft(text, "@")
	text = strings.ToLower(text)
	if text == "" {
		return "", false
	}
	return text, true
}

// ParseHandles splits comma- or whitespace-separated handle lists,
// normalizes each token, and returns the unique handles in first-seen order.
func ParseHandles(values ...string) []string {
	var ordered []string
	seen := make(map[string]struct{})
	for _, raw := range values {
		for _, token := range handleSplitRe.Split(strings.TrimSpace(raw), -1) {
			handle, ok := NormalizeHandle(token)
			if !ok {
				continue
			}
			if _, dup := seen[handle]; dup {
				continue
			}
			seen[handle] = struct{}{}
			ordered = append(ordered, handle)
		}
	}
	return ordered
}

// MergeHandles appends additions to existing, preserving order and skipping
// handles already present.
func MergeHandles(existing, additions []string) []string {
	merged := make([]string, len(existing))
	copy(merged, existing)
	present := make(map[string]struct{}, len(existing))
	for _, h := range existing {
		present[h] = struct{}{}
	}
	for _, h := range additions {
		if _, ok := present[h]; ok {
			continue
		}
		present[h] = struct{}{}
		merged = append(merged, h)
	}
	return merged
}
