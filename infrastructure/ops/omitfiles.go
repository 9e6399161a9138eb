// Package ops implements the operational side of handle omission:
// config-file edits, local and remote purges, scheduler control, and
// cloud function environment updates.
package ops

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/paulbrigner/xmonitor/domain/monitor"
)

// FileUpdate reports one omit-list file edit.
type FileUpdate struct {
	File    string   `json:"file"`
	Changed bool     `json:"changed"`
	Handles []string `json:"handles"`
}

// UpdateCollectorConfig merge-appends handles into the omit_handles list
// of the collector YAML config.
func UpdateCollectorConfig(path string, additions []string) (FileUpdate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileUpdate{}, fmt.Errorf("read collector config: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return FileUpdate{}, fmt.Errorf("parse collector config %s: %w", path, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return FileUpdate{}, fmt.Errorf("collector config %s is not a mapping", path)
	}

	doc := root.Content[0]
	listNode := findMappingValue(doc, "omit_handles")
	if listNode == nil {
		return FileUpdate{}, fmt.Errorf("could not find omit_handles in %s", path)
	}

	var existing []string
	if err := listNode.Decode(&existing); err != nil {
		return FileUpdate{}, fmt.Errorf("decode omit_handles in %s: %w", path, err)
	}

	merged := monitor.MergeHandles(existing, additions)
	changed := len(merged) != len(existing)
	if changed {
		if err := listNode.Encode(merged); err != nil {
			return FileUpdate{}, fmt.Errorf("encode omit_handles: %w", err)
		}
		var buf strings.Builder
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(&root); err != nil {
			return FileUpdate{}, fmt.Errorf("rewrite collector config: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return FileUpdate{}, fmt.Errorf("rewrite collector config: %w", err)
		}
		if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
			return FileUpdate{}, fmt.Errorf("write collector config: %w", err)
		}
	}

	return FileUpdate{File: path, Changed: changed, Handles: merged}, nil
}

func findMappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

var provisionPattern = regexp.MustCompile(`(INGEST_OMIT_HANDLES="\$\{INGEST_OMIT_HANDLES:-)([^}]*)(\}")`)

// UpdateProvisionDefault merge-appends handles into the
// INGEST_OMIT_HANDLES shell default of the provisioning script.
func UpdateProvisionDefault(path string, additions []string) (FileUpdate, error) {
	return updateByPattern(path, additions, provisionPattern, ",")
}

var readmePattern = regexp.MustCompile("(\\| `XMONITOR_INGEST_OMIT_HANDLES` .*defaults include `)([^`]+)(`\\)\\. \\|)")

// UpdateReadmeDefault merge-appends handles into the documented omit
// default in the README environment table.
func UpdateReadmeDefault(path string, additions []string) (FileUpdate, error) {
	return updateByPattern(path, additions, readmePattern, ", ")
}

func updateByPattern(path string, additions []string, pattern *regexp.Regexp, sep string) (FileUpdate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileUpdate{}, fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)

	match := pattern.FindStringSubmatchIndex(text)
	if match == nil {
		return FileUpdate{}, fmt.Errorf("could not find omit default in %s", path)
	}

	existing := monitor.ParseHandles(text[match[4]:match[5]])
	merged := monitor.MergeHandles(existing, additions)
	updated := text[:match[4]] + strings.Join(merged, sep) + text[match[5]:]

	changed := updated != text
	if changed {
		if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
			return FileUpdate{}, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return FileUpdate{File: path, Changed: changed, Handles: merged}, nil
}
