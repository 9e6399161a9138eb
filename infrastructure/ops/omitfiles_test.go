package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUpdateCollectorConfig(t *testing.T) {
	path := writeTemp(t, "collector.yaml", `poll_interval: 90
omit_handles:
  - spambot
queries:
  - from:alice
`)

	update, err := UpdateCollectorConfig(path, []string{"eve", "spambot"})
	require.NoError(t, err)

	assert.True(t, update.Changed)
	assert.Equal(t, []string{"spambot", "eve"}, update.Handles)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "- spambot")
	assert.Contains(t, text, "- eve")
	assert.Contains(t, text, "poll_interval: 90", "unrelated keys survive the rewrite")
	assert.Contains(t, text, "from:alice")
}

func TestUpdateCollectorConfig_NoNewHandles(t *testing.T) {
	content := `omit_handles:
  - spambot
`
	path := writeTemp(t, "collector.yaml", content)

	update, err := UpdateCollectorConfig(path, []string{"spambot"})
	require.NoError(t, err)

	assert.False(t, update.Changed)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data), "file is untouched when nothing changes")
}

func TestUpdateCollectorConfig_MissingKey(t *testing.T) {
	path := writeTemp(t, "collector.yaml", "poll_interval: 90\n")

	_, err := UpdateCollectorConfig(path, []string{"eve"})
	assert.ErrorContains(t, err, "could not find omit_handles")
}

func TestUpdateProvisionDefault(t *testing.T) {
	path := writeTemp(t, "provision.sh", `#!/bin/sh
INGEST_OMIT_HANDLES="${INGEST_OMIT_HANDLES:-spambot,troll}"
exec ./collector
`)

	update, err := UpdateProvisionDefault(path, []string{"eve"})
	require.NoError(t, err)

	assert.True(t, update.Changed)
	assert.Equal(t, []string{"spambot", "troll", "eve"}, update.Handles)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `INGEST_OMIT_HANDLES="${INGEST_OMIT_HANDLES:-spambot,troll,eve}"`)
	assert.Contains(t, string(data), "exec ./collector")
}

func TestUpdateReadmeDefault(t *testing.T) {
	path := writeTemp(t, "README.md", "# Collector\n\n"+
		"| `XMONITOR_INGEST_OMIT_HANDLES` | Handles dropped at ingest (defaults include `spambot, troll`). |\n")

	update, err := UpdateReadmeDefault(path, []string{"eve"})
	require.NoError(t, err)

	assert.True(t, update.Changed)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "(defaults include `spambot, troll, eve`). |")
}

func TestUpdateProvisionDefault_PatternMissing(t *testing.T) {
	path := writeTemp(t, "provision.sh", "#!/bin/sh\nexec ./collector\n")

	_, err := UpdateProvisionDefault(path, []string{"eve"})
	assert.ErrorContains(t, err, "could not find omit default")
}
