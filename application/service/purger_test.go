package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulbrigner/xmonitor/internal/database"
)

func seedLegacyFile(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "xmonitor.db")

	db, err := database.NewDatabase(ctx, "sqlite:///"+path)
	require.NoError(t, err)
	session := db.Session(ctx)
	for _, stmt := range legacyDDL {
		require.NoError(t, session.Exec(stmt).Error)
	}
	require.NoError(t, session.Exec(
		`INSERT INTO tweets VALUES
			('100', 'https://x.com/eve/status/100', 'eve', 'spam', 0, 0, 0, '2025-02-01T08:00:00Z', '2025-02-01T09:00:00Z'),
			('200', 'https://x.com/bob/status/200', 'bob', 'fine', 0, 0, 0, '2025-02-01T08:00:00Z', '2025-02-01T09:00:00Z')`).Error)
	require.NoError(t, session.Exec(`INSERT INTO watch_accounts VALUES ('eve', 'ecosystem', '2025-01-01T00:00:00Z')`).Error)
	require.NoError(t, db.Close())
	return path
}

func TestPurger_Run(t *testing.T) {
	var purged []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AuthorHandle string `json:"author_handle"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		purged = append(purged, body.AuthorHandle)
		_ = json.NewEncoder(w).Encode(map[string]int64{"deleted": 1})
	}))
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "collector.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("omit_handles:\n  - spambot\n"), 0o644))

	summary, err := NewPurger(nil, nil, quietLogger()).Run(context.Background(), PurgeRequest{
		Handles:             []string{"@Eve"},
		CollectorConfigPath: configPath,
		LocalDBPath:         seedLegacyFile(t),
		APIBaseURL:          server.URL,
		APIKey:              "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"eve"}, summary.Handles, "handles are normalized once up front")

	require.Len(t, summary.Files, 1)
	assert.True(t, summary.Files[0].Changed)
	assert.Equal(t, []string{"spambot", "eve"}, summary.Files[0].Handles)

	require.NotNil(t, summary.LocalPurge)
	assert.EqualValues(t, 1, summary.LocalPurge.Before["tweets"])
	assert.EqualValues(t, 0, summary.LocalPurge.After["tweets"])
	assert.EqualValues(t, 1, summary.LocalPurge.ByHandleBeforeTweet["eve"])

	assert.Equal(t, []string{"eve"}, purged)
	require.Len(t, summary.RemotePurge, 1)
	assert.True(t, summary.RemotePurge[0].OK)
	assert.EqualValues(t, 1, summary.RemotePurge[0].Deleted)

	assert.Nil(t, summary.LambdaEnvUpdate, "lambda phase is opt-in")
}

func TestPurger_NoValidHandles(t *testing.T) {
	_, err := NewPurger(nil, nil, quietLogger()).Run(context.Background(), PurgeRequest{
		Handles:         []string{"@", " "},
		SkipFileUpdates: true,
		SkipLocalPurge:  true,
		SkipRemotePurge: true,
	})
	assert.ErrorContains(t, err, "no valid handles")
}

func TestPurger_RemotePurgeRequiresAPIKey(t *testing.T) {
	_, err := NewPurger(nil, nil, quietLogger()).Run(context.Background(), PurgeRequest{
		Handles:         []string{"eve"},
		SkipFileUpdates: true,
		SkipLocalPurge:  true,
	})
	assert.ErrorContains(t, err, "missing API key")
}

func TestPurger_SkipEverything(t *testing.T) {
	summary, err := NewPurger(nil, nil, quietLogger()).Run(context.Background(), PurgeRequest{
		Handles:         []string{"eve"},
		SkipFileUpdates: true,
		SkipLocalPurge:  true,
		SkipRemotePurge: true,
	})
	require.NoError(t, err)
	assert.Empty(t, summary.Files)
	assert.Nil(t, summary.LocalPurge)
	assert.Nil(t, summary.RemotePurge)
}
