package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemotePurger_PurgeHandles(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/ops/purge-handle", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			AuthorHandle string `json:"author_handle"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		seen[body.AuthorHandle] = true
		mu.Unlock()

		switch body.AuthorHandle {
		case "ghost":
			http.Error(w, "handle not found", http.StatusNotFound)
		default:
			_ = json.NewEncoder(w).Encode(map[string]int64{"deleted": 3})
		}
	}))
	defer server.Close()

	purger := NewRemotePurger(server.URL+"/api/v1/", "secret")
	results := purger.PurgeHandles(context.Background(), []string{"alice", "ghost", "bob"})

	require.Len(t, results, 3)
	assert.True(t, seen["alice"] && seen["ghost"] && seen["bob"])

	assert.Equal(t, "alice", results[0].AuthorHandle, "results keep input order")
	assert.True(t, results[0].OK)
	assert.EqualValues(t, 3, results[0].Deleted)

	assert.Equal(t, "ghost", results[1].AuthorHandle)
	assert.False(t, results[1].OK)
	assert.Equal(t, http.StatusNotFound, results[1].Status)
	assert.Equal(t, "handle not found", results[1].Error)

	assert.True(t, results[2].OK)
}

func TestRemotePurger_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	purger := NewRemotePurger(server.URL, "secret")
	results := purger.PurgeHandles(context.Background(), []string{"alice"})

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.NotEmpty(t, results[0].Error)
}
