//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/types"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/workers"
)

// blockingWorker returns a handle that runs until the gate closes or the
// worker is cancelled.
func blockingWorker(gate <-chan struct{}) *workers.Func {
	return workers.NewFunc(func(ctx context.Context) error {
		select {
		case <-gate:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func TestWorkerLifecycleIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	srv := newTestServer(t)
	wm := srv.Workers()
	gate := make(chan struct{})

	require.True(t, wm.StartWorker("analysis-1", blockingWorker(gate), "analysis"))
	require.True(t, wm.StartWorker("hash-1", blockingWorker(gate), "hash_calculation"))

	t.Run("global ceiling rejects a third concurrent worker", func(t *testing.T) {
		assert.False(t, wm.StartWorker("hash-2", blockingWorker(gate), "hash_calculation"))
	})

	t.Run("active workers visible over HTTP", func(t *testing.T) {
		w := doJSON(t, srv, "GET", "/api/workers", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		active, ok := body["workers"].([]interface{})
		require.True(t, ok)
		assert.Len(t, active, 2)
	})

	t.Run("cancel over HTTP records history", func(t *testing.T) {
		w := doJSON(t, srv, "POST", "/api/workers/analysis-1/cancel", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		history := wm.History()
		require.Len(t, history, 1)
		assert.Equal(t, "analysis-1", history[0].ID)
		assert.Equal(t, types.WorkerCancelled, history[0].Status)
	})

	t.Run("capacity freed by cancellation is reusable", func(t *testing.T) {
		assert.True(t, wm.StartWorker("hash-2", blockingWorker(gate), "hash_calculation"))
	})

	t.Run("released workers complete into history", func(t *testing.T) {
		close(gate)

		assert.Eventually(t, func() bool {
			return len(wm.History()) == 3
		}, 2*time.Second, 10*time.Millisecond)

		statuses := make(map[string]types.WorkerStatus)
		for _, info := range wm.History() {
			statuses[info.ID] = info.Status
		}
		assert.Equal(t, types.WorkerCompleted, statuses["hash-1"])
		assert.Equal(t, types.WorkerCompleted, statuses["hash-2"])
	})

	t.Run("collaborator registries are drained", func(t *testing.T) {
		assert.Eventually(t, func() bool {
			return len(srv.State().ActiveWorkers()) == 0
		}, 2*time.Second, 10*time.Millisecond)
		assert.Zero(t, srv.State().Summary().ActiveWorkers)
	})
}

func TestEventStreamIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The first frame is the connection greeting.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, greeting, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(greeting), "connected")

	resp, err := http.Post(ts.URL+"/api/state/theme", "application/json",
		strings.NewReader(`{"theme":"midnight"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The bus may interleave other events; scan until the theme change
	// arrives or the deadline fires.
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "theme_changed event never arrived")

		var event types.Event
		require.NoError(t, json.Unmarshal(raw, &event))
		if event.Type != types.EventThemeChanged {
			continue
		}
		assert.Equal(t, "midnight", event.Data["theme"])
		assert.NotEmpty(t, event.ID)
		break
	}
}
