package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/budget"
	applog "budget/internal/log"
)

func TestEventHubDropsOldestWhenClientIsSlow(t *testing.T) {
	hub := newEventHub(2, applog.Discard())
	ch, cancel, ok := hub.subscribe()
	require.True(t, ok)
	defer cancel()

	for rev := uint64(1); rev <= 4; rev++ {
		hub.broadcast(event{revision: rev})
	}

	assert.Equal(t, uint64(3), (<-ch).revision)
	assert.Equal(t, uint64(4), (<-ch).revision)
}

func TestEventHubClose(t *testing.T) {
	hub := newEventHub(1, applog.Discard())
	ch, cancel, ok := hub.subscribe()
	require.True(t, ok)

	hub.close()
	_, open := <-ch
	assert.False(t, open, "close must end client streams")
	cancel()

	_, _, ok = hub.subscribe()
	assert.False(t, ok, "no subscriptions after close")
	assert.Equal(t, 0, hub.size())
}

func TestEventHubEncodesSnapshots(t *testing.T) {
	hub := newEventHub(1, applog.Discard())
	ch, cancel, _ := hub.subscribe()
	defer cancel()

	hub.BudgetChanged(context.Background(), budget.Snapshot{Revision: 7, Operation: budget.OpReset})
	ev := <-ch
	assert.Equal(t, uint64(7), ev.revision)

	var snap snapshotJSON
	require.NoError(t, json.Unmarshal(ev.data, &snap))
	assert.Equal(t, "reset", snap.Operation)
}

// readEvent reads one server-sent event, skipping comments.
func readEvent(t *testing.T, r *bufio.Reader) (name string, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && name != "":
			return name, data
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventStream(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	name, data := readEvent(t, reader)
	assert.Equal(t, "budget", name)
	var initial snapshotJSON
	require.NoError(t, json.Unmarshal([]byte(data), &initial))
	assert.Equal(t, uint64(0), initial.Revision)

	post, err := ts.Client().Post(ts.URL+"/api/expenses", "application/json",
		strings.NewReader(`{"amount": "9.99", "category": "want", "description": "Stream"}`))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusCreated, post.StatusCode)

	name, data = readEvent(t, reader)
	assert.Equal(t, "budget", name)
	var changed snapshotJSON
	require.NoError(t, json.Unmarshal([]byte(data), &changed))
	assert.Equal(t, uint64(1), changed.Revision)
	assert.Equal(t, "add_expense", changed.Operation)
	require.Len(t, changed.Expenses, 5)
	assert.Equal(t, "Stream", changed.Expenses[4].Description)
}
