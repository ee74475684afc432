package api

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

	"github.com/hugo-lorenzo-mato/corrector/internal/events"
)

// mockFlusher satisfies http.Flusher for recorder based tests.
type mockFlusher struct{}

func (mockFlusher) Flush() {}

type sseMessage struct {
	event string
	data  map[string]any
}

// readSSE reads the next complete event, skipping keep-alive comments.
func readSSE(t *testing.T, r *bufio.Reader) sseMessage {
	t.Helper()
	var msg sseMessage
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			msg.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg.data))
		case line == "" && msg.event != "":
			return msg
		}
	}
}

func TestSendEventToClient(t *testing.T) {
	a := newTestAPI(t)
	rec := httptest.NewRecorder()

	a.server.sendEventToClient(rec, mockFlusher{},
		events.NewConfigChangedEvent("doc:novela-1", "set", "repetition.tolerance", ""))

	msg := readSSE(t, bufio.NewReader(strings.NewReader(rec.Body.String())))
	assert.Equal(t, events.TypeConfigChanged, msg.event)
	assert.Equal(t, "doc:novela-1", msg.data["scope"])
	assert.Equal(t, "set", msg.data["op"])
	assert.Equal(t, "repetition.tolerance", msg.data["path"])
	assert.NotNil(t, msg.data["timestamp"])
}

func TestSSE_NoBus(t *testing.T) {
	a := newTestAPI(t)
	a.server.eventBus = nil
	rec := a.do(t, http.MethodGet, "/api/v1/events", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSSE_StreamsScopedEvents(t *testing.T) {
	a := newTestAPI(t).withNovel(t)
	ts := httptest.NewServer(a.server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events?scope=doc:novela-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readSSE(t, r).event)

	// Events of other scopes are filtered out.
	a.bus.Publish(events.NewStoreChangedEvent("type:FIC", "types/FIC.yaml"))
	rec := a.do(t, http.MethodPut, docConfig+"/params/"+tolerance, `{"value":"high"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Opening the editor loaded it first.
	msg := readSSE(t, r)
	assert.Equal(t, events.TypeConfigLoaded, msg.event)
	msg = readSSE(t, r)
	assert.Equal(t, events.TypeConfigChanged, msg.event)
	assert.Equal(t, tolerance, msg.data["path"])
}
