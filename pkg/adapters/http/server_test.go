package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/murmur"
	server "github.com/aretw0/murmur/pkg/adapters/http"
	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, opts ...server.Option) http.Handler {
	t.Helper()
	g, err := memory.NewBuilder().
		Add("intro",
			memory.Text("en", "Guide", "Hello."),
			memory.Text("en", "Guide", "Which way?"),
		).
		AddBranch("north", memory.Lines("en", "North")...).
		AddBranch("south", memory.Lines("en", "South")...).
		Add("snow", memory.Lines("en", "Snow everywhere.")...).
		Link("intro", "north", "south").
		Link("north", "snow").
		Build()
	require.NoError(t, err)

	factory := func() (*murmur.Engine, error) {
		return murmur.New(g, murmur.WithBranchCount(2))
	}
	return server.NewHandler(session.NewManager(memory.NewStore(), factory), g, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, server.View) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var v server.View
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && w.Code < 300 {
		_ = json.Unmarshal(w.Body.Bytes(), &v)
	}
	return w, v
}

func TestServer_Health(t *testing.T) {
	h := newHandler(t)
	w, _ := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w, _ = do(t, h, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"app":"murmur-http"`)
}

func TestServer_Graph(t *testing.T) {
	w, _ := do(t, newHandler(t), http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, w.Code)

	var nodes []server.GraphNode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nodes))
	require.Len(t, nodes, 4)
	assert.Equal(t, server.GraphNode{ID: "intro", Contents: 2, Children: []string{"north", "south"}}, nodes[0])
	assert.True(t, nodes[1].Branch)
}

func TestServer_DialogueFlow(t *testing.T) {
	h := newHandler(t)

	w, v := do(t, h, http.MethodPost, "/sessions", `{"session_id":"s1","node_id":"intro"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "s1", v.SessionID)
	assert.Equal(t, "Hello.", v.Main)
	assert.Equal(t, "Guide", v.Speaker)

	_, v = do(t, h, http.MethodPost, "/sessions/s1/advance", `{"separator":" "}`)
	assert.True(t, v.Moved)
	assert.Equal(t, "Hello. Which way?", v.Main)

	_, v = do(t, h, http.MethodPost, "/sessions/s1/advance", "")
	require.Len(t, v.Choices, 2)
	assert.Equal(t, server.Choice{Slot: 0, NodeID: "north", Body: "North"}, v.Choices[0])
	assert.Equal(t, 2, v.Depth)

	_, v = do(t, h, http.MethodPost, "/sessions/s1/select", `{"slot":0}`)
	assert.True(t, v.Moved)
	assert.Equal(t, "Snow everywhere.", v.Main)
	assert.Equal(t, "snow", v.Current.NodeID)
	assert.Empty(t, v.Choices, "choices are only listed while one is pending")

	_, v = do(t, h, http.MethodPost, "/sessions/s1/advance", "")
	assert.False(t, v.Moved, "snow is a dead end")

	_, v = do(t, h, http.MethodPost, "/sessions/s1/back", `{"reveal":true}`)
	assert.True(t, v.Moved)
	assert.Len(t, v.Choices, 2, "stepping back over a selection offers the choices again")

	w, v = do(t, h, http.MethodGet, "/sessions/s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, v.Moved)
	assert.Len(t, v.Choices, 2)

	w, _ = do(t, h, http.MethodGet, "/sessions", "")
	assert.JSONEq(t, `["s1"]`, w.Body.String())

	w, _ = do(t, h, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = do(t, h, http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartGeneratesID(t *testing.T) {
	w, v := do(t, newHandler(t), http.MethodPost, "/sessions", `{"node_id":"intro","content_index":1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, v.SessionID, 36)
	assert.Equal(t, "Which way?", v.Main)
}

func TestServer_Errors(t *testing.T) {
	h := newHandler(t)
	_, _ = do(t, h, http.MethodPost, "/sessions", `{"session_id":"s1","node_id":"intro"}`)

	cases := []struct {
		name, method, path, body string
		status                   int
	}{
		{"bad json", http.MethodPost, "/sessions", `{`, http.StatusBadRequest},
		{"missing node", http.MethodPost, "/sessions", `{"session_id":"x"}`, http.StatusBadRequest},
		{"unknown node", http.MethodPost, "/sessions", `{"node_id":"nowhere"}`, http.StatusNotFound},
		{"content out of range", http.MethodPost, "/sessions", `{"node_id":"intro","content_index":9}`, http.StatusBadRequest},
		{"slot on plain node", http.MethodPost, "/sessions", `{"node_id":"intro","slot":0}`, http.StatusBadRequest},
		{"unknown session", http.MethodPost, "/sessions/ghost/advance", ``, http.StatusNotFound},
		{"missing language", http.MethodPut, "/sessions/s1/language", `{}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := do(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestServer_SelectWithoutChoices(t *testing.T) {
	h := newHandler(t)
	_, _ = do(t, h, http.MethodPost, "/sessions", `{"session_id":"s1","node_id":"intro"}`)

	w, v := do(t, h, http.MethodPost, "/sessions/s1/select", `{"slot":1}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, v.Moved)
}

func TestServer_EmptyChunkedBody(t *testing.T) {
	h := newHandler(t)
	_, _ = do(t, h, http.MethodPost, "/sessions", `{"session_id":"s1","node_id":"intro"}`)

	for _, path := range []string{"/sessions/s1/advance", "/sessions/s1/back"} {
		// An unknown reader type leaves the length unset, as with chunked encoding.
		req := httptest.NewRequest(http.MethodPost, path, struct{ io.Reader }{strings.NewReader("")})
		require.EqualValues(t, -1, req.ContentLength)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path+": "+w.Body.String())
	}

	w, _ := do(t, h, http.MethodPost, "/sessions/s1/advance", `{"separator":`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "truncated JSON is still rejected")
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHandler(t, server.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	w, _ := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, newHandler(t), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CORS(t *testing.T) {
	w, _ := do(t, newHandler(t), http.MethodOptions, "/sessions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// syncRecorder hands every write to the test while the handler streams.
type syncRecorder struct {
	*httptest.ResponseRecorder
	writes chan string
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.writes <- string(p)
	return len(p), nil
}

func (r *syncRecorder) Flush() {}

func TestServer_SubscribeEvents(t *testing.T) {
	h := newHandler(t)
	_, _ = do(t, h, http.MethodPost, "/sessions", `{"session_id":"s1","node_id":"intro"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/sessions/s1/events", nil).WithContext(ctx)
	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder(), writes: make(chan string, 16)}

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	select {
	case msg := <-rec.writes:
		assert.Contains(t, msg, "event: ping")
	case <-time.After(time.Second):
		t.Fatal("no ping event")
	}

	_, _ = do(t, h, http.MethodPost, "/sessions/s1/advance", "")

	select {
	case msg := <-rec.writes:
		require.True(t, strings.HasPrefix(msg, "data: "), msg)
		var v server.View
		require.NoError(t, json.Unmarshal(bytes.TrimSpace([]byte(strings.TrimPrefix(msg, "data: "))), &v))
		assert.Equal(t, "Which way?", v.Main)
	case <-time.After(time.Second):
		t.Fatal("no update event")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not close on disconnect")
	}
}
