package longpoll

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vkmod/vkmod/vkapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server

	mu sync.Mutex
	// number of groups.getLongPollServer calls
	sessions int
	// queued poll responses; each poll request pops one
	polls []func(q map[string]string) any
	// query parameters of each poll request
	seen []map[string]string
	// if set, returned from groups.getLongPollServer
	apiError map[string]any
}

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{t: t}
	ts.srv = httptest.NewServer(http.HandlerFunc(ts.handle))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) handle(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	var body any
	switch r.URL.Path {
	case "/method/groups.getLongPollServer":
		ts.sessions++
		if ts.apiError != nil {
			body = map[string]any{"error": ts.apiError}
			break
		}
		body = map[string]any{
			"response": map[string]any{
				"key":    "key" + string(rune('0'+ts.sessions)),
				"server": ts.srv.URL + "/lp",
				"ts":     "1",
			},
		}
	case "/lp":
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		ts.seen = append(ts.seen, q)
		if len(ts.polls) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		next := ts.polls[0]
		ts.polls = ts.polls[1:]
		body = next(q)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (ts *testServer) source() *Source {
	c := &vkapi.Client{
		Client: ts.srv.Client(),
		Host:   ts.srv.URL,
		Token:  "tok",
	}
	return &Source{
		Client:                 c,
		HTTPClient:             ts.srv.Client(),
		GroupID:                777,
		Wait:                   1,
		MaxConsecutiveFailures: 3,
		RetryWait:              time.Millisecond,
	}
}

func event(id string) map[string]any {
	return map[string]any{
		"type":     "message_new",
		"event_id": id,
		"group_id": 777,
		"object":   map[string]any{"message": map[string]any{"peer_id": 1, "conversation_message_id": 1}},
	}
}

func TestSourceProtocol(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ts := newTestServer(t)
	ts.polls = []func(q map[string]string) any{
		func(q map[string]string) any {
			return map[string]any{"failed": 1, "ts": 5}
		},
		func(q map[string]string) any {
			return map[string]any{"ts": "7", "updates": []any{event("a"), event("b")}}
		},
		func(q map[string]string) any {
			return map[string]any{"failed": 2}
		},
		func(q map[string]string) any {
			return map[string]any{"ts": "8", "updates": []any{event("c")}}
		},
		func(q map[string]string) any {
			return map[string]any{"failed": 3}
		},
		func(q map[string]string) any {
			return map[string]any{"ts": "2", "updates": []any{event("d")}}
		},
	}
	src := ts.source()

	var ids []string
	for i := 0; i < 4; i++ {
		evt, err := src.Next(ctx)
		require.NoError(t, err)
		assert.Equal(vkapi.EventMessageNew, evt.Type)
		ids = append(ids, evt.EventID)
	}
	assert.Equal([]string{"a", "b", "c", "d"}, ids)

	require.Equal(t, 6, len(ts.seen))
	assert.Equal("a_check", ts.seen[0]["act"])
	assert.Equal("key1", ts.seen[0]["key"])
	assert.Equal("1", ts.seen[0]["ts"])
	assert.Equal("1", ts.seen[0]["wait"])
	// failed=1 adopts the new cursor
	assert.Equal("5", ts.seen[1]["ts"])
	assert.Equal("7", ts.seen[2]["ts"])
	// failed=2 refreshes the key but keeps the cursor
	assert.Equal("key2", ts.seen[3]["key"])
	assert.Equal("7", ts.seen[3]["ts"])
	// failed=3 starts a new session with a fresh cursor
	assert.Equal("key3", ts.seen[5]["key"])
	assert.Equal("1", ts.seen[5]["ts"])
	assert.Equal(3, ts.sessions)
}

func TestSourceAuthFailureIsFatal(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ts := newTestServer(t)
	ts.apiError = map[string]any{"error_code": 5, "error_msg": "User authorization failed"}
	src := ts.source()

	_, err := src.Next(ctx)
	assert.Error(err)
	assert.True(vkapi.IsAuthError(err))
	assert.Equal(1, ts.sessions)
}

func TestSourceGivesUpAfterFailures(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ts := newTestServer(t)
	// no queued poll responses: every poll is a 404
	src := ts.source()

	_, err := src.Next(ctx)
	assert.ErrorContains(err, "3 consecutive times")
	assert.Equal(3, len(ts.seen))
}

func TestSourceRecoversAfterFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ts := newTestServer(t)
	ts.polls = []func(q map[string]string) any{
		func(q map[string]string) any {
			// not a valid poll response: no cursor
			return map[string]any{}
		},
		func(q map[string]string) any {
			return map[string]any{"ts": "2", "updates": []any{event("a")}}
		},
	}
	src := ts.source()

	evt, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal("a", evt.EventID)
	assert.Equal(0, src.failures)
}

func TestSourceContextCancelled(t *testing.T) {
	assert := assert.New(t)

	ts := newTestServer(t)
	src := ts.source()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(0, ts.sessions)
}
