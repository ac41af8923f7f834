package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	nodex "github.com/Sampath-yadav/Sahay-Project/agent/nodes/orchestrator"
	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeChat struct {
	out nodex.GraphOutput
	err error
	got nodex.GraphInput
}

func (f *fakeChat) Handle(ctx context.Context, in nodex.GraphInput) (nodex.GraphOutput, error) {
	f.got = in
	if f.err != nil {
		return nodex.GraphOutput{}, f.err
	}
	return f.out, nil
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatReturnsReply(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{out: nodex.GraphOutput{Reply: "Dr. Meera is free at 10:00."}}
	r := NewRouter(Config{}, Deps{Chat: chat})

	rec := postJSON(t, r, "/v1/chat", `{
		"session_id": "s1",
		"message": "is dr meera free tomorrow?",
		"history": [{"role":"user","content":"hi"},{"role":"assistant","content":"Hello!"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Dr. Meera is free at 10:00.", resp.Reply)
	assert.Equal(t, "s1", chat.got.SessionID)
	assert.Equal(t, "is dr meera free tomorrow?", chat.got.Text)
	require.Len(t, chat.got.History, 2)
	assert.Equal(t, contractx.RoleAssistant, chat.got.History[1].Role)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestChatValidation(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{}
	r := NewRouter(Config{}, Deps{Chat: chat})

	rec := postJSON(t, r, "/v1/chat", `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, r, "/v1/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	chat.err = fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	rec = postJSON(t, r, "/v1/chat", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatReasoningFailureIsBadGateway(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{err: fmt.Errorf("%w: upstream said 500", contractx.ErrModelInvoke)}
	r := NewRouter(Config{}, Deps{Chat: chat})

	rec := postJSON(t, r, "/v1/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), replyUnavailable)
	assert.NotContains(t, rec.Body.String(), "upstream said 500")

	chat.err = fmt.Errorf("%w: no choices", contractx.ErrSchemaViolation)
	rec = postJSON(t, r, "/v1/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChatUnknownFailureIsInternal(t *testing.T) {
	t.Parallel()

	r := NewRouter(Config{}, Deps{Chat: &fakeChat{err: errors.New("boom")}})
	rec := postJSON(t, r, "/v1/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	t.Parallel()

	r := NewRouter(Config{}, Deps{Chat: &fakeChat{}})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestRateLimitPerClient(t *testing.T) {
	t.Parallel()

	r := NewRouter(Config{RateLimit: 0.001, RateBurst: 2}, Deps{Chat: &fakeChat{out: nodex.GraphOutput{Reply: "ok"}}})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{"message":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestLimiterStoreEvictsIdleClients(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC)
	store := newLimiterStore(rate.Limit(1), 1, time.Minute)
	store.now = func() time.Time { return now }

	first := store.get("10.0.0.1")
	store.get("10.0.0.2")
	require.Len(t, store.limiters, 2)

	now = now.Add(30 * time.Second)
	assert.Same(t, first, store.get("10.0.0.1"), "active client keeps its bucket")

	now = now.Add(45 * time.Second)
	store.get("10.0.0.3")
	assert.Len(t, store.limiters, 2)
	assert.NotContains(t, store.limiters, "10.0.0.2")
	assert.Contains(t, store.limiters, "10.0.0.1")

	now = now.Add(5 * time.Minute)
	assert.NotSame(t, first, store.get("10.0.0.1"), "evicted client gets a fresh bucket")
	assert.Len(t, store.limiters, 1)
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	healthy := NewRouter(Config{}, Deps{Chat: &fakeChat{}, Checks: []Check{
		{Name: "store", Probe: func(context.Context) error { return nil }},
	}})
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := NewRouter(Config{}, Deps{Chat: &fakeChat{}, Checks: []Check{
		{Name: "store", Probe: func(context.Context) error { return nil }},
		{Name: "llm", Probe: func(context.Context) error { return errors.New("401 unauthorized") }},
	}})
	rec = httptest.NewRecorder()
	broken.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "401 unauthorized")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metricsx.New(reg)
	m.ObserveToolCall("find_provider", "")

	r := NewRouter(Config{}, Deps{Chat: &fakeChat{}, Gatherer: reg})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scheduler_tool_calls_total")
}
