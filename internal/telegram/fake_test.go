package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/filegate/internal/telemetry/logger"
)

const testToken = "123456789:AAbbCCddEEffGGhhIIjjKKllMMnnOOppQQ"

// apiReply is what the fake server answers for one call.
type apiReply struct {
	result     any
	code       int
	desc       string
	retryAfter int
}

type apiCall struct {
	method string
	form   url.Values
}

// fakeAPI is a minimal Bot API server.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	calls    []apiCall
	handlers map[string]func(form url.Values) apiReply
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, handlers: make(map[string]func(url.Values) apiReply)}
	f.on("getMe", func(url.Values) apiReply {
		return apiReply{result: map[string]any{"id": 42, "is_bot": true, "first_name": "Gate", "username": "FileGateBot"}}
	})
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) on(method string, h func(form url.Values) apiReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("ParseForm() error = %v", err)
	}
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: r.PostForm})
	h := f.handlers[method]
	f.mu.Unlock()

	reply := apiReply{result: true}
	if h != nil {
		reply = h(r.PostForm)
	}

	body := map[string]any{"ok": reply.code == 0}
	if reply.code == 0 {
		body["result"] = reply.result
	} else {
		body["error_code"] = reply.code
		body["description"] = reply.desc
		if reply.retryAfter > 0 {
			body["parameters"] = map[string]any{"retry_after": reply.retryAfter}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (f *fakeAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) client(t *testing.T, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		Token:         testToken,
		APIEndpoint:   f.srv.URL + "/bot%s/%s",
		ScratchChatID: -100999,
		PollTimeout:   time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(c.Close)
	return c
}
