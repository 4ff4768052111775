package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/confhub/acm-client-go/internal/serverpool"
)

func newTestExecutor(t *testing.T, servers ...string) (*Executor, func()) {
	t.Helper()
	r := serverpool.NewResolver(strings.Join(servers, "\n"), false, false, nil)
	pool := serverpool.NewPool(r, nil)
	return NewExecutor(pool, false, "test-app", nil, nil), pool.Close
}

func TestDoSucceedsOnFirstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	e, closePool := newTestExecutor(t, addr)
	defer closePool()

	resp, err := e.Do(context.Background(), Request{Path: "/diamond-server/config.co", Operation: "get"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(resp.Body) != "ok" {
		t.Fatalf("got %+v", resp)
	}
}

func TestDoRotatesOnTransientFailure(t *testing.T) {
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer live.Close()

	// A server address that nothing listens on; the dial should fail fast
	// enough to not blow the test timeout, and the executor must rotate to
	// the live one.
	dead := "127.0.0.1:1"
	liveAddr := strings.TrimPrefix(live.URL, "http://")

	e, closePool := newTestExecutor(t, dead, liveAddr)
	defer closePool()

	resp, err := e.Do(context.Background(), Request{Path: "/x", Operation: "get"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
}

func TestDoReturns5xxAsTransientAndExhausts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	e, closePool := newTestExecutor(t, addr)
	defer closePool()

	_, err := e.Do(context.Background(), Request{Path: "/x", Operation: "get"})
	if err == nil {
		t.Fatalf("expected AllServersUnavailableError")
	}
	if _, ok := err.(*AllServersUnavailableError); !ok {
		t.Fatalf("got %T: %v", err, err)
	}
}

func TestDoPassesThrough4xxWithoutRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	e, closePool := newTestExecutor(t, addr)
	defer closePool()

	resp, err := e.Do(context.Background(), Request{Path: "/x", Operation: "get"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("got %d", resp.StatusCode)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestDoAttachesFormAndQuery(t *testing.T) {
	var gotQuery string
	var gotForm string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		r.ParseForm()
		gotForm = r.FormValue("content")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	e, closePool := newTestExecutor(t, addr)
	defer closePool()

	_, err := e.Do(context.Background(), Request{
		Method:    http.MethodPost,
		Path:      "/diamond-server/basestone.do",
		Query:     url.Values{"method": {"syncUpdateAll"}},
		Form:      url.Values{"content": {"hello"}},
		Operation: "publish",
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotQuery != "method=syncUpdateAll" {
		t.Fatalf("got query %q", gotQuery)
	}
	if gotForm != "hello" {
		t.Fatalf("got form content %q", gotForm)
	}
}
