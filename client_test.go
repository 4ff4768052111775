package acm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/confhub/acm-client-go/internal/gbkcodec"
)

func newTestClient(t *testing.T, endpoint string, extra ...Option) *Client {
	t.Helper()
	dir := t.TempDir()
	opts := append([]Option{
		WithCAI(false),
		WithLocalCacheDirs(filepath.Join(dir, "failover"), filepath.Join(dir, "snapshot")),
		WithMetricsRegisterer(nil),
		WithTimeouts(time.Second, 2*time.Second),
	}, extra...)

	c, err := New(endpoint, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func serverAddr(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestGetFailoverPrecedence(t *testing.T) {
	c := newTestClient(t, "127.0.0.1:1") // dead endpoint; failover must win

	gbk, _ := gbkcodec.Encode("X")
	c.failover.Write("d+g+", string(gbk))

	content, ok, err := c.Get(context.Background(), "d", "g")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || content != "X" {
		t.Fatalf("got (%q, %v), want (\"X\", true)", content, ok)
	}
}

func TestGetSnapshotFallbackWhenServerDead(t *testing.T) {
	c := newTestClient(t, "127.0.0.1:1")

	gbk, _ := gbkcodec.Encode("Y")
	c.snapshot.Write("d+g+", string(gbk))

	content, ok, err := c.Get(context.Background(), "d", "g")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || content != "Y" {
		t.Fatalf("got (%q, %v), want (\"Y\", true)", content, ok)
	}
}

func TestGetFromServerWritesSnapshot(t *testing.T) {
	body, _ := gbkcodec.Encode("server-value")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer srv.Close()

	c := newTestClient(t, serverAddr(srv))

	content, ok, err := c.Get(context.Background(), "d", "g")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || content != "server-value" {
		t.Fatalf("got (%q, %v)", content, ok)
	}

	raw, ok := c.snapshot.Read("d+g+")
	if !ok {
		t.Fatalf("expected snapshot write")
	}
	decoded, _ := gbkcodec.Decode([]byte(raw))
	if decoded != "server-value" {
		t.Fatalf("snapshot content = %q", decoded)
	}
}

func TestGet404ClearsSnapshotAndReturnsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, serverAddr(srv))
	c.snapshot.Write("d+g+", "stale")

	content, ok, err := c.Get(context.Background(), "d", "g")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected absent, got %q", content)
	}
	if _, stillThere := c.snapshot.Read("d+g+"); stillThere {
		t.Fatalf("expected snapshot entry to be cleared on 404")
	}
}

func TestGet403ReturnsPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, serverAddr(srv))

	_, _, err := c.Get(context.Background(), "d", "g")
	if err == nil {
		t.Fatalf("expected PermissionDenied error")
	}
	if !IsPermissionDenied(err) {
		t.Fatalf("got %v", err)
	}
}

func TestInvalidKeyRejected(t *testing.T) {
	c := newTestClient(t, "127.0.0.1:1")
	if _, _, err := c.Get(context.Background(), "bad id!", "g"); err == nil {
		t.Fatalf("expected invalid argument error")
	}
}

func TestPublishAllowsEmptyContent(t *testing.T) {
	var sawContentParam bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		_, sawContentParam = r.Form["content"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, serverAddr(srv))
	if err := c.Publish(context.Background(), "d", "g", ""); err != nil {
		t.Fatalf("Publish with empty content should be allowed: %v", err)
	}
	if !sawContentParam {
		t.Fatalf("expected a content form parameter to be sent, even when empty")
	}
}

func TestPublishAndRemoveHappyPath(t *testing.T) {
	var gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.FormValue("content") != "" {
			decoded, _ := gbkcodec.Decode([]byte(r.FormValue("content")))
			gotContent = decoded
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, serverAddr(srv))
	if err := c.Publish(context.Background(), "d", "g", "hello"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if gotContent != "hello" {
		t.Fatalf("server received %q", gotContent)
	}

	if err := c.Remove(context.Background(), "d", "g"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestListAllFiltersByGroupAndPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("pageNo")
		w.Header().Set("Content-Type", "application/json")
		if page == "1" {
			w.Write([]byte(`{"pageItems":[{"dataId":"alpha.one","group":"g1"},{"dataId":"beta.two","group":"g2"}],"pagesAvailable":2,"totalCount":3}`))
			return
		}
		w.Write([]byte(`{"pageItems":[{"dataId":"alpha.three","group":"g1"}],"pagesAvailable":2,"totalCount":3}`))
	}))
	defer srv.Close()

	c := newTestClient(t, serverAddr(srv))
	items, err := c.ListAll(context.Background(), "g1", "alpha")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	for _, it := range items {
		if it.Group != "g1" || !strings.HasPrefix(it.DataID, "alpha") {
			t.Fatalf("unexpected item %+v", it)
		}
	}
}

func TestGetQueryEncodesNamespace(t *testing.T) {
	var gotTenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.URL.Query().Get("tenant")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, serverAddr(srv), WithNamespace("tenant-x"))
	c.Get(context.Background(), "d", "g")

	if gotTenant != "tenant-x" {
		t.Fatalf("got tenant %q", gotTenant)
	}
}
