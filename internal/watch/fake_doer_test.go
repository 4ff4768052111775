package watch

import (
	"context"
	"sync"

	"github.com/confhub/acm-client-go/internal/ckey"
	"github.com/confhub/acm-client-go/internal/transport"
)

// fakeDoer answers every probe with a canned body, counting calls and
// letting tests push a fresh body between cycles.
type fakeDoer struct {
	mu    sync.Mutex
	body  string
	calls int
}

func (f *fakeDoer) Do(ctx context.Context, req transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &transport.Response{StatusCode: 200, Body: []byte(f.body)}, nil
}

func (f *fakeDoer) setBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
}

func (f *fakeDoer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSeeder always reports the key as unseen, the common case for a newly
// registered watcher with nothing in the local cache yet.
type fakeSeeder struct{}

func (fakeSeeder) Seed(key ckey.Key) (string, bool) { return "", false }

// fakeFetcher returns canned content for any key, recording what it was
// asked to fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	content string
	fp      string
	fetched []ckey.Key
}

func (f *fakeFetcher) Fetch(ctx context.Context, key ckey.Key) (string, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, key)
	return f.content, f.fp, true, nil
}
