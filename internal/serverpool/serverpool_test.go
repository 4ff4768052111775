package serverpool

import (
	"context"
	"testing"
)

func TestParseServerListSingleColumn(t *testing.T) {
	r := NewResolver("", false, false, nil)
	servers := r.parseServerList("10.0.0.1\n10.0.0.2")
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
	for _, s := range servers {
		if s.Port != httpDefaultPort {
			t.Fatalf("expected default port %d, got %d", httpDefaultPort, s.Port)
		}
		if !s.IsIP4 {
			t.Fatalf("expected %s to be detected as IPv4", s.Host)
		}
	}
}

func TestParseServerListDefaultsTo443UnderTLS(t *testing.T) {
	r := NewResolver("", false, true, nil)
	servers := r.parseServerList("10.0.0.1")
	if len(servers) != 1 || servers[0].Port != httpsDefaultPort {
		t.Fatalf("expected port %d under TLS, got %+v", httpsDefaultPort, servers)
	}
}

func TestParseServerListWithPort(t *testing.T) {
	r := NewResolver("", false, false, nil)
	servers := r.parseServerList("host-a:9090\nbadline:notanumber\nhost-b:1234")
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2 (bad line dropped)", len(servers))
	}
}

func TestParseServerListEmpty(t *testing.T) {
	r := NewResolver("", false, false, nil)
	if servers := r.parseServerList(""); len(servers) != 0 {
		t.Fatalf("expected empty list, got %v", servers)
	}
}

func TestPoolAdvanceWraps(t *testing.T) {
	r := NewResolver("127.0.0.1:1\n127.0.0.2:2", false, false, nil)
	p := NewPool(r, nil)
	defer p.Close()

	ctx := context.Background()
	first, ok := p.Current(ctx)
	if !ok {
		t.Fatalf("expected a resolved server")
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 servers, got %d", p.Len())
	}

	p.Advance()
	second, _ := p.Current(ctx)
	if first.Addr() == second.Addr() {
		t.Fatalf("expected advance to move to a different server")
	}

	p.Advance()
	third, _ := p.Current(ctx)
	if third.Addr() != first.Addr() {
		t.Fatalf("expected cursor to wrap back to the first server")
	}
}

func TestPoolCurrentEmptyWhenUnresolvable(t *testing.T) {
	r := NewResolver("", false, false, nil)
	p := NewPool(r, nil)
	defer p.Close()

	if _, ok := p.Current(context.Background()); ok {
		t.Fatalf("expected no server to resolve from an empty endpoint")
	}
}
