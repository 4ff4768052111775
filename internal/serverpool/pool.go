package serverpool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// refreshInterval matches the 30s background resolution cadence in
// spec.md §4.2. The background loop ticks at this interval and also takes
// a token from a limiter with the same rate before each re-resolution;
// Advance never triggers a refresh.
const refreshInterval = 30 * time.Second

// Pool holds the current server list and a rotating cursor into it, lazily
// resolving the list on first use and refreshing it in the background.
type Pool struct {
	mu       sync.Mutex
	resolver *Resolver
	servers  []Server
	cursor   int

	limiter *rate.Limiter
	log     *slog.Logger

	refreshOnce sync.Once
	stop        chan struct{}
}

// NewPool builds a Pool around resolver. Background refresh starts lazily,
// on the first call to Current, not at construction.
func NewPool(resolver *Resolver, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		resolver: resolver,
		limiter:  rate.NewLimiter(rate.Every(refreshInterval), 1),
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Current returns the server at the current cursor, resolving the list if
// it is still empty. It also starts the background refresh loop on first
// call, matching the lazy-resolution shape of the original's
// current_server.
func (p *Pool) Current(ctx context.Context) (Server, bool) {
	p.refreshOnce.Do(func() { go p.refreshLoop() })

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.servers) == 0 {
		p.resolveLocked(ctx)
	}
	if len(p.servers) == 0 {
		return Server{}, false
	}
	return p.servers[p.cursor], true
}

// Len reports how many servers are currently known.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.servers)
}

// Advance rotates the cursor to the next server, wrapping around, matching
// server_offset = (server_offset + 1) % len(server_list). It is a no-op
// when the list is empty.
func (p *Pool) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.servers) == 0 {
		return
	}
	p.cursor = (p.cursor + 1) % len(p.servers)
}

// resolveLocked must be called with mu held.
func (p *Pool) resolveLocked(ctx context.Context) {
	servers := p.resolver.Resolve(ctx)
	if len(servers) == 0 {
		p.log.Error("serverpool: resolved server list is empty")
		return
	}
	p.servers = servers
	p.cursor = 0
	p.log.Info("serverpool: resolved server list", "count", len(servers))
}

func (p *Pool) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if !p.limiter.Allow() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), addressServerTimeout)
			p.mu.Lock()
			p.resolveLocked(ctx)
			p.mu.Unlock()
			cancel()
		}
	}
}

// Close stops the background refresh loop.
func (p *Pool) Close() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
}
