package acm

import (
	"context"
	"log/slog"

	"github.com/confhub/acm-client-go/internal/blobstore"
	"github.com/confhub/acm-client-go/internal/ckey"
	"github.com/confhub/acm-client-go/internal/memcache"
	"github.com/confhub/acm-client-go/internal/serverpool"
	"github.com/confhub/acm-client-go/internal/telemetry"
	"github.com/confhub/acm-client-go/internal/transport"
	"github.com/confhub/acm-client-go/internal/watch"
)

// Client is the embedding process's handle onto the configuration service:
// Get/Publish/Remove/List/ListAll, plus AddWatcher/RemoveWatcher for
// server-push change notification. The zero value is not usable; build one
// with New.
type Client struct {
	opts    Options
	log     *slog.Logger
	metrics *telemetry.Metrics

	failover *blobstore.Store
	snapshot *blobstore.Store

	pool     *serverpool.Pool
	executor *transport.Executor

	memcache *memcache.Cache

	notifyQueue chan watch.Notification
	registry    *watch.Registry
	dispatcher  *watch.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a Client against endpoint, applying opts over the documented
// defaults (spec.md §6). It does not block on network I/O: the server list
// and the pulling engine are both initialized lazily.
func New(endpoint string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	o.Endpoint = endpoint
	for _, fn := range opts {
		fn(&o)
	}
	o.normalizeNamespace()
	if err := o.validate(); err != nil {
		return nil, err
	}

	log := o.Logger
	metrics := telemetry.New(o.MetricsRegisterer)

	resolver := serverpool.NewResolver(o.Endpoint, o.caiEnabled(), o.TLSEnabled, log)
	pool := serverpool.NewPool(resolver, log)
	executor := transport.NewExecutor(pool, o.TLSEnabled, o.AppName, log, metrics)

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		opts:        o,
		log:         log,
		metrics:     metrics,
		failover:    blobstore.New(o.FailoverBase, log),
		snapshot:    blobstore.New(o.SnapshotBase, log),
		pool:        pool,
		executor:    executor,
		memcache:    memcache.New(o.MemCacheSize, metrics),
		notifyQueue: make(chan watch.Notification, 1024),
		ctx:         ctx,
		cancel:      cancel,
	}

	c.registry = watch.NewRegistry(ctx, c.newShard, log)
	c.dispatcher = watch.NewDispatcher(c.registry, c.notifyQueue, o.CallbackThreadNum, log, metrics)
	go c.dispatcher.Run(ctx)

	return c, nil
}

// newShard is the watch.ShardFactory bound to this client's dependencies.
func (c *Client) newShard(initial ckey.Key) *watch.Shard {
	sign := transport.SignParams{AK: c.opts.AccessKey, SK: c.opts.SecretKey, Tenant: c.opts.Namespace, Group: initial.Group}
	return watch.NewShard(
		initial,
		c.executor,
		sign,
		seederFunc(c.seed),
		fetcherFunc(c.fetch),
		c.notifyQueue,
		c.opts.PullingTimeout,
		c.opts.PullingConfigSize,
		c.log,
		c.metrics,
	)
}

// seederFunc/fetcherFunc adapt Client's methods to the watch package's
// small interfaces without exposing them as part of Client's public API.
type seederFunc func(ckey.Key) (string, bool)

func (f seederFunc) Seed(key ckey.Key) (string, bool) { return f(key) }

type fetcherFunc func(context.Context, ckey.Key) (string, string, bool, error)

func (f fetcherFunc) Fetch(ctx context.Context, key ckey.Key) (string, string, bool, error) {
	return f(ctx, key)
}

// Close stops the background refresh task, every pulling shard, and the
// notification dispatcher, then releases the server pool. It does not
// return until teardown completes (spec.md §5, "close is not optional").
func (c *Client) Close() error {
	c.cancel()
	c.registry.Close()
	close(c.notifyQueue)
	c.dispatcher.Stop()
	c.pool.Close()
	return nil
}
