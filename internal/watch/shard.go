package watch

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/confhub/acm-client-go/internal/ckey"
	"github.com/confhub/acm-client-go/internal/telemetry"
	"github.com/confhub/acm-client-go/internal/transport"
)

// Seeder seeds a newly observed key's starting fingerprint from the local
// two-tier cache (failover, then snapshot), mirroring the read precedence
// C5 uses for Get. ok is false when neither tier has a value yet.
type Seeder interface {
	Seed(key ckey.Key) (fingerprint string, ok bool)
}

// Fetcher fetches a key's current content, the way C5's Get does, so a
// shard can re-read a key the server reported changed.
type Fetcher interface {
	Fetch(ctx context.Context, key ckey.Key) (content string, fingerprint string, ok bool, err error)
}

// Doer executes one probe POST. *transport.Executor satisfies this; tests
// supply a fake to drive the shard loop without real HTTP.
type Doer interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

type cacheEntry struct {
	fingerprint string
	isInitial   bool
}

// Shard is one long-polling loop owning a bounded set of watched keys and
// their CacheEntry map (spec.md §4.7). Exactly one goroutine ever mutates
// cache; keys is additionally touched by the registry's AddKey/RemoveKey
// from other goroutines, so it is guarded by its own mutex.
type Shard struct {
	executor          Doer
	sign              transport.SignParams
	seeder            Seeder
	fetcher           Fetcher
	notify            chan<- Notification
	pullingTimeout    time.Duration
	pullingConfigSize int
	log               *slog.Logger
	metrics           *telemetry.Metrics

	mu   sync.Mutex
	keys []ckey.Key

	cache map[string]*cacheEntry // shard-goroutine-only, no lock needed

	stop chan struct{}
	done chan struct{}
}

// NewShard builds a Shard seeded with one initial key, per §4.6 step 5
// ("spawn a new shard with an initial keyList = [key]").
func NewShard(initial ckey.Key, executor Doer, sign transport.SignParams, seeder Seeder, fetcher Fetcher, notify chan<- Notification, pullingTimeout time.Duration, pullingConfigSize int, log *slog.Logger, metrics *telemetry.Metrics) *Shard {
	if log == nil {
		log = slog.Default()
	}
	if pullingConfigSize <= 0 {
		pullingConfigSize = 3000
	}
	return &Shard{
		executor:          executor,
		sign:              sign,
		seeder:            seeder,
		fetcher:           fetcher,
		notify:            notify,
		pullingTimeout:    pullingTimeout,
		pullingConfigSize: pullingConfigSize,
		log:               log,
		metrics:           metrics,
		keys:              []ckey.Key{initial},
		cache:             make(map[string]*cacheEntry),
		stop:              make(chan struct{}),
		done:              make(chan struct{}),
	}
}

// Len reports the current key count, used by the registry to find a shard
// with spare capacity.
func (s *Shard) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// HasCapacity reports whether the shard can accept one more key.
func (s *Shard) HasCapacity() bool {
	return s.Len() < s.pullingConfigSize
}

// AddKey appends key to the shard's key list. The shard observes it on its
// next loop iteration; no cross-goroutine signal is required (§5).
func (s *Shard) AddKey(key ckey.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
}

// RemoveKey drops key from the shard's key list and reports whether the
// shard is now empty (the registry terminates empty shards).
func (s *Shard) RemoveKey(key ckey.Key) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return len(s.keys) == 0
}

func (s *Shard) snapshotKeys() []ckey.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ckey.Key, len(s.keys))
	copy(out, s.keys)
	return out
}

// Stop signals the shard's Run loop to exit and blocks until it does.
func (s *Shard) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

// Run is the shard's long-poll loop (§4.7). It exits when keys becomes
// empty or Stop is called.
func (s *Shard) Run(ctx context.Context) {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("pulling: shard loop panicked, stopping shard", "panic", r)
		}
	}()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		keys := s.snapshotKeys()
		if len(keys) == 0 {
			return
		}

		s.reconcile(keys)

		changed, err := s.pollOnce(ctx, keys)
		if err != nil {
			s.log.Warn("pulling: cycle failed, treating as no changes", "error", err)
			s.metrics.RecordPullCycle("error", 0)
			select {
			case <-time.After(time.Second):
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, k := range s.cache {
			k.isInitial = false
		}

		for _, changedKey := range changed {
			s.refreshKey(ctx, changedKey)
		}
	}
}

// reconcile adds CacheEntry records for newly observed keys (seeded from
// the local cache) and drops entries for keys no longer in keys.
func (s *Shard) reconcile(keys []ckey.Key) {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		ks := k.String()
		present[ks] = true
		if _, ok := s.cache[ks]; ok {
			continue
		}
		fp, _ := s.seeder.Seed(k)
		s.cache[ks] = &cacheEntry{fingerprint: fp, isInitial: true}
	}
	for ks := range s.cache {
		if !present[ks] {
			delete(s.cache, ks)
		}
	}
}

func (s *Shard) pollOnce(ctx context.Context, keys []ckey.Key) ([]ckey.Key, error) {
	start := time.Now()

	fingerprints := make(map[string]string, len(keys))
	anyInitial := false
	for _, k := range keys {
		entry := s.cache[k.String()]
		fingerprints[k.String()] = entry.fingerprint
		if entry.isInitial {
			anyInitial = true
		}
	}

	probe := buildProbe(keys, fingerprints)

	headers := map[string]string{
		"longPullingTimeout": strconv.FormatInt(s.pullingTimeout.Milliseconds(), 10),
	}
	if anyInitial {
		headers["longPullingNoHangUp"] = "true"
	}

	resp, err := s.executor.Do(ctx, transport.Request{
		Method:       http.MethodPost,
		Path:         "/diamond-server/config.co",
		Form:         url.Values{"Probe-Modify-Request": {probe}},
		ExtraHeaders: headers,
		Timeout:      s.pullingTimeout + 10*time.Second,
		Operation:    "pull",
		Sign:         s.sign,
	})
	if err != nil {
		s.metrics.RecordPullCycle("transport_error", time.Since(start).Seconds())
		return nil, err
	}

	changed := parseChangedKeys(string(resp.Body))
	s.metrics.RecordPullCycle("success", time.Since(start).Seconds())
	return changed, nil
}

func (s *Shard) refreshKey(ctx context.Context, key ckey.Key) {
	entry, ok := s.cache[key.String()]
	if !ok {
		return
	}

	content, fingerprint, found, err := s.fetcher.Fetch(ctx, key)
	if err != nil {
		s.log.Warn("pulling: refresh fetch failed", "key", key.String(), "error", err)
		return
	}
	if !found {
		entry.fingerprint = ""
		s.notifyChange(key, "", "", false)
		return
	}

	entry.fingerprint = fingerprint
	s.notifyChange(key, content, fingerprint, true)
}

func (s *Shard) notifyChange(key ckey.Key, content, fingerprint string, hasContent bool) {
	select {
	case s.notify <- Notification{Key: key, Content: content, Fingerprint: fingerprint, HasContent: hasContent}:
	case <-s.stop:
	}
}
