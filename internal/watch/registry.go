// Package watch implements the Watch Registry (C6), the Pulling Engine
// (C7), and the Notification Dispatcher (C8).
package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/confhub/acm-client-go/internal/ckey"
)

type watcherRecord struct {
	cb              Callback
	lastFingerprint string
	delivered       bool
}

// ShardFactory builds a new Shard seeded with one initial key. It is
// supplied by the owner of the executor/fetcher/seeder dependencies (the
// root Client), so the Registry never constructs those dependencies itself.
type ShardFactory func(initial ckey.Key) *Shard

// Registry is the Watch Registry (C6): key -> watchers and key -> owning
// shard, both under one mutex (spec.md §4.6, §5).
type Registry struct {
	mu        sync.Mutex
	watchers  map[string][]*watcherRecord
	shardOf   map[string]*Shard
	shards    []*Shard
	newShard  ShardFactory
	ctx       context.Context
	cancel    context.CancelFunc
	log       *slog.Logger
}

// NewRegistry builds an empty Registry. newShard is invoked under the
// registry's lock whenever a key needs a freshly spawned shard.
func NewRegistry(ctx context.Context, newShard ShardFactory, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Registry{
		watchers: make(map[string][]*watcherRecord),
		shardOf:  make(map[string]*Shard),
		newShard: newShard,
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}
}

// AddWatcher registers cb for key (spec.md §4.6 AddWatcher steps 1, 3-5).
func (r *Registry) AddWatcher(key ckey.Key, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ks := key.String()
	r.watchers[ks] = append(r.watchers[ks], &watcherRecord{cb: cb})

	if _, assigned := r.shardOf[ks]; assigned {
		return
	}

	for _, shard := range r.shards {
		if shard.HasCapacity() {
			shard.AddKey(key)
			r.shardOf[ks] = shard
			return
		}
	}

	shard := r.newShard(key)
	r.shards = append(r.shards, shard)
	r.shardOf[ks] = shard
	go shard.Run(r.ctx)
}

// RemoveWatcher removes the first (or, if removeAll, every) watcherRecord
// matching cb's identity for key. When the key's watcher list becomes
// empty, the key is dropped from its shard; a shard left empty is stopped
// (spec.md §4.6 RemoveWatcher).
func (r *Registry) RemoveWatcher(key ckey.Key, cb Callback, removeAll bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ks := key.String()
	list := r.watchers[ks]
	if len(list) == 0 {
		return
	}

	kept := list[:0]
	removedOne := false
	for _, rec := range list {
		matches := rec.cb == cb
		if matches && (removeAll || !removedOne) {
			removedOne = true
			continue
		}
		kept = append(kept, rec)
	}
	r.watchers[ks] = kept

	if len(kept) > 0 {
		return
	}

	delete(r.watchers, ks)
	shard, ok := r.shardOf[ks]
	if !ok {
		return
	}
	delete(r.shardOf, ks)

	if shard.RemoveKey(key) {
		r.removeShardLocked(shard)
	}
}

func (r *Registry) removeShardLocked(shard *Shard) {
	for i, s := range r.shards {
		if s == shard {
			r.shards = append(r.shards[:i], r.shards[i+1:]...)
			break
		}
	}
	go shard.Stop()
}

// watchersFor returns a snapshot of the watcher records for key, for the
// dispatcher to iterate without holding the registry lock during callback
// dispatch. The returned slice is a copy: RemoveWatcher mutates
// r.watchers[key] in place (via list[:0]), so handing out the backing
// array directly would race with a concurrent dispatch iterating it.
func (r *Registry) watchersFor(key ckey.Key) []*watcherRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.watchers[key.String()]
	out := make([]*watcherRecord, len(list))
	copy(out, list)
	return out
}

// Close stops every shard and cancels the registry's context.
func (r *Registry) Close() {
	r.mu.Lock()
	shards := make([]*Shard, len(r.shards))
	copy(shards, r.shards)
	r.mu.Unlock()

	r.cancel()
	for _, s := range shards {
		s.Stop()
	}
}
