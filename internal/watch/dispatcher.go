package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/confhub/acm-client-go/internal/telemetry"
)

// Dispatcher is the Notification Dispatcher (C8): it drains notifications
// and fans them out to watchers whose lastFingerprint differs from the
// notification's, via a bounded callback worker pool. Grounded on the
// teacher's realtime event bus: one drain goroutine, a fixed worker pool,
// panic-isolated callback delivery, and a WaitGroup-backed Stop.
type Dispatcher struct {
	registry *Registry
	notify   <-chan Notification
	workers  chan struct{} // capacity-bounded semaphore
	log      *slog.Logger
	metrics  *telemetry.Metrics

	wg   sync.WaitGroup
	done chan struct{}
}

// NewDispatcher builds a Dispatcher reading from notify and delivering
// through at most callbackThreadNum concurrent callback invocations
// (default 10).
func NewDispatcher(registry *Registry, notify <-chan Notification, callbackThreadNum int, log *slog.Logger, metrics *telemetry.Metrics) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if callbackThreadNum <= 0 {
		callbackThreadNum = 10
	}
	return &Dispatcher{
		registry: registry,
		notify:   notify,
		workers:  make(chan struct{}, callbackThreadNum),
		log:      log,
		metrics:  metrics,
		done:     make(chan struct{}),
	}
}

// Run drains the notification channel until ctx is done or the channel is
// closed. Call in its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-d.notify:
			if !ok {
				return
			}
			d.dispatch(n)
		}
	}
}

func (d *Dispatcher) dispatch(n Notification) {
	records := d.registry.watchersFor(n.Key)
	if len(records) == 0 {
		return
	}

	event := ChangeEvent{
		DataID:    n.Key.DataID,
		Group:     n.Key.Group,
		Namespace: n.Key.Namespace,
		Content:   n.Content,
	}

	for _, rec := range records {
		if rec.delivered && rec.lastFingerprint == n.Fingerprint {
			continue
		}
		rec.lastFingerprint = n.Fingerprint
		rec.delivered = true

		d.workers <- struct{}{}
		d.wg.Add(1)
		go d.deliver(rec, event)
	}
}

func (d *Dispatcher) deliver(rec *watcherRecord, event ChangeEvent) {
	defer d.wg.Done()
	defer func() { <-d.workers }()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatch: watcher callback panicked", "panic", r, "data_id", event.DataID, "group", event.Group)
			d.metrics.RecordDispatch("panic")
		}
	}()

	rec.cb.OnChange(event)
	d.metrics.RecordDispatch("delivered")
}

// Stop waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	<-d.done
	d.wg.Wait()
}
