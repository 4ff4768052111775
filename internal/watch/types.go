package watch

import "github.com/confhub/acm-client-go/internal/ckey"

// ChangeEvent is delivered to a Callback whenever a watched key's content
// changes on the server, per spec.md §9 ("single-method interface taking a
// ChangeEvent{dataId, group, namespace, content}").
type ChangeEvent struct {
	DataID    string
	Group     string
	Namespace string
	Content   string
}

// Callback is the watcher interface. Two Callback values compare equal
// exactly when the underlying concrete values do, which is what
// RemoveWatcher uses for "compare by identity" (spec.md §9): callers
// register the same *pointer* they intend to later remove.
type Callback interface {
	OnChange(ChangeEvent)
}

// Notification is one (key, content, fingerprint) tuple flowing from a
// shard to the dispatcher.
type Notification struct {
	Key         ckey.Key
	Content     string
	Fingerprint string
	HasContent  bool
}
