package acm

import "github.com/confhub/acm-client-go/internal/watch"

// ChangeEvent is delivered to a Watcher's OnChange whenever a watched key's
// content changes on the server.
type ChangeEvent = watch.ChangeEvent

// Watcher receives change notifications for keys registered via
// AddWatcher. RemoveWatcher compares watchers by identity: pass the same
// value used to add it.
type Watcher = watch.Callback

// AddWatcher registers w for (dataId, group) in the client's namespace. The
// first call to AddWatcher on a Client lazily starts its pulling engine.
func (c *Client) AddWatcher(dataID, group string, w Watcher) error {
	if w == nil {
		return invalidArgument("a watcher is required")
	}
	key, err := newKey(dataID, group, c.opts.Namespace)
	if err != nil {
		return err
	}
	c.registry.AddWatcher(key, w)
	return nil
}

// AddWatchers registers every watcher in ws for (dataId, group).
func (c *Client) AddWatchers(dataID, group string, ws []Watcher) error {
	for _, w := range ws {
		if err := c.AddWatcher(dataID, group, w); err != nil {
			return err
		}
	}
	return nil
}

// RemoveWatcher removes w from (dataId, group)'s watcher list. When
// removeAll is true, every watcher matching w's identity is removed;
// otherwise only the first match is.
func (c *Client) RemoveWatcher(dataID, group string, w Watcher, removeAll bool) error {
	if w == nil {
		return invalidArgument("a watcher is required")
	}
	key, err := newKey(dataID, group, c.opts.Namespace)
	if err != nil {
		return err
	}
	c.registry.RemoveWatcher(key, w, removeAll)
	return nil
}
