package acm

import "github.com/confhub/acm-client-go/internal/ckey"

// DefaultGroup is used whenever a caller passes an empty or blank group.
const DefaultGroup = ckey.DefaultGroup

// Key identifies a watchable, publishable config item by dataId, group,
// and namespace (tenant). Its canonical string form is "dataId+group+namespace"
// and doubles as the blob store's filename and the pulling engine's cache
// key.
type Key = ckey.Key

// newKey normalizes group (defaulting blank/whitespace-only to DefaultGroup)
// and validates dataId/group against the invariant in spec.md §3: both must
// match [A-Za-z0-9._:-]+.
func newKey(dataID, group, namespace string) (Key, error) {
	k := ckey.Normalize(dataID, group, namespace)
	if !k.Valid() {
		return Key{}, invalidArgument("invalid dataId %q or group %q", dataID, k.Group)
	}
	return k, nil
}
