// Package ckey is the composite-key type shared by every internal
// component (blob store, pulling engine, memcache, watch registry) so none
// of them need to import the root acm package to agree on a key shape.
package ckey

import (
	"regexp"
	"strings"
)

// DefaultGroup is used whenever a caller passes an empty or blank group.
const DefaultGroup = "DEFAULT_GROUP"

var validNamePattern = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

// Key identifies a watchable, publishable config item by dataId, group,
// and namespace (tenant).
type Key struct {
	DataID    string
	Group     string
	Namespace string
}

// Valid reports whether k.DataID and k.Group satisfy the naming invariant
// ([A-Za-z0-9._:-]+), per spec.md §3.
func (k Key) Valid() bool {
	return k.DataID != "" && validNamePattern.MatchString(k.DataID) && validNamePattern.MatchString(k.Group)
}

// Normalize defaults a blank/whitespace-only group to DefaultGroup. Call
// before Valid/String.
func Normalize(dataID, group, namespace string) Key {
	group = strings.TrimSpace(group)
	if group == "" {
		group = DefaultGroup
	}
	return Key{DataID: dataID, Group: group, Namespace: namespace}
}

// String returns the canonical "dataId+group+namespace" encoding.
func (k Key) String() string {
	return k.DataID + "+" + k.Group + "+" + k.Namespace
}

// Parse is the inverse of String. It accepts both two- and three-field
// encodings (a missing namespace is padded to ""), matching the pulling
// engine's probe-response parsing (spec.md §4.7 step 5).
func Parse(s string) (Key, bool) {
	parts := strings.SplitN(s, "+", 3)
	switch len(parts) {
	case 2:
		return Key{DataID: parts[0], Group: parts[1]}, true
	case 3:
		return Key{DataID: parts[0], Group: parts[1], Namespace: parts[2]}, true
	default:
		return Key{}, false
	}
}
