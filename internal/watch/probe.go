package watch

import (
	"net/url"
	"strings"

	"github.com/confhub/acm-client-go/internal/ckey"
	"github.com/confhub/acm-client-go/internal/transport"
)

// buildProbe renders the probe string for keys: one
// "dataId WS group WS fingerprint WS namespace LS" line per key, where
// WS/LS are the wire-protocol separators (spec.md §4.7 step 2).
// fingerprints[key.String()] supplies the per-key fingerprint, "" if absent.
func buildProbe(keys []ckey.Key, fingerprints map[string]string) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k.DataID)
		b.WriteString(transport.WordSep)
		b.WriteString(k.Group)
		b.WriteString(transport.WordSep)
		b.WriteString(fingerprints[k.String()])
		b.WriteString(transport.WordSep)
		b.WriteString(k.Namespace)
		b.WriteString(transport.LineSep)
	}
	return b.String()
}

// parseChangedKeys parses a probe response body: URL-decode, split on LS,
// drop blanks, split each line on WS into [dataId, group] or
// [dataId, group, namespace] (spec.md §4.7 step 5).
func parseChangedKeys(body string) []ckey.Key {
	decoded, err := url.QueryUnescape(body)
	if err != nil {
		decoded = body
	}

	var keys []ckey.Key
	for _, line := range strings.Split(decoded, transport.LineSep) {
		if line == "" {
			continue
		}
		parts := strings.Split(line, transport.WordSep)
		switch len(parts) {
		case 2:
			keys = append(keys, ckey.Key{DataID: parts[0], Group: parts[1]})
		case 3:
			keys = append(keys, ckey.Key{DataID: parts[0], Group: parts[1], Namespace: parts[2]})
		}
	}
	return keys
}
