// Package acm is a client library for a remote, centrally managed key/value
// configuration service. It fetches values by (dataId, group, namespace),
// publishes and removes values, lets callers watch keys for server-side
// changes, and keeps serving the last known value when the configuration
// servers are unreachable.
package acm
