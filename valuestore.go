package acm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/confhub/acm-client-go/internal/ckey"
	"github.com/confhub/acm-client-go/internal/gbkcodec"
	"github.com/confhub/acm-client-go/internal/memcache"
	"github.com/confhub/acm-client-go/internal/transport"
)

// wrapTransportErr converts a transport-layer AllServersUnavailableError
// into the public *Error sentinel so callers can use
// errors.Is(err, acm.ErrAllServersUnavailable); any other transport error
// passes through unchanged.
func wrapTransportErr(err error) error {
	if err == nil {
		return nil
	}
	var unavailable *transport.AllServersUnavailableError
	if errors.As(err, &unavailable) {
		return allServersUnavailable(unavailable.Cause)
	}
	return err
}

// getConfig holds the optional per-call knobs for Get.
type getConfig struct {
	timeout    time.Duration
	noSnapshot bool
}

// GetOption customizes a single Get call.
type GetOption func(*getConfig)

// WithGetTimeout overrides the client's default per-call timeout for one
// Get call.
func WithGetTimeout(d time.Duration) GetOption { return func(c *getConfig) { c.timeout = d } }

// WithNoSnapshot skips the best-effort snapshot write on a successful
// server read.
func WithNoSnapshot() GetOption { return func(c *getConfig) { c.noSnapshot = true } }

// Get reads a value by (dataId, group), honoring the failover -> server ->
// snapshot read precedence (spec.md §4.5). It returns ("", false, nil) when
// the value is absent everywhere, never an error, for a plain not-found.
func (c *Client) Get(ctx context.Context, dataID, group string, opts ...GetOption) (string, bool, error) {
	key, err := newKey(dataID, group, c.opts.Namespace)
	if err != nil {
		return "", false, err
	}

	cfg := getConfig{timeout: c.opts.DefaultTimeout}
	for _, o := range opts {
		o(&cfg)
	}

	return c.get(ctx, key, cfg.timeout, cfg.noSnapshot)
}

func (c *Client) get(ctx context.Context, key Key, timeout time.Duration, noSnapshot bool) (string, bool, error) {
	if raw, ok := c.failover.Read(key.String()); ok {
		content, decodeErr := gbkcodec.Decode([]byte(raw))
		if decodeErr != nil {
			content = raw
		}
		c.cacheStore(key, content)
		return content, true, nil
	}

	if entry, ok := c.memcache.Get(key.String()); ok {
		return entry.Content, true, nil
	}

	resp, err := c.executor.Do(ctx, transport.Request{
		Method:    http.MethodGet,
		Path:      "/diamond-server/config.co",
		Query:     c.keyQuery(key),
		Timeout:   timeout,
		Operation: "get",
		Sign:      c.signParams(key),
	})
	if err != nil {
		c.log.Warn("get: server unreachable, falling through to snapshot", "key", key.String(), "error", err)
		return c.getSnapshot(key)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		content, decodeErr := gbkcodec.Decode(resp.Body)
		if decodeErr != nil {
			content = string(resp.Body)
		}
		if !noSnapshot {
			c.snapshot.Write(key.String(), string(resp.Body))
		}
		c.cacheStore(key, content)
		return content, true, nil

	case http.StatusNotFound:
		c.snapshot.Delete(key.String())
		c.memcache.Invalidate(key.String())
		return "", false, nil

	case http.StatusConflict:
		c.log.Warn("get: concurrent modification detected, falling through to snapshot", "key", key.String())
		return c.getSnapshot(key)

	case http.StatusForbidden:
		return "", false, permissionDenied("get " + key.String())

	default:
		c.log.Warn("get: unexpected status, falling through to snapshot", "key", key.String(), "status", resp.StatusCode)
		return c.getSnapshot(key)
	}
}

func (c *Client) getSnapshot(key Key) (string, bool, error) {
	raw, ok := c.snapshot.Read(key.String())
	if !ok {
		return "", false, nil
	}
	content, err := gbkcodec.Decode([]byte(raw))
	if err != nil {
		content = raw
	}
	return content, true, nil
}

func (c *Client) cacheStore(key Key, content string) {
	fp, err := gbkcodec.Fingerprint(content)
	if err != nil {
		return
	}
	c.memcache.Set(key.String(), memcache.Entry{Content: content, Fingerprint: fp})
}

// Publish encodes content as GBK and posts it to the server.
func (c *Client) Publish(ctx context.Context, dataID, group, content string) error {
	key, err := newKey(dataID, group, c.opts.Namespace)
	if err != nil {
		return err
	}

	encoded, err := gbkcodec.Encode(content)
	if err != nil {
		return invalidArgument("content is not representable in GBK: %v", err)
	}

	form := c.keyForm(key)
	form.Set("content", string(encoded))

	resp, err := c.executor.Do(ctx, transport.Request{
		Method:    http.MethodPost,
		Path:      "/diamond-server/basestone.do",
		Query:     url.Values{"method": {"syncUpdateAll"}},
		Form:      form,
		Timeout:   c.opts.DefaultTimeout,
		Operation: "publish",
		Sign:      c.signParams(key),
	})
	if err != nil {
		return wrapTransportErr(err)
	}
	if resp.StatusCode == http.StatusForbidden {
		return permissionDenied("publish " + key.String())
	}

	c.memcache.Invalidate(key.String())
	return nil
}

// Remove deletes a value on the server.
func (c *Client) Remove(ctx context.Context, dataID, group string) error {
	key, err := newKey(dataID, group, c.opts.Namespace)
	if err != nil {
		return err
	}

	resp, err := c.executor.Do(ctx, transport.Request{
		Method:    http.MethodGet,
		Path:      "/diamond-server/datum.do",
		Query:     withMethod(c.keyQuery(key), "deleteAllDatums"),
		Timeout:   c.opts.DefaultTimeout,
		Operation: "remove",
		Sign:      c.signParams(key),
	})
	if err != nil {
		return wrapTransportErr(err)
	}
	if resp.StatusCode == http.StatusForbidden {
		return permissionDenied("remove " + key.String())
	}

	c.memcache.Invalidate(key.String())
	return nil
}

// ListItem is one entry in a List page.
type ListItem struct {
	DataID string `json:"dataId"`
	Group  string `json:"group"`
}

// ListResult is the decoded response of List.
type ListResult struct {
	PageItems      []ListItem `json:"pageItems"`
	PagesAvailable int        `json:"pagesAvailable"`
	TotalCount     int        `json:"totalCount"`
}

// List fetches one page of all config items in the client's namespace.
func (c *Client) List(ctx context.Context, page, size int) (ListResult, error) {
	query := url.Values{
		"method":   {"getAllConfigInfoByTenant"},
		"pageNo":   {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(size)},
	}
	if c.opts.Namespace != "" {
		query.Set("tenant", c.opts.Namespace)
	}

	resp, err := c.executor.Do(ctx, transport.Request{
		Method:    http.MethodGet,
		Path:      "/diamond-server/basestone.do",
		Query:     query,
		Timeout:   c.opts.DefaultTimeout,
		Operation: "list",
		Sign:      transport.SignParams{AK: c.opts.AccessKey, SK: c.opts.SecretKey, Tenant: c.opts.Namespace},
	})
	if err != nil {
		return ListResult{}, wrapTransportErr(err)
	}

	var result ListResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return ListResult{}, invalidArgument("malformed list response: %v", err)
	}
	return result, nil
}

// ListAll paginates through every config item, filtering by group (if
// given) and by a case-sensitive dataId prefix (if given).
func (c *Client) ListAll(ctx context.Context, group, prefix string) ([]ListItem, error) {
	const pageSize = 200

	first, err := c.List(ctx, 1, pageSize)
	if err != nil {
		return nil, err
	}

	var all []ListItem
	appendFiltered := func(items []ListItem) {
		for _, item := range items {
			if group != "" && item.Group != group {
				continue
			}
			if prefix != "" && !hasPrefix(item.DataID, prefix) {
				continue
			}
			all = append(all, item)
		}
	}
	appendFiltered(first.PageItems)

	for p := 2; p <= first.PagesAvailable; p++ {
		page, err := c.List(ctx, p, pageSize)
		if err != nil {
			return nil, err
		}
		appendFiltered(page.PageItems)
	}

	return all, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func (c *Client) keyQuery(key Key) url.Values {
	v := url.Values{"dataId": {key.DataID}, "group": {key.Group}}
	if key.Namespace != "" {
		v.Set("tenant", key.Namespace)
	}
	return v
}

func (c *Client) keyForm(key Key) url.Values {
	return c.keyQuery(key)
}

func withMethod(v url.Values, method string) url.Values {
	v.Set("method", method)
	return v
}

func (c *Client) signParams(key Key) transport.SignParams {
	return transport.SignParams{
		AK:     c.opts.AccessKey,
		SK:     c.opts.SecretKey,
		Tenant: key.Namespace,
		Group:  key.Group,
	}
}

// seed implements watch.Seeder: it reads failover, then snapshot, to
// provide the starting fingerprint for a newly observed watched key.
func (c *Client) seed(key ckey.Key) (string, bool) {
	if raw, ok := c.failover.Read(key.String()); ok {
		fp, err := gbkcodec.Fingerprint(decodeOrRaw(raw))
		if err != nil {
			return "", false
		}
		return fp, true
	}
	if raw, ok := c.snapshot.Read(key.String()); ok {
		fp, err := gbkcodec.Fingerprint(decodeOrRaw(raw))
		if err != nil {
			return "", false
		}
		return fp, true
	}
	return "", false
}

// fetch implements watch.Fetcher: it re-reads a key's current content and
// fingerprint the same way Get does, for the pulling engine's "fetch on
// change" step.
func (c *Client) fetch(ctx context.Context, key ckey.Key) (content, fingerprint string, ok bool, err error) {
	c.memcache.Invalidate(key.String())
	content, ok, err = c.get(ctx, key, c.opts.DefaultTimeout, false)
	if err != nil || !ok {
		return "", "", ok, err
	}
	fingerprint, err = gbkcodec.Fingerprint(content)
	if err != nil {
		return content, "", true, nil
	}
	return content, fingerprint, true, nil
}

func decodeOrRaw(raw string) string {
	decoded, err := gbkcodec.Decode([]byte(raw))
	if err != nil {
		return raw
	}
	return decoded
}
