// Package transport executes requests against the server pool, handling
// header composition, optional signing, TLS/hostname-verification
// selection, and retry-until-exhausted failover across the pool.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/confhub/acm-client-go/internal/serverpool"
	"github.com/confhub/acm-client-go/internal/telemetry"
)

const (
	clientVersion = "1.0.0"
	wordSep       = "\x02"
	lineSep       = "\x01"
)

// WordSep and LineSep are the probe-string separators (§6), exported for
// the pulling engine.
const (
	WordSep = wordSep
	LineSep = lineSep
)

// Request describes one logical call against the config service.
type Request struct {
	Method       string
	Path         string
	Query        url.Values
	Form         url.Values
	ExtraHeaders map[string]string
	Timeout      time.Duration
	Operation    string // metrics label: "get", "publish", "remove", "list", "pull"
	Sign         SignParams
}

// Response is the result of a successfully executed request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Executor runs Requests against a server pool with retry-until-exhausted
// failover, per spec.md §4.4.
type Executor struct {
	pool       *serverpool.Pool
	tlsEnabled bool
	appName    string
	verified   *http.Client
	unverified *http.Client
	log        *slog.Logger
	metrics    *telemetry.Metrics
}

// NewExecutor builds an Executor. appName is sent as the
// Diamond-Client-AppName header.
func NewExecutor(pool *serverpool.Pool, tlsEnabled bool, appName string, log *slog.Logger, metrics *telemetry.Metrics) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		pool:       pool,
		tlsEnabled: tlsEnabled,
		appName:    appName,
		verified:   &http.Client{},
		unverified: &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}}, //nolint:gosec
		log:        log,
		metrics:    metrics,
	}
}

// Do executes req, retrying across the server pool on transient failure
// (500/502/503, timeout, connection error) and returning an
// *AllServersUnavailableError once the pool is exhausted. Any other HTTP
// response, including other 5xx statuses, is returned as a *Response with
// no error, leaving status interpretation to the caller.
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	correlationID := uuid.NewString()
	log := e.log.With("op", req.Operation, "correlation_id", correlationID)

	server, ok := e.pool.Current(ctx)
	if !ok {
		return nil, errAllServersUnavailable(nil)
	}

	var lastErr error
	for tries := 0; tries < e.pool.Len(); tries++ {
		resp, err := e.doOnce(ctx, server, req, log)
		if err == nil {
			e.metrics.RecordRetryAttempt(req.Operation, "success")
			return resp, nil
		}

		if !isTransient(err) {
			e.metrics.RecordRetryAttempt(req.Operation, "fatal")
			return nil, err
		}

		log.Warn("transport: server unavailable, rotating", "server", server.Addr(), "error", err)
		e.metrics.RecordRetryAttempt(req.Operation, "retry")
		lastErr = err
		e.pool.Advance()

		var nextOK bool
		server, nextOK = e.pool.Current(ctx)
		if !nextOK {
			break
		}
	}

	return nil, errAllServersUnavailable(lastErr)
}

func (e *Executor) doOnce(ctx context.Context, server serverpool.Server, req Request, log *slog.Logger) (*Response, error) {
	scheme := "http"
	client := e.verified
	if e.tlsEnabled {
		scheme = "https"
		if server.IsIP4 {
			client = e.unverified
		}
	}

	reqURL := scheme + "://" + server.Addr() + req.Path
	if len(req.Query) > 0 {
		reqURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hasForm := len(req.Form) > 0
	if hasForm {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Client-Version", clientVersion)
	httpReq.Header.Set("Diamond-Client-AppName", e.appName)
	httpReq.Header.Set("exConfigInfo", "true")
	if hasForm {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=GBK")
	}
	for k, v := range req.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Sign.headers(time.Now()) {
		httpReq.Header.Set(k, v)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	httpReq = httpReq.WithContext(callCtx)

	log.Debug("transport: sending request", "method", method, "url", reqURL, "timeout", timeout)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 500 && (resp.StatusCode == http.StatusInternalServerError ||
		resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable) {
		return nil, transientStatusError{code: resp.StatusCode}
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// transientStatusError marks a 500/502/503 response as retryable; 404/409/403
// and all other statuses are returned to the caller as a plain *Response
// for the value store (C5) to interpret, since their meaning is
// operation-specific.
type transientStatusError struct{ code int }

func (e transientStatusError) Error() string {
	return "transport: transient status " + strconv.Itoa(e.code)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var tse transientStatusError
	if errors.As(err, &tse) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// AllServersUnavailableError is returned once the full server pool has been
// exhausted with only transient failures; acm.Client maps it to
// acm.ErrAllServersUnavailable.
type AllServersUnavailableError struct {
	Cause error
}

func (e *AllServersUnavailableError) Error() string {
	if e.Cause != nil {
		return "transport: all servers unavailable: " + e.Cause.Error()
	}
	return "transport: all servers unavailable"
}

func (e *AllServersUnavailableError) Unwrap() error { return e.Cause }

func errAllServersUnavailable(cause error) error {
	return &AllServersUnavailableError{Cause: cause}
}
