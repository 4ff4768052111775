// Package serverpool resolves the configuration server address list from
// the CAI endpoint and hands out a rotating, failover-aware current server
// to the transport layer.
package serverpool

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	addressServerTimeout = 3 * time.Second
	httpDefaultPort      = 8080
	httpsDefaultPort     = 443
)

// Server is one configuration server: its host, port, and whether the host
// is a literal IPv4 address (vs. a hostname needing DNS resolution).
type Server struct {
	Host  string
	Port  int
	IsIP4 bool
}

// Addr returns "host:port".
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Resolver fetches the server list, either from a CAI address-server
// endpoint or, when CAI is disabled, by parsing the endpoint string itself
// as the server list.
type Resolver struct {
	endpoint    string
	caiEnabled  bool
	defaultPort int
	httpClient  *http.Client
	log         *slog.Logger
}

// NewResolver builds a Resolver. When caiEnabled is false, Resolve parses
// endpoint with the same one-"host[:port]"-per-line rules as an address
// server response: a plain endpoint yields one server, a newline-separated
// endpoint yields one server per line. This is the "direct endpoint" mode
// used in tests and in address-server-less deployments.
// tlsEnabled selects the port assumed for a line with no explicit ":port"
// (443 under TLS, 8080 otherwise), per spec.md §4.2.
func NewResolver(endpoint string, caiEnabled, tlsEnabled bool, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	defaultPort := httpDefaultPort
	if tlsEnabled {
		defaultPort = httpsDefaultPort
	}
	return &Resolver{
		endpoint:    endpoint,
		caiEnabled:  caiEnabled,
		defaultPort: defaultPort,
		httpClient:  &http.Client{Timeout: addressServerTimeout},
		log:         log,
	}
}

// Resolve fetches the current server list. A transport or parse failure
// logs and returns an empty, non-error list, since the caller's job is to
// keep whatever list it already had rather than fail the operation.
func (r *Resolver) Resolve(ctx context.Context) []Server {
	if !r.caiEnabled {
		r.log.Info("serverpool: cai disabled, using endpoint as sole server", "endpoint", r.endpoint)
		return r.parseServerList(r.endpoint)
	}

	endpoint := r.endpoint
	if !strings.Contains(endpoint, ":") {
		endpoint = endpoint + ":" + strconv.Itoa(r.defaultPort)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sprintfAddressURL(endpoint), nil)
	if err != nil {
		r.log.Error("serverpool: build address request failed", "endpoint", endpoint, "error", err)
		return nil
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Error("serverpool: fetch server list failed", "endpoint", endpoint, "error", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.log.Error("serverpool: read server list body failed", "endpoint", endpoint, "error", err)
		return nil
	}

	return r.parseServerList(string(body))
}

func sprintfAddressURL(endpoint string) string {
	return "http://" + endpoint + "/diamond-server/diamond"
}

// parseServerList parses one "host[:port]" entry per line and shuffles the
// result, matching get_server_list's random.shuffle. A line with no
// explicit port defaults to r.defaultPort.
func (r *Resolver) parseServerList(content string) []Server {
	var servers []Server
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ":")
		switch len(parts) {
		case 1:
			servers = append(servers, Server{Host: parts[0], Port: r.defaultPort, IsIP4: isIPv4(parts[0])})
		default:
			port, err := strconv.Atoi(parts[1])
			if err != nil {
				continue
			}
			servers = append(servers, Server{Host: parts[0], Port: port, IsIP4: isIPv4(parts[0])})
		}
	}

	rand.Shuffle(len(servers), func(i, j int) { servers[i], servers[j] = servers[j], servers[i] })
	return servers
}

func isIPv4(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.To4() != nil
}
