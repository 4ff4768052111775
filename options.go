package acm

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultAppName = "ACM-CLIENT-GO"

// Options configures New. Only Endpoint is required; every other field has
// a default matching spec.md §6's configuration table.
type Options struct {
	// Endpoint is the bootstrap host (or host:port) for the address
	// resolver, or the sole server when CAIEnabled is false.
	Endpoint string `validate:"required"`

	// Namespace scopes reads/writes by tenant. "" means no tenant scoping.
	Namespace string

	// AccessKey/SecretKey enable request signing when both are set.
	AccessKey string
	SecretKey string

	// DefaultTimeout is the per-call HTTP timeout for Get/Publish/Remove/List.
	DefaultTimeout time.Duration

	// PullingTimeout is the server long-poll hold time.
	PullingTimeout time.Duration

	// PullingConfigSize is the max number of keys per pulling shard.
	PullingConfigSize int

	// CallbackThreadNum sizes the notification dispatcher's worker pool.
	CallbackThreadNum int

	// TLSEnabled switches the transport to https and enables signing's
	// natural counterpart, hostname verification selection by server.IsIP4.
	TLSEnabled bool

	// CAIEnabled toggles CAI-based address resolution versus treating
	// Endpoint as the sole server.
	CAIEnabled *bool

	// FailoverBase / SnapshotBase are the two-tier local cache roots.
	FailoverBase string
	SnapshotBase string

	// AppName is sent as the Diamond-Client-AppName header.
	AppName string

	// Logger is used by every internal component. Defaults to slog.Default().
	Logger *slog.Logger

	// MetricsRegisterer is where client metrics are registered. A nil value
	// disables metrics entirely.
	MetricsRegisterer prometheus.Registerer

	// MemCacheSize is the in-memory read-through cache's capacity.
	MemCacheSize int
}

// Option mutates Options during New.
type Option func(*Options)

// WithNamespace sets the tenant namespace.
func WithNamespace(ns string) Option { return func(o *Options) { o.Namespace = ns } }

// WithCredentials enables request signing with the given access/secret key.
func WithCredentials(ak, sk string) Option {
	return func(o *Options) { o.AccessKey = ak; o.SecretKey = sk }
}

// WithTLS enables HTTPS transport.
func WithTLS(enabled bool) Option { return func(o *Options) { o.TLSEnabled = enabled } }

// WithCAI toggles address-server-based resolution.
func WithCAI(enabled bool) Option { return func(o *Options) { o.CAIEnabled = &enabled } }

// WithTimeouts overrides the default per-call and long-poll timeouts.
func WithTimeouts(defaultTimeout, pullingTimeout time.Duration) Option {
	return func(o *Options) { o.DefaultTimeout = defaultTimeout; o.PullingTimeout = pullingTimeout }
}

// WithLocalCacheDirs overrides the failover/snapshot directory roots.
func WithLocalCacheDirs(failoverBase, snapshotBase string) Option {
	return func(o *Options) { o.FailoverBase = failoverBase; o.SnapshotBase = snapshotBase }
}

// WithLogger overrides the structured logger used by every component.
func WithLogger(log *slog.Logger) Option { return func(o *Options) { o.Logger = log } }

// WithMetricsRegisterer overrides where client metrics register. Pass nil
// to disable metrics.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *Options) { o.MetricsRegisterer = reg }
}

// WithMemCacheSize overrides the in-memory read-through cache capacity.
func WithMemCacheSize(size int) Option { return func(o *Options) { o.MemCacheSize = size } }

// WithAppName overrides the Diamond-Client-AppName header value.
func WithAppName(name string) Option { return func(o *Options) { o.AppName = name } }

func defaultOptions() Options {
	caiEnabled := true
	return Options{
		DefaultTimeout:    3 * time.Second,
		PullingTimeout:    30 * time.Second,
		PullingConfigSize: 3000,
		CallbackThreadNum: 10,
		CAIEnabled:        &caiEnabled,
		FailoverBase:      "acm-data/data",
		SnapshotBase:      "acm-data/snapshot",
		AppName:           defaultAppName,
		Logger:            slog.Default(),
		MetricsRegisterer: prometheus.DefaultRegisterer,
		MemCacheSize:      2048,
	}
}

var optionsValidator = validator.New()

func (o Options) validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return invalidArgument("invalid options: %v", err)
	}
	return nil
}

// normalizeNamespace maps spec.md §6's "[default]" sentinel to "" so every
// other component only ever has to check for an empty Namespace.
func (o *Options) normalizeNamespace() {
	if o.Namespace == "[default]" {
		o.Namespace = ""
	}
}

func (o Options) authEnabled() bool {
	return o.AccessKey != "" && o.SecretKey != ""
}

func (o Options) caiEnabled() bool {
	if o.CAIEnabled == nil {
		return true
	}
	return *o.CAIEnabled
}
