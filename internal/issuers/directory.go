// Package issuers answers which issuers the trusted issuers registry trusts
// and for which claim topics, caching answers for a bounded time.
package issuers

//go:generate mockgen -source=directory.go -destination=mocks/mocks.go -package=mocks Registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	id "claimbridge/pkg/domain"
	dErrors "claimbridge/pkg/domain-errors"
)

// Registry reads the on-chain trusted issuers registry at a given address.
type Registry interface {
	IsTrustedIssuer(ctx context.Context, registry, issuer id.Address) (bool, error)
	TrustedIssuers(ctx context.Context, registry id.Address) ([]id.Address, error)
	IssuerClaimTopics(ctx context.Context, registry, issuer id.Address) ([]id.ClaimTopic, error)
}

// Issuer is one registry entry.
type Issuer struct {
	Address id.Address
	Topics  []id.ClaimTopic
}

// Directory fronts the registry with a cache and collapses concurrent
// lookups for the same key into one registry read.
type Directory struct {
	registry Registry
	address  id.Address
	cache    Cache
	ttl      time.Duration
	group    singleflight.Group
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Directory)

func WithCache(c Cache) Option {
	return func(d *Directory) {
		if c != nil {
			d.cache = c
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) { d.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(d *Directory) { d.metrics = m }
}

// New builds a directory for the registry deployed at address.
func New(registry Registry, address id.Address, opts ...Option) *Directory {
	d := &Directory{
		registry: registry,
		address:  address,
		cache:    NewMemoryCache(),
		ttl:      5 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsTrustedFor reports whether issuer is trusted for topic.
//
// Errors: CodeUnavailable when the registry cannot be read.
func (d *Directory) IsTrustedFor(ctx context.Context, issuer id.Address, topic id.ClaimTopic) (bool, error) {
	topics, err := d.IssuerTopics(ctx, issuer)
	if err != nil {
		return false, err
	}
	return slices.Contains(topics, topic), nil
}

// IssuerTopics returns the topics issuer is trusted for; empty when the
// issuer is not in the registry.
func (d *Directory) IssuerTopics(ctx context.Context, issuer id.Address) ([]id.ClaimTopic, error) {
	var topics []id.ClaimTopic
	err := d.cached(ctx, "topics:"+issuer.String(), &topics, func(ctx context.Context) (any, error) {
		trusted, err := d.registry.IsTrustedIssuer(ctx, d.address, issuer)
		if err != nil || !trusted {
			return []id.ClaimTopic{}, err
		}
		return d.registry.IssuerClaimTopics(ctx, d.address, issuer)
	})
	return topics, err
}

// TrustedIssuers lists every registry entry with its topics.
func (d *Directory) TrustedIssuers(ctx context.Context) ([]Issuer, error) {
	var addresses []id.Address
	err := d.cached(ctx, "list", &addresses, func(ctx context.Context) (any, error) {
		return d.registry.TrustedIssuers(ctx, d.address)
	})
	if err != nil {
		return nil, err
	}
	out := make([]Issuer, 0, len(addresses))
	for _, addr := range addresses {
		topics, err := d.IssuerTopics(ctx, addr)
		if err != nil {
			return nil, err
		}
		out = append(out, Issuer{Address: addr, Topics: topics})
	}
	return out, nil
}

// cached decodes key into dst, loading it through load on a miss. Cache
// failures are logged and fall through to the registry.
func (d *Directory) cached(ctx context.Context, key string, dst any, load func(context.Context) (any, error)) error {
	raw, hit, err := d.cache.Get(ctx, key)
	if err != nil {
		d.logger.WarnContext(ctx, "issuer cache read failed", "key", key, "error", err)
	}
	if hit {
		if err := json.Unmarshal(raw, dst); err == nil {
			d.metrics.lookup("hit")
			return nil
		}
	}
	d.metrics.lookup("miss")

	v, err, _ := d.group.Do(key, func() (any, error) {
		d.metrics.registryRead()
		value, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := d.cache.Set(ctx, key, encoded, d.ttl); err != nil {
			d.logger.WarnContext(ctx, "issuer cache write failed", "key", key, "error", err)
		}
		return encoded, nil
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "trusted issuers registry unavailable")
	}
	return json.Unmarshal(v.([]byte), dst)
}
