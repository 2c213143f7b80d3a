package auth

import (
	"context"
	"sync"
	"time"
)

// KeyLookup resolves a registered device API key.
type KeyLookup interface {
	Lookup(ctx context.Context, apiKey string) (string, error)
}

// Principal is the authenticated sender. An empty DeviceID means a static
// gateway key allowed to report for any device.
type Principal struct {
	DeviceID string
}

// Bound reports whether the key belongs to a single device.
func (p Principal) Bound() bool { return p.DeviceID != "" }

type cacheEntry struct {
	deviceID  string
	expiresAt time.Time
}

// Authenticator validates X-API-Key values: static keys first, then the
// in-memory cache, then Redis.
type Authenticator struct {
	localCache sync.Map
	keys       KeyLookup
	ttl        time.Duration
	staticKeys map[string]bool
	now        func() time.Time
}

// NewAuthenticator returns authenticator.
func NewAuthenticator(staticKeys []string, keys KeyLookup, ttl time.Duration) *Authenticator {
	static := make(map[string]bool, len(staticKeys))
	for _, k := range staticKeys {
		if k != "" {
			static[k] = true
		}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Authenticator{
		keys:       keys,
		ttl:        ttl,
		staticKeys: static,
		now:        time.Now,
	}
}

// Validate returns the principal for apiKey.
func (a *Authenticator) Validate(ctx context.Context, apiKey string) (Principal, bool) {
	if apiKey == "" {
		return Principal{}, false
	}
	if a.staticKeys[apiKey] {
		return Principal{}, true
	}

	if raw, ok := a.localCache.Load(apiKey); ok {
		entry := raw.(cacheEntry)
		if a.now().Before(entry.expiresAt) {
			return Principal{DeviceID: entry.deviceID}, true
		}
		a.localCache.Delete(apiKey)
	}

	if a.keys == nil {
		return Principal{}, false
	}
	deviceID, err := a.keys.Lookup(ctx, apiKey)
	if err != nil || deviceID == "" {
		return Principal{}, false
	}

	a.localCache.Store(apiKey, cacheEntry{
		deviceID:  deviceID,
		expiresAt: a.now().Add(a.ttl),
	})
	return Principal{DeviceID: deviceID}, true
}

type principalKey struct{}

// WithPrincipal stores the sender in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the sender stored by the api key middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
