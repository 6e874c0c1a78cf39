package jwks

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"bankauth/internal/logger"
	"bankauth/internal/telemetry"

	jose "github.com/go-jose/go-jose/v4"
	"golang.org/x/sync/singleflight"
)

const (
	maxBodySize    = 1 << 20
	defaultTimeout = 10 * time.Second
)

var ErrUnsupportedKey = errors.New("unsupported JWK")

// Cache holds the provider's signing keys indexed by key ID. The whole set is
// replaced on refresh, so readers see either the old or the new set.
type Cache struct {
	url    string
	client *http.Client

	mu   sync.RWMutex
	keys map[string]crypto.PublicKey

	group singleflight.Group
}

func New(url string, client *http.Client) *Cache {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Cache{
		url:    url,
		client: client,
		keys:   map[string]crypto.PublicKey{},
	}
}

// GetKey returns the key for kid. An unknown kid triggers one refetch of the
// key set before the key is reported as not found.
func (c *Cache) GetKey(ctx context.Context, kid string) (crypto.PublicKey, bool) {
	if key, ok := c.lookup(kid); ok {
		return key, true
	}

	if err := c.Refresh(ctx); err != nil {
		logger.Warn().
			Err(err).
			Str("kid", kid).
			Msg("failed to refresh signing keys")
		return nil, false
	}

	key, ok := c.lookup(kid)
	if !ok {
		logger.Info().Str("kid", kid).Msg("signing key not found after refresh")
	}
	return key, ok
}

// Refresh fetches the key set. Concurrent callers share one request, which
// outlives any single caller's context and is bounded by the HTTP client
// timeout. Each caller stops waiting when its own context ends. On failure
// the previous set is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	fetchCtx := context.WithoutCancel(ctx)

	result := c.group.DoChan("jwks", func() (any, error) {
		keys, err := c.fetch(fetchCtx)
		telemetry.RecordJWKSRefresh(err)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.keys = keys
		c.mu.Unlock()

		logger.Debug().Int("keys", len(keys)).Msg("signing keys refreshed")
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-result:
		return res.Err
	}
}

func (c *Cache) keyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

func (c *Cache) lookup(kid string) (crypto.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[kid]
	return key, ok
}

// keySet keeps members raw so one malformed key does not reject the set.
type keySet struct {
	Keys []json.RawMessage `json:"keys"`
}

func (c *Cache) fetch(ctx context.Context) (map[string]crypto.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var set keySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]crypto.PublicKey, len(set.Keys))
	for _, raw := range set.Keys {
		jwk, err := decodeKey(raw)
		if err != nil {
			logger.Debug().Err(err).Msg("skipping signing key")
			continue
		}
		if jwk.KeyID == "" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		keys[jwk.KeyID] = jwk.Key
	}

	return keys, nil
}

// decodeKey parses one JWK and accepts only RSA and EC public keys.
func decodeKey(raw json.RawMessage) (*jose.JSONWebKey, error) {
	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
	}
	if !jwk.Valid() || !jwk.IsPublic() {
		return nil, fmt.Errorf("%w: kid %q is not a usable public key", ErrUnsupportedKey, jwk.KeyID)
	}

	switch key := jwk.Key.(type) {
	case *rsa.PublicKey:
		if key.N.Sign() <= 0 || key.E <= 0 {
			return nil, fmt.Errorf("%w: kid %q has an empty modulus or exponent", ErrUnsupportedKey, jwk.KeyID)
		}
	case *ecdsa.PublicKey:
	default:
		return nil, fmt.Errorf("%w: kid %q has key type %T", ErrUnsupportedKey, jwk.KeyID, jwk.Key)
	}

	return &jwk, nil
}
