// Package cache is a read-through JSON cache in front of upstream calls.
// Store failures never reach the caller: a failed read is a miss and a
// failed write is logged.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"leadgen/internal/metrics"
)

// KeyPrefix namespaces every entry written by the gateway.
const KeyPrefix = "leadgen:cache:"

// Operation tags. Each has its own TTL.
const (
	OpSearch   = "search"
	OpDecision = "decision"
	OpLinkedIn = "linkedin"
	OpEmail    = "email"
	OpCompany  = "company"
	OpVerify   = "verify"
)

// DefaultTTLs returns the expiry used for each operation tag.
func DefaultTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		OpSearch:   time.Hour,
		OpDecision: time.Hour,
		OpLinkedIn: 24 * time.Hour,
		OpEmail:    12 * time.Hour,
		OpCompany:  7 * 24 * time.Hour,
		OpVerify:   30 * 24 * time.Hour,
	}
}

// Store is the subset of a Fiber storage the cache needs. A nil value from
// GetWithContext with a nil error is a miss.
type Store interface {
	GetWithContext(ctx context.Context, key string) ([]byte, error)
	SetWithContext(ctx context.Context, key string, val []byte, exp time.Duration) error
}

// Key identifies a cache entry. Build keys with the constructors below.
type Key struct {
	Op string
	id string
}

func (k Key) String() string {
	return KeyPrefix + k.Op + ":" + k.id
}

// Cache stores JSON values under operation-tagged keys.
type Cache struct {
	store Store
	ttls  map[string]time.Duration
}

// New creates a cache over store. A nil store disables caching. Missing
// entries in ttls fall back to DefaultTTLs.
func New(store Store, ttls map[string]time.Duration) *Cache {
	merged := DefaultTTLs()
	for op, ttl := range ttls {
		if ttl > 0 {
			merged[op] = ttl
		}
	}
	return &Cache{store: store, ttls: merged}
}

// Enabled reports whether a backing store is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// TTL returns the expiry for an operation tag.
func (c *Cache) TTL(op string) time.Duration {
	return c.ttls[op]
}

// Get decodes the entry for key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key Key, dest any) bool {
	if !c.Enabled() {
		return false
	}

	data, err := c.store.GetWithContext(ctx, key.String())
	if err != nil {
		slog.Warn("cache read failed", "key", key.String(), "error", err)
		metrics.RecordCacheLookup(key.Op, false)
		return false
	}
	if len(data) == 0 {
		metrics.RecordCacheLookup(key.Op, false)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		slog.Warn("cache entry corrupt", "key", key.String(), "error", err)
		metrics.RecordCacheLookup(key.Op, false)
		return false
	}

	metrics.RecordCacheLookup(key.Op, true)
	return true
}

// Set stores value under key with the operation's TTL. Errors are logged and dropped.
func (c *Cache) Set(ctx context.Context, key Key, value any) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache encode failed", "key", key.String(), "error", err)
		return
	}
	if err := c.store.SetWithContext(ctx, key.String(), data, c.TTL(key.Op)); err != nil {
		slog.Warn("cache write failed", "key", key.String(), "error", err)
	}
}

// SearchKey hashes normalized search parameters. encoding/json writes map
// keys in sorted order, so insertion order does not matter.
func SearchKey(params map[string]any) Key {
	return Key{Op: OpSearch, id: digest(params)}
}

// DecisionMakersKey hashes the decision-maker query for a domain.
func DecisionMakersKey(params map[string]any) Key {
	return Key{Op: OpDecision, id: digest(params)}
}

// LinkedInKey identifies a LinkedIn enrichment. Spellings of the same
// profile URL share a key.
func LinkedInKey(profileURL string, profileOnly bool) Key {
	return Key{Op: OpLinkedIn, id: normalizeProfileURL(profileURL) + ":" + strconv.FormatBool(profileOnly)}
}

// normalizeProfileURL drops the scheme, query and fragment, lowercases the
// host without its www. prefix and trims trailing slashes.
func normalizeProfileURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	return host + strings.TrimRight(u.Path, "/")
}

// EmailKey identifies an email enrichment.
func EmailKey(email string, includeWork bool) Key {
	return Key{Op: OpEmail, id: strings.ToLower(email) + ":" + strconv.FormatBool(includeWork)}
}

// CompanyKey identifies a domain enrichment for a set of domains.
func CompanyKey(domains ...string) Key {
	normalized := make([]string, len(domains))
	for i, d := range domains {
		normalized[i] = strings.ToLower(strings.TrimSpace(d))
	}
	slices.Sort(normalized)
	return Key{Op: OpCompany, id: strings.Join(slices.Compact(normalized), ",")}
}

// VerifyKey identifies an email verification.
func VerifyKey(email string) Key {
	return Key{Op: OpVerify, id: strings.ToLower(email)}
}

func digest(params map[string]any) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Values come from decoded JSON, so this only happens on programmer error.
		slog.Error("failed to encode cache key", "error", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
