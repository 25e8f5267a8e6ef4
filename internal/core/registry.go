package core

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	idPrefix            = "KH"
	idSpace             = 100000 // five decimal digits
	maxGenerateAttempts = 100

	rowKeySeparator   = "|"
	rowKeyCells       = 3
	maxFallbackKeyLen = 100
)

// IDStats summarizes the registry contents.
type IDStats struct {
	TotalStoredIDs int      `json:"totalStoredIds"`
	StoredIDs      []string `json:"storedIds"`
}

// IDRegistry hands out stable identifiers for rows that carry no usable id of
// their own. The identifier is derived from the row content: the same leading
// cells always resolve to the same id for the life of the process, or until
// Clear is called.
//
// Rows that share their first three non-empty cells alias to one id.
type IDRegistry struct {
	mu     sync.Mutex
	byKey  map[string]string
	issued map[string]struct{} // every id handed out since start, survives Clear

	intN func(n int) int
	now  func() time.Time
}

// RegistryOption customizes an IDRegistry.
type RegistryOption func(*IDRegistry)

// WithRandom replaces the random source used for candidate ids.
// intN must return a value in [0, n).
func WithRandom(intN func(n int) int) RegistryOption {
	return func(r *IDRegistry) { r.intN = intN }
}

// WithClock replaces the clock used for the collision fallback.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *IDRegistry) { r.now = now }
}

// NewIDRegistry creates an empty registry.
func NewIDRegistry(opts ...RegistryOption) *IDRegistry {
	r := &IDRegistry{
		byKey:  make(map[string]string),
		issued: make(map[string]struct{}),
		intN:   rand.IntN,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreateID returns the id for a row.
//
// A non-empty explicitID is returned trimmed and the registry is not touched.
// Otherwise the row key is looked up and, when unknown, a fresh id is
// generated, checked against every id issued so far and stored. headers is
// accepted for symmetry with the mapper and does not contribute to the key.
func (r *IDRegistry) GetOrCreateID(row, headers []string, explicitID string) string {
	if id := strings.TrimSpace(explicitID); id != "" {
		return id
	}

	key := RowKey(row)

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[key]; ok {
		return id
	}

	id := r.generateLocked()
	r.byKey[key] = id
	r.issued[id] = struct{}{}

	slog.Debug("assigned row id", "id", id, "row_key", key, "headers", len(headers))
	return id
}

// generateLocked draws random candidates until one is unused. After
// maxGenerateAttempts collisions it falls back to the clock. r.mu must be held.
func (r *IDRegistry) generateLocked() string {
	for i := 0; i < maxGenerateAttempts; i++ {
		id := fmt.Sprintf("%s%05d", idPrefix, r.intN(idSpace))
		if _, taken := r.issued[id]; !taken {
			return id
		}
	}

	id := fmt.Sprintf("%s%05d", idPrefix, r.now().UnixMilli()%idSpace)
	slog.Warn("row id space congested, using clock fallback", "id", id, "issued", len(r.issued))
	return id
}

// RowKey derives the registry key for a row: the first up to three non-empty
// trimmed values among the first three cells, joined by "|". When all of them
// are empty the whole row is joined instead, cut to 100 bytes.
func RowKey(row []string) string {
	parts := make([]string, 0, rowKeyCells)
	for i := 0; i < len(row) && i < rowKeyCells; i++ {
		if v := strings.TrimSpace(row[i]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, rowKeySeparator)
	}
	return truncate(strings.Join(row, rowKeySeparator), maxFallbackKeyLen)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// All returns a copy of the row key to id mapping.
func (r *IDRegistry) All() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(r.byKey))
	for k, v := range r.byKey {
		out[k] = v
	}
	return out
}

// Len returns the number of stored mappings.
func (r *IDRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

// Stats returns the number of stored mappings and their ids, sorted.
func (r *IDRegistry) Stats() IDStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.byKey))
	for _, id := range r.byKey {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return IDStats{TotalStoredIDs: len(ids), StoredIDs: ids}
}

// Clear forgets every mapping. Ids issued before the clear are still never
// handed out again, so re-fetched rows receive new ids.
func (r *IDRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.byKey)
	r.byKey = make(map[string]string)
	slog.Info("cleared row id registry", "removed", n)
}
