// Package engine implements the memory tiering and retrieval engine:
// upserts with access tracking, tier-aware full-text recall, the hot set
// for session bootstrap, integrity verification, and the full-table tier
// rebalance pass.
//
// Error policy is asymmetric on purpose: write paths (Remember,
// Rebalance, Link) propagate real errors because a silently dropped
// write is a correctness bug, while read paths (Get, Recall) log and
// return absent/empty so a failed recall never takes down a session.
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/engramlabs/engram/internal/config"
	"github.com/engramlabs/engram/internal/store"
)

// Engine orchestrates the memory store. It owns no background
// goroutines; periodic rebalancing is the caller's job (serve wires it
// to a cron schedule).
type Engine struct {
	db  *store.DB
	cfg config.Config
}

// New creates an Engine over an opened store. The store's lifecycle
// (open/close) stays with the caller.
func New(db *store.DB, cfg config.Config) *Engine {
	return &Engine{db: db, cfg: cfg}
}

// DB exposes the underlying store for collaborators that need direct
// access (execution log, health checks).
func (e *Engine) DB() *store.DB {
	return e.db
}

// Remember upserts a record. The value must be valid JSON; it is
// compacted to a canonical form before hashing and storage. A brand-new
// key is tiered immediately from its initial score; an existing key
// keeps its tier until the next rebalance.
func (e *Engine) Remember(key string, value json.RawMessage, typ string, metadata json.RawMessage) (*store.Record, error) {
	if key == "" {
		return nil, fmt.Errorf("remember: key required")
	}
	if typ == "" {
		typ = "general"
	}

	canonical, err := canonicalJSON(value)
	if err != nil {
		return nil, fmt.Errorf("remember %q: serialize value: %w", key, err)
	}

	var meta []byte
	if len(metadata) > 0 {
		meta, err = canonicalJSON(metadata)
		if err != nil {
			return nil, fmt.Errorf("remember %q: serialize metadata: %w", key, err)
		}
	}

	// Initial tier for a fresh record: score it as just-written with a
	// single access. Existing records ignore this (see UpsertRecord).
	now := time.Now()
	initialTier := e.tierFor(e.score(now, typ, 1, now.UnixMilli()))

	rec, err := e.db.UpsertRecord(key, canonical, typ, meta, initialTier)
	if err != nil {
		return nil, fmt.Errorf("remember %q: %w", key, err)
	}
	return rec, nil
}

// Get returns the record for key, updating its access metadata, or nil
// if absent. Storage failures are logged and reported as absent.
func (e *Engine) Get(key string) *store.Record {
	rec, err := e.db.GetRecord(key)
	if err != nil {
		log.Printf("get %q: %v", key, err)
		return nil
	}
	return rec
}

// SearchResult is one recall hit: base text relevance multiplied by a
// popularity boost.
type SearchResult struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	Type  string          `json:"type"`
	Score float64         `json:"score"`
}

// Recall runs a full-text query over hot and warm records. Results are
// re-ranked by rank * (1 + log10(accessCount+1)) so frequently used
// records float up without drowning out relevance. Failures are logged
// and reported as no matches.
func (e *Engine) Recall(query string, limit int) []SearchResult {
	if limit <= 0 {
		limit = e.cfg.Search.DefaultLimit
	}

	// Fetch extra candidates: the popularity boost can promote a hit
	// past the bm25 cutoff.
	hits, err := e.db.SearchText(query, limit*3)
	if err != nil {
		log.Printf("recall %q: %v", query, err)
		return nil
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		boost := 1 + math.Log10(float64(h.AccessCount)+1)
		results = append(results, SearchResult{
			Key:   h.Key,
			Value: h.Value,
			Type:  h.Type,
			Score: h.Rank * boost,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// HotRecord is one hot-set entry for session bootstrap.
type HotRecord struct {
	Key          string          `json:"key"`
	Value        json.RawMessage `json:"value"`
	Type         string          `json:"type"`
	RecencyScore float64         `json:"recency_score"`
}

// HotSet returns the bounded, priority-ordered subset of hot-tier
// records used to seed a new session.
func (e *Engine) HotSet(limit int) ([]HotRecord, error) {
	if limit <= 0 {
		limit = e.cfg.HotSet.DefaultLimit
	}

	recs, err := e.db.TopByTier(store.TierHot, e.cfg.Tiering.PinnedTypes, limit)
	if err != nil {
		return nil, fmt.Errorf("hot set: %w", err)
	}

	now := time.Now()
	out := make([]HotRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, HotRecord{
			Key:          r.Key,
			Value:        r.Value,
			Type:         r.Type,
			RecencyScore: e.recencyScore(now, r.AccessedAt),
		})
	}
	return out, nil
}

// Stats returns the denormalized tier counts.
func (e *Engine) Stats() (*store.Stats, error) {
	return e.db.GetStats()
}

// Rebalance rescores every record and applies the new tier assignments
// in one transaction. Returns the number of records that moved.
func (e *Engine) Rebalance() (int, error) {
	inputs, err := e.db.AllForScoring()
	if err != nil {
		return 0, fmt.Errorf("rebalance: %w", err)
	}
	if len(inputs) == 0 {
		return 0, nil
	}

	now := time.Now()
	assignments := make(map[int64]string, len(inputs))
	for _, in := range inputs {
		assignments[in.ID] = e.tierFor(e.score(now, in.Type, in.AccessCount, in.AccessedAt))
	}

	changed, err := e.db.ApplyTiers(assignments)
	if err != nil {
		return 0, fmt.Errorf("rebalance: %w", err)
	}
	if changed > 0 {
		log.Printf("rebalance: %d of %d records moved tiers", changed, len(inputs))
	}
	return changed, nil
}

// Verify recomputes the stored value's checksum and compares it against
// the stored digest. Returns store.ErrNotFound for an absent key.
func (e *Engine) Verify(key string) (bool, error) {
	return e.db.VerifyRecord(key)
}

// Link creates or updates a directed, typed edge between two records.
func (e *Engine) Link(source, target, rel string, strength float64) error {
	if rel == "" {
		return fmt.Errorf("link: relationship type required")
	}
	if strength <= 0 {
		strength = 1.0
	}
	return e.db.UpsertLink(source, target, rel, strength)
}

// Links returns the outgoing and incoming edges of a record.
func (e *Engine) Links(key string) (outgoing, incoming []store.Link, err error) {
	outgoing, err = e.db.LinksFrom(key)
	if err != nil {
		return nil, nil, err
	}
	incoming, err = e.db.LinksTo(key)
	if err != nil {
		return nil, nil, err
	}
	return outgoing, incoming, nil
}

// canonicalJSON validates and compacts a raw JSON value so equal values
// always hash to the same checksum.
func canonicalJSON(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
