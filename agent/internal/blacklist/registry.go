// Package blacklist holds the mutable set of banned token, developer and
// wallet identifiers consulted during risk scoring.
package blacklist

import (
	"strings"
	"sync"

	"dex-guard/agent/internal/chains"
)

// Kind says what a blacklist pattern applies to.
type Kind string

const (
	KindCoin      Kind = "coin"
	KindDeveloper Kind = "developer"
	KindWallet    Kind = "wallet"
)

// Entry is one blacklist rule. Pattern is either an exact string or a single
// leading-or-trailing wildcard glob ("RUG*", "*PUMP"). Chain is optional; empty
// means the entry applies on every chain.
type Entry struct {
	Kind    Kind
	Pattern string
	Chain   chains.Chain
}

// Registry is the process-scoped blacklist. Writes are serialized; readers get
// a copy of the entry table so an in-progress scoring pass never observes a
// torn registry.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a pattern. Duplicate (kind, pattern, chain) entries collapse to
// one.
func (r *Registry) Add(kind Kind, pattern string, chain chains.Chain) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Kind == kind && strings.EqualFold(e.Pattern, pattern) && e.Chain == chain {
			return
		}
	}
	r.entries = append(r.entries, Entry{Kind: kind, Pattern: pattern, Chain: chain})
}

// Remove drops every entry whose pattern matches, regardless of kind or chain
// scope.
func (r *Registry) Remove(pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if !strings.EqualFold(e.Pattern, pattern) {
			kept = append(kept, e)
		}
	}
	r.entries = kept
}

// Snapshot returns a copy of the current entry table.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Matches reports whether candidate is blacklisted for the given kind and
// chain. Matching is case-insensitive; a pattern may carry one wildcard at
// either end.
func (r *Registry) Matches(candidate string, kind Kind, chain chains.Chain) bool {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	if candidate == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Kind != kind {
			continue
		}
		if e.Chain != "" && e.Chain != chain {
			continue
		}
		if patternMatches(strings.ToLower(e.Pattern), candidate) {
			return true
		}
	}
	return false
}

func patternMatches(pattern, candidate string) bool {
	switch {
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(candidate, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(candidate, strings.TrimPrefix(pattern, "*"))
	default:
		return pattern == candidate
	}
}
