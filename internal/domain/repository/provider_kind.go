package repository

import "strings"

// ProviderKind names an indicator source in the provider chain.
type ProviderKind string

const (
	ProviderStatic ProviderKind = "static"
	ProviderHTTP   ProviderKind = "http"
	ProviderStore  ProviderKind = "store"
)

// IsValid returns true if k is a supported provider.
func (k ProviderKind) IsValid() bool {
	switch k {
	case ProviderStatic, ProviderHTTP, ProviderStore:
		return true
	default:
		return false
	}
}

// DefaultProviderChain is used when no chain is configured.
func DefaultProviderChain() []ProviderKind { return []ProviderKind{ProviderStatic} }

// NormalizeProviderChain lowercases names, drops unknown and repeated entries, and falls back to the default.
func NormalizeProviderChain(raw []string) []ProviderKind {
	seen := make(map[ProviderKind]bool, len(raw))
	out := make([]ProviderKind, 0, len(raw))
	for _, s := range raw {
		k := ProviderKind(strings.ToLower(strings.TrimSpace(s)))
		if !k.IsValid() || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	if len(out) == 0 {
		return DefaultProviderChain()
	}
	return out
}
