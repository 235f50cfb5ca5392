package util

import "strings"

// SplitCodes splits a comma separated list and normalizes it with NormalizeCodes.
func SplitCodes(s string) []string {
	return NormalizeCodes(strings.Split(s, ","))
}

// NormalizeCodes upper-cases and trims codes, dropping blanks and duplicates.
// First occurrence order is kept.
func NormalizeCodes(codes []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		code := strings.ToUpper(strings.TrimSpace(c))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
