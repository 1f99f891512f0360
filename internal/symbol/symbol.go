// Package symbol normalizes ticker symbols supplied by users.
package symbol

import "strings"

// Normalize trims and uppercases each symbol, drops empties and removes
// duplicates, keeping the first appearance of each symbol in order.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		s := strings.ToUpper(strings.TrimSpace(raw))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
