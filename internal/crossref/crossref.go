// Package crossref finds claim ids mentioned in free text.
package crossref

import "regexp"

// claimIDPattern matches claim ids such as CLM-20240101-a1b2c3.
var claimIDPattern = regexp.MustCompile(`\bCLM-[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*\b`)

// ExtractClaimIDs extracts all claim id matches from text.
// Returns a deduplicated list preserving the order of first occurrence.
func ExtractClaimIDs(text string) []string {
	matches := claimIDPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var result []string
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		result = append(result, m)
	}
	return result
}

// MatchClaimRefs extracts claim ids from text. If known is non-empty,
// only ids in that set are returned.
func MatchClaimRefs(text string, known map[string]bool) []string {
	ids := ExtractClaimIDs(text)
	if len(known) == 0 {
		return ids
	}

	var filtered []string
	for _, id := range ids {
		if known[id] {
			filtered = append(filtered, id)
		}
	}
	return filtered
}
