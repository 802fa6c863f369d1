package common

import "strings"

// ContainsAny returns true if s contains any of the substrings, ignoring case.
func ContainsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// CleanList trims every item of a list setting and drops the empty ones,
// so "a, b," and "a,b" mean the same.
func CleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
