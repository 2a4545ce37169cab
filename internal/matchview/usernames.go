package matchview

import "strings"

const (
	usernameDelimiter = ","
	// The service sends this when a side has no resolvable usernames
	missingUsernames = "N/A"
)

// ParseUsernames splits a side's delimited username string, trimming each
// name and keeping the left-to-right order. Malformed or missing input gives
// an empty list.
func ParseUsernames(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == missingUsernames {
		return []string{}
	}
	// Postgres array literals occasionally leak through as {a,b}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")

	parts := strings.Split(s, usernameDelimiter)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
