package tui

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// parseSearchQuery splits a query into an optional field prefix and the
// remaining text. Supported prefixes: "t:" (topic), "e:" (encoding),
// "b:" (body), "re:" (regex over topic and body).
func parseSearchQuery(query string) (field, text string) {
	for _, p := range []string{"t:", "e:", "b:", "re:"} {
		if strings.HasPrefix(query, p) {
			return strings.TrimSuffix(p, ":"), query[len(p):]
		}
	}
	return "", query
}

func compileSearchRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

// matchesSearch reports whether a message matches a parsed query. query
// must already be lowercased unless field is "re".
func matchesSearch(msg Message, field, query string, re *regexp.Regexp) bool {
	switch field {
	case "t":
		return strings.Contains(strings.ToLower(msg.Topic), query)
	case "e":
		return strings.Contains(strings.ToLower(msg.Encoding), query)
	case "b":
		return bodyContains(msg.Body, query)
	case "re":
		if re == nil {
			return false
		}
		return re.MatchString(msg.Topic) || (utf8.Valid(msg.Body) && re.Match(msg.Body))
	default:
		// Unprefixed queries match topic or body
		if strings.Contains(strings.ToLower(msg.Topic), query) {
			return true
		}
		return bodyContains(msg.Body, query)
	}
}

func bodyContains(body []byte, query string) bool {
	if !utf8.Valid(body) {
		return false
	}
	return strings.Contains(strings.ToLower(string(body)), query)
}

// computeSearchResults returns indices into msgs that match the query
// expression. Returns nil for empty expressions or invalid regex.
func computeSearchResults(msgs []Message, expr string) []int {
	if expr == "" {
		return nil
	}

	field, query := parseSearchQuery(expr)

	var re *regexp.Regexp
	if field == "re" {
		var err error
		re, err = compileSearchRegex(query)
		if err != nil {
			return nil
		}
	} else {
		query = strings.ToLower(query)
	}

	var indices []int
	for i, msg := range msgs {
		if matchesSearch(msg, field, query, re) {
			indices = append(indices, i)
		}
	}
	return indices
}

// nextVisible returns the next visible index after current in a sorted filtered list.
// Returns the last visible index if current is already past it.
func nextVisible(filtered []int, current int) int {
	idx := sort.SearchInts(filtered, current+1)
	if idx < len(filtered) {
		return filtered[idx]
	}
	if len(filtered) > 0 {
		return filtered[len(filtered)-1]
	}
	return current
}

// prevVisible returns the previous visible index before current in a sorted filtered list.
func prevVisible(filtered []int, current int) int {
	idx := sort.SearchInts(filtered, current) - 1
	if idx >= 0 {
		return filtered[idx]
	}
	if len(filtered) > 0 {
		return filtered[0]
	}
	return current
}
