package request

import (
	"fmt"
	"regexp"
	"strings"
)

// CollectionFormat selects how multi-valued arguments are rendered into a
// single parameter slot.
type CollectionFormat string

// Collection format choices. Multi repeats the parameter per value
// (name=v1&name=v2); the others join the values with a separator.
const (
	CSV   CollectionFormat = "csv"
	SSV   CollectionFormat = "ssv"
	TSV   CollectionFormat = "tsv"
	Pipes CollectionFormat = "pipes"
	Multi CollectionFormat = "multi"
)

// ParseCollectionFormat maps a dialect string to its CollectionFormat.
func ParseCollectionFormat(s string) (CollectionFormat, error) {
	switch CollectionFormat(strings.ToLower(s)) {
	case CSV, SSV, TSV, Pipes, Multi:
		return CollectionFormat(strings.ToLower(s)), nil
	case "":
		return Multi, nil
	}
	return "", fmt.Errorf("unknown collection format %q", s)
}

func (f CollectionFormat) separator() string {
	switch f {
	case CSV:
		return ","
	case SSV:
		return " "
	case TSV:
		return "\t"
	case Pipes:
		return "|"
	}
	return ","
}

// Join renders expanded values per the format: Multi keeps them separate,
// the rest collapse them into one separator-joined value.
func (f CollectionFormat) Join(values []string) []string {
	if len(values) <= 1 || f == Multi {
		return values
	}
	return []string{strings.Join(values, f.separator())}
}

// Placeholder names are identifier-like so brace literals in JSON body
// templates never read as slots.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_.-]+)\}`)

// placeholderNames returns the distinct placeholder names in s, in order
// of first appearance.
func placeholderNames(s string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// hasPlaceholder reports whether s contains any {name} slot.
func hasPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}

// barePlaceholder reports whether s is exactly one {name} slot and returns
// the name. Bare slots drop entirely when their argument is nil.
func barePlaceholder(s string) (string, bool) {
	if m := placeholderPattern.FindStringSubmatch(s); m != nil && m[0] == s {
		return m[1], true
	}
	return "", false
}

// expandString substitutes every {name} in s via lookup. Missing names
// expand to the empty string.
func expandString(s string, lookup func(name string) (string, bool)) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := lookup(name); ok {
			return v
		}
		return ""
	})
}
