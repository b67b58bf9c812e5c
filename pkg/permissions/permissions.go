package permissions

import (
	"slices"
	"strings"
)

const (
	// Separator joins permissions in their serialized string form
	Separator = " "

	// Wildcard matches every permission
	Wildcard = "*"

	// Delimiter separates hierarchical permission parts (e.g. "credits.consume")
	Delimiter = "."
)

// Set is an ordered collection of permission strings granted to a session.
// It marshals as a plain JSON array, matching the server's wire format.
type Set []string

// Parse converts a space-separated permission string into a Set.
// Trims spaces and drops empty entries. Returns nil for empty input.
func Parse(s string) Set {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, Separator)
	set := make(Set, 0, len(parts))
	for i := range parts {
		if parts[i] = strings.TrimSpace(parts[i]); parts[i] != "" {
			set = append(set, parts[i])
		}
	}
	return set
}

// String serializes the set back to its space-separated form.
func (s Set) String() string {
	return strings.Join(s, Separator)
}

// Has reports whether the set grants the given permission.
//
// Matching rules per granted entry:
//   - Direct match: "read" grants "read"
//   - Global wildcard: "*" grants everything
//   - Namespace wildcard: "credits.*" grants anything under "credits."
func (s Set) Has(permission string) bool {
	for _, granted := range s {
		if Matches(permission, granted) {
			return true
		}
	}
	return false
}

// HasAll reports whether every required permission is granted.
// An empty required list is trivially satisfied.
func (s Set) HasAll(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if len(s) == 0 {
		return false
	}
	if slices.Contains(s, Wildcard) {
		return true
	}
	for _, req := range required {
		if !s.Has(req) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one required permission is granted.
// An empty required list is trivially satisfied.
func (s Set) HasAny(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if slices.Contains(s, Wildcard) {
		return true
	}
	for _, req := range required {
		if s.Has(req) {
			return true
		}
	}
	return false
}

// Matches checks a single permission against a granted pattern.
func Matches(permission, pattern string) bool {
	if permission == pattern || pattern == Wildcard {
		return true
	}

	if strings.HasSuffix(pattern, Wildcard) {
		prefix := strings.TrimSuffix(pattern, Wildcard)
		prefix = strings.TrimSuffix(prefix, Delimiter)
		return strings.HasPrefix(permission, prefix+Delimiter)
	}

	return false
}
