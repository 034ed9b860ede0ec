// Package env models deferred environment modifications. Edits are staged
// one at a time by the capture library's exported entry points and merged
// into the live environment block in a single pass.
package env

import (
	"strings"

	"github.com/pkg/errors"
)

// Op selects how a modification combines with an existing variable.
type Op uint32

const (
	// Replace overwrites any existing value.
	Replace Op = iota
	// Append concatenates after the existing value, no separator.
	Append
	// AppendColon appends with a ':' separator when the existing value is non-empty.
	AppendColon
	// AppendSemiColon appends with a ';' separator when the existing value is non-empty.
	AppendSemiColon
	// AppendPlatform appends with the host's native list separator.
	AppendPlatform
	// Prepend concatenates before the existing value, no separator.
	Prepend
	// PrependColon prepends with a ':' separator when the existing value is non-empty.
	PrependColon
	// PrependSemiColon prepends with a ';' separator when the existing value is non-empty.
	PrependSemiColon
	// PrependPlatform prepends with the host's native list separator.
	PrependPlatform
)

// platformSeparator is the list separator convention for this host.
const platformSeparator = ";"

var opNames = map[Op]string{
	Replace:          "replace",
	Append:           "append",
	AppendColon:      "append-colon",
	AppendSemiColon:  "append-semicolon",
	AppendPlatform:   "append-platform",
	Prepend:          "prepend",
	PrependColon:     "prepend-colon",
	PrependSemiColon: "prepend-semicolon",
	PrependPlatform:  "prepend-platform",
}

// String returns the lower-kebab-case name used on helper command lines.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "unknown"
}

// ParseOp parses a lower-kebab-case op name as produced by Op.String.
func ParseOp(s string) (Op, error) {
	for op, name := range opNames {
		if name == s {
			return op, nil
		}
	}
	return 0, errors.Errorf("unknown environment modification %q", s)
}

// Modification is a single environment edit. Name is matched
// case-insensitively against the existing environment.
type Modification struct {
	Name  string
	Value string
	Op    Op
}

// modifiedValue combines an existing value with m according to m.Op. The
// separator variants degenerate to plain assignment when current is empty.
func modifiedValue(current string, m Modification) string {
	switch m.Op {
	case Replace:
		return m.Value
	case Append:
		return current + m.Value
	case AppendColon:
		if current != "" {
			return current + ":" + m.Value
		}
		return m.Value
	case AppendPlatform, AppendSemiColon:
		if current != "" {
			return current + platformSeparator + m.Value
		}
		return m.Value
	case Prepend:
		return m.Value + current
	case PrependColon:
		if current != "" {
			return m.Value + ":" + current
		}
		return m.Value
	case PrependPlatform, PrependSemiColon:
		if current != "" {
			return m.Value + platformSeparator + current
		}
		return m.Value
	}
	return current
}

// Merge applies mods to a copy of environ, in order. Lookups are
// case-insensitive; when a variable already exists its casing wins,
// otherwise the modification's casing is used for the new variable.
func Merge(environ map[string]string, mods []Modification) map[string]string {
	result := make(map[string]string, len(environ)+len(mods))
	byLower := make(map[string]string, len(environ))
	for k, v := range environ {
		result[k] = v
		byLower[strings.ToLower(k)] = k
	}

	for _, m := range mods {
		lowername := strings.ToLower(m.Name)

		name := m.Name
		current := ""
		if existing, ok := byLower[lowername]; ok {
			name = existing
			current = result[existing]
		}

		result[name] = modifiedValue(current, m)
		byLower[lowername] = name
	}

	return result
}
