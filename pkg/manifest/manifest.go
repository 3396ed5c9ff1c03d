// Package manifest parses and validates pinned-dependency manifests:
// newline-separated lists of `name<operator>version` entries with
// #-prefixed comments and blank-line separators, as consumed by package
// installers at environment-setup time.
//
// finsight projects ship such a manifest next to their seeds to declare
// the analytics environment they expect; `finsight manifest lint`
// checks it without needing the installer itself.
package manifest

import (
	"regexp"
	"strings"
)

// Operator is a version-specifier comparison operator.
type Operator string

// Specifier operators, longest first where prefixes overlap.
const (
	OpArbitraryEq Operator = "==="
	OpEq          Operator = "=="
	OpNotEq       Operator = "!="
	OpLessEq      Operator = "<="
	OpGreaterEq   Operator = ">="
	OpCompatible  Operator = "~="
	OpLess        Operator = "<"
	OpGreater     Operator = ">"
)

// operators in match order: multi-char operators must be tried before
// their single-char prefixes.
var operators = []Operator{
	OpArbitraryEq, OpEq, OpNotEq, OpLessEq, OpGreaterEq, OpCompatible, OpLess, OpGreater,
}

// Specifier constrains which releases of a package are acceptable.
type Specifier struct {
	Op      Operator
	Version string
}

func (s Specifier) String() string {
	return string(s.Op) + s.Version
}

// Requirement is one dependency record: a package name plus zero or
// more version specifiers. Markers (the part after ';') are preserved
// opaquely, not interpreted.
type Requirement struct {
	Name       string
	Extras     []string
	Specifiers []Specifier
	Marker     string
	Comment    string
	Line       int
}

// String renders the requirement back in manifest syntax.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteString("]")
	}
	for i, s := range r.Specifiers {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(s.String())
	}
	if r.Marker != "" {
		b.WriteString("; ")
		b.WriteString(r.Marker)
	}
	return b.String()
}

// File is a parsed manifest.
type File struct {
	Path         string
	Requirements []Requirement

	// Diagnostics collected during parsing (malformed lines).
	// Lint returns these together with its own findings.
	Diagnostics []Diagnostic
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidName reports whether s is a well-formed package name.
func ValidName(s string) bool {
	return nameRe.MatchString(s)
}

// NormalizeName canonicalizes a package name for comparison: lowercase,
// with runs of '-', '_' and '.' collapsed to a single '-'. This is the
// host ecosystem's normalization rule, so `Foo_bar` and `foo-bar`
// denote the same package.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSep := false
	for _, r := range strings.ToLower(s) {
		if r == '-' || r == '_' || r == '.' {
			if !prevSep {
				b.WriteByte('-')
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}
