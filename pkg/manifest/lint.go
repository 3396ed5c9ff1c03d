package manifest

import (
	"fmt"
	"sort"
)

// Severity indicates the importance of a diagnostic.
type Severity int

// Severity levels for diagnostics.
const (
	// SeverityError indicates the manifest would be rejected by an installer.
	SeverityError Severity = iota
	// SeverityWarning indicates a suspect entry that would still install.
	SeverityWarning
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Lint rule identifiers.
const (
	RuleMalformedLine    = "MF001"
	RuleDuplicateName    = "MF002"
	RuleMalformedVersion = "MF003"
	RuleConflict         = "MF004"
	RuleUnpinned         = "MF005"
)

// Diagnostic represents a lint finding against a manifest line.
type Diagnostic struct {
	RuleID   string
	Severity Severity
	Message  string
	Line     int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: %s [%s] %s", d.Line, d.Severity, d.RuleID, d.Message)
}

// Lint validates a parsed manifest. It returns the parse diagnostics
// collected by Parse followed by semantic findings: duplicate package
// names (after normalization), malformed version strings, specifier
// sets no version can satisfy, and entries with no constraint at all.
func Lint(f *File) []Diagnostic {
	diags := make([]Diagnostic, len(f.Diagnostics))
	copy(diags, f.Diagnostics)

	seen := make(map[string]int) // normalized name -> first line
	for _, req := range f.Requirements {
		norm := NormalizeName(req.Name)
		if first, dup := seen[norm]; dup {
			diags = append(diags, Diagnostic{
				RuleID:   RuleDuplicateName,
				Severity: SeverityError,
				Message:  fmt.Sprintf("duplicate package %q (first declared on line %d)", req.Name, first),
				Line:     req.Line,
			})
		} else {
			seen[norm] = req.Line
		}

		diags = append(diags, lintSpecifiers(req)...)
	}

	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Line < diags[j].Line })
	return diags
}

func lintSpecifiers(req Requirement) []Diagnostic {
	var diags []Diagnostic

	if len(req.Specifiers) == 0 {
		diags = append(diags, Diagnostic{
			RuleID:   RuleUnpinned,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("package %q has no version constraint", req.Name),
			Line:     req.Line,
		})
		return diags
	}

	versions := make([]Version, len(req.Specifiers))
	ok := true
	for i, s := range req.Specifiers {
		v, err := ParseVersion(s.Version)
		if err != nil {
			diags = append(diags, Diagnostic{
				RuleID:   RuleMalformedVersion,
				Severity: SeverityError,
				Message:  fmt.Sprintf("package %q: %v", req.Name, err),
				Line:     req.Line,
			})
			ok = false
			continue
		}
		versions[i] = v
	}
	if !ok {
		return diags
	}

	if msg := findConflict(req.Specifiers, versions); msg != "" {
		diags = append(diags, Diagnostic{
			RuleID:   RuleConflict,
			Severity: SeverityError,
			Message:  fmt.Sprintf("package %q: %s", req.Name, msg),
			Line:     req.Line,
		})
	}

	return diags
}

// findConflict looks for specifier pairs no version can satisfy.
// It checks exact pins against every other specifier and lower bounds
// against upper bounds; compatible-release specifiers contribute both
// an inclusive lower and an exclusive upper bound.
func findConflict(specs []Specifier, versions []Version) string {
	// Exact pins must satisfy all other specifiers.
	for i, s := range specs {
		if s.Op != OpEq && s.Op != OpArbitraryEq {
			continue
		}
		for j, other := range specs {
			if i == j {
				continue
			}
			if !versions[i].Satisfies(other) {
				return fmt.Sprintf("specifier %s conflicts with %s", s, other)
			}
		}
	}

	// Lower bounds must not exceed upper bounds.
	type bound struct {
		spec      Specifier
		version   Version
		inclusive bool
	}
	var lowers, uppers []bound
	for i, s := range specs {
		switch s.Op {
		case OpGreaterEq:
			lowers = append(lowers, bound{s, versions[i], true})
		case OpGreater:
			lowers = append(lowers, bound{s, versions[i], false})
		case OpLessEq:
			uppers = append(uppers, bound{s, versions[i], true})
		case OpLess:
			uppers = append(uppers, bound{s, versions[i], false})
		case OpCompatible:
			lowers = append(lowers, bound{s, versions[i], true})
			uppers = append(uppers, bound{s, versions[i].NextCompatible(), false})
		}
	}
	for _, lo := range lowers {
		for _, hi := range uppers {
			c := lo.version.Compare(hi.version)
			if c > 0 || (c == 0 && !(lo.inclusive && hi.inclusive)) {
				return fmt.Sprintf("specifier %s conflicts with %s", lo.spec, hi.spec)
			}
		}
	}

	return ""
}
