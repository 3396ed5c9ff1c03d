package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads a manifest from r. Malformed lines are recorded as
// diagnostics on the returned File rather than aborting the parse; an
// error is returned only when the input itself cannot be read.
func Parse(r io.Reader, filename string) (*File, error) {
	f := &File{Path: filename}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		req, diag := parseLine(scanner.Text(), lineNo)
		if diag != nil {
			f.Diagnostics = append(f.Diagnostics, *diag)
			continue
		}
		if req != nil {
			f.Requirements = append(f.Requirements, *req)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	return f, nil
}

// ParseFile opens and parses a manifest file.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() { _ = fh.Close() }()
	return Parse(fh, path)
}

// parseLine parses one manifest line. It returns (nil, nil) for blank
// and comment-only lines, a requirement for valid entries, and a
// diagnostic for malformed ones.
func parseLine(line string, lineNo int) (*Requirement, *Diagnostic) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	// An inline comment starts at the first '#' preceded by whitespace.
	comment := ""
	if idx := strings.Index(trimmed, " #"); idx >= 0 {
		comment = strings.TrimSpace(strings.TrimPrefix(trimmed[idx+1:], "#"))
		trimmed = strings.TrimSpace(trimmed[:idx])
	}

	// Markers after ';' are preserved verbatim, not interpreted.
	marker := ""
	if idx := strings.Index(trimmed, ";"); idx >= 0 {
		marker = strings.TrimSpace(trimmed[idx+1:])
		trimmed = strings.TrimSpace(trimmed[:idx])
	}

	req := &Requirement{Marker: marker, Comment: comment, Line: lineNo}

	// Split the name (and optional extras) from the specifier list at
	// the first operator character.
	nameEnd := strings.IndexAny(trimmed, "=<>~!")
	spec := ""
	namePart := trimmed
	if nameEnd >= 0 {
		namePart = strings.TrimSpace(trimmed[:nameEnd])
		spec = strings.TrimSpace(trimmed[nameEnd:])
	}

	if idx := strings.Index(namePart, "["); idx >= 0 {
		if !strings.HasSuffix(namePart, "]") {
			return nil, malformed(lineNo, "unterminated extras list in %q", trimmed)
		}
		for _, e := range strings.Split(namePart[idx+1:len(namePart)-1], ",") {
			e = strings.TrimSpace(e)
			if e != "" {
				req.Extras = append(req.Extras, e)
			}
		}
		namePart = namePart[:idx]
	}

	if !ValidName(namePart) {
		return nil, malformed(lineNo, "invalid package name %q", namePart)
	}
	req.Name = namePart

	if spec != "" {
		specs, err := parseSpecifiers(spec)
		if err != nil {
			return nil, malformed(lineNo, "%v", err)
		}
		req.Specifiers = specs
	}

	return req, nil
}

// parseSpecifiers parses a comma-separated specifier list such as
// ">=1.2, <2.0".
func parseSpecifiers(s string) ([]Specifier, error) {
	var specs []Specifier
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty specifier in %q", s)
		}

		var op Operator
		for _, candidate := range operators {
			if strings.HasPrefix(part, string(candidate)) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, fmt.Errorf("missing comparison operator in %q", part)
		}

		version := strings.TrimSpace(strings.TrimPrefix(part, string(op)))
		if version == "" {
			return nil, fmt.Errorf("missing version after %q", op)
		}
		specs = append(specs, Specifier{Op: op, Version: version})
	}
	return specs, nil
}

func malformed(line int, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		RuleID:   RuleMalformedLine,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
	}
}
