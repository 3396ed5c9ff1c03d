package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lintString(t *testing.T, input string) []Diagnostic {
	t.Helper()
	f, err := Parse(strings.NewReader(input), "reqs")
	require.NoError(t, err)
	return Lint(f)
}

func findRule(diags []Diagnostic, rule string) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.RuleID == rule {
			out = append(out, d)
		}
	}
	return out
}

func TestLint_CleanManifest(t *testing.T) {
	input := `# Core
psycopg2-binary==2.9.9
pandas>=2.0.0
numpy>=1.24,<2.0
`
	assert.Empty(t, lintString(t, input))
}

func TestLint_DuplicateNames(t *testing.T) {
	input := "pandas==2.0.0\nnumpy==1.26.0\nPandas>=2.1\n"

	dups := findRule(lintString(t, input), RuleDuplicateName)
	require.Len(t, dups, 1)
	assert.Equal(t, 3, dups[0].Line)
	assert.Contains(t, dups[0].Message, "line 1")
}

func TestLint_DuplicateNamesNormalized(t *testing.T) {
	// Underscore and hyphen spellings denote the same package.
	dups := findRule(lintString(t, "python_dotenv==1.0.0\npython-dotenv==1.0.1\n"), RuleDuplicateName)
	require.Len(t, dups, 1)
}

func TestLint_MalformedVersion(t *testing.T) {
	diags := findRule(lintString(t, "flask==one.two\n"), RuleMalformedVersion)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
}

func TestLint_ConflictingSpecifiers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		conflict bool
	}{
		{"pin outside range", "a==1.2,>=2.0", true},
		{"two different pins", "a==1.2,==1.3", true},
		{"inverted bounds", "a>=2.0,<1.0", true},
		{"exclusive equal bounds", "a>1.0,<1.0", true},
		{"compatible release violated", "a~=1.4,>=3.0", true},
		{"pin excluded", "a==1.2,!=1.2", true},
		{"satisfiable range", "a>=1.0,<2.0", false},
		{"pin inside range", "a==1.5,>=1.0,<2.0", false},
		{"touching inclusive bounds", "a>=1.0,<=1.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := findRule(lintString(t, tt.input), RuleConflict)
			if tt.conflict {
				assert.NotEmpty(t, conflicts, "expected a conflict for %q", tt.input)
			} else {
				assert.Empty(t, conflicts, "unexpected conflict for %q", tt.input)
			}
		})
	}
}

func TestLint_UnpinnedWarning(t *testing.T) {
	diags := findRule(lintString(t, "requests\n"), RuleUnpinned)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestLint_IncludesParseDiagnostics(t *testing.T) {
	diags := lintString(t, "==1.0\ngood==1.0\n")
	require.Len(t, findRule(diags, RuleMalformedLine), 1)
}
