package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicEntries(t *testing.T) {
	input := `# Core data and database
psycopg2-binary==2.9.9
pandas>=2.0.0
SQLAlchemy==2.0.25

# Utilities
python-dotenv>=1.0.0  # loaded at startup
cachetools~=5.3
`

	f, err := Parse(strings.NewReader(input), "requirements.txt")
	require.NoError(t, err)
	require.Empty(t, f.Diagnostics)
	require.Len(t, f.Requirements, 5)

	first := f.Requirements[0]
	assert.Equal(t, "psycopg2-binary", first.Name)
	require.Len(t, first.Specifiers, 1)
	assert.Equal(t, OpEq, first.Specifiers[0].Op)
	assert.Equal(t, "2.9.9", first.Specifiers[0].Version)
	assert.Equal(t, 2, first.Line)

	dotenv := f.Requirements[3]
	assert.Equal(t, "python-dotenv", dotenv.Name)
	assert.Equal(t, "loaded at startup", dotenv.Comment)

	cache := f.Requirements[4]
	assert.Equal(t, OpCompatible, cache.Specifiers[0].Op)
}

func TestParse_ExtrasAndMarkers(t *testing.T) {
	f, err := Parse(strings.NewReader(`uvicorn[standard]>=0.23 ; python_version >= "3.9"`), "reqs")
	require.NoError(t, err)
	require.Len(t, f.Requirements, 1)

	req := f.Requirements[0]
	assert.Equal(t, "uvicorn", req.Name)
	assert.Equal(t, []string{"standard"}, req.Extras)
	assert.Equal(t, `python_version >= "3.9"`, req.Marker)
	assert.Equal(t, ">=0.23", req.Specifiers[0].String())
}

func TestParse_MultipleSpecifiers(t *testing.T) {
	f, err := Parse(strings.NewReader("numpy>=1.24,<2.0"), "reqs")
	require.NoError(t, err)
	require.Len(t, f.Requirements, 1)
	require.Len(t, f.Requirements[0].Specifiers, 2)
	assert.Equal(t, OpGreaterEq, f.Requirements[0].Specifiers[0].Op)
	assert.Equal(t, OpLess, f.Requirements[0].Specifiers[1].Op)
}

func TestParse_NoSpecifierIsValid(t *testing.T) {
	f, err := Parse(strings.NewReader("requests"), "reqs")
	require.NoError(t, err)
	require.Len(t, f.Requirements, 1)
	assert.Empty(t, f.Requirements[0].Specifiers)
	assert.Empty(t, f.Diagnostics)
}

func TestParse_EmptyAndCommentOnlyFiles(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"comments only", "# just a header\n# nothing else\n"},
		{"whitespace line", "   \n\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(tt.input), "reqs")
			require.NoError(t, err)
			assert.Empty(t, f.Requirements)
			assert.Empty(t, f.Diagnostics)
		})
	}
}

func TestParse_MalformedLinesProduceDiagnostics(t *testing.T) {
	input := "good==1.0\n==1.0\nbad name==2.0\nflask==\n"

	f, err := Parse(strings.NewReader(input), "reqs")
	require.NoError(t, err)
	assert.Len(t, f.Requirements, 1)
	require.Len(t, f.Diagnostics, 3)
	for _, d := range f.Diagnostics {
		assert.Equal(t, RuleMalformedLine, d.RuleID)
		assert.Equal(t, SeverityError, d.Severity)
	}
	assert.Equal(t, 2, f.Diagnostics[0].Line)
	assert.Equal(t, 4, f.Diagnostics[2].Line)
}

func TestRequirement_RoundTrip(t *testing.T) {
	lines := []string{
		"pandas>=2.0.0",
		"uvicorn[standard]>=0.23",
		"numpy>=1.24,<2.0",
	}

	for _, line := range lines {
		f, err := Parse(strings.NewReader(line), "reqs")
		require.NoError(t, err)
		require.Len(t, f.Requirements, 1)
		assert.Equal(t, line, f.Requirements[0].String())
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foo_bar", "foo-bar"},
		{"foo-bar", "foo-bar"},
		{"Django", "django"},
		{"zope.interface", "zope-interface"},
		{"a__b--c", "a-b-c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "NormalizeName(%q)", tt.in)
	}
}
