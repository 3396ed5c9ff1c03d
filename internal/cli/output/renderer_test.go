package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveModeAutoFallsBackToMarkdown(t *testing.T) {
	// A bytes.Buffer is not a terminal.
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestEffectiveModeExplicit(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeJSON)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestUnknownModeBehavesAsAuto(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, Mode("bogus"))
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestMarkdownOutput(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeMarkdown)

	r.Header(2, "Snapshot")
	r.KeyValue("Total sales", "RM 26000")
	r.Success("refresh completed")

	s := out.String()
	assert.Contains(t, s, "## Snapshot")
	assert.Contains(t, s, "**Total sales:** RM 26000")
	assert.Contains(t, s, "✅ refresh completed")
}

func TestWarningsGoToErrStream(t *testing.T) {
	var out, errW bytes.Buffer
	r := NewRenderer(&out, &errW, ModeMarkdown)

	r.Warning("snapshot is stale")
	assert.Empty(t, out.String())
	assert.Contains(t, errW.String(), "snapshot is stale")
}

func TestJSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"runs": 3}))
	assert.JSONEq(t, `{"runs": 3}`, out.String())
}

func TestMarkdownTable(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeMarkdown)

	r.Table([]string{"month", "net_cash"}, [][]string{
		{"2025-01", "2500.00"},
		{"2025-02", "-1300.00"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| month | net_cash |", lines[0])
	assert.Equal(t, "| --- | --- |", lines[1])
	assert.Contains(t, lines[3], "-1300.00")
}

func TestTextTable(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeText)

	r.Table([]string{"month"}, [][]string{{"2025-01"}})
	assert.Contains(t, out.String(), "2025-01")
}

func TestFormatHeaderClampsLevel(t *testing.T) {
	assert.Equal(t, "# x", FormatHeader(0, "x"))
	assert.Equal(t, "###### x", FormatHeader(9, "x"))
}
