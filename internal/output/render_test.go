package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdcheck/internal/data"
)

const leftpadURL = "https://clearlydefined.io/definitions/crate/cratesio/-/leftpad/1.0.0"

func evaluated(t *testing.T, name, version string, cd *data.ClearlyDefined, license, score data.Outcome) data.Dependency {
	t.Helper()
	v, err := semver.NewVersion(version)
	require.NoError(t, err)
	d := data.NewDependency(name, v, data.EcosystemCargo)
	d.ClearlyDefined = cd
	d.PassedLicense = license
	d.PassedScore = score
	return d
}

func sample(t *testing.T) []data.Dependency {
	return []data.Dependency{
		evaluated(t, "leftpad", "1.0.0", data.NewClearlyDefined("MIT", 90, 40), data.OutcomePass, data.OutcomePass),
		evaluated(t, "serde_json", "1.0.108", data.NewClearlyDefined("MIT OR", 70, 40), data.OutcomeFail, data.OutcomeFail),
		evaluated(t, "ghost", "0.1.0", nil, data.OutcomeIgnore, data.OutcomeIgnore),
	}
}

func TestScoreCellTable(t *testing.T) {
	in := scoreInput{dep: sample(t)[0], score: 90, outcome: data.OutcomePass, url: leftpadURL}

	tests := []struct {
		format Format
		link   bool
		check  bool
		want   string
	}{
		{FormatMarkdown, true, false, "[90](" + leftpadURL + ")"},
		{FormatMarkdown, true, true, "[![90](https://img.shields.io/badge/leftpad_1.0.0-90-success)](" + leftpadURL + ")"},
		{FormatMarkdown, false, true, "90 ✅"},
		{FormatMarkdown, false, false, "90"},
		{FormatText, false, true, "90 ✅"},
		{FormatText, true, true, "90 ✅ (" + leftpadURL + ")"},
		{FormatText, true, false, "90"},
		{FormatText, false, false, "90"},
		{FormatCSV, true, true, "90"},
		{FormatCSV, false, false, "90"},
	}

	for _, tt := range tests {
		got := scoreCellFor(tt.format, tt.link, tt.check)(in)
		assert.Equal(t, tt.want, got, "format=%s link=%v check=%v", tt.format, tt.link, tt.check)
	}
}

func TestBadgeURL(t *testing.T) {
	d := evaluated(t, "serde_json", "1.0.0-rc.1", nil, data.OutcomeIgnore, data.OutcomeFail)
	assert.Equal(t, "https://img.shields.io/badge/serde__json_1.0.0--rc.1-55-critical", badgeURL(d, "55", data.OutcomeFail))
	assert.Equal(t, "inactive", badgeColor(data.OutcomeIgnore))
}

func TestOutcomeCell(t *testing.T) {
	assert.Equal(t, "+", outcomeCell(FormatCSV, data.OutcomePass))
	assert.Equal(t, "-", outcomeCell(FormatCSV, data.OutcomeFail))
	assert.Equal(t, "", outcomeCell(FormatCSV, data.OutcomeIgnore))

	glyphs := map[string]bool{}
	for _, o := range []data.Outcome{data.OutcomePass, data.OutcomeFail, data.OutcomeIgnore} {
		glyphs[outcomeCell(FormatText, o)] = true
		assert.Equal(t, outcomeCell(FormatText, o), outcomeCell(FormatMarkdown, o))
	}
	assert.Len(t, glyphs, 3)
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Format: FormatCSV, ShowLicenseCheck: true, ShowScoreCheck: true, ScoreType: data.ScoreEffective}
	require.NoError(t, Render(&buf, Report{Dependencies: sample(t)}, opts))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Name", "Version", "Declared license", "License check", "Score", "Score check"}, records[0])
	for _, r := range records[1:] {
		assert.Len(t, r, len(records[0]))
	}
	assert.Equal(t, []string{"leftpad", "1.0.0", "MIT", "+", "90", "+"}, records[1])
	assert.True(t, strings.HasPrefix(records[2][2], "!"), "parse error marker, got %q", records[2][2])
	assert.Equal(t, "-", records[2][5])
	assert.Equal(t, []string{"ghost", "0.1.0", "", "", "", ""}, records[3])
}

func TestRender_CSVColumnsFollowOptions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Report{Dependencies: sample(t)}, Options{Format: FormatCSV}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Version", "Declared license", "Score"}, records[0])
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Format: FormatText, ShowLicenseCheck: true, ShowScoreCheck: true, ScoreType: data.ScoreEffective}
	require.NoError(t, Render(&buf, Report{Dependencies: sample(t)}, opts))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "3 dependencies processed", lines[len(lines)-1])
	assert.True(t, strings.HasPrefix(lines[0], "+-"))
	assert.Contains(t, out, "| leftpad ")
	assert.Contains(t, out, "90 ✅")
	assert.Contains(t, out, "70 ❌")
	assert.Contains(t, out, "❗ ")
	assert.NotContains(t, out, "Score check")

	// Box lines all have the same display width.
	width := len([]rune(lines[0]))
	assert.Equal(t, width, len([]rune(lines[2])))
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Format: FormatMarkdown, Link: true, ShowScoreCheck: true, ScoreType: data.ScoreEffective}
	require.NoError(t, Render(&buf, Report{Dependencies: sample(t)[:2]}, opts))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "| Name"))
	assert.True(t, strings.HasPrefix(lines[1], "|---"))
	assert.Contains(t, lines[2], "[![90](https://img.shields.io/badge/leftpad_1.0.0-90-success)]("+leftpadURL+")")
	assert.Contains(t, lines[3], "❗ `")
	assert.NotContains(t, buf.String(), "processed")
}

func TestRender_MissingProvenanceHasEmptyScore(t *testing.T) {
	ghost := sample(t)[2:]

	for _, opts := range []Options{
		{Format: FormatMarkdown, Link: true, ShowScoreCheck: true},
		{Format: FormatMarkdown, Link: true},
		{Format: FormatText, Link: true, ShowScoreCheck: true},
	} {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, Report{Dependencies: ghost}, opts))
		out := buf.String()
		assert.NotContains(t, out, "img.shields.io", "format %s", opts.Format)
		assert.NotContains(t, out, "clearlydefined.io", "format %s", opts.Format)
		assert.NotContains(t, out, " 0 ", "format %s", opts.Format)
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Format: FormatJSON, ScoreType: data.ScoreLicensed}
	require.NoError(t, Render(&buf, Report{RunID: "run-1", Dependencies: sample(t)}, opts))

	var got struct {
		RunID        string `json:"run_id"`
		Total        int    `json:"total"`
		Failed       int    `json:"failed"`
		Dependencies []struct {
			Name         string `json:"name"`
			Score        uint64 `json:"score"`
			Provenance   bool   `json:"provenance"`
			License      string `json:"license"`
			LicenseError string `json:"license_error"`
			Passed       bool   `json:"passed"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, uint64(40), got.Dependencies[0].Score)
	assert.Equal(t, "PASS", got.Dependencies[0].License)
	assert.NotEmpty(t, got.Dependencies[1].LicenseError)
	assert.Equal(t, "IGNORE", got.Dependencies[2].License)
	assert.True(t, got.Dependencies[0].Provenance)
	assert.False(t, got.Dependencies[2].Provenance)
}

func TestRender_LaxChangesLicenseCell(t *testing.T) {
	deps := []data.Dependency{evaluated(t, "a", "1.0.0", data.NewClearlyDefined("MIT/Apache-2.0", 90, 90), data.OutcomePass, data.OutcomePass)}

	var strict, lax bytes.Buffer
	require.NoError(t, Render(&strict, Report{Dependencies: deps}, Options{Format: FormatCSV}))
	require.NoError(t, Render(&lax, Report{Dependencies: deps}, Options{Format: FormatCSV, Lax: true}))
	assert.Contains(t, strict.String(), "!")
	assert.Contains(t, lax.String(), "MIT OR Apache-2.0")
}

func TestParseFormat(t *testing.T) {
	for _, raw := range []string{"text", "CSV", " markdown ", "md", "json"} {
		_, err := ParseFormat(raw)
		assert.NoError(t, err, raw)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.md")

	s, err := NewFileSink(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Write(Report{Dependencies: sample(t)[:1]}))
	require.NoError(t, s.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "| Name"))

	_, err = NewFileSink(filepath.Join(dir, "report.unknown"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot infer output format")

	_, err = NewFileSink("", Options{})
	assert.Error(t, err)
}

func TestConsoleSink_DefaultsToText(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, Options{})
	require.NoError(t, s.Write(Report{Dependencies: sample(t)[:1]}))
	require.NoError(t, s.Close())
	assert.Contains(t, buf.String(), "1 dependencies processed")
}
