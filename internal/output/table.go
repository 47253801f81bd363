package output

import (
	"cdcheck/internal/clearlydefined"
	"cdcheck/internal/data"
)

// Options controls columns and cell decoration.
type Options struct {
	Format Format
	// Link adds the provenance page URL (or a badge) to the score cell.
	Link bool
	// ShowLicenseCheck adds the license-check column.
	ShowLicenseCheck bool
	// ShowScoreCheck decorates the score and, for CSV, adds the score-check column.
	ShowScoreCheck bool
	ScoreType      data.ScoreType
	// Lax parses declared licenses in lax mode.
	Lax bool
}

// Report is one rendered collection.
type Report struct {
	RunID        string
	Dependencies []data.Dependency
}

// row is the format-independent view of one dependency.
type row struct {
	dep        data.Dependency
	license    string
	licenseErr error
	score      uint64
	url        string
}

func buildRows(deps []data.Dependency, opts Options) []row {
	rows := make([]row, 0, len(deps))
	for _, d := range deps {
		r := row{
			dep:   d,
			score: d.Score(opts.ScoreType),
			url:   clearlydefined.DefinitionURL(d.Coordinates()),
		}
		if l, ok := d.DeclaredLicense(); ok {
			if expr, err := l.Expression(opts.Lax); err != nil {
				r.licenseErr = err
			} else {
				r.license = expr.String()
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// table is a header plus string cells, shared by the CSV, text and
// markdown backends.
type table struct {
	header []string
	rows   [][]string
}

func buildTable(deps []data.Dependency, opts Options) table {
	f := opts.Format
	scoreCheckColumn := f == FormatCSV && opts.ShowScoreCheck
	score := scoreCellFor(f, opts.Link, opts.ShowScoreCheck)

	t := table{header: []string{"Name", "Version", "Declared license"}}
	if opts.ShowLicenseCheck {
		t.header = append(t.header, "License check")
	}
	t.header = append(t.header, "Score")
	if scoreCheckColumn {
		t.header = append(t.header, "Score check")
	}

	for _, r := range buildRows(deps, opts) {
		license := r.license
		if r.licenseErr != nil {
			license = licenseErrorCell(f, r.licenseErr)
		} else if f == FormatMarkdown {
			license = escapeMarkdown(license)
		}

		cells := []string{r.dep.Name, r.dep.VersionString(), license}
		if opts.ShowLicenseCheck {
			cells = append(cells, outcomeCell(f, r.dep.PassedLicense))
		}
		// No provenance record: the score is unknown, not zero.
		scoreText := ""
		if r.dep.ClearlyDefined != nil {
			scoreText = score(scoreInput{dep: r.dep, score: r.score, outcome: r.dep.PassedScore, url: r.url})
		}
		cells = append(cells, scoreText)
		if scoreCheckColumn {
			cells = append(cells, outcomeCell(f, r.dep.PassedScore))
		}
		t.rows = append(t.rows, cells)
	}
	return t
}
