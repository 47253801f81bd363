package output

import (
	"fmt"
	"io"
)

// Render writes rep to w in opts.Format.
func Render(w io.Writer, rep Report, opts Options) error {
	if w == nil {
		return fmt.Errorf("render: nil writer")
	}
	switch opts.Format {
	case FormatCSV:
		return writeCSV(w, buildTable(rep.Dependencies, opts))
	case FormatMarkdown:
		return writeMarkdown(w, buildTable(rep.Dependencies, opts))
	case FormatJSON:
		return writeJSON(w, rep, opts)
	case FormatText, "":
		opts.Format = FormatText
		return writeText(w, buildTable(rep.Dependencies, opts))
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}
