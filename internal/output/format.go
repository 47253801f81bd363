package output

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects a report backend.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name (case-insensitive). "md" is accepted for
// markdown.
func ParseFormat(raw string) (Format, error) {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "text", "csv", "markdown", "json":
		return Format(v), nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (must be one of: text, csv, markdown, json)", raw)
	}
}

// FormatFromPath infers a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		return FormatText, nil
	case ".csv":
		return FormatCSV, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".json":
		return FormatJSON, nil
	case "":
		return "", fmt.Errorf("cannot infer output format from file extension (missing extension)")
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q", ext)
	}
}
