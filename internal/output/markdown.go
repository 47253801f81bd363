package output

import (
	"bufio"
	"io"
)

// writeMarkdown prints a pipe table. There is no trailing summary.
func writeMarkdown(w io.Writer, t table) error {
	widths := columnWidths(t)
	bw := bufio.NewWriter(w)

	writeCells(bw, t.header, widths)
	writeRule(bw, widths, "|", "-")
	for _, r := range t.rows {
		writeCells(bw, r, widths)
	}
	return bw.Flush()
}
