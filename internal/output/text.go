package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

func columnWidths(t table) []int {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range t.rows {
		for i, c := range r {
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// writeCells writes one "| a | b |" line padded to widths.
func writeCells(bw *bufio.Writer, cells []string, widths []int) {
	bw.WriteString("|")
	for i, c := range cells {
		bw.WriteString(" ")
		bw.WriteString(runewidth.FillRight(c, widths[i]))
		bw.WriteString(" |")
	}
	bw.WriteString("\n")
}

func writeRule(bw *bufio.Writer, widths []int, corner, fill string) {
	bw.WriteString(corner)
	for _, w := range widths {
		bw.WriteString(strings.Repeat(fill, w+2))
		bw.WriteString(corner)
	}
	bw.WriteString("\n")
}

// writeText prints a box-drawn table and the processed count.
func writeText(w io.Writer, t table) error {
	widths := columnWidths(t)
	bw := bufio.NewWriter(w)

	writeRule(bw, widths, "+", "-")
	writeCells(bw, t.header, widths)
	writeRule(bw, widths, "+", "-")
	for _, r := range t.rows {
		writeCells(bw, r, widths)
	}
	writeRule(bw, widths, "+", "-")
	fmt.Fprintf(bw, "%d dependencies processed\n", len(t.rows))

	return bw.Flush()
}
