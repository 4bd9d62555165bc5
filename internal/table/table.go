package table

import (
	"fmt"
	"strings"

	"github.com/classtools/asgn/internal/apperr"
)

// Table renders rows of fixed width as aligned, pipe-separated text.
// The first row is treated as the header.
type Table struct {
	width int
	rows  [][]string
}

func New(width int) *Table {
	return &Table{width: width}
}

func (t *Table) AddRow(cells ...string) error {
	if len(cells) != t.width {
		return apperr.TableError()
	}
	t.rows = append(t.rows, cells)
	return nil
}

func (t *Table) String() string {
	widths := make([]int, t.width)
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for idx, row := range t.rows {
		for i, cell := range row {
			if i == 0 {
				fmt.Fprintf(&b, " %-*s ", widths[i], cell)
			} else {
				fmt.Fprintf(&b, "| %-*s ", widths[i], cell)
			}
		}
		b.WriteString("\n")
		if idx == 0 {
			total := 1
			for _, w := range widths {
				total += w + 3
			}
			b.WriteString(strings.Repeat("-", total))
			b.WriteString("\n")
		}
	}
	return b.String()
}
