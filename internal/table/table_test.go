package table

import (
	"strings"
	"testing"
)

func TestRejectsMismatchedWidth(t *testing.T) {
	tbl := New(3)
	if err := tbl.AddRow("a", "b"); err == nil {
		t.Fatalf("expected error for a short row")
	}
	if err := tbl.AddRow("a", "b", "c", "d"); err == nil {
		t.Fatalf("expected error for a long row")
	}
	if err := tbl.AddRow("a", "b", "c"); err != nil {
		t.Fatalf("exact width must be accepted: %v", err)
	}
}

func TestRendersAlignedColumns(t *testing.T) {
	tbl := New(2)
	mustAdd := func(cells ...string) {
		t.Helper()
		if err := tbl.AddRow(cells...); err != nil {
			t.Fatalf("add row: %v", err)
		}
	}
	mustAdd("NAME", "STATUS")
	mustAdd("hw1", "Submitted")
	mustAdd("project", "Missing")

	lines := strings.Split(strings.TrimRight(tbl.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule, and two rows, got %d lines:\n%s", len(lines), tbl.String())
	}
	if !strings.HasPrefix(lines[1], "---") {
		t.Fatalf("second line must be the header rule, got %q", lines[1])
	}

	sep := strings.Index(lines[0], "|")
	for _, line := range []string{lines[2], lines[3]} {
		if strings.Index(line, "|") != sep {
			t.Fatalf("column separators misaligned:\n%s", tbl.String())
		}
	}
	if !strings.Contains(lines[3], "project") || !strings.Contains(lines[3], "Missing") {
		t.Fatalf("row contents missing:\n%s", tbl.String())
	}
}

func TestEmptyTableRendersNothing(t *testing.T) {
	if out := New(4).String(); out != "" {
		t.Fatalf("empty table must render empty, got %q", out)
	}
}
