package prepare

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

func TestHandleMissingValuesSequencing(t *testing.T) {
	tbl := table.MustNew("A", "B")
	for i := 0; i < 10; i++ {
		a, b := table.Null(), table.Num(float64(i))
		if i == 0 {
			a = table.Num(1)
		}
		if i == 9 {
			b = table.Null()
		}
		_ = tbl.AppendRow(a, b)
	}

	out, err := HandleMissingValues(tbl, DefaultMissingOptions())
	if err != nil {
		t.Fatalf("HandleMissingValues: %v", err)
	}
	if strings.Join(out.Columns(), ",") != "B" {
		t.Fatalf("columns = %v, want [B]", out.Columns())
	}
	// row threshold is round(0.75 * 1) = 1 against the single remaining column
	if out.Len() != 9 {
		t.Fatalf("rows = %d, want 9", out.Len())
	}
	if tbl.Width() != 2 || tbl.Len() != 10 {
		t.Fatalf("input mutated")
	}
}

func TestHandleMissingValuesRowThresholdUsesRemainingColumns(t *testing.T) {
	// four columns, one of which is pruned; rows then need round(0.75*3)=2 values
	tbl := table.MustNew("a", "b", "c", "sparse")
	n := table.Null()
	v := table.Num(1)
	_ = tbl.AppendRow(v, v, v, n)
	_ = tbl.AppendRow(v, v, n, n)
	_ = tbl.AppendRow(v, n, n, n)
	_ = tbl.AppendRow(v, v, v, v)

	out, err := HandleMissingValues(tbl, DefaultMissingOptions())
	if err != nil {
		t.Fatalf("HandleMissingValues: %v", err)
	}
	if out.HasColumn("sparse") {
		t.Fatalf("sparse column should be dropped (1 < round(0.5*4)=2)")
	}
	if out.Len() != 3 {
		t.Fatalf("rows = %d, want 3", out.Len())
	}
}

func TestHandleMissingValuesRoundsHalfToEven(t *testing.T) {
	// round(0.5 * 5) = 2 under half-to-even, so a column with 2 values survives
	tbl := table.MustNew("x", "y")
	for i := 0; i < 5; i++ {
		y := table.Null()
		if i < 2 {
			y = table.Num(1)
		}
		_ = tbl.AppendRow(table.Num(float64(i)), y)
	}
	out, err := HandleMissingValues(tbl, MissingOptions{PropRequiredColumn: 0.5, PropRequiredRow: 0})
	if err != nil {
		t.Fatalf("HandleMissingValues: %v", err)
	}
	if !out.HasColumn("y") {
		t.Fatalf("y dropped; threshold should be 2")
	}
	if out.Len() != 5 {
		t.Fatalf("rows = %d, want 5", out.Len())
	}
}

func TestHandleMissingValuesRejectsBadProportions(t *testing.T) {
	tbl := table.MustNew("x")
	for _, opt := range []MissingOptions{
		{PropRequiredColumn: 1.5, PropRequiredRow: 0.5},
		{PropRequiredColumn: 0.5, PropRequiredRow: -0.1},
	} {
		if _, err := HandleMissingValues(tbl, opt); !errors.Is(err, ErrInvalidProportion) {
			t.Fatalf("opt %+v: err = %v", opt, err)
		}
	}
}

func TestNullsByColumnAndRow(t *testing.T) {
	tbl := table.MustNew("a", "b")
	_ = tbl.AppendRow(table.Num(1), table.Null())
	_ = tbl.AppendRow(table.Null(), table.Null())
	_ = tbl.AppendRow(table.Num(2), table.Num(3))
	_ = tbl.AppendRow(table.Num(4), table.Null())

	cols := NullsByColumn(tbl)
	if len(cols) != 2 || cols[0].Missing != 1 || cols[1].Missing != 3 || cols[1].Percent != 75 {
		t.Fatalf("by column = %+v", cols)
	}

	rows := NullsByRow(tbl)
	want := []RowNulls{{0, 0, 1}, {1, 50, 2}, {2, 100, 1}}
	if len(rows) != len(want) {
		t.Fatalf("by row = %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("by row[%d] = %+v, want %+v", i, rows[i], want[i])
		}
	}
}
