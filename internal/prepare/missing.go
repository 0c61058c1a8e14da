package prepare

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// ErrInvalidProportion is returned for a required-proportion outside [0, 1].
var ErrInvalidProportion = errors.New("proportion must be within [0, 1]")

// MissingOptions holds the minimum share of present values a column or row needs to be kept.
type MissingOptions struct {
	PropRequiredColumn float64
	PropRequiredRow    float64
}

// DefaultMissingOptions returns the thresholds used by the zillow pipeline.
func DefaultMissingOptions() MissingOptions {
	return MissingOptions{PropRequiredColumn: 0.5, PropRequiredRow: 0.75}
}

// HandleMissingValues drops sparse columns, then sparse rows.
//
// A column is kept when its non-null count is at least
// round(PropRequiredColumn * rows). The row threshold is computed afterwards
// from the columns that survived: round(PropRequiredRow * remaining columns).
// Rounding is half-to-even.
func HandleMissingValues(t *table.Table, opt MissingOptions) (*table.Table, error) {
	if err := checkProportion("column", opt.PropRequiredColumn); err != nil {
		return nil, err
	}
	if err := checkProportion("row", opt.PropRequiredRow); err != nil {
		return nil, err
	}

	colThreshold := int(math.RoundToEven(opt.PropRequiredColumn * float64(t.Len())))
	var keep []string
	for _, c := range t.Columns() {
		n, err := t.NonNullCount(c)
		if err != nil {
			return nil, err
		}
		if n >= colThreshold {
			keep = append(keep, c)
		}
	}
	pruned, err := t.Select(keep...)
	if err != nil {
		return nil, err
	}

	rowThreshold := int(math.RoundToEven(opt.PropRequiredRow * float64(pruned.Width())))
	return pruned.Filter(func(r table.Row) bool {
		return r.NonNull() >= rowThreshold
	}), nil
}

func checkProportion(what string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%s proportion %v: %w", what, p, ErrInvalidProportion)
	}
	return nil
}

// ColumnNulls reports missing cells per column.
type ColumnNulls struct {
	Column  string
	Missing int
	Percent float64
}

// NullsByColumn counts missing cells per column, in column order.
func NullsByColumn(t *table.Table) []ColumnNulls {
	out := make([]ColumnNulls, 0, t.Width())
	rows := t.Len()
	for _, c := range t.Columns() {
		n, _ := t.NonNullCount(c)
		miss := rows - n
		pct := 0.0
		if rows > 0 {
			pct = float64(miss) / float64(rows) * 100
		}
		out = append(out, ColumnNulls{Column: c, Missing: miss, Percent: pct})
	}
	return out
}

// RowNulls groups rows that are missing the same number of cells.
type RowNulls struct {
	MissingCols int
	Percent     float64
	Rows        int
}

// NullsByRow buckets rows by how many columns they are missing, ascending.
func NullsByRow(t *table.Table) []RowNulls {
	width := t.Width()
	counts := map[int]int{}
	for i := 0; i < t.Len(); i++ {
		counts[width-t.Row(i).NonNull()]++
	}
	out := make([]RowNulls, 0, len(counts))
	for miss, n := range counts {
		pct := 0.0
		if width > 0 {
			pct = float64(miss) / float64(width) * 100
		}
		out = append(out, RowNulls{MissingCols: miss, Percent: pct, Rows: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MissingCols < out[j].MissingCols })
	return out
}
