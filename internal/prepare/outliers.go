package prepare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/KaramelBytes/wrangle-cli/internal/stats"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// ErrEmptyTable is returned by the outlier filters when given a table with no rows.
var ErrEmptyTable = errors.New("table has no rows")

// OutlierMode selects how a column list is applied.
type OutlierMode int

const (
	// ModeCumulative applies every listed column in order, each pass computing
	// its quartiles on the rows kept by the previous pass.
	ModeCumulative OutlierMode = iota
	// ModeFirstColumn applies only the first listed column. It reproduces the
	// historical zillow caches, which were built by a filter that stopped after
	// one column.
	ModeFirstColumn
)

func (m OutlierMode) String() string {
	switch m {
	case ModeCumulative:
		return "cumulative"
	case ModeFirstColumn:
		return "first-column"
	default:
		return fmt.Sprintf("OutlierMode(%d)", int(m))
	}
}

// ParseOutlierMode accepts "cumulative" or "first-column".
func ParseOutlierMode(s string) (OutlierMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cumulative":
		return ModeCumulative, nil
	case "first-column", "first", "legacy":
		return ModeFirstColumn, nil
	default:
		return 0, fmt.Errorf("unknown outlier mode %q (use cumulative|first-column)", s)
	}
}

// ZillowOutlierColumns is the default column list the zillow pipeline filters on.
var ZillowOutlierColumns = []string{
	"bathrooms", "bedrooms", "calculatedbathnbr",
	"calculatedfinishedsquarefeet", "finishedsquarefeet12", "fips",
	"fullbathcnt", "lotsize",
	"regionidcity", "regionidcounty", "regionidzip", "roomcnt", "yearbuilt",
	"structuretaxvaluedollarcnt", "tax_value",
	"landtaxvaluedollarcnt", "taxamount", "censustractandblock", "logerror",
}

// OutlierOptions configures RemoveOutliers.
type OutlierOptions struct {
	Columns []string
	// Multiplier scales the IQR for the fences; 0 means stats.DefaultIQRMultiplier.
	Multiplier float64
	Mode       OutlierMode
}

// DetectOptions configures DetectOutliers.
type DetectOptions struct {
	// Exclude lists numeric columns that must not be filtered, e.g. an id column.
	Exclude    []string
	Multiplier float64
}

// ColumnBounds records one applied filter pass.
type ColumnBounds struct {
	Column  string
	Bounds  stats.Bounds
	RowsIn  int
	Removed int
}

// RemoveOutliers drops rows whose value in a listed column is not strictly
// inside q1-k*iqr .. q3+k*iqr. Nulls never pass. Row order is preserved.
func RemoveOutliers(t *table.Table, opt OutlierOptions) (*table.Table, []ColumnBounds, error) {
	cols := opt.Columns
	if opt.Mode == ModeFirstColumn && len(cols) > 1 {
		cols = cols[:1]
	}
	return filterColumns(t, cols, opt.Multiplier)
}

// DetectOutliers applies the cumulative filter to every numeric column.
func DetectOutliers(t *table.Table, opt DetectOptions) (*table.Table, []ColumnBounds, error) {
	for _, name := range opt.Exclude {
		if _, err := t.ColumnIndex(name); err != nil {
			return nil, nil, err
		}
	}
	cols := lo.Without(t.NumericColumns(), opt.Exclude...)
	return filterColumns(t, cols, opt.Multiplier)
}

func filterColumns(t *table.Table, cols []string, k float64) (*table.Table, []ColumnBounds, error) {
	if t.Len() == 0 {
		return nil, nil, ErrEmptyTable
	}
	if k <= 0 {
		k = stats.DefaultIQRMultiplier
	}
	// Resolve every name up front so a typo fails before any work is done.
	for _, c := range cols {
		if _, err := t.ColumnIndex(c); err != nil {
			return nil, nil, err
		}
	}
	out := t
	applied := make([]ColumnBounds, 0, len(cols))
	for _, col := range cols {
		if out.Len() == 0 {
			break
		}
		vals, err := out.Floats(col)
		if err != nil {
			return nil, nil, err
		}
		b, err := stats.IQRBounds(vals, k)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", col, err)
		}
		before := out.Len()
		out = out.Filter(func(r table.Row) bool {
			x, ok := r.Get(col).Float()
			return ok && b.Contains(x)
		})
		applied = append(applied, ColumnBounds{Column: col, Bounds: b, RowsIn: before, Removed: before - out.Len()})
	}
	if out == t {
		out = t.Clone()
	}
	return out, applied, nil
}
