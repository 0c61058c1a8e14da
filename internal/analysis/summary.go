package analysis

import (
	"fmt"
	"sort"

	"github.com/araddon/dateparse"

	"github.com/KaramelBytes/wrangle-cli/internal/prepare"
	"github.com/KaramelBytes/wrangle-cli/internal/stats"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// Options controls what Summarize computes.
type Options struct {
	// SampleRows is how many leading rows to include; 0 means 3.
	SampleRows int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outliers counts robust Z-score (MAD) outliers with |z| > OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
	// IQRMultiplier scales the IQR fences used for the IQR outlier counts.
	IQRMultiplier float64
	// TopValues caps the categories listed per column.
	TopValues int
}

// DefaultOptions returns the settings used by the summarize command.
func DefaultOptions() Options {
	return Options{
		SampleRows:       3,
		Outliers:         true,
		OutlierThreshold: 3.5,
		IQRMultiplier:    stats.DefaultIQRMultiplier,
		TopValues:        8,
	}
}

func (o Options) withDefaults() Options {
	if o.SampleRows <= 0 {
		o.SampleRows = 3
	}
	if o.OutlierThreshold <= 0 {
		o.OutlierThreshold = 3.5
	}
	if o.IQRMultiplier <= 0 {
		o.IQRMultiplier = stats.DefaultIQRMultiplier
	}
	if o.TopValues <= 0 {
		o.TopValues = 8
	}
	return o
}

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindBool        Kind = "bool"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindEmpty       Kind = "empty"
)

// maxCategories is the distinct-value count under which string columns are categorical.
const maxCategories = 50

// minRobustValues is the fewest values the MAD outlier count is computed for.
const minRobustValues = 8

// Report is the summary of one table.
type Report struct {
	Name          string
	Rows          int
	Width         int
	Cols          []ColumnSummary
	Samples       [][]string
	Corr          *CorrMatrix
	NullsByColumn []prepare.ColumnNulls
	NullsByRow    []prepare.RowNulls
	Warnings      []string
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    Kind
	NonNull int
	Missing int
	Unique  int
	// Numeric columns only.
	Describe    *stats.Summary
	IQR         *stats.Bounds
	IQROutliers int
	// Robust Z via MAD
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical and bool columns.
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs returns up to n off-diagonal pairs ordered by |r|.
func (m *CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return abs(pairs[i].R) > abs(pairs[j].R)
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Summarize describes t: shape, leading rows, per-column types and statistics,
// outlier counts, null distributions and optionally correlations.
func Summarize(name string, t *table.Table, opt Options) *Report {
	opt = opt.withDefaults()
	rows, width := t.Shape()
	rep := &Report{Name: name, Rows: rows, Width: width}

	head := t.Head(opt.SampleRows)
	for i := 0; i < head.Len(); i++ {
		vals := head.Row(i).Values()
		row := make([]string, len(vals))
		for j, v := range vals {
			row[j] = v.String()
		}
		rep.Samples = append(rep.Samples, row)
	}

	var numCols []string
	for _, name := range t.Columns() {
		vals, _ := t.Column(name)
		s, warn := summarizeColumn(name, vals, opt)
		if warn != "" {
			rep.Warnings = append(rep.Warnings, warn)
		}
		if s.Kind == KindNumeric {
			numCols = append(numCols, name)
		}
		rep.Cols = append(rep.Cols, s)
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(t, numCols)
	}
	rep.NullsByColumn = prepare.NullsByColumn(t)
	rep.NullsByRow = prepare.NullsByRow(t)
	return rep
}

func summarizeColumn(name string, vals []table.Value, opt Options) (ColumnSummary, string) {
	s := ColumnSummary{Name: name}
	var nums []float64
	var boolCnt, dtCnt, strCnt int
	counts := map[string]int{}
	var texts []string
	for _, v := range vals {
		if v.IsNull() {
			s.Missing++
			continue
		}
		s.NonNull++
		counts[v.String()]++
		switch v.Kind() {
		case table.KindNumber:
			x, _ := v.Float()
			nums = append(nums, x)
		case table.KindBool:
			boolCnt++
		default:
			str, _ := v.Text()
			if _, err := dateparse.ParseAny(str); err == nil {
				dtCnt++
			} else {
				strCnt++
			}
			if len(texts) < 3 {
				texts = append(texts, str)
			}
		}
	}
	s.Unique = len(counts)
	numCnt := len(nums)

	switch {
	case s.NonNull == 0:
		s.Kind = KindEmpty
	case numCnt >= boolCnt && numCnt >= dtCnt && numCnt >= strCnt:
		s.Kind = KindNumeric
		describeNumeric(&s, nums, opt)
	case boolCnt >= dtCnt && boolCnt >= strCnt:
		s.Kind = KindBool
		s.TopValues = topValues(counts, opt.TopValues)
	case dtCnt >= strCnt:
		s.Kind = KindDatetime
		s.ExampleTexts = texts
	case s.Unique <= maxCategories || s.Unique*2 <= s.NonNull:
		s.Kind = KindCategorical
		s.TopValues = topValues(counts, opt.TopValues)
	default:
		s.Kind = KindText
		s.ExampleTexts = texts
	}

	var warn string
	if numCnt > 0 && numCnt < s.NonNull {
		warn = fmt.Sprintf("column %s mixes %d numeric and %d non-numeric values", name, numCnt, s.NonNull-numCnt)
	}
	return s, warn
}

func describeNumeric(s *ColumnSummary, nums []float64, opt Options) {
	if d, err := stats.Describe(nums); err == nil {
		s.Describe = &d
	}
	if b, err := stats.IQRBounds(nums, opt.IQRMultiplier); err == nil {
		s.IQR = &b
		for _, x := range nums {
			if !b.Contains(x) {
				s.IQROutliers++
			}
		}
	}
	if opt.Outliers && len(nums) >= minRobustValues {
		s.OutliersCount, s.OutliersMaxAbsZ = stats.RobustZ(nums, opt.OutlierThreshold)
		s.OutlierThreshold = opt.OutlierThreshold
	}
}

func topValues(counts map[string]int, n int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

// correlations uses pairwise-complete rows for every pair of columns.
func correlations(t *table.Table, cols []string) *CorrMatrix {
	n := len(cols)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	series := make([][]table.Value, n)
	for i, c := range cols {
		series[i], _ = t.Column(c)
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var xs, ys []float64
			for r := range series[a] {
				x, okx := series[a][r].Float()
				y, oky := series[b][r].Float()
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			r, ok := stats.Pearson(xs, ys)
			if !ok {
				r = 0
			}
			mat[a][b], mat[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: cols, Values: mat}
}

// Column returns the summary for name, if present.
func (r *Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
