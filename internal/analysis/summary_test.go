package analysis

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/wrangle-cli/internal/stats"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

var csvRows = []string{
	"group,concentration,temp,score,category,note,date",
	"A,0.5,70,10.0,alpha,first,2024-08-10",
	"A,0.6,71,11.0,alpha,second,2024-08-11",
	"A,0.55,69,9.5,beta,third,2024-08-12",
	"B,0.7,75,10.5,alpha,fourth,2024-08-13",
	"B,0.65,74,9.8,beta,fifth,2024-08-14",
	"B,0.68,73,10.2,alpha,sixth,2024-08-15",
	"A,0.52,68,8.8,gamma,seventh,2024-08-16",
	"B,0.75,76,9.7,beta,eighth,",
	"A,3.0,95,50.0,alpha,ninth,2024-08-18",
	"B,0.66,72,10.1,gamma,tenth,2024-08-19",
}

var scores = []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50, 10.1}

func fixture(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(strings.Join(csvRows, "\n")), table.CSVOptions{})
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return tbl
}

func TestSummarizeColumns(t *testing.T) {
	opt := DefaultOptions()
	opt.Correlations = true
	rep := Summarize("metrics", fixture(t), opt)

	if rep.Rows != 10 || rep.Width != 7 {
		t.Fatalf("shape = (%d, %d)", rep.Rows, rep.Width)
	}
	if len(rep.Samples) != 3 || rep.Samples[0][0] != "A" || rep.Samples[0][3] != "10" {
		t.Fatalf("samples = %#v", rep.Samples)
	}

	score := columnByName(t, rep, "score")
	if score.Kind != KindNumeric || score.Describe == nil {
		t.Fatalf("score = %#v", score)
	}
	if score.Describe.Count != 10 || !almostEqual(score.Describe.Mean, 13.96, 1e-9) ||
		score.Describe.Min != 8.8 || score.Describe.Max != 50 {
		t.Fatalf("describe = %+v", *score.Describe)
	}
	if score.IQROutliers != 1 {
		t.Fatalf("iqr outliers = %d, want 1", score.IQROutliers)
	}
	wantCount, wantZ := stats.RobustZ(scores, 3.5)
	if score.OutliersCount != wantCount || !almostEqual(score.OutliersMaxAbsZ, wantZ, 1e-9) || wantCount != 1 {
		t.Fatalf("mad outliers = %d (max %f), want %d (max %f)", score.OutliersCount, score.OutliersMaxAbsZ, wantCount, wantZ)
	}

	cat := columnByName(t, rep, "category")
	if cat.Kind != KindCategorical {
		t.Fatalf("category kind = %q", cat.Kind)
	}
	if len(cat.TopValues) == 0 || cat.TopValues[0].Value != "alpha" || cat.TopValues[0].Count != 5 {
		t.Fatalf("category top = %#v", cat.TopValues)
	}

	date := columnByName(t, rep, "date")
	if date.Kind != KindDatetime || date.Missing != 1 {
		t.Fatalf("date = %#v", date)
	}

	if rep.Corr == nil || strings.Join(rep.Corr.Columns, ",") != "concentration,temp,score" {
		t.Fatalf("corr = %#v", rep.Corr)
	}
	conc, _ := fixture(t).Floats("concentration")
	want, _ := stats.Pearson(conc, scores)
	if !almostEqual(rep.Corr.Values[0][2], want, 1e-9) || rep.Corr.Values[2][0] != rep.Corr.Values[0][2] {
		t.Fatalf("corr[conc][score] = %f, want %f", rep.Corr.Values[0][2], want)
	}
	if rep.Corr.Values[1][1] != 1 {
		t.Fatalf("diagonal = %f", rep.Corr.Values[1][1])
	}
	if top := rep.Corr.TopPairs(1); len(top) != 1 || math.Abs(top[0].R) < math.Abs(rep.Corr.Values[0][1]) {
		t.Fatalf("top pair = %#v", top)
	}
}

func TestSummarizeNulls(t *testing.T) {
	rep := Summarize("metrics", fixture(t), DefaultOptions())
	var date bool
	for _, n := range rep.NullsByColumn {
		if n.Column == "date" {
			date = n.Missing == 1 && n.Percent == 10
		} else if n.Missing != 0 {
			t.Fatalf("unexpected nulls: %+v", n)
		}
	}
	if !date {
		t.Fatalf("nulls by column = %+v", rep.NullsByColumn)
	}
	if len(rep.NullsByRow) != 2 || rep.NullsByRow[0].Rows != 9 || rep.NullsByRow[1].MissingCols != 1 {
		t.Fatalf("nulls by row = %+v", rep.NullsByRow)
	}
}

func TestSummarizeMixedAndEmptyColumns(t *testing.T) {
	tbl := table.MustNew("mixed", "blank")
	_ = tbl.AppendRow(table.Num(1), table.Null())
	_ = tbl.AppendRow(table.Str("n/a yet"), table.Null())
	_ = tbl.AppendRow(table.Num(3), table.Null())

	rep := Summarize("odd", tbl, Options{})
	if c := columnByName(t, rep, "blank"); c.Kind != KindEmpty || c.Missing != 3 {
		t.Fatalf("blank = %#v", c)
	}
	if c := columnByName(t, rep, "mixed"); c.Kind != KindNumeric || c.Describe.Count != 2 {
		t.Fatalf("mixed = %#v", c)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "mixed") {
		t.Fatalf("warnings = %#v", rep.Warnings)
	}
	if c := columnByName(t, rep, "mixed"); c.OutlierThreshold != 0 {
		t.Fatalf("too few values for MAD outliers, got threshold %v", c.OutlierThreshold)
	}
}

func TestMarkdownSections(t *testing.T) {
	opt := DefaultOptions()
	opt.Correlations = true
	md := Summarize("metrics", fixture(t), opt).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"Dataset: metrics",
		"Shape: (10, 7)",
		"- date: datetime (non-null 9, missing 10.0%",
		"- category: categorical",
		"alpha(5)",
		"[DESCRIBE]",
		"| score | 10 | 13.96 |",
		"[OUTLIERS]",
		"- score: 1 outside (8.675, 11.475); 1 above |z|>3.5",
		"[CORRELATIONS]",
		"[NULLS BY COLUMN]",
		"| date | 1 | 10.00 |",
		"[NULLS BY ROW]",
		"[HEAD]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownHeadTruncatesOnRunes(t *testing.T) {
	tbl := table.MustNew("note")
	_ = tbl.AppendRow(table.Str(strings.Repeat("é", 100)))
	md := Summarize("notes", tbl, DefaultOptions()).Markdown()
	if !utf8.ValidString(md) {
		t.Fatalf("markdown is not valid UTF-8")
	}
	if want := strings.Repeat("é", 77) + "..."; !strings.Contains(md, "| "+want+" |") {
		t.Fatalf("head cell not cut at 77 runes:\n%s", md)
	}
	if got := truncate("short", 80); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
}

func TestRenderConsoleTables(t *testing.T) {
	var buf bytes.Buffer
	Summarize("metrics", fixture(t), DefaultOptions()).Render(&buf)
	out := buf.String()
	for _, want := range []string{"Dataset: metrics", "Shape: (10, 7)", "non-null", "concentration", "num_rows_missing", "num_cols_missing", "iqr outliers"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}

func columnByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	c, ok := rep.Column(name)
	if !ok {
		t.Fatalf("column %q not found", name)
	}
	return c
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
