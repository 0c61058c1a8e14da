package analysis

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Shape: (%d, %d)\n\n", r.Rows, r.Width))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonNull, missPct, c.Unique))
		switch c.Kind {
		case KindCategorical, KindBool:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
		case KindText, KindDatetime:
			if len(c.ExampleTexts) > 0 {
				b.WriteString("; e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if rows := r.describeRows(); len(rows) > 0 {
		b.WriteString("\n[DESCRIBE]\n")
		writeMarkdownTable(&b, describeHeader, rows)
	}

	var outliers []string
	for _, c := range r.Cols {
		if c.IQR == nil {
			continue
		}
		line := fmt.Sprintf("- %s: %d outside %s", c.Name, c.IQROutliers, fenceText(c))
		if c.OutlierThreshold > 0 {
			line += fmt.Sprintf("; %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
			if c.OutliersMaxAbsZ > 0 {
				line += fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ)
			}
		}
		outliers = append(outliers, line)
	}
	if len(outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		b.WriteString(strings.Join(outliers, "\n"))
		b.WriteString("\n")
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if len(r.NullsByColumn) > 0 {
		b.WriteString("\n[NULLS BY COLUMN]\n")
		writeMarkdownTable(&b, []string{"column", "num_rows_missing", "pct_rows_missing"}, r.nullColumnRows())
	}
	if len(r.NullsByRow) > 0 {
		b.WriteString("\n[NULLS BY ROW]\n")
		writeMarkdownTable(&b, []string{"num_cols_missing", "pct_cols_missing", "num_rows"}, r.nullRowRows())
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD]\n")
		header := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			header[i] = safeName(c.Name)
		}
		rows := make([][]string, len(r.Samples))
		for i, row := range r.Samples {
			rows[i] = make([]string, len(row))
			for j, val := range row {
				rows[i][j] = safeVal(truncate(val, 80))
			}
		}
		writeMarkdownTable(&b, header, rows)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Render prints the report as console tables, in the order a describe
// session would show them: head, shape, info, describe, nulls.
func (r *Report) Render(w io.Writer) {
	sep := strings.Repeat("-", 15)
	if r.Name != "" {
		fmt.Fprintf(w, "Dataset: %s\n", r.Name)
	}
	if len(r.Samples) > 0 {
		fmt.Fprintln(w, "Head:")
		header := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			header[i] = c.Name
		}
		renderTable(w, header, r.Samples)
	}
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "Shape: (%d, %d)\n", r.Rows, r.Width)
	fmt.Fprintln(w, sep)

	fmt.Fprintln(w, "Info:")
	info := make([][]string, len(r.Cols))
	for i, c := range r.Cols {
		info[i] = []string{c.Name, string(c.Kind), strconv.Itoa(c.NonNull), strconv.Itoa(c.Missing), strconv.Itoa(c.Unique)}
	}
	renderTable(w, []string{"column", "kind", "non-null", "missing", "unique"}, info)

	if rows := r.describeRows(); len(rows) > 0 {
		fmt.Fprintln(w, sep)
		renderTable(w, describeHeader, rows)

		var out [][]string
		for _, c := range r.Cols {
			if c.IQR == nil {
				continue
			}
			z := "-"
			if c.OutlierThreshold > 0 {
				z = strconv.Itoa(c.OutliersCount)
			}
			out = append(out, []string{c.Name, fmtFloat(c.IQR.Lower), fmtFloat(c.IQR.Upper), strconv.Itoa(c.IQROutliers), z})
		}
		fmt.Fprintln(w, sep)
		renderTable(w, []string{"column", "lower", "upper", "iqr outliers", "mad outliers"}, out)
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		fmt.Fprintln(w, sep)
		var rows [][]string
		for _, p := range r.Corr.TopPairs(10) {
			rows = append(rows, []string{p.A, p.B, fmt.Sprintf("%.3f", p.R)})
		}
		renderTable(w, []string{"a", "b", "r"}, rows)
	}

	fmt.Fprintln(w, sep)
	renderTable(w, []string{"column", "num_rows_missing", "pct_rows_missing"}, r.nullColumnRows())
	fmt.Fprintln(w, sep)
	renderTable(w, []string{"num_cols_missing", "pct_cols_missing", "num_rows"}, r.nullRowRows())

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", warn)
	}
}

var describeHeader = []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}

func (r *Report) describeRows() [][]string {
	var rows [][]string
	for _, c := range r.Cols {
		d := c.Describe
		if d == nil {
			continue
		}
		rows = append(rows, []string{
			c.Name, strconv.Itoa(d.Count), fmtFloat(d.Mean), fmtFloat(d.Std),
			fmtFloat(d.Min), fmtFloat(d.Q1), fmtFloat(d.Median), fmtFloat(d.Q3), fmtFloat(d.Max),
		})
	}
	return rows
}

func (r *Report) nullColumnRows() [][]string {
	rows := make([][]string, len(r.NullsByColumn))
	for i, n := range r.NullsByColumn {
		rows[i] = []string{n.Column, strconv.Itoa(n.Missing), fmt.Sprintf("%.2f", n.Percent)}
	}
	return rows
}

func (r *Report) nullRowRows() [][]string {
	rows := make([][]string, len(r.NullsByRow))
	for i, n := range r.NullsByRow {
		rows[i] = []string{strconv.Itoa(n.MissingCols), fmt.Sprintf("%.2f", n.Percent), strconv.Itoa(n.Rows)}
	}
	return rows
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.AppendBulk(rows)
	tw.Render()
}

func writeMarkdownTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}

func fenceText(c ColumnSummary) string {
	return fmt.Sprintf("(%s, %s)", fmtFloat(c.IQR.Lower), fmtFloat(c.IQR.Upper))
}

func fmtFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
