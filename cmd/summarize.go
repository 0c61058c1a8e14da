package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wrangle-cli/internal/acquire"
	"github.com/KaramelBytes/wrangle-cli/internal/analysis"
	"github.com/KaramelBytes/wrangle-cli/internal/parser"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/utils"
)

var (
	sumOutputPath string
	sumMarkdown   bool
	sumDelimiter  string
	sumSampleRows int
	sumMaxRows    int
	sumCorr       bool
	sumOutliers   bool
	sumOutlierThr float64
	sumIQRK       float64
	sumSheetName  string
	sumSheetIndex int
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <dataset|file>",
	Short: "Describe a dataset or a CSV/TSV/XLSX file",
	Long: `Print the head, shape, column info, describe table, outlier counts and
null distributions of a dataset (loaded like acquire) or of a data file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysis.DefaultOptions()
		if sumSampleRows > 0 {
			opt.SampleRows = sumSampleRows
		}
		opt.Correlations = sumCorr
		opt.Outliers = sumOutliers
		if sumOutlierThr > 0 {
			opt.OutlierThreshold = sumOutlierThr
		}
		if sumIQRK > 0 {
			opt.IQRMultiplier = sumIQRK
		}

		name, t, err := summarizeSource(cmd, args[0])
		if err != nil {
			return err
		}
		rep := analysis.Summarize(name, t, opt)

		out := cmd.OutOrStdout()
		if sumOutputPath != "" {
			if err := utils.SafeWriteFile(sumOutputPath, []byte(rep.Markdown())); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote summary to %s\n", sumOutputPath)
			return nil
		}
		if sumMarkdown {
			fmt.Fprintln(out, rep.Markdown())
			return nil
		}
		rep.Render(out)
		return nil
	},
}

// summarizeSource treats arg as a file when it exists, otherwise as a dataset name.
func summarizeSource(cmd *cobra.Command, arg string) (string, *table.Table, error) {
	isFile, err := utils.FileExists(arg)
	if err != nil {
		return "", nil, err
	}
	if isFile {
		delim, err := parseDelimiter(sumDelimiter)
		if err != nil {
			return "", nil, err
		}
		t, err := parser.ParseFile(arg, parser.Options{
			Delimiter:  delim,
			MaxRows:    sumMaxRows,
			Sheet:      sumSheetName,
			SheetIndex: sumSheetIndex,
		})
		if err != nil {
			return "", nil, err
		}
		return filepath.Base(arg), t, nil
	}
	ds, err := acquire.Lookup(arg)
	if err != nil {
		if parser.Supported(arg) {
			return "", nil, fmt.Errorf("file not found: %s", arg)
		}
		return "", nil, err
	}
	c, err := loadedConfig()
	if err != nil {
		return "", nil, err
	}
	t, origin, err := loadDataset(cmd, newLoader(c), ds, false)
	if err != nil {
		return "", nil, err
	}
	logger().WithField("origin", origin).Debugf("summarizing %s", ds.Name)
	return ds.Name, t, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "write the summary as Markdown to this path")
	summarizeCmd.Flags().BoolVar(&sumMarkdown, "markdown", false, "print Markdown instead of console tables")
	summarizeCmd.Flags().StringVar(&sumDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	summarizeCmd.Flags().IntVar(&sumSampleRows, "sample-rows", 3, "number of leading rows to show")
	summarizeCmd.Flags().IntVar(&sumMaxRows, "max-rows", 0, "maximum rows to read from a file (0 = unlimited)")
	summarizeCmd.Flags().BoolVar(&sumCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	summarizeCmd.Flags().BoolVar(&sumOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	summarizeCmd.Flags().Float64Var(&sumOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	summarizeCmd.Flags().Float64Var(&sumIQRK, "iqr-k", 1.5, "IQR multiplier for the fence counts")
	summarizeCmd.Flags().StringVar(&sumSheetName, "sheet-name", "", "XLSX: sheet name to read")
	summarizeCmd.Flags().IntVar(&sumSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}
