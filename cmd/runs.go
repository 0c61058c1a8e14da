package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wrangle-cli/internal/run"
)

var runsDataset string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List prepare runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		runs, err := run.ListRuns(c.OutputDir, runsDataset)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		tw := tablewriter.NewWriter(out)
		tw.SetHeader([]string{"id", "dataset", "created", "origin", "seed", "train", "validate", "test"})
		tw.SetAutoFormatHeaders(false)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, r := range runs {
			tw.Append([]string{
				r.ID, r.Dataset, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Origin,
				strconv.FormatInt(r.Settings.Seed, 10),
				partitionRows(r, "train"), partitionRows(r, "validate"), partitionRows(r, "test"),
			})
		}
		tw.Render()
		return nil
	},
}

func partitionRows(r *run.Run, name string) string {
	o, ok := r.Output(name)
	if !ok {
		return "-"
	}
	return strconv.Itoa(o.Rows)
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVarP(&runsDataset, "dataset", "d", "", "only list runs of this dataset")
}
