package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wrangle-cli/internal/acquire"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

var acqRefresh bool

var acquireCmd = &cobra.Command{
	Use:   "acquire <dataset>",
	Short: "Load a dataset from its CSV cache or the database",
	Long: fmt.Sprintf(`Load a dataset, reading the CSV cache when present and otherwise querying the
database and writing the cache. Known datasets: %s.`, strings.Join(acquire.Names(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		ds, err := acquire.Lookup(args[0])
		if err != nil {
			return err
		}
		l := newLoader(c)
		t, origin, err := loadDataset(cmd, l, ds, acqRefresh)
		if err != nil {
			return err
		}
		rows, cols := t.Shape()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Loaded %s from %s: %d rows × %d columns\n", ds.Name, origin, rows, cols)
		fmt.Fprintf(out, "  cache: %s\n", l.CachePath(ds))
		return nil
	},
}

// loadDataset reads ds through the loader; refresh bypasses the cache.
func loadDataset(cmd *cobra.Command, l *acquire.Loader, ds acquire.Dataset, refresh bool) (*table.Table, acquire.Origin, error) {
	if refresh {
		t, err := l.Refresh(cmd.Context(), ds)
		return t, acquire.OriginDatabase, err
	}
	return l.Load(cmd.Context(), ds)
}

func init() {
	rootCmd.AddCommand(acquireCmd)
	acquireCmd.Flags().BoolVar(&acqRefresh, "refresh", false, "ignore the cache and query the database")
}
