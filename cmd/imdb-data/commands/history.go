package commands

import (
	"fmt"
	"os"
	"time"

	"imdb-data/lib/runlog"
	"imdb-data/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyLimit  *int
	historyRunLog *string
)

func init() {
	historyLimit = historyCmd.Flags().IntP("limit", "n", 20, "number of runs to show")
	historyRunLog = historyCmd.Flags().String("run-log", "", "sqlite run log database (defaults to config run_log)")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [-n limit]",
	Short: "Shows recent sync runs from the run log.",
	Run: func(cmd *cobra.Command, args []string) {
		path := *historyRunLog
		if path == "" {
			path = config.RunLog
		}
		if path == "" {
			serviceutil.Fatal("history", fmt.Errorf("a run log database is required (--run-log or config run_log)"))
		}

		store, err := runlog.Open(path)
		if err != nil {
			serviceutil.Fatal("history", err)
		}
		defer store.Close()

		runs, err := store.Recent(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"time", "target", "outdated", "rows", "sha256"})
		for _, run := range runs {
			digest := run.SHA256
			if len(digest) > 12 {
				digest = digest[:12]
			}
			t.AppendRow(table.Row{
				run.Time.Format(time.DateTime),
				run.Target,
				run.Outdated,
				run.RowCount,
				digest,
			})
		}
		t.Render()
	},
}
