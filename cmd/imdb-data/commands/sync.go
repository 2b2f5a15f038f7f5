package commands

import (
	"fmt"
	"log/slog"
	"time"

	"imdb-data/lib/cookiejar"
	"imdb-data/lib/export"
	"imdb-data/lib/runlog"
	"imdb-data/lib/scrapers/imdb"
	"imdb-data/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	syncOutput *string
	syncDrop   *[]string
	syncSince  *int
	syncRunLog *string
)

func init() {
	syncOutput = syncCmd.Flags().StringP("output", "o", "", "snapshot CSV file (required)")
	syncDrop = syncCmd.Flags().StringSlice("drop", nil, "column names to drop from the export")
	syncSince = syncCmd.Flags().IntP("since", "s", 3600, "accept exports started at most this many seconds ago")
	syncRunLog = syncCmd.Flags().String("run-log", "", "sqlite run log database (defaults to config run_log)")
	syncCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync <watchlist|ratings|ls...> -o <snapshot.csv>",
	Short: "Fetches the target's export and rewrites the snapshot only when it actually changed.",
	Long: `Fetches the target's current export, drops the configured columns and
compares the result row-for-row against the snapshot file. The snapshot
is only rewritten when the content genuinely differs, so every commit to
the data branch corresponds to a real change. Prints outdated=true or
outdated=false for pipeline consumption.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target, err := imdb.ParseTarget(args[0])
		if err != nil {
			serviceutil.Fatal("sync", err)
		}

		drop := *syncDrop
		if len(drop) == 0 {
			drop = config.DropColumns
		}

		store, err := openRunLog()
		if err != nil {
			serviceutil.Fatal("sync", err)
		}
		if store != nil {
			defer store.Close()
		}

		startedAfter := time.Now().Add(-time.Duration(*syncSince) * time.Second)
		// without an explicit cutoff, anything exported since the last
		// recorded run is still fresh enough
		if store != nil && !cmd.Flags().Changed("since") {
			last, ok, err := store.Last(cmd.Context(), string(target))
			if err != nil {
				serviceutil.Fatal("sync", err)
			}
			if ok && last.Time.After(startedAfter) {
				startedAfter = last.Time
				slog.Debug("using the last recorded run as export cutoff", "target", target, "time", last.Time)
			}
		}

		outdated := false
		err = withSession(func(_ *cookiejar.Jar, client *imdb.Client) error {
			fetched, err := client.Export(cmd.Context(), target, startedAfter)
			if err != nil {
				return err
			}

			candidate, err := fetched.Project(drop)
			if err != nil {
				return err
			}

			previous, err := export.ReadSnapshot(*syncOutput)
			if err != nil {
				return err
			}

			outdated = export.Outdated(previous, candidate)
			if outdated {
				err = export.WriteSnapshot(*syncOutput, candidate)
				if err != nil {
					return err
				}
				slog.Info("snapshot updated", "target", target, "path", *syncOutput, "rows", len(candidate.Rows))
			} else {
				slog.Info("snapshot is up-to-date", "target", target, "path", *syncOutput)
			}

			return recordRun(cmd, store, target, candidate, outdated)
		})
		if err != nil {
			serviceutil.Fatal("sync", err)
		}

		fmt.Printf("outdated=%t\n", outdated)
	},
}

// openRunLog opens the configured run log database, or returns nil when
// no run log is configured.
func openRunLog() (*runlog.Store, error) {
	path := *syncRunLog
	if path == "" {
		path = config.RunLog
	}
	if path == "" {
		return nil, nil
	}
	store, err := runlog.Open(path)
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func recordRun(cmd *cobra.Command, store *runlog.Store, target imdb.Target, candidate export.Export, outdated bool) error {
	if store == nil {
		return nil
	}

	digest, err := export.Digest(candidate)
	if err != nil {
		return err
	}

	return store.Record(cmd.Context(), runlog.Run{
		Target:   string(target),
		Time:     time.Now(),
		Outdated: outdated,
		RowCount: len(candidate.Rows),
		SHA256:   digest,
	})
}
