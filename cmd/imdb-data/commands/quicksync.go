package commands

import (
	"fmt"
	"time"

	"imdb-data/lib/cookiejar"
	"imdb-data/lib/export"
	"imdb-data/lib/quicksync"
	"imdb-data/lib/scrapers/imdb"
	"imdb-data/lib/serviceutil"

	"github.com/spf13/cobra"
)

var quicksyncSince *int

func init() {
	quicksyncSince = quicksyncCmd.Flags().IntP("since", "s", 3600, "accept exports started at most this many seconds ago")
	rootCmd.AddCommand(quicksyncCmd)
}

var quicksyncCmd = &cobra.Command{
	Use:   "quicksync <ratings-snapshot.csv>",
	Short: "Prints the watchlist removals implied by rated titles, one action per line.",
	Long: `Compares the ratings snapshot against the live watchlist membership and
prints one action per line ("remove tt0133093") for every rated title
still on the watchlist. The actions are only computed here; issuing the
corresponding watchlist mutations is left to the caller.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ratings, err := export.ReadSnapshot(args[0])
		if err != nil {
			serviceutil.Fatal("quicksync", err)
		}
		if ratings == nil {
			serviceutil.Fatal("quicksync", fmt.Errorf("ratings snapshot %s does not exist", args[0]))
		}

		startedAfter := time.Now().Add(-time.Duration(*quicksyncSince) * time.Second)

		err = withSession(func(_ *cookiejar.Jar, client *imdb.Client) error {
			watchlist, err := client.Export(cmd.Context(), imdb.TargetWatchlist, startedAfter)
			if err != nil {
				return err
			}
			ids, err := watchlist.ColumnValues("Const")
			if err != nil {
				return err
			}
			membership := make(map[string]struct{}, len(ids))
			for _, id := range ids {
				membership[id] = struct{}{}
			}

			actions, err := quicksync.Reconcile(*ratings, membership)
			if err != nil {
				return err
			}
			for _, action := range actions {
				fmt.Printf("%s %s\n", action.Op, action.TitleID)
			}
			return nil
		})
		if err != nil {
			serviceutil.Fatal("quicksync", err)
		}
	},
}
