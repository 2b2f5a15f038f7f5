package commands

import (
	"fmt"
	"os"

	"imdb-data/lib/cookiejar"
	"imdb-data/lib/export"
	"imdb-data/lib/scrapers/imdb"
	"imdb-data/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkWatchlistCmd)
	rootCmd.AddCommand(checkRatingsCmd)
}

// the cheap freshness pre-checks: both avoid queuing a full export by
// scraping signals off the regular pages and comparing against the
// on-disk snapshot.

var checkWatchlistCmd = &cobra.Command{
	Use:   "check-watchlist <snapshot.csv>",
	Short: "Checks whether the watchlist changed since the snapshot file was written.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stat, err := os.Stat(args[0])
		if err != nil {
			serviceutil.Fatal("check watchlist", err)
		}

		outdated := false
		err = withSession(func(_ *cookiejar.Jar, client *imdb.Client) error {
			info, err := client.WatchlistInfo(cmd.Context())
			if err != nil {
				return err
			}
			outdated = !stat.ModTime().After(info.LastModified)
			return nil
		})
		if err != nil {
			serviceutil.Fatal("check watchlist", err)
		}

		fmt.Printf("outdated=%t\n", outdated)
	},
}

var checkRatingsCmd = &cobra.Command{
	Use:   "check-ratings <snapshot.csv>",
	Short: "Checks whether any recently rated title is missing from the ratings snapshot.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		snapshot, err := export.ReadSnapshot(args[0])
		if err != nil {
			serviceutil.Fatal("check ratings", err)
		}
		if snapshot == nil {
			fmt.Println("outdated=true")
			return
		}

		ids, err := snapshot.ColumnValues("Const")
		if err != nil {
			serviceutil.Fatal("check ratings", err)
		}
		known := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			known[id] = struct{}{}
		}

		outdated := false
		err = withSession(func(_ *cookiejar.Jar, client *imdb.Client) error {
			recent, err := client.RecentlyRatedIDs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range recent {
				if _, ok := known[id]; !ok {
					outdated = true
					return nil
				}
			}
			return nil
		})
		if err != nil {
			serviceutil.Fatal("check ratings", err)
		}

		fmt.Printf("outdated=%t\n", outdated)
	},
}
