package commands

import (
	"fmt"

	"imdb-data/lib/cookiejar"
	"imdb-data/lib/scrapers/imdb"
	"imdb-data/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(userIdCmd)
	rootCmd.AddCommand(watchlistIdCmd)
}

var userIdCmd = &cobra.Command{
	Use:   "user-id",
	Short: "Prints the user id the stored session belongs to.",
	Run: func(cmd *cobra.Command, args []string) {
		err := withSession(func(_ *cookiejar.Jar, client *imdb.Client) error {
			info, err := client.WatchlistInfo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(info.UserID)
			return nil
		})
		if err != nil {
			serviceutil.Fatal("user id", err)
		}
	},
}

var watchlistIdCmd = &cobra.Command{
	Use:   "watchlist-id",
	Short: "Prints the list id backing the user's watchlist.",
	Run: func(cmd *cobra.Command, args []string) {
		err := withSession(func(_ *cookiejar.Jar, client *imdb.Client) error {
			info, err := client.WatchlistInfo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(info.ListID)
			return nil
		})
		if err != nil {
			serviceutil.Fatal("watchlist id", err)
		}
	},
}
