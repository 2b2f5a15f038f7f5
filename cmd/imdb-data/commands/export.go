package commands

import (
	"os"
	"time"

	"imdb-data/lib/cookiejar"
	"imdb-data/lib/export"
	"imdb-data/lib/scrapers/imdb"
	"imdb-data/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	downloadOutput *string
	downloadSince  *int
)

func init() {
	downloadOutput = downloadExportCmd.Flags().StringP("output", "o", "-", "CSV output file, - for stdout")
	downloadSince = downloadExportCmd.Flags().IntP("since", "s", 3600, "accept exports started at most this many seconds ago")
	rootCmd.AddCommand(downloadExportCmd)
}

var downloadExportCmd = &cobra.Command{
	Use:   "download-export <watchlist|ratings|ls...>",
	Short: "Downloads the raw CSV export for a target, queuing one if needed.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target, err := imdb.ParseTarget(args[0])
		if err != nil {
			serviceutil.Fatal("download export", err)
		}
		startedAfter := time.Now().Add(-time.Duration(*downloadSince) * time.Second)

		err = withSession(func(_ *cookiejar.Jar, client *imdb.Client) error {
			e, err := client.Export(cmd.Context(), target, startedAfter)
			if err != nil {
				return err
			}

			if *downloadOutput == "-" {
				contents, err := export.Marshal(e)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(contents)
				return err
			}
			return export.WriteSnapshot(*downloadOutput, e)
		})
		if err != nil {
			serviceutil.Fatal("download export", err)
		}
	},
}
