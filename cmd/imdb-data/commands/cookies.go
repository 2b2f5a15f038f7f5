package commands

import (
	"errors"
	"fmt"
	"os"

	"imdb-data/lib/cookiejar"
	"imdb-data/lib/serviceutil"

	"github.com/spf13/cobra"
)

var importCookieHeader *string

func init() {
	importCookieHeader = importCookiesCmd.Flags().String(
		"cookie", "",
		"imdb.com Cookie header as copied from a browser (env IMDB_COOKIE)",
	)
	rootCmd.AddCommand(importCookiesCmd)
	rootCmd.AddCommand(dumpCookiesCmd)
}

var importCookiesCmd = &cobra.Command{
	Use:   "import-cookies --cookie <header>",
	Short: "Parses a raw browser Cookie header into the cookie jar file.",
	Run: func(cmd *cobra.Command, args []string) {
		raw := *importCookieHeader
		if raw == "" {
			raw = os.Getenv("IMDB_COOKIE")
		}
		if raw == "" {
			serviceutil.Fatal("import cookies", fmt.Errorf("a cookie header is required (--cookie or IMDB_COOKIE)"))
		}

		path, err := jarPath()
		if err != nil {
			serviceutil.Fatal("import cookies", err)
		}

		// keep any previously stored cookies the header doesn't mention
		jar, err := cookiejar.Load(path)
		if errors.Is(err, cookiejar.ErrNoJar) {
			jar = cookiejar.New()
		} else if err != nil {
			serviceutil.Fatal("import cookies", err)
		}

		err = jar.ImportHeader(raw)
		if err != nil {
			serviceutil.Fatal("import cookies", err)
		}
		err = jar.Save(path)
		if err != nil {
			serviceutil.Fatal("import cookies", err)
		}
	},
}

var dumpCookiesCmd = &cobra.Command{
	Use:   "dump-cookies",
	Short: "Prints the stored session as a Cookie header.",
	Run: func(cmd *cobra.Command, args []string) {
		jar, _, err := openJar()
		if err != nil {
			serviceutil.Fatal("dump cookies", err)
		}
		fmt.Println(jar.Header())
	},
}
