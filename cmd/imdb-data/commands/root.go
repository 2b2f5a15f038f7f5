package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"imdb-data/lib/configutil"
	"imdb-data/lib/cookiejar"
	"imdb-data/lib/scrapers/imdb"
	"imdb-data/lib/serviceutil"
	"imdb-data/lib/telemetry"

	"github.com/spf13/cobra"
)

// Config carries repo-level defaults; flags and environment variables
// override it.
type Config struct {
	CookieFile  string   `json:"cookie_file"`
	RunLog      string   `json:"run_log"`
	DropColumns []string `json:"drop_columns"`
}

var (
	cookieFile string
	verbose    bool

	config      Config
	shutdownTel func()
)

var rootCmd = &cobra.Command{
	Use:   "imdb-data",
	Short: "imdb-data scrapes an imdb.com account's watchlist and ratings into versioned CSV snapshots.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose || os.Getenv("ACTIONS_RUNNER_DEBUG") == "true" {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}

		cfg, err := configutil.ReadRecursively[Config]("config.json5")
		if err == nil {
			config = cfg
		} else if !os.IsNotExist(err) {
			serviceutil.Fatal("failed to read config", err)
		}

		tel, err := telemetry.SetupFromEnv(cmd.Context(), "imdb-data")
		if err == nil {
			shutdownTel = func() { tel.Shutdown(context.Background()) }
			telemetry.InstrumentPerfStats(cmd.Context())
		} else if !os.IsNotExist(err) {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdownTel != nil {
			shutdownTel()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&cookieFile, "cookie-file", "c", "",
		"imdb.com cookie jar file (env IMDB_COOKIE_FILE)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false,
		"enable verbose logging (env ACTIONS_RUNNER_DEBUG)",
	)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func jarPath() (string, error) {
	if cookieFile != "" {
		return cookieFile, nil
	}
	if env := os.Getenv("IMDB_COOKIE_FILE"); env != "" {
		return env, nil
	}
	if config.CookieFile != "" {
		return config.CookieFile, nil
	}
	return "", fmt.Errorf("a cookie jar file is required (--cookie-file or IMDB_COOKIE_FILE)")
}

// openJar loads the persisted session. When the jar file does not exist
// yet, a raw IMDB_COOKIE header from the environment seeds a fresh one.
func openJar() (*cookiejar.Jar, string, error) {
	path, err := jarPath()
	if err != nil {
		return nil, "", err
	}

	jar, err := cookiejar.Load(path)
	if err == nil {
		return jar, path, nil
	}
	raw := os.Getenv("IMDB_COOKIE")
	if errors.Is(err, cookiejar.ErrNoJar) && raw != "" {
		jar = cookiejar.New()
		importErr := jar.ImportHeader(raw)
		if importErr != nil {
			return nil, "", importErr
		}
		return jar, path, nil
	}
	return nil, "", err
}

// withSession runs fn with an authenticated client, then persists the
// jar if the server rotated any cookie during the run.
func withSession(fn func(jar *cookiejar.Jar, client *imdb.Client) error) error {
	jar, path, err := openJar()
	if err != nil {
		return err
	}

	client, err := imdb.NewClient(imdb.ClientOptions{Jar: jar})
	if err != nil {
		return err
	}

	runErr := fn(jar, client)

	if jar.Changed() {
		slog.Debug("cookies changed, saving jar", "path", path)
		err := jar.Save(path)
		if err != nil {
			slog.Warn("failed to save cookie jar", "path", path, "err", err)
		}
	}
	return runErr
}
