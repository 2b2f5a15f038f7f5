package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	CookieFile  string   `json:"cookie_file"`
	RunLog      string   `json:"run_log"`
	DropColumns []string `json:"drop_columns"`
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		// json5 comments are allowed
		cookie_file: "cookies.json",
		run_log: "runs.db",
		drop_columns: ["Num Votes"],
	}`), 0644)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "cookies.json", config.CookieFile)
	require.Equal(t, "runs.db", config.RunLog)
	require.Equal(t, []string{"Num Votes"}, config.DropColumns)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		cookie_file: "cookies.json",
		run_log: "runs.db",
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		cookie_file: "/tmp/dev-cookies.json",
	}`), 0644)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "/tmp/dev-cookies.json", config.CookieFile)
	require.Equal(t, "runs.db", config.RunLog)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		run_log: "runs.db",
	}`), 0644)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "runs.db", config.RunLog)
}
