package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscope/internal/config"
)

var (
	cfg     config.Config
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "claimscope",
	Short: "Ad-hoc claims aggregation query tool",
	Long: "Builds and runs grouped/filtered aggregation queries against the claims backend,\n" +
		"with saved-market and team-tag scoping read from Supabase/Postgres.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("SUPABASE_DB_URL"), "Postgres connection string (or set SUPABASE_DB_URL)")
	pf.StringVar(&cfg.BaseURL, "base-url", os.Getenv("CLAIMS_API_URL"), "Claims backend base URL (or set CLAIMS_API_URL)")
	pf.StringVar(&cfg.SamplePath, "sample", "", "Run offline against a Parquet claims fixture instead of the backend")
	pf.StringVar(&cfg.TeamID, "team", "", "Team id for market and tag lookups")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfgFile, "config", "", "Optional YAML config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func loadConfigFile() error {
	if cfgFile == "" {
		return nil
	}
	return cfg.LoadFromFile(cfgFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
