package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscope/internal/db"
	"github.com/gyeh/claimscope/internal/exitcode"
	"github.com/gyeh/claimscope/internal/logging"
	"github.com/gyeh/claimscope/internal/store"
)

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List the team's saved markets",
	RunE:  runMarkets,
}

func init() {
	rootCmd.AddCommand(marketsCmd)
}

func runMarkets(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, verbose)
	ctx := context.Background()

	if err := loadConfigFile(); err != nil {
		log.Error().Err(err).Msg("config file")
		os.Exit(exitcode.UsageError)
	}
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or SUPABASE_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}
	if cfg.TeamID == "" {
		log.Error().Msg("--team is required")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	markets, err := store.New(pool).ListMarkets(ctx, cfg.TeamID)
	if err != nil {
		log.Error().Err(err).Msg("list markets failed")
		os.Exit(exitcode.QueryError)
	}
	if len(markets) == 0 {
		fmt.Println("(no saved markets)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MARKET\tNAME\tLAT\tLNG\tRADIUS_MI")
	for _, m := range markets {
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.0f\n", m.ID, m.Name, m.Lat, m.Lng, m.RadiusMiles)
	}
	return w.Flush()
}
