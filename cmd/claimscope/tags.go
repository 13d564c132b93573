package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscope/internal/db"
	"github.com/gyeh/claimscope/internal/exitcode"
	"github.com/gyeh/claimscope/internal/logging"
	"github.com/gyeh/claimscope/internal/store"
)

var tagsShowCCNs bool

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the team's facility tags",
	RunE:  runTags,
}

func init() {
	tagsCmd.Flags().BoolVar(&tagsShowCCNs, "ccns", false, "Also list each tag's CCNs")
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
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

	s := store.New(pool)
	tags, err := s.ListTags(ctx, cfg.TeamID)
	if err != nil {
		log.Error().Err(err).Msg("list tags failed")
		os.Exit(exitcode.QueryError)
	}
	if len(tags) == 0 {
		fmt.Println("(no tags)")
		return nil
	}

	for _, tag := range tags {
		if !tagsShowCCNs {
			fmt.Println(tag)
			continue
		}
		ccns, err := s.TaggedCCNs(ctx, cfg.TeamID, tag)
		if err != nil {
			log.Error().Err(err).Msg("list tag ccns failed")
			os.Exit(exitcode.QueryError)
		}
		fmt.Printf("%s (%d)\n", tag, len(ccns))
		for _, ccn := range ccns {
			fmt.Printf("  %s\n", ccn)
		}
	}
	return nil
}
