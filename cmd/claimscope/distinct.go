package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscope/internal/exitcode"
	"github.com/gyeh/claimscope/internal/fetch"
	"github.com/gyeh/claimscope/internal/investigate"
	"github.com/gyeh/claimscope/internal/logging"
	"github.com/gyeh/claimscope/internal/optioncache"
	"github.com/gyeh/claimscope/internal/query"
)

var distinctField string

var distinctCmd = &cobra.Command{
	Use:   "distinct",
	Short: "List filter options (distinct values) for an enumerated field",
	RunE:  runDistinct,
}

func init() {
	f := distinctCmd.Flags()
	f.StringVar(&distinctField, "field", "", "Field id to enumerate (required)")
	f.StringArrayVar(&queryFlags.filters, "filter", nil, "Narrowing filter field=value (repeatable)")
	f.StringVar(&queryFlags.market, "market", "", "Scope to a saved market id")
	f.StringVar(&queryFlags.tag, "tag", "", "Scope to a team facility tag")
	f.StringSliceVar(&queryFlags.ccns, "ccns", nil, "Scope to an explicit CCN/NPI list")
	f.StringVar(&queryFlags.role, "role", "billing", "Identifier role")
	f.StringVar(&queryFlags.maxDate, "max-date", "", "Override the backend's max available date (YYYY-MM-DD)")
	_ = distinctCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(distinctCmd)
}

func runDistinct(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, verbose)
	ctx := context.Background()

	if err := loadConfigFile(); err != nil {
		log.Error().Err(err).Msg("config file")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sc, err := parseScope()
	if err != nil {
		log.Error().Err(err).Msg("invalid scope")
		os.Exit(exitcode.UsageError)
	}
	needsStore := sc.Kind == query.ScopeMarket || sc.Kind == query.ScopeTag

	b, err := openBackend(ctx, log, needsStore)
	if err != nil {
		log.Error().Err(err).Msg("backend setup failed")
		os.Exit(exitcode.DBConnError)
	}
	defer b.close()

	st, err := buildState(ctx, b, sc)
	if err != nil {
		log.Error().Err(err).Msg("invalid query")
		os.Exit(exitcode.ValidationError)
	}

	ctrl := fetch.NewController(b.agg, b.resolver, log)
	cache := optioncache.New(cfg.CacheTTL)
	session := investigate.NewSession(st, ctrl, cache, b.distinct, b.resolver, b.path, log)

	opts, err := session.FilterOptions(ctx, distinctField)
	if errors.Is(err, investigate.ErrFreeTextField) {
		fmt.Printf("%s takes free text; no option list\n", distinctField)
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("distinct values failed")
		os.Exit(exitcode.QueryError)
	}

	for _, o := range opts {
		fmt.Printf("%8d  %s\n", o.Count, o.Value)
	}
	if len(opts) == 0 {
		fmt.Println("(no values)")
	}
	return nil
}
