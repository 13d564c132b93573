package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/exitcode"
	"github.com/gyeh/claimscope/internal/logging"
	"github.com/gyeh/claimscope/internal/pathway"
	"github.com/gyeh/claimscope/internal/query"
)

var pathwayFlags struct {
	direction string
	pins      []string
	filters   []string
	groupBy   []string
	preset    string
	maxDate   string
}

var pathwayCmd = &cobra.Command{
	Use:   "pathway",
	Short: "Run an upstream/downstream pathway query for a pinned row",
	Long: "Runs the patient-pathway sub-query that the investigation view spawns when a\n" +
		"result row is drilled into. --pin recreates the clicked row's column values.",
	RunE: runPathway,
}

func init() {
	f := pathwayCmd.Flags()
	f.StringVar(&pathwayFlags.direction, "direction", "", "upstream or downstream (required)")
	f.StringArrayVar(&pathwayFlags.pins, "pin", nil, "Row-context pin field=value (repeatable)")
	f.StringArrayVar(&pathwayFlags.filters, "filter", nil, "Main-query include filter field=value (repeatable)")
	f.StringArrayVar(&pathwayFlags.groupBy, "group-by", nil, "Pathway group-by field (repeatable; default per direction)")
	f.StringVar(&pathwayFlags.preset, "preset", "", "Apply a named preset view")
	f.StringVar(&pathwayFlags.maxDate, "max-date", "", "Override the backend's max available date (YYYY-MM-DD)")
	_ = pathwayCmd.MarkFlagRequired("direction")
	rootCmd.AddCommand(pathwayCmd)
}

func runPathway(cmd *cobra.Command, args []string) error {
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

	dir := catalog.Direction(pathwayFlags.direction)
	if !dir.Valid() {
		log.Error().Str("direction", pathwayFlags.direction).Msg("direction must be upstream or downstream")
		os.Exit(exitcode.UsageError)
	}

	b, err := openBackend(ctx, log, false)
	if err != nil {
		log.Error().Err(err).Msg("backend setup failed")
		os.Exit(exitcode.DBConnError)
	}
	defer b.close()

	seed, err := buildSeed(dir)
	if err != nil {
		log.Error().Err(err).Msg("invalid pathway query")
		os.Exit(exitcode.ValidationError)
	}

	session := pathway.NewSession(b.path, log)
	if err := session.Open(ctx, seed); err != nil {
		log.Error().Err(err).Msg("pathway query failed")
		os.Exit(exitcode.QueryError)
	}

	// Apply an explicit group-by or preset after seeding, then refresh.
	if len(pathwayFlags.groupBy) > 0 {
		for _, g := range session.GroupBy() {
			if err := session.ToggleField(g); err != nil {
				log.Error().Err(err).Msg("reset group-by")
				os.Exit(exitcode.ValidationError)
			}
		}
		for _, g := range pathwayFlags.groupBy {
			if err := session.ToggleField(g); err != nil {
				log.Error().Err(err).Msg("invalid group-by field")
				os.Exit(exitcode.ValidationError)
			}
		}
		if err := session.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("pathway query failed")
			os.Exit(exitcode.QueryError)
		}
	} else if pathwayFlags.preset != "" {
		if err := session.ApplyPreset(ctx, pathwayFlags.preset); err != nil {
			log.Error().Err(err).Msg("pathway preset failed")
			os.Exit(exitcode.QueryError)
		}
	}

	rows := session.Rows()
	printRows(session.GroupBy(), rows)
	fmt.Printf("%d rows (%s)\n", len(rows), strings.ToLower(string(dir)))
	session.Close()
	return nil
}

// buildSeed recreates the drill-down context from flags: pins play the
// clicked row's column values, filters play the main query's active filters.
func buildSeed(dir catalog.Direction) (pathway.Seed, error) {
	pins, err := parseFilterArgs(pathwayFlags.pins)
	if err != nil {
		return pathway.Seed{}, err
	}
	// Row pins are always one-element sets, like a real cell click.
	for field, v := range pins {
		if v.Kind == query.FilterScalar {
			pins[field] = query.Set(v.Value)
		}
	}

	main, err := parseFilterArgs(pathwayFlags.filters)
	if err != nil {
		return pathway.Seed{}, err
	}

	return pathway.Seed{
		Direction:   dir,
		RowPins:     pins,
		MainInclude: main,
		MainExclude: map[string]query.FilterValue{},
	}, nil
}
