package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscope/internal/catalog"
	"github.com/gyeh/claimscope/internal/exitcode"
	"github.com/gyeh/claimscope/internal/fetch"
	"github.com/gyeh/claimscope/internal/logging"
	"github.com/gyeh/claimscope/internal/normalize"
	"github.com/gyeh/claimscope/internal/query"
)

var queryFlags struct {
	groupBy  []string
	filters  []string
	excludes []string
	search   string
	limit    int
	market   string
	tag      string
	ccns     []string
	role     string
	maxDate  string
	csvPath  string
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run one grouped aggregation query",
	RunE:  runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringArrayVar(&queryFlags.groupBy, "group-by", nil, "GROUP BY field id (repeatable, ordered)")
	f.StringArrayVar(&queryFlags.filters, "filter", nil, "Include filter field=value (repeat a field for a value set)")
	f.StringArrayVar(&queryFlags.excludes, "exclude", nil, "Exclude filter field=value (repeatable)")
	f.StringVar(&queryFlags.search, "search", "", "Free-text search across the group-by columns")
	f.IntVar(&queryFlags.limit, "limit", 0, "Row cap (default 100)")
	f.StringVar(&queryFlags.market, "market", "", "Scope to a saved market id")
	f.StringVar(&queryFlags.tag, "tag", "", "Scope to a team facility tag")
	f.StringSliceVar(&queryFlags.ccns, "ccns", nil, "Scope to an explicit CCN/NPI list")
	f.StringVar(&queryFlags.role, "role", "billing", "Identifier role: billing, performing, facility, service_location")
	f.StringVar(&queryFlags.maxDate, "max-date", "", "Override the backend's max available date (YYYY-MM-DD)")
	f.StringVar(&queryFlags.csvPath, "csv", "", "Write results to a CSV file instead of stdout")
	rootCmd.AddCommand(queryCmd)
}

// parseScope validates the mutually exclusive scope flags.
func parseScope() (query.Scope, error) {
	chosen := 0
	if queryFlags.market != "" {
		chosen++
	}
	if queryFlags.tag != "" {
		chosen++
	}
	if len(queryFlags.ccns) > 0 {
		chosen++
	}
	if chosen > 1 {
		return query.Scope{}, fmt.Errorf("--market, --tag, and --ccns are mutually exclusive")
	}
	switch {
	case queryFlags.market != "":
		return query.MarketScope(queryFlags.market), nil
	case queryFlags.tag != "":
		if cfg.TeamID == "" {
			return query.Scope{}, fmt.Errorf("--tag requires --team")
		}
		return query.TagScope(cfg.TeamID, queryFlags.tag), nil
	case len(queryFlags.ccns) > 0:
		return query.CCNScope(queryFlags.ccns), nil
	default:
		return query.NoScope(), nil
	}
}

// parseFilterArgs turns repeated field=value pairs into filter values: one
// occurrence is a scalar, repeats of the same field collect into a set.
// Values are never split on commas.
func parseFilterArgs(args []string) (map[string]query.FilterValue, error) {
	collected := map[string][]string{}
	var order []string
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("filter %q is not field=value", arg)
		}
		if _, known := catalog.FieldByID(field); !known {
			return nil, fmt.Errorf("unknown field %q", field)
		}
		if _, seen := collected[field]; !seen {
			order = append(order, field)
		}
		collected[field] = append(collected[field], normalize.FilterValue(field, value))
	}

	out := make(map[string]query.FilterValue, len(collected))
	for _, field := range order {
		vals := collected[field]
		if len(vals) == 1 {
			out[field] = query.Scalar(vals[0])
		} else {
			out[field] = query.Set(vals...)
		}
	}
	return out, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
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
	ctrl.OnUpdate(func(r fetch.Result) {
		log.Debug().Str("status", string(r.Status)).Int("rows", len(r.Rows)).Msg("result updated")
	})
	res := ctrl.Run(ctx, st)
	if res.Status == fetch.StatusError {
		log.Error().Err(res.Err).Msg("query failed")
		os.Exit(exitcode.QueryError)
	}
	if res.Message != "" {
		fmt.Println(res.Message)
	}

	if queryFlags.csvPath != "" {
		if err := writeCSVFile(queryFlags.csvPath, res.Rows); err != nil {
			log.Error().Err(err).Msg("csv export failed")
			os.Exit(exitcode.ExportError)
		}
		fmt.Printf("Wrote %d rows to %s (%.2fs)\n", len(res.Rows), queryFlags.csvPath, res.Timing.Seconds())
		return nil
	}

	printRows(st.Columns, res.Rows)
	fmt.Printf("%d rows (%.2fs)\n", len(res.Rows), res.Timing.Seconds())
	return nil
}

// buildState assembles the query state from the command flags.
func buildState(ctx context.Context, b *backend, sc query.Scope) (query.State, error) {
	var maxDate = queryFlags.maxDate
	var st query.State
	if maxDate != "" {
		t, err := catalog.ParseMaxDate(maxDate)
		if err != nil {
			return query.State{}, err
		}
		st = query.New(t)
	} else {
		t, err := b.maxDate(ctx)
		if err != nil {
			return query.State{}, fmt.Errorf("fetch max available date: %w", err)
		}
		st = query.New(t)
	}

	for _, gb := range queryFlags.groupBy {
		if _, ok := catalog.FieldByID(gb); !ok {
			return query.State{}, fmt.Errorf("unknown group-by field %q", gb)
		}
		st = st.AddColumn(gb)
	}

	includes, err := parseFilterArgs(queryFlags.filters)
	if err != nil {
		return query.State{}, err
	}
	for field, v := range includes {
		st = st.AddFilter(field, v)
	}

	excludes, err := parseFilterArgs(queryFlags.excludes)
	if err != nil {
		return query.State{}, err
	}
	for field, v := range excludes {
		// A filter holds one polarity per field, so a field passed to both
		// flags would silently drop the include side.
		if _, dup := includes[field]; dup {
			return query.State{}, fmt.Errorf("field %q appears in both --filter and --exclude", field)
		}
		st = st.AddFilter(field, v)
		st = st.ToggleFilter(field)
	}

	st = st.SetSearch(queryFlags.search)
	if queryFlags.limit > 0 {
		st = st.SetLimit(queryFlags.limit)
	} else if cfg.Limit > 0 {
		st = st.SetLimit(cfg.Limit)
	}
	st = st.SetScope(sc)
	role, err := query.ParseRole(queryFlags.role)
	if err != nil {
		return query.State{}, err
	}
	st = st.SetRole(role)
	return st, nil
}
