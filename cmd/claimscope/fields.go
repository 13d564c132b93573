package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscope/internal/catalog"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the queryable dimension fields",
	RunE:  runFields,
}

func init() {
	fieldsCmd.Flags().Bool("pathway", false, "List the pathway catalog instead")
	rootCmd.AddCommand(fieldsCmd)
}

func runFields(cmd *cobra.Command, args []string) error {
	pathwayCat, _ := cmd.Flags().GetBool("pathway")
	fields := catalog.AllFields
	if pathwayCat {
		fields = catalog.PathwayFields
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tLABEL\tINPUT")
	for _, group := range catalog.Groups(fields) {
		fmt.Fprintf(w, "%s\t\t\n", group)
		for _, f := range fields {
			if f.Group == group {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", f.ID, f.Label, f.Kind)
			}
		}
	}
	w.Flush()

	if pathwayCat {
		fmt.Println("\nPresets:")
		for _, d := range []catalog.Direction{catalog.Upstream, catalog.Downstream} {
			for _, p := range catalog.PathwayPresets(d) {
				fmt.Printf("  %s: %s → %v\n", d, p.Name, p.GroupBy)
			}
		}
	}
	return nil
}
