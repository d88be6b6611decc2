package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ncnnd/internal/usage"
	"ncnnd/pkg/types"
)

func newUsageCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Print persisted per-model load and inference counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.UsageDB == "" {
				return errors.New("no usage database configured (set --usage-db or usage_db)")
			}
			store, err := usage.Open(a.cfg.UsageDB)
			if err != nil {
				return err
			}
			defer store.Close()
			recs, err := store.Usage(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if recs == nil {
					recs = []types.ModelUsage{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			return printUsage(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func printUsage(w io.Writer, recs []types.ModelUsage) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tLOADS\tINFERENCES\tINFER_MS\tLAST_USED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", r.ModelID, r.Loads, r.Inferences, r.TotalInferMS, unixString(r.LastUsed))
	}
	return tw.Flush()
}

func unixString(sec int64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
