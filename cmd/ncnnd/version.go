package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ncnnd/pkg/ncnn"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ncnnd and libncnn versions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ncnnd %s (ncnn %s)\n", version, ncnn.Version())
		},
	}
}
