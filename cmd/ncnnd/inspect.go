package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ncnnd/pkg/ncnn"
)

func newInspectCmd() *cobra.Command {
	var (
		asJSON, layers bool
		required       []string
	)
	cmd := &cobra.Command{
		Use:   "inspect <file.param>",
		Short: "Summarize a text ncnn topology without loading it",
		Example: `  ncnnd inspect squeezenet.param --layers
  ncnnd inspect squeezenet.param --require-blob data --require-blob prob`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := ncnn.InspectParam(args[0])
			if err != nil {
				return err
			}
			if missing := missingBlobs(info, required); len(missing) > 0 {
				return fmt.Errorf("%s: blobs not found: %s", args[0], strings.Join(missing, ", "))
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			return printParam(cmd.OutOrStdout(), args[0], info, layers)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&layers, "layers", false, "List every layer")
	cmd.Flags().StringSliceVar(&required, "require-blob", nil, "Fail unless the topology produces this blob (repeatable)")
	return cmd
}

func missingBlobs(info *ncnn.ParamInfo, names []string) []string {
	var missing []string
	for _, name := range names {
		if !info.HasBlob(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func printParam(w io.Writer, path string, info *ncnn.ParamInfo, layers bool) error {
	fmt.Fprintf(w, "file:    %s\n", path)
	fmt.Fprintf(w, "layers:  %d\n", info.LayerCount)
	fmt.Fprintf(w, "blobs:   %d\n", info.BlobCount)
	fmt.Fprintf(w, "inputs:  %s\n", strings.Join(info.Inputs, ", "))
	fmt.Fprintf(w, "outputs: %s\n", strings.Join(info.Outputs, ", "))
	if !layers {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nTYPE\tNAME\tBOTTOMS\tTOPS")
	for _, l := range info.Layers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Type, l.Name, strings.Join(l.Bottoms, ","), strings.Join(l.Tops, ","))
	}
	return tw.Flush()
}
