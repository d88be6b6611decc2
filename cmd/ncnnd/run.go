package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ncnnd/pkg/types"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		reqPath string
		model   string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one inference from a JSON request file and print the response",
		Example: `  ncnnd run --models-dir ./models --request req.json
  ncnnd run --model squeezenet --request req.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(reqPath)
			if err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			var req types.InferRequest
			if err := json.Unmarshal(b, &req); err != nil {
				return fmt.Errorf("%s: %w", reqPath, err)
			}
			if model != "" {
				req.Model = model
			}
			mgr, cleanup, err := newManager(a)
			if err != nil {
				return err
			}
			defer cleanup()
			resp, err := mgr.Infer(cmd.Context(), req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&reqPath, "request", "", "Path to a JSON InferRequest")
	cmd.Flags().StringVar(&model, "model", "", "Model id, overriding the request's")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}
