package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/deallocprof/deallocz/hostenv"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print host CPU topology diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			diag, err := hostenv.ReadDiagnostics(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("logical cores: %d\n", diag.LogicalCores)
			if diag.ModelName != "" {
				fmt.Printf("cpu model: %s\n", diag.ModelName)
			}
			return nil
		},
	}
}
