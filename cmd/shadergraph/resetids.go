package main

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/shadergraph/graph"
)

func resetIDsCmd(_ *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "reset-ids <graph>",
		Short: "Give every node and edge a fresh id",
		Long: `reset-ids copies a graph with new node and edge ids, remapping
edge endpoints and next-stage links. The copy replaces the input
file unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.Load(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0]
			}
			return graph.Save(output, graph.ResetIDs(g))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}
