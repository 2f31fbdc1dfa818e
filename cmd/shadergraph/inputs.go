package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func inputsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inputs <graph>",
		Short: "List runtime inputs fed by data nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.compile(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.DataInputsByNode)
			}
			ids := lo.Keys(res.DataInputsByNode)
			slices.Sort(ids)
			for _, id := range ids {
				for _, in := range res.DataInputsByNode[id] {
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", id, in.ID, in.Kind, in.DataType)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
