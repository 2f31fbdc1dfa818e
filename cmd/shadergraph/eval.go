package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/gogpu/shadergraph/evaluate"
	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
)

func evalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <graph> <node-id>",
		Short: "Print the numeric value of a data or expression node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.Load(args[0])
			if err != nil {
				return err
			}
			n := g.Node(args[1])
			if n == nil {
				return fmt.Errorf("unknown node %s", args[1])
			}
			v := evaluate.Node(g, n, evaluate.Options{Logger: a.logger})
			if v == nil {
				return fmt.Errorf("node %s has no value", args[1])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
			return err
		},
	}
}

func formatValue(v evaluate.Value) string {
	if f, ok := v.Scalar(); ok {
		return glsl.FormatFloat(f)
	}
	parts := strings.Join(lo.Map(v, func(f float64, _ int) string {
		return glsl.FormatFloat(f)
	}), ", ")
	if len(v) <= 4 {
		return fmt.Sprintf("vec%d(%s)", len(v), parts)
	}
	return "[" + parts + "]"
}
