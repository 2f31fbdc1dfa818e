// Command shadergraph compiles shader graph files to GLSL.
//
// Usage:
//
//	shadergraph <command> [flags] <graph>
//
// Examples:
//
//	shadergraph compile scene.yaml               # Print both stages
//	shadergraph compile -o build scene.yaml      # Write build/scene.frag and build/scene.vert
//	shadergraph inputs scene.yaml                # List runtime uniforms fed by data nodes
//	shadergraph eval scene.yaml add1             # Print the value of a node
//	shadergraph reset-ids -o copy.yaml scene.yaml
//	shadergraph watch -o build scene.yaml        # Recompile on every save
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/shadergraph/compiler"
	"github.com/gogpu/shadergraph/nodes"
)

const version = "0.1.0-dev"

// app holds state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg    *Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "shadergraph",
		Short:         "Compile shader graphs to GLSL",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: ./"+defaultConfigFile+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(compileCmd(a))
	root.AddCommand(inputsCmd(a))
	root.AddCommand(resetIDsCmd(a))
	root.AddCommand(evalCmd(a))
	root.AddCommand(watchCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// engine returns the engine described by the config.
func (a *app) engine() *compiler.Engine {
	e := nodes.Engine(a.cfg.Engine.Preserve...)
	if a.cfg.Engine.Name != "" {
		e.Name = a.cfg.Engine.Name
	}
	return e
}
