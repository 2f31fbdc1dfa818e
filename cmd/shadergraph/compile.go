package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/shadergraph/cache"
	"github.com/gogpu/shadergraph/compiler"
	"github.com/gogpu/shadergraph/graph"
)

func compileCmd(a *app) *cobra.Command {
	var outDir, cachePath string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "compile <graph>",
		Short: "Compile a graph file to fragment and vertex GLSL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = a.cfg.Output.Dir
			}
			if cachePath == "" && !noCache {
				cachePath = a.cfg.Cache.Path
			}
			res, err := a.compile(cmd.Context(), args[0], cachePath)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), args[0], outDir, res)
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default: stdout)")
	cmd.Flags().StringVar(&cachePath, "cache", "", "compile cache database")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore the configured cache")
	return cmd
}

// compile loads and compiles the graph at path, consulting the cache at
// cachePath when it is set.
func (a *app) compile(ctx context.Context, path, cachePath string) (*compiler.SourceResult, error) {
	g, err := graph.Load(path)
	if err != nil {
		return nil, err
	}
	engine := a.engine()

	var (
		db  *cache.DB
		key string
	)
	if cachePath != "" {
		if db, err = cache.Open(cachePath); err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		defer db.Close()
		if key, err = cache.Key(g, engine); err != nil {
			return nil, err
		}
		res, ok, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			a.logger.Debug("cache hit", "graph", path, "key", key)
			return res, nil
		}
	}

	ec := compiler.NewContext(engine, compiler.Options{Logger: a.logger})
	res, err := compiler.CompileSource(ctx, g, ec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if db != nil {
		if err := db.Put(key, engine.Name, res); err != nil {
			return nil, fmt.Errorf("store cache entry: %w", err)
		}
	}
	return res, nil
}

// writeResult prints both stages to w, or writes <name>.frag and
// <name>.vert into dir.
func writeResult(w io.Writer, graphPath, dir string, res *compiler.SourceResult) error {
	if dir == "" {
		_, err := fmt.Fprintf(w, "// fragment\n%s\n// vertex\n%s", res.FragmentText, res.VertexText)
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(graphPath), filepath.Ext(graphPath))
	for ext, text := range map[string]string{".frag": res.FragmentText, ".vert": res.VertexText} {
		if err := os.WriteFile(filepath.Join(dir, base+ext), []byte(text), 0o644); err != nil {
			return err
		}
	}
	return nil
}
