// Package snapshot_test provides golden snapshot tests for compiled graphs.
//
// For each graph in testdata/in/, the test compiles both stages and compares
// them to golden files stored in testdata/golden/{frag,vert}/.
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/shadergraph/compiler"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/nodes"
)

// ---------------------------------------------------------------------------
// Test Runner
// ---------------------------------------------------------------------------

// TestSnapshots loads every graph, compiles it and compares both stages
// with their golden files.
func TestSnapshots(t *testing.T) {
	paths := loadInputGraphs(t, "testdata/in")
	if len(paths) == 0 {
		t.Fatal("no input graphs found in testdata/in/")
	}

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		t.Run(name, func(t *testing.T) {
			g, err := graph.Load(path)
			if err != nil {
				t.Fatalf("load %s: %v", path, err)
			}
			ec := compiler.NewContext(nodes.Engine(), compiler.Options{})
			res, err := compiler.CompileSource(context.Background(), g, ec)
			if err != nil {
				t.Fatalf("compile %s: %v", name, err)
			}

			t.Run("frag", func(t *testing.T) {
				compareGolden(t, filepath.Join("testdata", "golden", "frag", name+".glsl"), res.FragmentText)
			})
			t.Run("vert", func(t *testing.T) {
				compareGolden(t, filepath.Join("testdata", "golden", "vert", name+".glsl"), res.VertexText)
			})
		})
	}
}

// TestSnapshotsStable compiles every graph twice from the same file and
// once after an id reset. Mangled names follow node ids, so only the
// first two must match exactly; the reset copy must still compile.
func TestSnapshotsStable(t *testing.T) {
	for _, path := range loadInputGraphs(t, "testdata/in") {
		t.Run(filepath.Base(path), func(t *testing.T) {
			compile := func(g *graph.Graph) string {
				t.Helper()
				ec := compiler.NewContext(nodes.Engine(), compiler.Options{})
				res, err := compiler.CompileSource(context.Background(), g, ec)
				if err != nil {
					t.Fatalf("compile: %v", err)
				}
				return res.FragmentText + res.VertexText
			}
			g, err := graph.Load(path)
			if err != nil {
				t.Fatal(err)
			}
			first := compile(g)
			again, err := graph.Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if second := compile(again); first != second {
				t.Errorf("output not deterministic:\n%s", diffStrings(first, second))
			}
			compile(graph.ResetIDs(g))
		})
	}
}

// ---------------------------------------------------------------------------
// Graph Loading
// ---------------------------------------------------------------------------

// loadInputGraphs lists the .yaml and .json graph files in dir.
func loadInputGraphs(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	// Sort for deterministic test order
	slices.Sort(paths)
	return paths
}

// ---------------------------------------------------------------------------
// Golden File Comparison
// ---------------------------------------------------------------------------

// compareGolden compares actual output against a golden file. If
// UPDATE_GOLDEN is set, the golden file is overwritten instead.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file missing: %s\nRun with UPDATE_GOLDEN=1 to create.\n\nActual output:\n%s", path, truncate(actual, 500))
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Normalize line endings for cross-platform comparison.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")

	if expectedStr != actualStr {
		t.Errorf("output differs from golden %s:\n%s", path, diffStrings(expectedStr, actualStr))
	}
}

// diffStrings shows the first differing line with surrounding context.
func diffStrings(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")
	maxLines := max(len(expectedLines), len(actualLines))

	line := func(lines []string, i int) string {
		if i < len(lines) {
			return lines[i]
		}
		return ""
	}

	firstDiff := -1
	for i := range maxLines {
		if line(expectedLines, i) != line(actualLines, i) {
			firstDiff = i
			break
		}
	}
	if firstDiff < 0 {
		return "(no difference found)"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "first difference at line %d:\n", firstDiff+1)
	fmt.Fprintf(&sb, "  expected lines: %d\n", len(expectedLines))
	fmt.Fprintf(&sb, "  actual lines:   %d\n\n", len(actualLines))

	const contextLines = 3
	start := max(firstDiff-contextLines, 0)
	end := min(firstDiff+contextLines+1, maxLines)
	for i := start; i < end; i++ {
		e, a := line(expectedLines, i), line(actualLines, i)
		prefix := " "
		if e != a {
			prefix = "!"
		}
		fmt.Fprintf(&sb, "%s %4d expected: %s\n", prefix, i+1, truncate(e, 120))
		if e != a {
			fmt.Fprintf(&sb, "%s %4d actual:   %s\n", prefix, i+1, truncate(a, 120))
		}
	}
	return sb.String()
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
