package strategy

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
)

var textureFunctions = []string{"texture", "texture2D", "textureCube"}

type textureCall struct {
	call glsl.Handle
	key  string
	args []glsl.Handle
}

// Texture exposes every texture sampling call. Calls sampling the same
// first argument are numbered name_0, name_1, ... in document order; a
// sampler used once gives an unsuffixed name. Filling replaces the whole
// call. The arguments after the sampler become backfill arguments.
func Texture(prog *glsl.Program) []Found {
	var calls []textureCall
	prog.WalkItems(func(h glsl.Handle, n glsl.Node) bool {
		call, ok := n.(*glsl.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		fn, ok := prog.Node(call.Func).(*glsl.Ident)
		if !ok || !slices.Contains(textureFunctions, fn.Name) {
			return true
		}
		calls = append(calls, textureCall{
			call: h,
			key:  glsl.GenerateNode(prog, call.Args[0]),
			args: slices.Clone(call.Args[1:]),
		})
		return true
	})

	counts := lo.CountValuesBy(calls, func(c textureCall) string { return c.key })
	seen := make(map[string]int)
	found := make([]Found, 0, len(calls))
	for _, c := range calls {
		name := c.key
		if counts[c.key] > 1 {
			name = fmt.Sprintf("%s_%d", c.key, seen[c.key])
			seen[c.key]++
		}
		found = append(found, Found{
			Input: graph.NodeInput{
				ID:          SlotID("filler", name),
				DisplayName: name,
				Kind:        graph.InputFiller,
				DataType:    graph.DataVector4,
				Accepts:     codeOrData(),
			},
			Args: c.args,
			Setter: func(fill Filler) {
				replaceExpr(prog, c.call, fill)
			},
		})
	}
	return found
}
