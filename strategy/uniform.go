package strategy

import (
	"slices"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
)

// Uniform exposes every name of every plain top-level uniform declaration
// whose type maps to a graph data type. Interface blocks and layout-only
// statements are never inputs.
//
// Filling a uniform replaces every reference to it and removes its name
// from the declaration; the declaration goes away with its last name.
// Number fillers are float expressions, so int uniforms get them wrapped
// in an int conversion.
func Uniform(prog *glsl.Program) []Found {
	var found []Found
	global := prog.Global()
	for _, h := range prog.Items {
		decl, ok := prog.Node(h).(*glsl.DeclStmt)
		if !ok || !decl.HasQualifier("uniform") {
			continue
		}
		typeName := prog.TypeName(decl.Type)
		dataType, ok := graph.DataTypeOf(typeName)
		if !ok {
			continue
		}
		for _, dh := range decl.Declarators {
			d := prog.Node(dh).(*glsl.Declarator)
			var refs []glsl.Handle
			if b := global.Bindings.Get(d.Name); b != nil {
				refs = slices.Clone(b.Refs)
			}
			found = append(found, Found{
				Input: graph.NodeInput{
					ID:          SlotID("uniform", d.Name),
					DisplayName: d.Name,
					Kind:        graph.InputUniform,
					DataType:    dataType,
					Accepts:     codeOrData(),
					Bakeable:    true,
				},
				Stmt:   h,
				Setter: uniformSetter(prog, h, dh, refs, typeName == "int"),
			})
		}
	}
	return found
}

func uniformSetter(prog *glsl.Program, decl, declarator glsl.Handle, refs []glsl.Handle, integer bool) Setter {
	return func(fill Filler) {
		root := fill(prog)
		if integer {
			root = prog.NewCall("int", root)
		}
		for _, ref := range refs {
			prog.ReplaceWith(ref, prog, root)
		}
		prog.RemoveDeclarator(decl, declarator)
	}
}
