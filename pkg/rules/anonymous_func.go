package rules

import (
	"context"
	"go/ast"
	"go/token"
)

// ✏️ AnonymousFuncToNamed turns package level function literals into declarations:
//
//	var Handler = func(w http.ResponseWriter, r *http.Request) { ... }
//
// becomes
//
//	func Handler(w http.ResponseWriter, r *http.Request) { ... }
//
// Only single-name specs without an explicit type are rewritten, and only when
// the file never assigns to the name or takes its address. Assignments made from
// other files of the package are not visible here.
func AnonymousFuncToNamed() Rule {
	return NewFunc("anonymous-component-to-realname", anonymousFuncToNamed)
}

func anonymousFuncToNamed(ctx context.Context, f *File) (bool, error) {
	mutated := mutatedNames(f.AST)

	changed := false
	decls := make([]ast.Decl, 0, len(f.AST.Decls))

	for _, decl := range f.AST.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			decls = append(decls, decl)
			continue
		}

		var split []ast.Decl
		if gen.Lparen.IsValid() {
			split = splitGroup(gen, mutated)
		} else if lit := convertibleFuncLit(gen.Specs[0].(*ast.ValueSpec), mutated); lit != nil {
			split = []ast.Decl{toFuncDecl(gen.Specs[0].(*ast.ValueSpec), lit, gen.Doc, gen.Pos())}
		}

		if split == nil {
			decls = append(decls, decl)
			continue
		}
		changed = true
		decls = append(decls, split...)
	}

	if changed {
		f.AST.Decls = decls
	}
	return changed, nil
}

// splitGroup rewrites the convertible specs of a parenthesized var block in
// source order. Specs that stay are regrouped between the new declarations.
// Token positions are chosen so comments in f.Comments land next to the
// node they documented. Returns nil when nothing converts.
func splitGroup(gen *ast.GenDecl, mutated map[string]bool) []ast.Decl {
	var out []ast.Decl
	var run []ast.Spec
	converted := false

	// open is where the next group's var keyword is placed
	open := gen.TokPos
	flush := func(rparen token.Pos) {
		if len(run) == 0 {
			return
		}
		group := &ast.GenDecl{
			Tok:    token.VAR,
			TokPos: open,
			Lparen: open,
			Specs:  run,
			Rparen: rparen,
		}
		if len(out) == 0 {
			group.Doc = gen.Doc
			group.Lparen = gen.Lparen
		}
		out = append(out, group)
		run = nil
	}

	for _, spec := range gen.Specs {
		vs := spec.(*ast.ValueSpec)
		lit := convertibleFuncLit(vs, mutated)
		if lit == nil {
			run = append(run, spec)
			continue
		}

		if len(run) > 0 {
			flush(specEnd(run[len(run)-1].(*ast.ValueSpec)))
		}
		fn := toFuncDecl(vs, lit, vs.Doc, vs.Pos())
		out = append(out, fn)
		open = specEnd(vs)
		converted = true
	}
	flush(gen.Rparen)

	if !converted {
		return nil
	}
	return out
}

func toFuncDecl(vs *ast.ValueSpec, lit *ast.FuncLit, doc *ast.CommentGroup, pos token.Pos) *ast.FuncDecl {
	// keep the declaration anchored where the spec was
	lit.Type.Func = pos
	return &ast.FuncDecl{
		Doc:  doc,
		Name: vs.Names[0],
		Type: lit.Type,
		Body: lit.Body,
	}
}

// specEnd is the end of vs including its trailing line comment
func specEnd(vs *ast.ValueSpec) token.Pos {
	if vs.Comment != nil {
		return vs.Comment.End()
	}
	return vs.End()
}

func convertibleFuncLit(vs *ast.ValueSpec, mutated map[string]bool) *ast.FuncLit {
	if len(vs.Names) != 1 || len(vs.Values) != 1 || vs.Type != nil {
		return nil
	}
	name := vs.Names[0].Name
	if name == "_" || name == "init" || name == "main" || mutated[name] {
		return nil
	}
	lit, ok := vs.Values[0].(*ast.FuncLit)
	if !ok {
		return nil
	}
	return lit
}

// mutatedNames collects identifiers that are assigned to or have their address taken anywhere in the file
func mutatedNames(file *ast.File) map[string]bool {
	out := make(map[string]bool)
	ast.Inspect(file, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			for _, lhs := range n.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					out[id.Name] = true
				}
			}
		case *ast.UnaryExpr:
			if id, ok := n.X.(*ast.Ident); ok && n.Op == token.AND {
				out[id.Name] = true
			}
		}
		return true
	})
	return out
}
