package rules

import (
	"context"
	"go/ast"
	"path/filepath"
	"strconv"
	"strings"
)

const modelsImportMarker = "/models"

// 🔎 EveryModelNoUsed records every alias.GetModel("name") call made through a
// package imported from a models directory. The tree is never changed.
func EveryModelNoUsed() Rule {
	return NewFunc("every-model-no-used", everyModelNoUsed)
}

func everyModelNoUsed(ctx context.Context, f *File) (bool, error) {
	sources := modelImports(f.AST)
	if len(sources) == 0 {
		return false, nil
	}

	base := filepath.Base(f.Path)

	ast.Inspect(f.AST, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "GetModel" {
			return true
		}
		x, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		source, ok := sources[x.Name]
		if !ok {
			return true
		}
		model, ok := stringLit(call.Args[0])
		if !ok {
			return true
		}

		f.Facts.Info().
			Str("rule", "every-model-no-used").
			Str("file", base).
			Str("source", source).
			Str("model", model).
			Msg(source + "-" + model)

		return true
	})

	return false, nil
}

// modelImports maps the local name of every models import to the last segment of its path
func modelImports(file *ast.File) map[string]string {
	out := make(map[string]string)
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || !strings.Contains(path, modelsImportMarker) {
			continue
		}

		segs := strings.Split(strings.Trim(path, "/"), "/")
		source := segs[len(segs)-1]

		local := source
		if imp.Name != nil {
			local = imp.Name.Name
		}
		if local == "_" || local == "." {
			continue
		}
		out[local] = source
	}
	return out
}
