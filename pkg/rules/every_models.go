package rules

import (
	"context"
	"go/ast"
	"go/token"
	"path/filepath"
	"strconv"

	"golang.org/x/tools/go/ast/inspector"
)

// 📡 EveryModels records every model endpoint url declared in keyed composite
// literals, for example
//
//	var Models = map[string]Endpoint{
//		"user": {URL: "/api/user"},
//	}
//
// yields the fact models.go-user-/api/user. The tree is never changed.
func EveryModels() Rule {
	return NewFunc("every-models", everyModels)
}

func everyModels(ctx context.Context, f *File) (bool, error) {
	base := filepath.Base(f.Path)

	insp := inspector.New([]*ast.File{f.AST})
	insp.WithStack([]ast.Node{(*ast.KeyValueExpr)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}

		kv := n.(*ast.KeyValueExpr)
		if !isURLKey(kv.Key) {
			return true
		}

		url, ok := stringLit(kv.Value)
		if !ok {
			return true
		}

		owner := enclosingOwner(stack[:len(stack)-1])

		f.Facts.Info().
			Str("rule", "every-models").
			Str("file", base).
			Str("owner", owner).
			Str("url", url).
			Msg(base + "-" + owner + "-" + url)

		return true
	})

	return false, nil
}

func isURLKey(e ast.Expr) bool {
	id, ok := e.(*ast.Ident)
	if !ok {
		return false
	}
	switch id.Name {
	case "URL", "Url", "url":
		return true
	}
	return false
}

// enclosingOwner names the innermost keyed element or typed literal wrapping the url
func enclosingOwner(stack []ast.Node) string {
	for i := len(stack) - 1; i >= 0; i-- {
		switch n := stack[i].(type) {
		case *ast.KeyValueExpr:
			if name := keyName(n.Key); name != "" {
				return name
			}
		case *ast.CompositeLit:
			if name := typeName(n.Type); name != "" {
				return name
			}
		}
	}
	return ""
}

func keyName(e ast.Expr) string {
	switch k := e.(type) {
	case *ast.Ident:
		return k.Name
	case *ast.BasicLit:
		if s, ok := stringLit(k); ok {
			return s
		}
		return k.Value
	}
	return ""
}

func typeName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.StarExpr:
		return typeName(t.X)
	}
	return ""
}

func stringLit(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}
