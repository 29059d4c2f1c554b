package worker

import (
	"bytes"
	"go/printer"
	"go/token"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/tools/imports"
)

// render renders source back to bytes using cfg, grouping imports when asked
func render(fset *token.FileSet, filename string, source *Source, cfg ParserConfig, groupImports bool) ([]byte, error) {
	mode := printer.TabIndent
	if cfg.UseSpaces {
		mode |= printer.UseSpaces
	}
	pc := &printer.Config{Mode: mode, Tabwidth: cfg.TabWidth}

	var buf bytes.Buffer
	if err := pc.Fprint(&buf, fset, source.AST); err != nil {
		return nil, errors.Errorf("printing: %w", err)
	}
	out := buf.Bytes()

	if groupImports {
		grouped, err := imports.Process(filename, out, &imports.Options{
			Comments:   cfg.Comments,
			TabIndent:  true,
			TabWidth:   cfg.TabWidth,
			FormatOnly: true,
		})
		if err != nil {
			return nil, errors.Errorf("grouping imports: %w", err)
		}
		out = grouped
	}

	if source.Synthetic {
		out = bytes.TrimPrefix(out, []byte("package fragment\n"))
		out = bytes.TrimLeft(out, "\n")
	}

	return out, nil
}
