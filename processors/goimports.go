// Package processors provides post-processors for rendered plugin output.
package processors

import (
	"fmt"
	"go/format"
	"path"
	"strings"

	"golang.org/x/tools/imports"
)

// GoImports fixes imports and formats generated Go sources, falling back to
// gofmt when goimports cannot process the file. Other file types pass
// through untouched.
type GoImports struct {
	TabWidth  int
	TabIndent bool
	AllErrors bool
	Comments  bool
}

func NewGoImports() *GoImports {
	return &GoImports{
		TabWidth:  8,
		TabIndent: true,
		Comments:  true,
	}
}

func (g *GoImports) ProcessContent(filePath string, content []byte) ([]byte, error) {
	if !isGoFile(filePath) {
		return content, nil
	}

	formatted, err := imports.Process(filePath, content, &imports.Options{
		AllErrors: g.AllErrors,
		Comments:  g.Comments,
		TabIndent: g.TabIndent,
		TabWidth:  g.TabWidth,
	})
	if err == nil {
		return formatted, nil
	}

	formatted, fmtErr := format.Source(content)
	if fmtErr != nil {
		return nil, fmt.Errorf("failed to format %s with goimports (%w) and gofmt (%w)", filePath, err, fmtErr)
	}
	return formatted, nil
}

func isGoFile(filePath string) bool {
	return strings.EqualFold(path.Ext(filePath), ".go")
}
