/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package shim generates local re-export shims for remote ES modules.
package shim

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/typescript/*.scm
var queryFiles embed.FS

// TypeScript is a superset of JavaScript, so one grammar covers both.
var language = ts.NewLanguage(tsTypescript.LanguageTypescript())

// Parser pool for reuse.
var parserPool = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(language); err != nil {
			panic("failed to set TypeScript language: " + err.Error())
		}
		return parser
	},
}

func getParser() *ts.Parser {
	return parserPool.Get().(*ts.Parser)
}

func putParser(p *ts.Parser) {
	p.Reset()
	parserPool.Put(p)
}

var (
	exportDefaultQuery *ts.Query
	queryOnce          sync.Once
	queryErr           error
)

func getExportDefaultQuery() (*ts.Query, error) {
	queryOnce.Do(func() {
		data, err := queryFiles.ReadFile("queries/typescript/exportDefault.scm")
		if err != nil {
			queryErr = fmt.Errorf("failed to read exportDefault query: %w", err)
			return
		}
		query, qerr := ts.NewQuery(language, string(data))
		if qerr != nil {
			queryErr = fmt.Errorf("failed to parse exportDefault query: %w", qerr)
			return
		}
		exportDefaultQuery = query
	})
	return exportDefaultQuery, queryErr
}

// defaultExportPattern is the fallback token scan used when parsing fails.
// Unlike the parser, it can miss declarations with unusual formatting.
var defaultExportPattern = regexp.MustCompile(`(?m)^\s*export\s+default\b`)

// HasDefaultExport reports whether source contains a top-level default export
// declaration. The source is parsed, so the text "export default" appearing
// inside a comment or string literal never matches.
func HasDefaultExport(source []byte) bool {
	query, err := getExportDefaultQuery()
	if err != nil {
		return defaultExportPattern.Match(source)
	}

	parser := getParser()
	defer putParser(parser)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return defaultExportPattern.Match(source)
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(query, tree.RootNode(), source)
	return matches.Next() != nil
}

// Render generates the shim text for a module served from resolvedURL.
// The wildcard re-export alone would drop a default export through the
// indirection, so modules with one get an explicit default re-export too.
func Render(resolvedURL string, hasDefault bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "export * from %q;\n", resolvedURL)
	if hasDefault {
		fmt.Fprintf(&b, "export { default } from %q;\n", resolvedURL)
	}
	return b.String()
}
