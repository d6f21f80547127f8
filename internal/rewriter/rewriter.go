package rewriter

// This package lowers the module syntax of an ES module into code that loads
// its dependencies through two asynchronous functions and publishes its
// exports by assigning to an object:
//
//   import foo from 'bar'        =>  const foo = await __require__('bar');
//   export const a = 1           =>  const a = 1; exports.a = a;
//   require('x')                 =>  __require__('x')
//   import('x')                  =>  __import__('x')
//
// The rewrite happens in two passes over the top-level statements. The first
// pass visits every subtree, renaming loader calls and recording every name
// the program uses. The second pass lowers the import and export statements,
// which is when synthetic names are needed. Doing it in this order means a
// synthetic name can never collide with a name that appears later on in the
// file.
//
// The input tree is never modified. The first pass builds new nodes instead
// of changing existing ones, so the caller can keep using the original tree
// and several programs can be rewritten at the same time.

import (
	"fmt"

	"github.com/asyncrequire/asyncrequire/internal/config"
	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/logger"
)

type ErrorKind uint8

const (
	// The construct is valid but has no faithful translation, for example
	// "export * from 'x'" which needs the export names of another module
	UnsupportedConstruct ErrorKind = iota

	// The tree breaks a structural rule that a parser would have enforced
	MalformedInput
)

func (kind ErrorKind) String() string {
	switch kind {
	case UnsupportedConstruct:
		return "unsupported construct"
	case MalformedInput:
		return "malformed input"
	default:
		panic("Internal error")
	}
}

type Error struct {
	Kind ErrorKind
	Loc  logger.Loc
	Text string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Text)
}

type rewriter struct {
	log     logger.Log
	source  *logger.Source
	options config.Options

	// Every identifier that appears anywhere in the program
	usedNames map[string]bool

	// Identifiers read or written as values, plus the local names in export
	// clauses. Declarations don't count.
	referencedNames map[string]bool

	// Names bound at module scope, including "var" declarations nested in
	// top-level blocks
	topLevelNames map[string]logger.Loc

	// The name of "export default function f() {}" or "export default class
	// Foo {}". The declaration is only kept when something else refers to it.
	defaultExportName     *js_ast.LocName
	keepDefaultExportDecl bool

	// Synthetic names are "__mod_0__", "__mod_1__", and so on
	nextModuleRef int

	// Only the first error is kept. Once it's set the rest of the traversal
	// still runs but its output is thrown away.
	err *Error
}

// Rewrite lowers the module syntax of "program". Script programs are returned
// as-is since they cannot contain module syntax. Warnings are sent to "log"
// and are located using "source" when it's not nil.
//
// Either the whole program is rewritten or an error is returned. The
// returned error is always a "*Error".
func Rewrite(log logger.Log, source *logger.Source, program js_ast.Program, options config.Options) (js_ast.Program, error) {
	module, ok := program.Data.(*js_ast.PModule)
	if !ok {
		return program, nil
	}

	r := &rewriter{
		log:           log,
		source:        source,
		options:       options,
		usedNames:       make(map[string]bool),
		referencedNames: make(map[string]bool),
		topLevelNames:   make(map[string]logger.Loc),
	}

	r.collectTopLevelNames(module.Body)

	visited := make([]js_ast.Stmt, 0, len(module.Body))
	for _, stmt := range module.Body {
		visited = append(visited, r.visitTopLevelStmt(stmt))
	}
	if r.err != nil {
		return js_ast.Program{}, r.err
	}

	if name := r.defaultExportName; name != nil && r.referencedNames[name.Name] {
		r.keepDefaultExportDecl = true
		r.declareTopLevel(name.Loc, name.Name)
	}
	r.warnAboutShadowedNames()

	body := make([]js_ast.Stmt, 0, len(visited))
	for _, stmt := range visited {
		body = r.lowerTopLevelStmt(body, stmt)
	}
	if r.err != nil {
		return js_ast.Program{}, r.err
	}

	return js_ast.Program{Loc: program.Loc, Data: &js_ast.PModule{Body: body}}, nil
}

func (r *rewriter) fail(kind ErrorKind, loc logger.Loc, text string) {
	if r.err == nil {
		r.err = &Error{Kind: kind, Loc: loc, Text: text}
	}
}

func (r *rewriter) warn(id logger.MsgID, loc logger.Loc, text string) {
	r.log.AddID(id, logger.Warning, r.source, logger.Range{Loc: loc}, text)
}

// Appends the lowered form of one top-level statement to "body". Everything
// that isn't module syntax is passed through since the first pass has
// already rewritten its loader calls.
func (r *rewriter) lowerTopLevelStmt(body []js_ast.Stmt, stmt js_ast.Stmt) []js_ast.Stmt {
	switch s := stmt.Data.(type) {
	case *js_ast.SImport:
		return r.lowerImport(body, stmt.Loc, s)

	case *js_ast.SExportDefault:
		return r.lowerExportDefault(body, stmt.Loc, s)

	case *js_ast.SExportClause:
		return r.lowerExportClause(body, s)

	case *js_ast.SExportFrom:
		return r.lowerExportFrom(body, stmt.Loc, s)

	case *js_ast.SExportStar:
		return r.lowerExportStar(body, stmt.Loc, s)

	case *js_ast.SLocal:
		if s.IsExport {
			return r.lowerExportLocal(body, stmt.Loc, s)
		}

	case *js_ast.SFunction:
		if s.IsExport {
			return r.lowerExportFunction(body, stmt.Loc, s)
		}

	case *js_ast.SClass:
		if s.IsExport {
			return r.lowerExportClass(body, stmt.Loc, s)
		}
	}

	return append(body, stmt)
}

func (r *rewriter) generateModuleRef() string {
	for {
		name := fmt.Sprintf("__mod_%d__", r.nextModuleRef)
		r.nextModuleRef++
		if !r.usedNames[name] {
			r.usedNames[name] = true
			return name
		}
	}
}

// "await __require__('path')"
func (r *rewriter) awaitRequire(loc logger.Loc, path string, pathLoc logger.Loc) js_ast.Expr {
	return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
		Target: js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: r.options.RequireName}},
		Args:   []js_ast.Expr{{Loc: pathLoc, Data: &js_ast.EString{Value: path}}},
	}}}}
}

// "exports.name" or "module.exports.name" or "exports['not-an-identifier']"
func (r *rewriter) exportsMember(loc logger.Loc, name string) js_ast.Expr {
	return js_ast.Member(loc, js_ast.DotChain(loc, r.options.ExportsObject), name)
}

func (r *rewriter) warnAboutAttributes(attributes []js_ast.ImportAttribute, path string) {
	if len(attributes) > 0 {
		r.warn(logger.MsgID_Rewrite_IgnoredImportAttributes, attributes[0].Loc,
			fmt.Sprintf("The import attributes on %q will be dropped since %q does not take any", path, r.options.RequireName))
	}
}
