package rewriter

import (
	"fmt"

	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/logger"
)

// "exports.alias = value;"
func (r *rewriter) exportStmt(loc logger.Loc, alias string, value js_ast.Expr) js_ast.Stmt {
	return js_ast.AssignStmt(r.exportsMember(loc, alias), value)
}

// "exports.name = name;"
func (r *rewriter) exportLocalStmt(loc logger.Loc, alias string, name string) js_ast.Stmt {
	return r.exportStmt(loc, alias, js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: name}})
}

// A named function or class becomes an expression unless the rest of the
// module refers to its name. Then the declaration is kept in place:
//
//	export default function f() {}  =>  function f() {}
//	f();                                exports.default = f;
//	                                    f();
func (r *rewriter) lowerExportDefault(body []js_ast.Stmt, loc logger.Loc, s *js_ast.SExportDefault) []js_ast.Stmt {
	var value js_ast.Expr

	switch v := s.Value.Data.(type) {
	case *js_ast.SExpr:
		value = v.Value

	case *js_ast.SFunction:
		if r.keepDefaultExportDecl && v.Fn.Name != nil {
			body = append(body, js_ast.Stmt{Loc: s.Value.Loc, Data: &js_ast.SFunction{Fn: v.Fn}})
			return append(body, r.exportLocalStmt(loc, "default", v.Fn.Name.Name))
		}
		value = js_ast.Expr{Loc: s.Value.Loc, Data: &js_ast.EFunction{Fn: v.Fn}}

	case *js_ast.SClass:
		if r.keepDefaultExportDecl && v.Class.Name != nil {
			body = append(body, js_ast.Stmt{Loc: s.Value.Loc, Data: &js_ast.SClass{Class: v.Class}})
			return append(body, r.exportLocalStmt(loc, "default", v.Class.Name.Name))
		}
		value = js_ast.Expr{Loc: s.Value.Loc, Data: &js_ast.EClass{Class: v.Class}}

	default:
		r.fail(MalformedInput, loc, "Expected an expression, function, or class after \"export default\"")
		return body
	}

	return append(body, r.exportStmt(loc, "default", value))
}

// The declaration is kept so the names stay ordinary local bindings. Then
// each bound name is copied onto the exports object in declaration order:
//
//	export const a = 1, {b, c: [d]} = o;
//
// becomes
//
//	const a = 1, {b, c: [d]} = o;
//	exports.a = a;
//	exports.b = b;
//	exports.d = d;
func (r *rewriter) lowerExportLocal(body []js_ast.Stmt, loc logger.Loc, s *js_ast.SLocal) []js_ast.Stmt {
	if len(s.Decls) == 0 {
		r.fail(MalformedInput, loc, fmt.Sprintf("Expected at least one declaration after \"export %s\"", s.Kind.String()))
		return body
	}

	clone := *s
	clone.IsExport = false
	body = append(body, js_ast.Stmt{Loc: loc, Data: &clone})

	for _, decl := range s.Decls {
		for _, name := range js_ast.BindingNames(decl.Binding) {
			body = append(body, r.exportLocalStmt(name.Loc, name.Name, name.Name))
		}
	}
	return body
}

func (r *rewriter) lowerExportFunction(body []js_ast.Stmt, loc logger.Loc, s *js_ast.SFunction) []js_ast.Stmt {
	if s.Fn.Name == nil || s.Fn.Name.Name == "" {
		r.fail(MalformedInput, loc, "Exported function declarations must have a name")
		return body
	}

	clone := *s
	clone.IsExport = false
	body = append(body, js_ast.Stmt{Loc: loc, Data: &clone})
	return append(body, r.exportLocalStmt(s.Fn.Name.Loc, s.Fn.Name.Name, s.Fn.Name.Name))
}

func (r *rewriter) lowerExportClass(body []js_ast.Stmt, loc logger.Loc, s *js_ast.SClass) []js_ast.Stmt {
	if s.Class.Name == nil || s.Class.Name.Name == "" {
		r.fail(MalformedInput, loc, "Exported class declarations must have a name")
		return body
	}

	clone := *s
	clone.IsExport = false
	body = append(body, js_ast.Stmt{Loc: loc, Data: &clone})
	return append(body, r.exportLocalStmt(s.Class.Name.Loc, s.Class.Name.Name, s.Class.Name.Name))
}

func exportedName(item js_ast.ClauseItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	return item.Name.Name
}

// "export {a, b as c}" becomes "exports.a = a; exports.c = b;"
func (r *rewriter) lowerExportClause(body []js_ast.Stmt, s *js_ast.SExportClause) []js_ast.Stmt {
	for _, item := range s.Items {
		if _, ok := r.topLevelNames[item.Name.Name]; !ok {
			r.fail(MalformedInput, item.Name.Loc, fmt.Sprintf("%q is exported but is not declared in this module", item.Name.Name))
			return body
		}
		body = append(body, r.exportLocalStmt(item.Name.Loc, exportedName(item), item.Name.Name))
	}
	return body
}

// Re-exports load the other module the same way imports do:
//
//	export {a} from 'x'          =>  exports.a = (await __require__('x')).a;
//	export {a, b as c} from 'x'  =>  const __mod_0__ = await __require__('x');
//	                                 exports.a = __mod_0__.a;
//	                                 exports.c = __mod_0__.b;
func (r *rewriter) lowerExportFrom(body []js_ast.Stmt, loc logger.Loc, s *js_ast.SExportFrom) []js_ast.Stmt {
	r.warnAboutAttributes(s.Attributes, s.Path)

	// "export {} from 'x'" still loads the module for its side effects
	if len(s.Items) == 0 {
		return append(body, js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: r.awaitRequire(loc, s.Path, s.PathLoc)}})
	}

	if len(s.Items) == 1 || r.options.PerSpecifierLoads {
		for _, item := range s.Items {
			value := js_ast.Member(item.Name.Loc, r.awaitRequire(item.Name.Loc, s.Path, s.PathLoc), item.Name.Name)
			body = append(body, r.exportStmt(item.Name.Loc, exportedName(item), value))
		}
		return body
	}

	ref := r.generateModuleRef()
	body = append(body, js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: []js_ast.Decl{{
		Binding:    js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: ref}},
		ValueOrNil: r.awaitRequire(loc, s.Path, s.PathLoc),
	}}}})
	for _, item := range s.Items {
		value := js_ast.Member(item.Name.Loc, js_ast.Expr{Loc: item.Name.Loc, Data: &js_ast.EIdentifier{Name: ref}}, item.Name.Name)
		body = append(body, r.exportStmt(item.Name.Loc, exportedName(item), value))
	}
	return body
}

// "export * as ns from 'x'" becomes "exports.ns = await __require__('x');".
// Plain "export * from 'x'" can't be rewritten without knowing which names
// the other module exports, so it's an error instead of being dropped.
func (r *rewriter) lowerExportStar(body []js_ast.Stmt, loc logger.Loc, s *js_ast.SExportStar) []js_ast.Stmt {
	if s.Alias == nil {
		r.fail(UnsupportedConstruct, loc, fmt.Sprintf(
			"Cannot rewrite \"export *\" from %q because the names it re-exports are not known until that module is loaded", s.Path))
		return body
	}

	r.warnAboutAttributes(s.Attributes, s.Path)
	return append(body, r.exportStmt(s.Alias.Loc, s.Alias.Name, r.awaitRequire(loc, s.Path, s.PathLoc)))
}
