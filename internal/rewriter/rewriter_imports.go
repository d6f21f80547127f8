package rewriter

import (
	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/logger"
)

// One binding created by an import. An empty property means the binding
// holds the loaded module itself.
type importBinding struct {
	local    js_ast.LocName
	loc      logger.Loc
	property string
}

func (r *rewriter) importBindings(s *js_ast.SImport) []importBinding {
	bindings := make([]importBinding, 0, len(s.Specifiers))
	for _, specifier := range s.Specifiers {
		switch sp := specifier.Data.(type) {
		case *js_ast.ISDefault:
			property := ""
			if r.options.DefaultImportInterop {
				property = "default"
			}
			bindings = append(bindings, importBinding{local: sp.Local, loc: specifier.Loc, property: property})

		case *js_ast.ISNamed:
			bindings = append(bindings, importBinding{local: sp.Local, loc: specifier.Loc, property: sp.ImportedName()})

		case *js_ast.ISNamespace:
			bindings = append(bindings, importBinding{local: sp.Local, loc: specifier.Loc})

		default:
			panic("Internal error")
		}
	}
	return bindings
}

// Converts an import statement into a single "const" declaration. For
// example:
//
//	import 'x'                =>  await __require__('x');
//	import a from 'x'         =>  const a = await __require__('x');
//	import {b as c} from 'x'  =>  const c = (await __require__('x')).b;
//	import a, {b} from 'x'    =>  const __mod_0__ = await __require__('x'), a = __mod_0__, b = __mod_0__.b;
func (r *rewriter) lowerImport(body []js_ast.Stmt, loc logger.Loc, s *js_ast.SImport) []js_ast.Stmt {
	r.warnAboutAttributes(s.Attributes, s.Path)

	if len(s.Specifiers) == 0 {
		return append(body, js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: r.awaitRequire(loc, s.Path, s.PathLoc)}})
	}

	bindings := r.importBindings(s)
	decls := make([]js_ast.Decl, 0, len(bindings)+1)

	if len(bindings) == 1 || r.options.PerSpecifierLoads {
		for _, b := range bindings {
			value := r.awaitRequire(b.loc, s.Path, s.PathLoc)
			if b.property != "" {
				value = js_ast.Member(b.loc, value, b.property)
			}
			decls = append(decls, js_ast.Decl{
				Binding:    js_ast.Binding{Loc: b.local.Loc, Data: &js_ast.BIdentifier{Name: b.local.Name}},
				ValueOrNil: value,
			})
		}
	} else {
		ref := r.generateModuleRef()
		decls = append(decls, js_ast.Decl{
			Binding:    js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: ref}},
			ValueOrNil: r.awaitRequire(loc, s.Path, s.PathLoc),
		})
		for _, b := range bindings {
			value := js_ast.Expr{Loc: b.loc, Data: &js_ast.EIdentifier{Name: ref}}
			if b.property != "" {
				value = js_ast.Member(b.loc, value, b.property)
			}
			decls = append(decls, js_ast.Decl{
				Binding:    js_ast.Binding{Loc: b.local.Loc, Data: &js_ast.BIdentifier{Name: b.local.Name}},
				ValueOrNil: value,
			})
		}
	}

	return append(body, js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls}})
}
