package rewriter

import (
	"fmt"
	"strings"

	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/logger"
)

func (r *rewriter) declareTopLevel(loc logger.Loc, name string) {
	if _, ok := r.topLevelNames[name]; !ok {
		r.topLevelNames[name] = loc
	}
}

func (r *rewriter) declareBinding(binding js_ast.Binding) {
	js_ast.ForEachBindingName(binding, r.declareTopLevel)
}

// Module scope is made of the top-level declarations plus every "var" that
// hoists out of a nested block. The name of a default-exported function or
// class is only remembered here. It joins module scope after the first pass
// if something refers to it, since otherwise the declaration becomes an
// expression and no longer declares anything.
func (r *rewriter) collectTopLevelNames(body []js_ast.Stmt) {
	for _, stmt := range body {
		switch s := stmt.Data.(type) {
		case *js_ast.SImport:
			for _, specifier := range s.Specifiers {
				switch sp := specifier.Data.(type) {
				case *js_ast.ISDefault:
					r.declareTopLevel(sp.Local.Loc, sp.Local.Name)
				case *js_ast.ISNamed:
					r.declareTopLevel(sp.Local.Loc, sp.Local.Name)
				case *js_ast.ISNamespace:
					r.declareTopLevel(sp.Local.Loc, sp.Local.Name)
				}
			}

		case *js_ast.SLocal:
			for _, decl := range s.Decls {
				r.declareBinding(decl.Binding)
			}

		case *js_ast.SFunction:
			if s.Fn.Name != nil {
				r.declareTopLevel(s.Fn.Name.Loc, s.Fn.Name.Name)
			}

		case *js_ast.SClass:
			if s.Class.Name != nil {
				r.declareTopLevel(s.Class.Name.Loc, s.Class.Name.Name)
			}

		case *js_ast.SExportDefault:
			switch v := s.Value.Data.(type) {
			case *js_ast.SFunction:
				if v.Fn.Name != nil && v.Fn.Name.Name != "" {
					r.defaultExportName = v.Fn.Name
				}
			case *js_ast.SClass:
				if v.Class.Name != nil && v.Class.Name.Name != "" {
					r.defaultExportName = v.Class.Name
				}
			}

		default:
			r.collectHoistedVars(stmt)
		}
	}
}

func (r *rewriter) collectHoistedVarsInStmts(stmts []js_ast.Stmt) {
	for _, stmt := range stmts {
		r.collectHoistedVars(stmt)
	}
}

// Function bodies are not entered since their "var" declarations stay
// inside the function
func (r *rewriter) collectHoistedVars(stmt js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SLocal:
		if s.Kind == js_ast.LocalVar {
			for _, decl := range s.Decls {
				r.declareBinding(decl.Binding)
			}
		}

	case *js_ast.SBlock:
		r.collectHoistedVarsInStmts(s.Stmts)

	case *js_ast.SLabel:
		r.collectHoistedVars(s.Stmt)

	case *js_ast.SIf:
		r.collectHoistedVars(s.Yes)
		if s.NoOrNil.Data != nil {
			r.collectHoistedVars(s.NoOrNil)
		}

	case *js_ast.SFor:
		if s.InitOrNil.Data != nil {
			r.collectHoistedVars(s.InitOrNil)
		}
		r.collectHoistedVars(s.Body)

	case *js_ast.SForIn:
		r.collectHoistedVars(s.Init)
		r.collectHoistedVars(s.Body)

	case *js_ast.SForOf:
		r.collectHoistedVars(s.Init)
		r.collectHoistedVars(s.Body)

	case *js_ast.SDoWhile:
		r.collectHoistedVars(s.Body)

	case *js_ast.SWhile:
		r.collectHoistedVars(s.Body)

	case *js_ast.SWith:
		r.collectHoistedVars(s.Body)

	case *js_ast.STry:
		r.collectHoistedVarsInStmts(s.Block.Stmts)
		if s.Catch != nil {
			r.collectHoistedVarsInStmts(s.Catch.Block.Stmts)
		}
		if s.Finally != nil {
			r.collectHoistedVarsInStmts(s.Finally.Block.Stmts)
		}

	case *js_ast.SSwitch:
		for _, c := range s.Cases {
			r.collectHoistedVarsInStmts(c.Body)
		}
	}
}

func (r *rewriter) warnAboutShadowedNames() {
	exportsRoot := r.options.ExportsObject
	if dot := strings.IndexByte(exportsRoot, '.'); dot != -1 {
		exportsRoot = exportsRoot[:dot]
	}

	for _, name := range []string{r.options.RequireName, r.options.ImportName, exportsRoot} {
		if loc, ok := r.topLevelNames[name]; ok {
			r.warn(logger.MsgID_Rewrite_ShadowedPrimitive, loc,
				fmt.Sprintf("The top-level binding %q shadows the global %q that the rewritten module refers to", name, name))
		}
	}

	if r.options.RequireName != "require" {
		if loc, ok := r.topLevelNames["require"]; ok {
			r.warn(logger.MsgID_Rewrite_LocalRequireBinding, loc,
				fmt.Sprintf("Calls to the local binding \"require\" will still be renamed to %q", r.options.RequireName))
		}
	}
}
