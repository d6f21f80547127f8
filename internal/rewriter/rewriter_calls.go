package rewriter

import (
	"fmt"

	"github.com/asyncrequire/asyncrequire/internal/js_ast"
)

// The first pass. Top-level module syntax is left in place for the second
// pass, but the values inside it are visited so that the lowered output
// doesn't contain any loader calls that still need renaming.
func (r *rewriter) visitTopLevelStmt(stmt js_ast.Stmt) js_ast.Stmt {
	switch s := stmt.Data.(type) {
	case *js_ast.SImport:
		for _, specifier := range s.Specifiers {
			var local js_ast.LocName
			switch sp := specifier.Data.(type) {
			case *js_ast.ISDefault:
				local = sp.Local
			case *js_ast.ISNamed:
				local = sp.Local
			case *js_ast.ISNamespace:
				local = sp.Local
			default:
				panic("Internal error")
			}
			if local.Name == "" {
				r.fail(MalformedInput, specifier.Loc, fmt.Sprintf("Missing the local name of an import from %q", s.Path))
			}
			r.usedNames[local.Name] = true
		}
		return stmt

	case *js_ast.SExportDefault:
		switch v := s.Value.Data.(type) {
		case *js_ast.SExpr:
			return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SExportDefault{Value: js_ast.Stmt{Loc: s.Value.Loc, Data: &js_ast.SExpr{Value: r.visitExpr(v.Value)}}}}
		case *js_ast.SFunction:
			return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SExportDefault{Value: js_ast.Stmt{Loc: s.Value.Loc, Data: &js_ast.SFunction{Fn: r.visitFn(v.Fn)}}}}
		case *js_ast.SClass:
			return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SExportDefault{Value: js_ast.Stmt{Loc: s.Value.Loc, Data: &js_ast.SClass{Class: r.visitClass(v.Class)}}}}
		}
		return stmt

	case *js_ast.SExportClause:
		for _, item := range s.Items {
			r.usedNames[item.Name.Name] = true
			r.referencedNames[item.Name.Name] = true
		}
		return stmt

	case *js_ast.SExportFrom, *js_ast.SExportStar:
		return stmt
	}

	return r.visitStmt(stmt)
}

func (r *rewriter) visitStmts(stmts []js_ast.Stmt) []js_ast.Stmt {
	if stmts == nil {
		return nil
	}
	result := make([]js_ast.Stmt, len(stmts))
	for i, stmt := range stmts {
		result[i] = r.visitStmt(stmt)
	}
	return result
}

func (r *rewriter) visitStmtOrNil(stmt js_ast.Stmt) js_ast.Stmt {
	if stmt.Data == nil {
		return stmt
	}
	return r.visitStmt(stmt)
}

func (r *rewriter) visitBlock(block js_ast.SBlock) js_ast.SBlock {
	return js_ast.SBlock{Stmts: r.visitStmts(block.Stmts)}
}

func (r *rewriter) visitStmt(stmt js_ast.Stmt) js_ast.Stmt {
	switch s := stmt.Data.(type) {
	case *js_ast.SEmpty, *js_ast.SDebugger, *js_ast.SDirective, *js_ast.SBreak, *js_ast.SContinue:
		return stmt

	case *js_ast.SBlock:
		block := r.visitBlock(*s)
		return js_ast.Stmt{Loc: stmt.Loc, Data: &block}

	case *js_ast.SExpr:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SExpr{Value: r.visitExpr(s.Value)}}

	case *js_ast.SFunction:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SFunction{Fn: r.visitFn(s.Fn), IsExport: s.IsExport}}

	case *js_ast.SClass:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SClass{Class: r.visitClass(s.Class), IsExport: s.IsExport}}

	case *js_ast.SLabel:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SLabel{Name: s.Name, Stmt: r.visitStmt(s.Stmt)}}

	case *js_ast.SIf:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SIf{
			Test:    r.visitExpr(s.Test),
			Yes:     r.visitStmt(s.Yes),
			NoOrNil: r.visitStmtOrNil(s.NoOrNil),
		}}

	case *js_ast.SFor:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SFor{
			InitOrNil:   r.visitStmtOrNil(s.InitOrNil),
			TestOrNil:   r.visitExprOrNil(s.TestOrNil),
			UpdateOrNil: r.visitExprOrNil(s.UpdateOrNil),
			Body:        r.visitStmt(s.Body),
		}}

	case *js_ast.SForIn:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SForIn{
			Init:  r.visitStmt(s.Init),
			Value: r.visitExpr(s.Value),
			Body:  r.visitStmt(s.Body),
		}}

	case *js_ast.SForOf:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SForOf{
			Init:    r.visitStmt(s.Init),
			Value:   r.visitExpr(s.Value),
			Body:    r.visitStmt(s.Body),
			IsAwait: s.IsAwait,
		}}

	case *js_ast.SDoWhile:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SDoWhile{Body: r.visitStmt(s.Body), Test: r.visitExpr(s.Test)}}

	case *js_ast.SWhile:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SWhile{Test: r.visitExpr(s.Test), Body: r.visitStmt(s.Body)}}

	case *js_ast.SWith:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SWith{Value: r.visitExpr(s.Value), Body: r.visitStmt(s.Body)}}

	case *js_ast.STry:
		result := &js_ast.STry{BlockLoc: s.BlockLoc, Block: r.visitBlock(s.Block)}
		if s.Catch != nil {
			result.Catch = &js_ast.Catch{
				Loc:          s.Catch.Loc,
				BindingOrNil: r.visitBindingOrNil(s.Catch.BindingOrNil),
				Block:        r.visitBlock(s.Catch.Block),
				BlockLoc:     s.Catch.BlockLoc,
			}
		}
		if s.Finally != nil {
			result.Finally = &js_ast.Finally{Loc: s.Finally.Loc, Block: r.visitBlock(s.Finally.Block)}
		}
		return js_ast.Stmt{Loc: stmt.Loc, Data: result}

	case *js_ast.SSwitch:
		cases := make([]js_ast.Case, len(s.Cases))
		for i, c := range s.Cases {
			cases[i] = js_ast.Case{Loc: c.Loc, ValueOrNil: r.visitExprOrNil(c.ValueOrNil), Body: r.visitStmts(c.Body)}
		}
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SSwitch{Test: r.visitExpr(s.Test), Cases: cases}}

	case *js_ast.SReturn:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SReturn{ValueOrNil: r.visitExprOrNil(s.ValueOrNil)}}

	case *js_ast.SThrow:
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SThrow{Value: r.visitExpr(s.Value)}}

	case *js_ast.SLocal:
		decls := make([]js_ast.Decl, len(s.Decls))
		for i, decl := range s.Decls {
			decls[i] = js_ast.Decl{Binding: r.visitBinding(decl.Binding), ValueOrNil: r.visitExprOrNil(decl.ValueOrNil)}
		}
		return js_ast.Stmt{Loc: stmt.Loc, Data: &js_ast.SLocal{Decls: decls, Kind: s.Kind, IsExport: s.IsExport}}

	case *js_ast.SImport, *js_ast.SExportDefault, *js_ast.SExportClause, *js_ast.SExportFrom, *js_ast.SExportStar:
		r.fail(MalformedInput, stmt.Loc, "Import and export declarations may only appear at the top level of a module")
		return stmt

	default:
		panic("Internal error")
	}
}

func (r *rewriter) visitBindingOrNil(binding js_ast.Binding) js_ast.Binding {
	if binding.Data == nil {
		return binding
	}
	return r.visitBinding(binding)
}

func (r *rewriter) visitBinding(binding js_ast.Binding) js_ast.Binding {
	switch b := binding.Data.(type) {
	case *js_ast.BMissing:
		return binding

	case *js_ast.BIdentifier:
		r.usedNames[b.Name] = true
		return binding

	case *js_ast.BArray:
		items := make([]js_ast.ArrayBinding, len(b.Items))
		for i, item := range b.Items {
			items[i] = js_ast.ArrayBinding{
				Binding:           r.visitBinding(item.Binding),
				DefaultValueOrNil: r.visitExprOrNil(item.DefaultValueOrNil),
			}
		}
		return js_ast.Binding{Loc: binding.Loc, Data: &js_ast.BArray{Items: items, HasSpread: b.HasSpread}}

	case *js_ast.BObject:
		properties := make([]js_ast.PropertyBinding, len(b.Properties))
		for i, property := range b.Properties {
			properties[i] = js_ast.PropertyBinding{
				Key:               r.visitExpr(property.Key),
				Value:             r.visitBinding(property.Value),
				DefaultValueOrNil: r.visitExprOrNil(property.DefaultValueOrNil),
				IsComputed:        property.IsComputed,
				IsSpread:          property.IsSpread,
				PreferQuotedKey:   property.PreferQuotedKey,
			}
		}
		return js_ast.Binding{Loc: binding.Loc, Data: &js_ast.BObject{Properties: properties}}

	default:
		panic("Internal error")
	}
}

func (r *rewriter) visitArgs(args []js_ast.Arg) []js_ast.Arg {
	result := make([]js_ast.Arg, len(args))
	for i, arg := range args {
		result[i] = js_ast.Arg{Binding: r.visitBinding(arg.Binding), DefaultOrNil: r.visitExprOrNil(arg.DefaultOrNil)}
	}
	return result
}

func (r *rewriter) visitFn(fn js_ast.Fn) js_ast.Fn {
	if fn.Name != nil {
		r.usedNames[fn.Name.Name] = true
	}
	fn.Args = r.visitArgs(fn.Args)
	fn.Body = js_ast.FnBody{Loc: fn.Body.Loc, Stmts: r.visitStmts(fn.Body.Stmts)}
	return fn
}

func (r *rewriter) visitClass(class js_ast.Class) js_ast.Class {
	if class.Name != nil {
		r.usedNames[class.Name.Name] = true
	}
	class.ExtendsOrNil = r.visitExprOrNil(class.ExtendsOrNil)
	class.Properties = r.visitProperties(class.Properties)
	return class
}

func (r *rewriter) visitProperties(properties []js_ast.Property) []js_ast.Property {
	result := make([]js_ast.Property, len(properties))
	for i, property := range properties {
		if property.ClassStaticBlock != nil {
			property.ClassStaticBlock = &js_ast.ClassStaticBlock{
				Loc:   property.ClassStaticBlock.Loc,
				Stmts: r.visitStmts(property.ClassStaticBlock.Stmts),
			}
		}
		property.Key = r.visitExprOrNil(property.Key)
		property.ValueOrNil = r.visitExprOrNil(property.ValueOrNil)
		property.InitializerOrNil = r.visitExprOrNil(property.InitializerOrNil)
		result[i] = property
	}
	return result
}

func (r *rewriter) visitExprs(exprs []js_ast.Expr) []js_ast.Expr {
	if exprs == nil {
		return nil
	}
	result := make([]js_ast.Expr, len(exprs))
	for i, expr := range exprs {
		result[i] = r.visitExpr(expr)
	}
	return result
}

func (r *rewriter) visitExprOrNil(expr js_ast.Expr) js_ast.Expr {
	if expr.Data == nil {
		return expr
	}
	return r.visitExpr(expr)
}

// Loader calls are renamed here. A call whose callee is the bare identifier
// "require" is redirected to the require primitive with the same arguments.
// No "await" is added since the call's value may be used synchronously.
// "import()" becomes an ordinary call to the import primitive. Every other
// callee, including "obj.require(...)", is left alone.
func (r *rewriter) visitExpr(expr js_ast.Expr) js_ast.Expr {
	switch e := expr.Data.(type) {
	case *js_ast.EBoolean, *js_ast.ESuper, *js_ast.ENull, *js_ast.EThis, *js_ast.ENewTarget,
		*js_ast.EImportMeta, *js_ast.EPrivateIdentifier, *js_ast.EMissing, *js_ast.ENumber,
		*js_ast.EBigInt, *js_ast.EString, *js_ast.ERegExp:
		return expr

	case *js_ast.EIdentifier:
		r.usedNames[e.Name] = true
		r.referencedNames[e.Name] = true
		return expr

	case *js_ast.ECall:
		target := r.visitExpr(e.Target)
		if id, ok := e.Target.Data.(*js_ast.EIdentifier); ok && id.Name == "require" {
			target = js_ast.Expr{Loc: e.Target.Loc, Data: &js_ast.EIdentifier{Name: r.options.RequireName}}
		}
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ECall{
			Target:        target,
			Args:          r.visitExprs(e.Args),
			OptionalChain: e.OptionalChain,
		}}

	case *js_ast.EImportCall:
		args := []js_ast.Expr{r.visitExpr(e.Expr)}
		if e.OptionsOrNil.Data != nil {
			args = append(args, r.visitExpr(e.OptionsOrNil))
		}
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ECall{
			Target: js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EIdentifier{Name: r.options.ImportName}},
			Args:   args,
		}}

	case *js_ast.EArray:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EArray{Items: r.visitExprs(e.Items)}}

	case *js_ast.EUnary:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EUnary{Op: e.Op, Value: r.visitExpr(e.Value)}}

	case *js_ast.EBinary:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EBinary{Op: e.Op, Left: r.visitExpr(e.Left), Right: r.visitExpr(e.Right)}}

	case *js_ast.ENew:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ENew{Target: r.visitExpr(e.Target), Args: r.visitExprs(e.Args)}}

	case *js_ast.EDot:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EDot{
			Target:        r.visitExpr(e.Target),
			Name:          e.Name,
			NameLoc:       e.NameLoc,
			OptionalChain: e.OptionalChain,
		}}

	case *js_ast.EIndex:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EIndex{
			Target:        r.visitExpr(e.Target),
			Index:         r.visitExpr(e.Index),
			OptionalChain: e.OptionalChain,
		}}

	case *js_ast.EArrow:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EArrow{
			Args:       r.visitArgs(e.Args),
			Body:       js_ast.FnBody{Loc: e.Body.Loc, Stmts: r.visitStmts(e.Body.Stmts)},
			IsAsync:    e.IsAsync,
			HasRestArg: e.HasRestArg,
			PreferExpr: e.PreferExpr,
		}}

	case *js_ast.EFunction:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EFunction{Fn: r.visitFn(e.Fn)}}

	case *js_ast.EClass:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EClass{Class: r.visitClass(e.Class)}}

	case *js_ast.EObject:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EObject{Properties: r.visitProperties(e.Properties)}}

	case *js_ast.ESpread:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ESpread{Value: r.visitExpr(e.Value)}}

	case *js_ast.ETemplate:
		parts := make([]js_ast.TemplatePart, len(e.Parts))
		for i, part := range e.Parts {
			part.Value = r.visitExpr(part.Value)
			parts[i] = part
		}
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ETemplate{
			TagOrNil:   r.visitExprOrNil(e.TagOrNil),
			HeadLoc:    e.HeadLoc,
			HeadCooked: e.HeadCooked,
			HeadRaw:    e.HeadRaw,
			Parts:      parts,
		}}

	case *js_ast.EAwait:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EAwait{Value: r.visitExpr(e.Value)}}

	case *js_ast.EYield:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EYield{ValueOrNil: r.visitExprOrNil(e.ValueOrNil), IsStar: e.IsStar}}

	case *js_ast.EIf:
		return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EIf{Test: r.visitExpr(e.Test), Yes: r.visitExpr(e.Yes), No: r.visitExpr(e.No)}}

	default:
		panic("Internal error")
	}
}
