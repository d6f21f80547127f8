package test

// Parsing is done by the host, so tests build their trees with these. All
// locations are zero unless a test sets them explicitly.

import (
	"github.com/asyncrequire/asyncrequire/internal/js_ast"
)

func Module(stmts ...js_ast.Stmt) js_ast.Program {
	return js_ast.Program{Data: &js_ast.PModule{Body: stmts}}
}

func Script(stmts ...js_ast.Stmt) js_ast.Program {
	return js_ast.Program{Data: &js_ast.PScript{Body: stmts}}
}

func E(data js_ast.E) js_ast.Expr {
	return js_ast.Expr{Data: data}
}

func S(data js_ast.S) js_ast.Stmt {
	return js_ast.Stmt{Data: data}
}

func Id(name string) js_ast.Expr {
	return E(&js_ast.EIdentifier{Name: name})
}

func Str(value string) js_ast.Expr {
	return E(&js_ast.EString{Value: value})
}

func Num(value float64) js_ast.Expr {
	return E(&js_ast.ENumber{Value: value})
}

func Call(target js_ast.Expr, args ...js_ast.Expr) js_ast.Expr {
	return E(&js_ast.ECall{Target: target, Args: args})
}

func Dot(target js_ast.Expr, name string) js_ast.Expr {
	return E(&js_ast.EDot{Target: target, Name: name})
}

func Await(value js_ast.Expr) js_ast.Expr {
	return E(&js_ast.EAwait{Value: value})
}

func ImportCall(path js_ast.Expr) js_ast.Expr {
	return E(&js_ast.EImportCall{Expr: path})
}

func Binary(op js_ast.OpCode, left js_ast.Expr, right js_ast.Expr) js_ast.Expr {
	return E(&js_ast.EBinary{Op: op, Left: left, Right: right})
}

func Arrow(isAsync bool, body ...js_ast.Stmt) js_ast.Expr {
	return E(&js_ast.EArrow{IsAsync: isAsync, Body: js_ast.FnBody{Stmts: body}})
}

func ExprStmt(value js_ast.Expr) js_ast.Stmt {
	return S(&js_ast.SExpr{Value: value})
}

func Return(value js_ast.Expr) js_ast.Stmt {
	return S(&js_ast.SReturn{ValueOrNil: value})
}

func Block(stmts ...js_ast.Stmt) js_ast.Stmt {
	return S(&js_ast.SBlock{Stmts: stmts})
}

func BId(name string) js_ast.Binding {
	return js_ast.Binding{Data: &js_ast.BIdentifier{Name: name}}
}

func Decl(binding js_ast.Binding, value js_ast.Expr) js_ast.Decl {
	return js_ast.Decl{Binding: binding, ValueOrNil: value}
}

func Local(kind js_ast.LocalKind, decls ...js_ast.Decl) js_ast.Stmt {
	return S(&js_ast.SLocal{Kind: kind, Decls: decls})
}

func Const(name string, value js_ast.Expr) js_ast.Stmt {
	return Local(js_ast.LocalConst, Decl(BId(name), value))
}

func Fn(name string, args []string, body ...js_ast.Stmt) js_ast.Fn {
	fn := js_ast.Fn{Body: js_ast.FnBody{Stmts: body}}
	if name != "" {
		fn.Name = &js_ast.LocName{Name: name}
	}
	for _, arg := range args {
		fn.Args = append(fn.Args, js_ast.Arg{Binding: BId(arg)})
	}
	return fn
}

func Function(name string, args []string, body ...js_ast.Stmt) js_ast.Stmt {
	return S(&js_ast.SFunction{Fn: Fn(name, args, body...)})
}

func Class(name string) js_ast.Stmt {
	class := js_ast.Class{}
	if name != "" {
		class.Name = &js_ast.LocName{Name: name}
	}
	return S(&js_ast.SClass{Class: class})
}

// Export sets the "export" flag on a declaration statement
func Export(stmt js_ast.Stmt) js_ast.Stmt {
	switch s := stmt.Data.(type) {
	case *js_ast.SLocal:
		clone := *s
		clone.IsExport = true
		return js_ast.Stmt{Loc: stmt.Loc, Data: &clone}
	case *js_ast.SFunction:
		clone := *s
		clone.IsExport = true
		return js_ast.Stmt{Loc: stmt.Loc, Data: &clone}
	case *js_ast.SClass:
		clone := *s
		clone.IsExport = true
		return js_ast.Stmt{Loc: stmt.Loc, Data: &clone}
	}
	panic("Internal error")
}

func Import(path string, specifiers ...js_ast.ImportSpecifier) js_ast.Stmt {
	return S(&js_ast.SImport{Path: path, Specifiers: specifiers})
}

func Default(local string) js_ast.ImportSpecifier {
	return js_ast.ImportSpecifier{Data: &js_ast.ISDefault{Local: js_ast.LocName{Name: local}}}
}

// Named("a", "") is "{a}" and Named("a", "b") is "{a as b}"
func Named(imported string, local string) js_ast.ImportSpecifier {
	if local == "" {
		return js_ast.ImportSpecifier{Data: &js_ast.ISNamed{Local: js_ast.LocName{Name: imported}}}
	}
	return js_ast.ImportSpecifier{Data: &js_ast.ISNamed{Local: js_ast.LocName{Name: local}, Imported: imported}}
}

func Namespace(local string) js_ast.ImportSpecifier {
	return js_ast.ImportSpecifier{Data: &js_ast.ISNamespace{Local: js_ast.LocName{Name: local}}}
}

func Item(name string, alias string) js_ast.ClauseItem {
	return js_ast.ClauseItem{Name: js_ast.LocName{Name: name}, Alias: alias}
}

func ExportClause(items ...js_ast.ClauseItem) js_ast.Stmt {
	return S(&js_ast.SExportClause{Items: items})
}

func ExportFrom(path string, items ...js_ast.ClauseItem) js_ast.Stmt {
	return S(&js_ast.SExportFrom{Path: path, Items: items})
}

// An empty alias is "export * from 'path'"
func ExportStar(alias string, path string) js_ast.Stmt {
	s := &js_ast.SExportStar{Path: path}
	if alias != "" {
		s.Alias = &js_ast.LocName{Name: alias}
	}
	return S(s)
}

func ExportDefault(value js_ast.Stmt) js_ast.Stmt {
	return S(&js_ast.SExportDefault{Value: value})
}
