package js_printer

import (
	"math"
	"testing"

	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/test"
)

func expectPrintedCommon(t *testing.T, name string, program js_ast.Program, expected string, options Options) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		t.Helper()
		js := Print(program, options).JS
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func expectPrinted(t *testing.T, stmts []js_ast.Stmt, expected string) {
	t.Helper()
	expectPrintedCommon(t, expected, test.Module(stmts...), expected, Options{})
}

func expectPrintedMinify(t *testing.T, stmts []js_ast.Stmt, expected string) {
	t.Helper()
	expectPrintedCommon(t, expected+" [minified]", test.Module(stmts...), expected, Options{MinifyWhitespace: true})
}

func expectPrintedExpr(t *testing.T, expr js_ast.Expr, expected string) {
	t.Helper()
	t.Run(expected, func(t *testing.T) {
		t.Helper()
		test.AssertEqualWithDiff(t, PrintExpr(expr), expected)
	})
}

func stmts(s ...js_ast.Stmt) []js_ast.Stmt {
	return s
}

func TestNumber(t *testing.T) {
	expectPrintedExpr(t, test.Num(0), "0")
	expectPrintedExpr(t, test.Num(123), "123")
	expectPrintedExpr(t, test.Num(1.5), "1.5")
	expectPrintedExpr(t, test.Num(1000), "1000")
	expectPrintedExpr(t, test.Num(123456789), "123456789")
	expectPrintedExpr(t, test.Num(1e21), "1e21")
	expectPrintedExpr(t, test.Num(1e-7), "1e-7")
	expectPrintedExpr(t, test.Num(-1), "-1")
	expectPrintedExpr(t, test.Num(math.NaN()), "NaN")
	expectPrintedExpr(t, test.Num(math.Inf(1)), "Infinity")
	expectPrintedExpr(t, test.Num(math.Inf(-1)), "-Infinity")

	// "1.toString()" is a syntax error
	expectPrintedExpr(t, test.Call(test.Dot(test.Num(1), "toString")), "1 .toString()")
	expectPrintedExpr(t, test.Call(test.Dot(test.Num(-1), "toString")), "(-1).toString()")
}

func TestString(t *testing.T) {
	expectPrintedExpr(t, test.Str("abc"), "\"abc\"")
	expectPrintedExpr(t, test.Str("a\"b"), "'a\"b'")
	expectPrintedExpr(t, test.Str("a'b"), "\"a'b\"")
	expectPrintedExpr(t, test.Str("a'\"b\""), "'a\\'\"b\"'")
	expectPrintedExpr(t, test.Str("\n\t\\"), "\"\\n\\t\\\\\"")
	expectPrintedExpr(t, test.Str("\x00"), "\"\\0\"")
	expectPrintedExpr(t, test.Str("\x001"), "\"\\x001\"")
	expectPrintedExpr(t, test.Str("${x}"), "\"${x}\"")
	expectPrintedExpr(t, test.Str("\u2028"), "\"\\u2028\"")
	expectPrintedExpr(t, test.Str("π"), "\"π\"")
}

func TestCall(t *testing.T) {
	expectPrintedExpr(t, test.Call(test.Id("f")), "f()")
	expectPrintedExpr(t, test.Call(test.Id("f"), test.Id("a"), test.Num(1)), "f(a, 1)")
	expectPrintedExpr(t, test.E(&js_ast.ENew{Target: test.Call(test.Id("f"))}), "new (f())()")
	expectPrintedExpr(t, test.E(&js_ast.ENew{Target: test.Dot(test.Id("a"), "B"), Args: []js_ast.Expr{test.Num(1)}}), "new a.B(1)")
	expectPrintedExpr(t, test.ImportCall(test.Str("x")), "import(\"x\")")
	expectPrintedExpr(t, test.E(&js_ast.EImportCall{Expr: test.Str("x"), OptionsOrNil: test.Id("o")}), "import(\"x\", o)")
}

func TestOptionalChain(t *testing.T) {
	// "a?.b.c"
	chain := test.E(&js_ast.EDot{
		Target:        test.E(&js_ast.EDot{Target: test.Id("a"), Name: "b", OptionalChain: js_ast.OptionalChainStart}),
		Name:          "c",
		OptionalChain: js_ast.OptionalChainContinue,
	})
	expectPrintedExpr(t, chain, "a?.b.c")

	// "(a?.b).c"
	expectPrintedExpr(t, test.Dot(test.E(&js_ast.EDot{Target: test.Id("a"), Name: "b", OptionalChain: js_ast.OptionalChainStart}), "c"), "(a?.b).c")

	expectPrintedExpr(t, test.E(&js_ast.ECall{Target: test.Id("f"), OptionalChain: js_ast.OptionalChainStart}), "f?.()")
	expectPrintedExpr(t, test.E(&js_ast.EIndex{Target: test.Id("a"), Index: test.Num(0), OptionalChain: js_ast.OptionalChainStart}), "a?.[0]")
}

func TestAwait(t *testing.T) {
	require := test.Call(test.Id("__require__"), test.Str("x"))
	expectPrintedExpr(t, test.Await(require), "await __require__(\"x\")")
	expectPrintedExpr(t, test.Dot(test.Await(require), "a"), "(await __require__(\"x\")).a")
	expectPrintedExpr(t, test.E(&js_ast.EIndex{Target: test.Await(require), Index: test.Str("a-b")}), "(await __require__(\"x\"))[\"a-b\"]")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpAdd, test.Await(test.Id("a")), test.Await(test.Id("b"))), "await a + await b")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpPow, test.Await(test.Id("a")), test.Num(2)), "(await a) ** 2")
}

func TestBinary(t *testing.T) {
	expectPrintedExpr(t, test.Binary(js_ast.BinOpMul, test.Binary(js_ast.BinOpAdd, test.Id("a"), test.Id("b")), test.Id("c")), "(a + b) * c")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpAdd, test.Id("a"), test.Binary(js_ast.BinOpMul, test.Id("b"), test.Id("c"))), "a + b * c")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpSub, test.Id("a"), test.Binary(js_ast.BinOpSub, test.Id("b"), test.Id("c"))), "a - (b - c)")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpAssign, test.Id("a"), test.Binary(js_ast.BinOpAssign, test.Id("b"), test.Id("c"))), "a = b = c")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpNullishCoalescing, test.Binary(js_ast.BinOpLogicalOr, test.Id("a"), test.Id("b")), test.Id("c")), "(a || b) ?? c")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpComma, test.Id("a"), test.Id("b")), "a, b")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpIn, test.Str("a"), test.Id("b")), "\"a\" in b")
	expectPrintedExpr(t, test.Binary(js_ast.BinOpAdd, test.Id("a"), test.E(&js_ast.EUnary{Op: js_ast.UnOpPos, Value: test.Id("b")})), "a + +b")
	expectPrintedExpr(t, test.E(&js_ast.EUnary{Op: js_ast.UnOpTypeof, Value: test.Id("x")}), "typeof x")
	expectPrintedExpr(t, test.E(&js_ast.EUnary{Op: js_ast.UnOpPostInc, Value: test.Id("x")}), "x++")
}

func TestStatements(t *testing.T) {
	expectPrinted(t, stmts(test.Const("a", test.Num(1))), "const a = 1;\n")
	expectPrinted(t, stmts(test.Local(js_ast.LocalLet, test.Decl(test.BId("a"), js_ast.Expr{}), test.Decl(test.BId("b"), test.Num(2)))), "let a, b = 2;\n")
	expectPrinted(t, stmts(test.Function("f", []string{"a", "b"}, test.Return(test.Id("a")))), "function f(a, b) {\n  return a;\n}\n")
	expectPrinted(t, stmts(test.Class("Foo")), "class Foo {\n}\n")
	expectPrinted(t, stmts(test.Block(test.ExprStmt(test.Call(test.Id("f"))))), "{\n  f();\n}\n")
	expectPrinted(t, stmts(test.S(&js_ast.SIf{Test: test.Id("a"), Yes: test.ExprStmt(test.Id("b")), NoOrNil: test.ExprStmt(test.Id("c"))})),
		"if (a)\n  b;\nelse\n  c;\n")
	expectPrinted(t, stmts(test.S(&js_ast.SDirective{Value: "use strict"})), "\"use strict\";\n")
	expectPrinted(t, stmts(test.S(&js_ast.STry{
		Block:   js_ast.SBlock{Stmts: stmts(test.ExprStmt(test.Id("a")))},
		Catch:   &js_ast.Catch{BindingOrNil: test.BId("e"), Block: js_ast.SBlock{}},
		Finally: &js_ast.Finally{Block: js_ast.SBlock{}},
	})), "try {\n  a;\n} catch (e) {\n} finally {\n}\n")
}

func TestStatementStart(t *testing.T) {
	expectPrinted(t, stmts(test.ExprStmt(test.E(&js_ast.EFunction{Fn: test.Fn("", nil)}))), "(function() {\n});\n")
	expectPrinted(t, stmts(test.ExprStmt(test.E(&js_ast.EObject{}))), "({});\n")
	expectPrinted(t, stmts(test.ExprStmt(test.Binary(js_ast.BinOpAssign, test.Dot(test.Id("exports"), "default"), test.E(&js_ast.EFunction{Fn: test.Fn("f", nil)})))),
		"exports.default = function f() {\n};\n")
}

func TestArrow(t *testing.T) {
	expectPrintedExpr(t, test.Arrow(false), "() => {\n}")
	expectPrintedExpr(t, test.Arrow(true, test.Return(test.Id("x"))), "async () => {\n  return x;\n}")
	expectPrintedExpr(t, test.E(&js_ast.EArrow{Body: js_ast.FnBody{Stmts: stmts(test.Return(test.E(&js_ast.EObject{})))}, PreferExpr: true}), "() => ({})")
}

func TestImport(t *testing.T) {
	expectPrinted(t, stmts(test.Import("x")), "import \"x\";\n")
	expectPrinted(t, stmts(test.Import("x", test.Default("a"))), "import a from \"x\";\n")
	expectPrinted(t, stmts(test.Import("x", test.Named("a", ""), test.Named("b", "c"))), "import { a, b as c } from \"x\";\n")
	expectPrinted(t, stmts(test.Import("x", test.Default("a"), test.Named("b", ""))), "import a, { b } from \"x\";\n")
	expectPrinted(t, stmts(test.Import("x", test.Default("a"), test.Namespace("ns"))), "import a, * as ns from \"x\";\n")
	expectPrinted(t, stmts(test.Import("x", test.Named("a-b", "c"))), "import { \"a-b\" as c } from \"x\";\n")
	expectPrinted(t, stmts(test.S(&js_ast.SImport{Path: "x.json", Attributes: []js_ast.ImportAttribute{{Key: "type", Value: "json"}}})),
		"import \"x.json\" with { type: \"json\" };\n")
}

func TestExport(t *testing.T) {
	expectPrinted(t, stmts(test.Export(test.Const("a", test.Num(1)))), "export const a = 1;\n")
	expectPrinted(t, stmts(test.Export(test.Function("f", nil))), "export function f() {\n}\n")
	expectPrinted(t, stmts(test.ExportClause(test.Item("a", ""), test.Item("b", "c"))), "export { a, b as c };\n")
	expectPrinted(t, stmts(test.ExportFrom("x", test.Item("a", "default"))), "export { a as default } from \"x\";\n")
	expectPrinted(t, stmts(test.ExportStar("", "x")), "export * from \"x\";\n")
	expectPrinted(t, stmts(test.ExportStar("ns", "x")), "export * as ns from \"x\";\n")
	expectPrinted(t, stmts(test.ExportDefault(test.ExprStmt(test.Num(1)))), "export default 1;\n")
	expectPrinted(t, stmts(test.ExportDefault(test.ExprStmt(test.E(&js_ast.EFunction{Fn: test.Fn("", nil)})))), "export default (function() {\n});\n")
	expectPrinted(t, stmts(test.ExportDefault(test.Function("", nil))), "export default function() {\n}\n")
}

func TestMinify(t *testing.T) {
	expectPrintedMinify(t, stmts(
		test.Const("a", test.Await(test.Call(test.Id("__require__"), test.Str("x")))),
		test.ExprStmt(test.Call(test.Dot(test.Id("console"), "log"), test.Id("a"))),
	), "const a=await __require__(\"x\");console.log(a);")
}

func TestBindings(t *testing.T) {
	object := js_ast.Binding{Data: &js_ast.BObject{Properties: []js_ast.PropertyBinding{
		{Key: test.Str("a"), Value: test.BId("a")},
		{Key: test.Str("b"), Value: test.BId("c"), DefaultValueOrNil: test.Num(1)},
	}}}
	array := js_ast.Binding{Data: &js_ast.BArray{Items: []js_ast.ArrayBinding{
		{Binding: test.BId("d")},
		{Binding: js_ast.Binding{Data: &js_ast.BMissing{}}},
		{Binding: test.BId("e")},
	}, HasSpread: true}}
	expectPrinted(t, stmts(test.Local(js_ast.LocalConst, test.Decl(object, test.Id("o")), test.Decl(array, test.Id("p")))),
		"const { a, b: c = 1 } = o, [d, , ...e] = p;\n")
}
