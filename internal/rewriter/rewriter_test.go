package rewriter

import (
	"errors"
	"sync"
	"testing"

	"github.com/asyncrequire/asyncrequire/internal/config"
	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/js_printer"
	"github.com/asyncrequire/asyncrequire/internal/logger"
	"github.com/asyncrequire/asyncrequire/internal/test"
)

func print(program js_ast.Program) string {
	return string(js_printer.Print(program, js_printer.Options{}).JS)
}

func expectRewrittenCommon(t *testing.T, program js_ast.Program, expected string, options config.Options) {
	t.Helper()
	t.Run(expected, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog(nil)
		result, err := Rewrite(log, nil, program, options)
		if err != nil {
			t.Fatal(err)
		}
		msgs := log.Done()
		text := ""
		for _, msg := range msgs {
			text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
		}
		test.AssertEqualWithDiff(t, text, "")
		test.AssertEqualWithDiff(t, print(result), expected)
	})
}

func expectRewritten(t *testing.T, program js_ast.Program, expected string) {
	t.Helper()
	expectRewrittenCommon(t, program, expected, config.Default())
}

func expectRewrittenPerSpecifier(t *testing.T, program js_ast.Program, expected string) {
	t.Helper()
	options := config.Default()
	options.PerSpecifierLoads = true
	expectRewrittenCommon(t, program, expected, options)
}

func expectRewriteError(t *testing.T, program js_ast.Program, kind ErrorKind, text string) {
	t.Helper()
	t.Run(text, func(t *testing.T) {
		t.Helper()
		_, err := Rewrite(logger.NewDeferLog(nil), nil, program, config.Default())
		var rewriteErr *Error
		if !errors.As(err, &rewriteErr) {
			t.Fatalf("Expected a rewrite error but got %v", err)
		}
		test.AssertEqual(t, rewriteErr.Kind, kind)
		test.AssertEqualWithDiff(t, rewriteErr.Text, text)
	})
}

func expectWarnings(t *testing.T, program js_ast.Program, options config.Options, expected string) {
	t.Helper()
	t.Run(expected, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog(nil)
		source := test.SourceForTest("")
		if _, err := Rewrite(log, &source, program, options); err != nil {
			t.Fatal(err)
		}
		text := ""
		for _, msg := range log.Done() {
			text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
		}
		test.AssertEqualWithDiff(t, text, expected)
	})
}

func requireCall(path string) js_ast.Expr {
	return test.Call(test.Id("require"), test.Str(path))
}

func consoleLog(args ...js_ast.Expr) js_ast.Stmt {
	return test.ExprStmt(test.Call(test.Dot(test.Id("console"), "log"), args...))
}

func TestImportDefault(t *testing.T) {
	expectRewritten(t, test.Module(
		test.Import("bar", test.Default("foo")),
		consoleLog(test.Id("foo")),
	), "const foo = await __require__(\"bar\");\nconsole.log(foo);\n")
}

func TestImportNamed(t *testing.T) {
	expectRewritten(t, test.Module(test.Import("x", test.Named("a", ""))),
		"const a = (await __require__(\"x\")).a;\n")
	expectRewritten(t, test.Module(test.Import("x", test.Named("a", "b"))),
		"const b = (await __require__(\"x\")).a;\n")
	expectRewritten(t, test.Module(test.Import("x", test.Named("default", "b"))),
		"const b = (await __require__(\"x\")).default;\n")
	expectRewritten(t, test.Module(test.Import("x", test.Named("a-b", "c"))),
		"const c = (await __require__(\"x\"))[\"a-b\"];\n")
}

func TestImportNamespace(t *testing.T) {
	// Namespace imports are not distinguished from default imports
	expectRewritten(t, test.Module(test.Import("x", test.Namespace("ns"))),
		"const ns = await __require__(\"x\");\n")
}

func TestImportBare(t *testing.T) {
	expectRewritten(t, test.Module(test.Import("x")), "await __require__(\"x\");\n")
	expectRewritten(t, test.Module(test.Import("a"), test.Import("b")),
		"await __require__(\"a\");\nawait __require__(\"b\");\n")
}

func TestImportHoisting(t *testing.T) {
	expectRewritten(t, test.Module(test.Import("x", test.Default("a"), test.Named("b", ""), test.Named("c", "d"))),
		"const __mod_0__ = await __require__(\"x\"), a = __mod_0__, b = __mod_0__.b, d = __mod_0__.c;\n")
	expectRewritten(t, test.Module(test.Import("x", test.Default("a"), test.Namespace("ns"))),
		"const __mod_0__ = await __require__(\"x\"), a = __mod_0__, ns = __mod_0__;\n")
	expectRewritten(t, test.Module(
		test.Import("x", test.Named("a", ""), test.Named("b", "")),
		test.Import("y", test.Named("c", ""), test.Named("d", "")),
	), "const __mod_0__ = await __require__(\"x\"), a = __mod_0__.a, b = __mod_0__.b;\n"+
		"const __mod_1__ = await __require__(\"y\"), c = __mod_1__.c, d = __mod_1__.d;\n")
}

func TestImportPerSpecifier(t *testing.T) {
	expectRewrittenPerSpecifier(t, test.Module(test.Import("x", test.Default("a"), test.Named("b", ""))),
		"const a = await __require__(\"x\"), b = (await __require__(\"x\")).b;\n")
	expectRewrittenPerSpecifier(t, test.Module(test.ExportFrom("x", test.Item("a", ""), test.Item("b", "c"))),
		"exports.a = (await __require__(\"x\")).a;\nexports.c = (await __require__(\"x\")).b;\n")
}

func TestImportDefaultInterop(t *testing.T) {
	options := config.Default()
	options.DefaultImportInterop = true
	expectRewrittenCommon(t, test.Module(test.Import("x", test.Default("a"))),
		"const a = (await __require__(\"x\")).default;\n", options)
	expectRewrittenCommon(t, test.Module(test.Import("x", test.Default("a"), test.Namespace("ns"))),
		"const __mod_0__ = await __require__(\"x\"), a = __mod_0__.default, ns = __mod_0__;\n", options)
}

func TestSyntheticNamesAvoidCollisions(t *testing.T) {
	// The names are reserved even when they appear after the import
	expectRewritten(t, test.Module(
		test.Import("x", test.Named("a", ""), test.Named("b", "")),
		test.Const("__mod_0__", test.Num(1)),
		test.ExprStmt(test.Id("__mod_1__")),
	), "const __mod_2__ = await __require__(\"x\"), a = __mod_2__.a, b = __mod_2__.b;\n"+
		"const __mod_0__ = 1;\n__mod_1__;\n")
}

func TestExportDefault(t *testing.T) {
	value := test.Binary(js_ast.BinOpAdd, test.Id("a"), test.Num(1))
	expectRewritten(t, test.Module(test.ExportDefault(test.ExprStmt(value))), "exports.default = a + 1;\n")
	expectRewritten(t, test.Module(test.ExportDefault(test.Function("f", nil, test.Return(test.Num(1))))),
		"exports.default = function f() {\n  return 1;\n};\n")
	expectRewritten(t, test.Module(test.ExportDefault(test.Function("", nil))),
		"exports.default = function() {\n};\n")
	expectRewritten(t, test.Module(test.ExportDefault(test.Class("Foo"))),
		"exports.default = class Foo {\n};\n")
	expectRewritten(t, test.Module(test.ExportDefault(test.Class(""))),
		"exports.default = class {\n};\n")
}

func TestExportDefaultNameStillBound(t *testing.T) {
	// Other references to the name keep the declaration in place
	expectRewritten(t, test.Module(
		test.ExportDefault(test.Function("f", nil)),
		test.ExprStmt(test.Call(test.Id("f"))),
	), "function f() {\n}\nexports.default = f;\nf();\n")
	expectRewritten(t, test.Module(
		test.ExportDefault(test.Function("f", nil)),
		test.ExportClause(test.Item("f", "g")),
	), "function f() {\n}\nexports.default = f;\nexports.g = f;\n")
	expectRewritten(t, test.Module(
		test.ExportDefault(test.Class("Foo")),
		test.ExprStmt(test.Id("Foo")),
	), "class Foo {\n}\nexports.default = Foo;\nFoo;\n")

	// Without any, the declaration becomes an expression
	expectRewritten(t, test.Module(
		test.ExportDefault(test.Function("f", nil)),
		test.ExprStmt(test.Call(test.Id("g"))),
	), "exports.default = function f() {\n};\ng();\n")

	// A kept name can shadow a global the output refers to
	expectWarnings(t, test.Module(
		test.ExportDefault(test.Function("__require__", nil)),
		test.ExprStmt(test.Id("__require__")),
	), config.Default(),
		"<stdin>:1:0: warning: The top-level binding \"__require__\" shadows the global \"__require__\" that the rewritten module refers to\n")
	expectWarnings(t, test.Module(test.ExportDefault(test.Function("__require__", nil))), config.Default(), "")
}

func TestExportLocal(t *testing.T) {
	expectRewritten(t, test.Module(test.Export(test.Local(js_ast.LocalConst,
		test.Decl(test.BId("a"), test.Num(1)),
		test.Decl(test.BId("b"), test.Num(2)),
	))), "const a = 1, b = 2;\nexports.a = a;\nexports.b = b;\n")

	expectRewritten(t, test.Module(test.Export(test.Local(js_ast.LocalLet, test.Decl(test.BId("a"), js_ast.Expr{})))),
		"let a;\nexports.a = a;\n")

	destructuring := js_ast.Binding{Data: &js_ast.BObject{Properties: []js_ast.PropertyBinding{
		{Key: test.Str("b"), Value: test.BId("b")},
		{Key: test.Str("c"), Value: js_ast.Binding{Data: &js_ast.BArray{Items: []js_ast.ArrayBinding{{Binding: test.BId("d")}}}}},
	}}}
	expectRewritten(t, test.Module(test.Export(test.Local(js_ast.LocalConst, test.Decl(destructuring, test.Id("o"))))),
		"const { b, c: [d] } = o;\nexports.b = b;\nexports.d = d;\n")
}

func TestExportFunctionAndClass(t *testing.T) {
	expectRewritten(t, test.Module(test.Export(test.Function("f", nil, test.Return(test.Num(1))))),
		"function f() {\n  return 1;\n}\nexports.f = f;\n")
	expectRewritten(t, test.Module(test.Export(test.Class("Foo"))),
		"class Foo {\n}\nexports.Foo = Foo;\n")
}

func TestExportClause(t *testing.T) {
	expectRewritten(t, test.Module(
		test.Const("a", test.Num(1)),
		test.Const("b", test.Num(2)),
		test.ExportClause(test.Item("a", ""), test.Item("b", "c"), test.Item("a", "default")),
	), "const a = 1;\nconst b = 2;\nexports.a = a;\nexports.c = b;\nexports.default = a;\n")

	expectRewritten(t, test.Module(
		test.Import("x", test.Default("a")),
		test.ExportClause(test.Item("a", "a-b")),
	), "const a = await __require__(\"x\");\nexports[\"a-b\"] = a;\n")

	// Hoisted "var" declarations are module bindings too
	expectRewritten(t, test.Module(
		test.Block(test.Local(js_ast.LocalVar, test.Decl(test.BId("v"), test.Num(1)))),
		test.ExportClause(test.Item("v", "")),
	), "{\n  var v = 1;\n}\nexports.v = v;\n")
}

func TestExportFrom(t *testing.T) {
	expectRewritten(t, test.Module(test.ExportFrom("x", test.Item("a", "b"))),
		"exports.b = (await __require__(\"x\")).a;\n")
	expectRewritten(t, test.Module(test.ExportFrom("x", test.Item("a", ""), test.Item("default", "c"))),
		"const __mod_0__ = await __require__(\"x\");\nexports.a = __mod_0__.a;\nexports.c = __mod_0__.default;\n")
	expectRewritten(t, test.Module(test.ExportFrom("x")),
		"await __require__(\"x\");\n")
}

func TestExportStar(t *testing.T) {
	expectRewritten(t, test.Module(test.ExportStar("ns", "x")),
		"exports.ns = await __require__(\"x\");\n")
	expectRewriteError(t, test.Module(test.ExportStar("", "x")), UnsupportedConstruct,
		"Cannot rewrite \"export *\" from \"x\" because the names it re-exports are not known until that module is loaded")
}

func TestRequireCalls(t *testing.T) {
	expectRewritten(t, test.Module(test.Const("a", requireCall("x"))),
		"const a = __require__(\"x\");\n")
	expectRewritten(t, test.Module(test.ExprStmt(test.Call(test.Id("require"), test.Id("a"), test.Id("b")))),
		"__require__(a, b);\n")
	expectRewritten(t, test.Module(test.Function("f", nil, test.Return(requireCall("x")))),
		"function f() {\n  return __require__(\"x\");\n}\n")
	expectRewritten(t, test.Module(test.ExprStmt(test.Arrow(true, test.Return(test.Dot(requireCall("x"), "y"))))),
		"async () => {\n  return __require__(\"x\").y;\n};\n")
	expectRewritten(t, test.Module(test.ExprStmt(test.Call(test.Id("f"), requireCall("x")))),
		"f(__require__(\"x\"));\n")

	// Only calls to the bare identifier are renamed
	expectRewritten(t, test.Module(test.ExprStmt(test.Call(test.Dot(test.Id("obj"), "require"), test.Str("x")))),
		"obj.require(\"x\");\n")
	expectRewritten(t, test.Module(test.ExprStmt(test.Id("require"))),
		"require;\n")
}

func TestImportCalls(t *testing.T) {
	expectRewritten(t, test.Module(test.ExprStmt(test.ImportCall(test.Str("x")))),
		"__import__(\"x\");\n")
	expectRewritten(t, test.Module(test.Const("m", test.Await(test.ImportCall(test.Id("path"))))),
		"const m = await __import__(path);\n")
	expectRewritten(t, test.Module(test.ExprStmt(test.E(&js_ast.EImportCall{Expr: test.Str("x"), OptionsOrNil: test.Id("o")}))),
		"__import__(\"x\", o);\n")
}

func TestLoaderCallsInsideExports(t *testing.T) {
	expectRewritten(t, test.Module(test.ExportDefault(test.ExprStmt(requireCall("x")))),
		"exports.default = __require__(\"x\");\n")
	expectRewritten(t, test.Module(test.Export(test.Const("a", test.ImportCall(test.Str("x"))))),
		"const a = __import__(\"x\");\nexports.a = a;\n")
}

func TestCustomNames(t *testing.T) {
	options := config.Default()
	options.RequireName = "load"
	options.ImportName = "loadLazy"
	options.ExportsObject = "module.exports"
	expectRewrittenCommon(t, test.Module(
		test.Import("x", test.Default("a")),
		test.ExprStmt(test.ImportCall(test.Str("y"))),
		test.ExportDefault(test.ExprStmt(test.Id("a"))),
	), "const a = await load(\"x\");\nloadLazy(\"y\");\nmodule.exports.default = a;\n", options)
}

func TestOrderIsPreserved(t *testing.T) {
	expectRewritten(t, test.Module(
		consoleLog(test.Num(1)),
		test.Import("x", test.Default("a")),
		consoleLog(test.Num(2)),
		test.Export(test.Const("b", test.Num(3))),
		consoleLog(test.Num(4)),
	), "console.log(1);\nconst a = await __require__(\"x\");\nconsole.log(2);\nconst b = 3;\nexports.b = b;\nconsole.log(4);\n")
}

func TestScriptIsUnchanged(t *testing.T) {
	script := test.Script(test.Const("a", requireCall("x")))
	result, err := Rewrite(logger.NewDeferLog(nil), nil, script, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqualWithDiff(t, print(result), "const a = require(\"x\");\n")
}

func TestMalformedInput(t *testing.T) {
	expectRewriteError(t, test.Module(test.ExportClause(test.Item("missing", ""))), MalformedInput,
		"\"missing\" is exported but is not declared in this module")
	expectRewriteError(t, test.Module(test.Export(test.Function("", nil))), MalformedInput,
		"Exported function declarations must have a name")
	expectRewriteError(t, test.Module(test.Export(test.Class(""))), MalformedInput,
		"Exported class declarations must have a name")
	expectRewriteError(t, test.Module(test.Export(test.Local(js_ast.LocalLet))), MalformedInput,
		"Expected at least one declaration after \"export let\"")
	expectRewriteError(t, test.Module(test.Import("x", test.Default(""))), MalformedInput,
		"Missing the local name of an import from \"x\"")
	expectRewriteError(t, test.Module(test.ExportDefault(js_ast.Stmt{})), MalformedInput,
		"Expected an expression, function, or class after \"export default\"")
	expectRewriteError(t, test.Module(test.Block(test.Import("x"))), MalformedInput,
		"Import and export declarations may only appear at the top level of a module")

	// A later error still aborts the whole rewrite
	expectRewriteError(t, test.Module(test.Import("x", test.Default("a")), test.ExportStar("", "y")), UnsupportedConstruct,
		"Cannot rewrite \"export *\" from \"y\" because the names it re-exports are not known until that module is loaded")
}

func TestWarnings(t *testing.T) {
	expectWarnings(t, test.Module(test.Const("__require__", test.Num(1))), config.Default(),
		"<stdin>:1:0: warning: The top-level binding \"__require__\" shadows the global \"__require__\" that the rewritten module refers to\n")

	options := config.Default()
	options.ExportsObject = "module.exports"
	expectWarnings(t, test.Module(test.Function("module", nil)), options,
		"<stdin>:1:0: warning: The top-level binding \"module\" shadows the global \"module\" that the rewritten module refers to\n")

	expectWarnings(t, test.Module(test.Import("x", test.Default("require"))), config.Default(),
		"<stdin>:1:0: warning: Calls to the local binding \"require\" will still be renamed to \"__require__\"\n")

	expectWarnings(t, test.Module(test.S(&js_ast.SImport{Path: "x.json", Attributes: []js_ast.ImportAttribute{{Key: "type", Value: "json"}}})), config.Default(),
		"<stdin>:1:0: warning: The import attributes on \"x.json\" will be dropped since \"__require__\" does not take any\n")

	// Bindings inside functions don't shadow anything at the top level
	expectWarnings(t, test.Module(test.Function("f", nil, test.Const("__require__", test.Num(1)))), config.Default(), "")
}

func TestWarningOverrides(t *testing.T) {
	log := logger.NewDeferLog(map[logger.MsgID]logger.LogLevel{
		logger.MsgID_Rewrite_ShadowedPrimitive: logger.LevelSilent,
	})
	_, err := Rewrite(log, nil, test.Module(test.Const("exports", test.E(&js_ast.EObject{}))), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, len(log.Done()), 0)
}

func TestInputIsNotModified(t *testing.T) {
	input := test.Module(
		test.Import("x", test.Default("a"), test.Named("b", "")),
		test.Export(test.Const("c", requireCall("y"))),
		test.ExprStmt(test.ImportCall(test.Str("z"))),
	)
	before := print(input)
	if _, err := Rewrite(logger.NewDeferLog(nil), nil, input, config.Default()); err != nil {
		t.Fatal(err)
	}
	test.AssertEqualWithDiff(t, print(input), before)
}

func TestIdempotence(t *testing.T) {
	input := test.Module(
		test.Import("x", test.Default("a"), test.Named("b", "")),
		test.Import("side-effect"),
		test.Export(test.Function("f", nil, test.Return(requireCall("y")))),
		test.ExportDefault(test.ExprStmt(test.Await(test.ImportCall(test.Str("z"))))),
		test.ExportFrom("w", test.Item("c", "")),
		test.ExportStar("ns", "v"),
	)

	first, err := Rewrite(logger.NewDeferLog(nil), nil, input, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Rewrite(logger.NewDeferLog(nil), nil, first, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqualWithDiff(t, print(second), print(first))

	for _, stmt := range first.Body() {
		switch stmt.Data.(type) {
		case *js_ast.SImport, *js_ast.SExportClause, *js_ast.SExportDefault, *js_ast.SExportFrom, *js_ast.SExportStar:
			t.Fatalf("Unexpected module declaration %T", stmt.Data)
		}
	}
}

func TestConcurrentRewrites(t *testing.T) {
	input := test.Module(
		test.Import("x", test.Named("a", ""), test.Named("b", "")),
		test.ExprStmt(requireCall("y")),
	)
	expected := "const __mod_0__ = await __require__(\"x\"), a = __mod_0__.a, b = __mod_0__.b;\n__require__(\"y\");\n"

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := Rewrite(logger.NewDeferLog(nil), nil, input, config.Default())
			if err == nil {
				results[i] = print(result)
			}
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		test.AssertEqualWithDiff(t, result, expected)
	}
}
