package js_ast_test

import (
	"testing"

	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/js_printer"
	"github.com/asyncrequire/asyncrequire/internal/logger"
	"github.com/asyncrequire/asyncrequire/internal/test"
)

func TestDotChain(t *testing.T) {
	test.AssertEqualWithDiff(t, js_printer.PrintExpr(js_ast.DotChain(logger.Loc{}, "exports")), "exports")
	test.AssertEqualWithDiff(t, js_printer.PrintExpr(js_ast.DotChain(logger.Loc{}, "module.exports")), "module.exports")

	test.AssertEqual(t, js_ast.IsDotChain("module.exports"), true)
	test.AssertEqual(t, js_ast.IsDotChain("exports"), true)
	test.AssertEqual(t, js_ast.IsDotChain(""), false)
	test.AssertEqual(t, js_ast.IsDotChain(".exports"), false)
	test.AssertEqual(t, js_ast.IsDotChain("module.exports[0]"), false)
}

func TestMember(t *testing.T) {
	test.AssertEqualWithDiff(t, js_printer.PrintExpr(js_ast.Member(logger.Loc{}, test.Id("exports"), "a")), "exports.a")
	test.AssertEqualWithDiff(t, js_printer.PrintExpr(js_ast.Member(logger.Loc{}, test.Id("exports"), "a-b")), "exports[\"a-b\"]")
	test.AssertEqualWithDiff(t, js_printer.PrintExpr(js_ast.Member(logger.Loc{}, test.Id("exports"), "default")), "exports.default")
}

func TestJoinWithComma(t *testing.T) {
	test.AssertEqualWithDiff(t, js_printer.PrintExpr(js_ast.JoinAllWithComma([]js_ast.Expr{
		test.Id("a"), test.Id("b"), test.Id("c"),
	})), "a, b, c")
	test.AssertEqualWithDiff(t, js_printer.PrintExpr(js_ast.JoinWithComma(js_ast.Expr{}, test.Id("b"))), "b")
	if js_ast.JoinAllWithComma(nil).Data != nil {
		t.Fatal("Expected an empty expression")
	}
}

func TestBindingNames(t *testing.T) {
	loc := func(start int32) logger.Loc { return logger.Loc{Start: start} }

	// [a, , ...{b, c: d}]
	binding := js_ast.Binding{Data: &js_ast.BArray{
		HasSpread: true,
		Items: []js_ast.ArrayBinding{
			{Binding: js_ast.Binding{Loc: loc(1), Data: &js_ast.BIdentifier{Name: "a"}}},
			{Binding: js_ast.Binding{Data: &js_ast.BMissing{}}},
			{Binding: js_ast.Binding{Data: &js_ast.BObject{Properties: []js_ast.PropertyBinding{
				{Key: test.Str("b"), Value: js_ast.Binding{Loc: loc(10), Data: &js_ast.BIdentifier{Name: "b"}}},
				{Key: test.Str("c"), Value: js_ast.Binding{Loc: loc(16), Data: &js_ast.BIdentifier{Name: "d"}}},
			}}}},
		},
	}}

	names := js_ast.BindingNames(binding)
	test.AssertEqual(t, len(names), 3)
	test.AssertEqual(t, names[0], js_ast.LocName{Loc: loc(1), Name: "a"})
	test.AssertEqual(t, names[1], js_ast.LocName{Loc: loc(10), Name: "b"})
	test.AssertEqual(t, names[2], js_ast.LocName{Loc: loc(16), Name: "d"})
}

func TestIdentifiers(t *testing.T) {
	test.AssertEqual(t, js_ast.IsIdentifier("__require__"), true)
	test.AssertEqual(t, js_ast.IsIdentifier("$"), true)
	test.AssertEqual(t, js_ast.IsIdentifier("été"), true)
	test.AssertEqual(t, js_ast.IsIdentifier("1a"), false)
	test.AssertEqual(t, js_ast.IsIdentifier("a-b"), false)
	test.AssertEqual(t, js_ast.IsIdentifier(""), false)

	// Keywords are identifiers but can't be declared
	test.AssertEqual(t, js_ast.IsIdentifier("class"), true)
	test.AssertEqual(t, js_ast.IsBindingName("class"), false)
	test.AssertEqual(t, js_ast.IsBindingName("let"), false)
	test.AssertEqual(t, js_ast.IsBindingName("require"), true)
}

func TestIsOptionalChain(t *testing.T) {
	test.AssertEqual(t, js_ast.IsOptionalChain(test.Dot(test.Id("a"), "b")), false)
	test.AssertEqual(t, js_ast.IsOptionalChain(test.E(&js_ast.EDot{
		Target:        test.Id("a"),
		Name:          "b",
		OptionalChain: js_ast.OptionalChainStart,
	})), true)
	test.AssertEqual(t, js_ast.IsOptionalChain(test.E(&js_ast.ECall{
		Target:        test.Id("f"),
		OptionalChain: js_ast.OptionalChainContinue,
	})), true)
}
