package estree

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asyncrequire/asyncrequire/internal/config"
	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/js_printer"
	"github.com/asyncrequire/asyncrequire/internal/logger"
	"github.com/asyncrequire/asyncrequire/internal/rewriter"
	"github.com/asyncrequire/asyncrequire/internal/test"
)

func print(program js_ast.Program) string {
	return string(js_printer.Print(program, js_printer.Options{}).JS)
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return contents
}

var fixtures = []string{
	"imports",
	"reexports",
	"statements",
	"script",
}

// Each "testdata/NAME.json" tree is decoded and rewritten, and the printed
// result must match "testdata/NAME.js"
func TestFixtures(t *testing.T) {
	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			program, err := Decode(readFixture(t, name+".json"))
			require.NoError(t, err)

			result, err := rewriter.Rewrite(logger.NewDeferLog(nil), nil, program, config.Default())
			require.NoError(t, err)
			assert.Equal(t, string(readFixture(t, name+".js")), print(result))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			original, err := Decode(readFixture(t, name+".json"))
			require.NoError(t, err)

			encoded, err := Encode(original)
			require.NoError(t, err)
			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, print(original), print(decoded))

			// Encoding is stable once the tree has been through the decoder
			again, err := Encode(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(encoded), string(again))
		})
	}
}

func TestRoundTripRewritten(t *testing.T) {
	program, err := Decode(readFixture(t, "imports.json"))
	require.NoError(t, err)
	result, err := rewriter.Rewrite(logger.NewDeferLog(nil), nil, program, config.Default())
	require.NoError(t, err)

	encoded, err := Encode(result)
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, print(result), print(decoded))
}

func TestLocations(t *testing.T) {
	program, err := Decode(readFixture(t, "imports.json"))
	require.NoError(t, err)

	body := program.Body()
	require.Len(t, body, 4)
	assert.Equal(t, logger.Loc{Start: 23}, body[1].Loc)

	s, ok := body[1].Data.(*js_ast.SImport)
	require.True(t, ok)
	assert.Equal(t, logger.Loc{Start: 48}, s.PathLoc)
	assert.Equal(t, logger.Loc{Start: 35}, s.Specifiers[1].Loc)
	named, ok := s.Specifiers[1].Data.(*js_ast.ISNamed)
	require.True(t, ok)
	assert.Equal(t, js_ast.LocName{Loc: logger.Loc{Start: 40}, Name: "c"}, named.Local)
	assert.Equal(t, "b", named.ImportedName())
}

func encodeExpr(t *testing.T, expr js_ast.Expr) string {
	t.Helper()
	contents, err := json.Marshal(encoder{}.expr(expr))
	require.NoError(t, err)
	return string(contents)
}

func TestEncode(t *testing.T) {
	encoded, err := Encode(test.Module(test.ExprStmt(test.Call(test.Id("f"), test.Str("x")))))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "Program", "start": 0, "sourceType": "module",
		"body": [{
			"type": "ExpressionStatement", "start": 0,
			"expression": {
				"type": "CallExpression", "start": 0,
				"callee": {"type": "Identifier", "start": 0, "name": "f"},
				"arguments": [{"type": "Literal", "start": 0, "value": "x"}],
				"optional": false
			}
		}]
	}`, string(encoded))
}

func TestEncodeNumbers(t *testing.T) {
	assert.JSONEq(t, `{"type": "Literal", "start": 0, "value": 1.5}`, encodeExpr(t, test.Num(1.5)))
	assert.JSONEq(t, `{
		"type": "UnaryExpression", "start": 0, "operator": "-", "prefix": true,
		"argument": {"type": "Literal", "start": 0, "value": 2}
	}`, encodeExpr(t, test.Num(-2)))
	assert.JSONEq(t, `{"type": "Identifier", "start": 0, "name": "NaN"}`, encodeExpr(t, test.Num(math.NaN())))
}

func TestOptionalChains(t *testing.T) {
	// a?.b.c
	inner := test.E(&js_ast.EDot{Target: test.Id("a"), Name: "b", OptionalChain: js_ast.OptionalChainStart})
	outer := test.E(&js_ast.EDot{Target: inner, Name: "c", OptionalChain: js_ast.OptionalChainContinue})
	chain := encodeExpr(t, outer)
	assert.JSONEq(t, `{
		"type": "ChainExpression", "start": 0,
		"expression": {
			"type": "MemberExpression", "start": 0,
			"object": {
				"type": "MemberExpression", "start": 0,
				"object": {"type": "Identifier", "start": 0, "name": "a"},
				"property": {"type": "Identifier", "start": 0, "name": "b"},
				"computed": false,
				"optional": true
			},
			"property": {"type": "Identifier", "start": 0, "name": "c"},
			"computed": false,
			"optional": false
		}
	}`, chain)

	// (a?.b).c
	outer = test.E(&js_ast.EDot{Target: inner, Name: "c"})
	parenthesized := encodeExpr(t, outer)
	assert.JSONEq(t, `{
		"type": "MemberExpression", "start": 0,
		"object": {
			"type": "ChainExpression", "start": 0,
			"expression": {
				"type": "MemberExpression", "start": 0,
				"object": {"type": "Identifier", "start": 0, "name": "a"},
				"property": {"type": "Identifier", "start": 0, "name": "b"},
				"computed": false,
				"optional": true
			}
		},
		"property": {"type": "Identifier", "start": 0, "name": "c"},
		"computed": false,
		"optional": false
	}`, parenthesized)

	for expected, contents := range map[string]string{
		"a?.b.c;\n":   chain,
		"(a?.b).c;\n": parenthesized,
	} {
		program, err := Decode([]byte(`{"type": "Program", "sourceType": "module", "body": [
			{"type": "ExpressionStatement", "expression": ` + contents + `}
		]}`))
		require.NoError(t, err)
		assert.Equal(t, expected, print(program))
	}
}

func TestImportAttributes(t *testing.T) {
	for _, key := range []string{"attributes", "assertions"} {
		program, err := Decode([]byte(`{"type": "Program", "sourceType": "module", "body": [{
			"type": "ImportDeclaration",
			"specifiers": [],
			"source": {"type": "Literal", "value": "./data.json"},
			"` + key + `": [{
				"type": "ImportAttribute",
				"key": {"type": "Identifier", "name": "type"},
				"value": {"type": "Literal", "value": "json"}
			}]
		}]}`))
		require.NoError(t, err)
		assert.Equal(t, "import \"./data.json\" with { type: \"json\" };\n", print(program))
	}
}

func TestDecodeErrors(t *testing.T) {
	expectError := func(contents string, path string, nodeType string, text string) {
		t.Helper()
		_, err := Decode([]byte(contents))
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr), "expected a decode error but got %v", err)
		assert.Equal(t, path, decodeErr.Path)
		assert.Equal(t, nodeType, decodeErr.Type)
		assert.Equal(t, text, decodeErr.Text)
	}

	expectError(`{"type": "Identifier", "name": "x"}`,
		"<root>", "Identifier", "Expected a Program node but found \"Identifier\"")
	expectError(`[]`,
		"<root>", "", "Expected a node but found an array")
	expectError(`{"type": "Program", "sourceType": "module", "body": [{"type": "Foo"}]}`,
		"body[0]", "Foo", "Unknown statement type \"Foo\"")
	expectError(`{"type": "Program", "sourceType": "module", "body": [{"type": "ExpressionStatement"}]}`,
		"body[0]", "ExpressionStatement", "Missing required field \"expression\"")
	expectError(`{"type": "Program", "sourceType": "module", "body": [{
		"type": "ImportDeclaration", "specifiers": [], "source": {"type": "Identifier", "name": "x"}
	}]}`, "body[0].source", "Identifier", "Expected a string literal")
	expectError(`{"type": "Program", "sourceType": "module", "body": [{
		"type": "ExpressionStatement",
		"expression": {"type": "CallExpression", "callee": {"type": "Identifier", "name": "f"}, "arguments": [{"type": "Bogus"}]}
	}]}`, "body[0].expression.arguments[0]", "Bogus", "Unknown expression type \"Bogus\"")
	expectError(`{"type": "Program", "sourceType": "script", "body": [{
		"type": "ImportDeclaration", "specifiers": [], "source": {"type": "Literal", "value": "x"}
	}]}`, "body[0]", "ImportDeclaration", "Import and export declarations are only allowed when \"sourceType\" is \"module\"")
	expectError(`{"type": "Program", "sourceType": "module", "body": [{
		"type": "VariableDeclaration", "kind": "using", "declarations": []
	}]}`, "body[0]", "VariableDeclaration", "Unsupported declaration kind \"using\"")
	expectError(`{"type": "Program", "sourceType": "module", "body": [{
		"type": "ExpressionStatement", "expression": {"type": "Identifier", "name": 1}
	}]}`, "body[0].expression", "Identifier", "Expected \"name\" to be a string but found a number")

	_, err := Decode([]byte(`{`))
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "<root>", decodeErr.Path)
	assert.Contains(t, decodeErr.Text, "Invalid JSON")
}

func TestDecodeError(t *testing.T) {
	err := &DecodeError{Path: "body[0]", Type: "Foo", Text: "Unknown statement type \"Foo\""}
	assert.Equal(t, "body[0] (Foo): Unknown statement type \"Foo\"", err.Error())

	err = &DecodeError{Path: "<root>", Text: "Invalid JSON: unexpected EOF"}
	assert.Equal(t, "<root>: Invalid JSON: unexpected EOF", err.Error())
}
