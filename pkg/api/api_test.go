package api

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/asyncrequire/asyncrequire/internal/estree"
	"github.com/asyncrequire/asyncrequire/internal/js_printer"
)

// import foo from "bar";
const importTree = `{"type": "Program", "start": 0, "sourceType": "module", "body": [{
	"type": "ImportDeclaration", "start": 0,
	"specifiers": [{"type": "ImportDefaultSpecifier", "start": 7, "local": {"type": "Identifier", "start": 7, "name": "foo"}}],
	"source": {"type": "Literal", "start": 16, "value": "bar"}
}]}`

// export * from "x";
const exportStarTree = `{"type": "Program", "start": 0, "sourceType": "module", "body": [{
	"type": "ExportAllDeclaration", "start": 0, "exported": null,
	"source": {"type": "Literal", "start": 14, "value": "x"}
}]}`

// const require = 1;
const requireTree = `{"type": "Program", "start": 0, "sourceType": "module", "body": [{
	"type": "VariableDeclaration", "start": 0, "kind": "const",
	"declarations": [{
		"type": "VariableDeclarator", "start": 6,
		"id": {"type": "Identifier", "start": 6, "name": "require"},
		"init": {"type": "Literal", "start": 16, "value": 1}
	}]
}]}`

func TestTransformTree(t *testing.T) {
	result := Transform([]byte(importTree), TransformOptions{})
	require.Empty(t, result.Errors)
	require.Empty(t, result.Warnings)
	require.Nil(t, result.JS)

	program, err := estree.Decode(result.Tree)
	require.NoError(t, err)
	assert.Equal(t, "const foo = await __require__(\"bar\");\n", string(js_printer.Print(program, js_printer.Options{}).JS))
}

func TestTransformJS(t *testing.T) {
	result := Transform([]byte(importTree), TransformOptions{Format: FormatJS})
	require.Empty(t, result.Errors)
	require.Nil(t, result.Tree)
	assert.Equal(t, "const foo = await __require__(\"bar\");\n", string(result.JS))

	result = Transform([]byte(importTree), TransformOptions{Format: FormatJS, MinifyWhitespace: true})
	require.Empty(t, result.Errors)
	assert.Equal(t, "const foo=await __require__(\"bar\");", string(result.JS))
}

func TestTransformCustomNames(t *testing.T) {
	result := Transform([]byte(importTree), TransformOptions{
		Format:               FormatJS,
		RequireName:          "load",
		DefaultImportInterop: true,
	})
	require.Empty(t, result.Errors)
	assert.Equal(t, "const foo = (await load(\"bar\")).default;\n", string(result.JS))
}

func TestTransformInvalidOptions(t *testing.T) {
	result := Transform([]byte(importTree), TransformOptions{RequireName: "not valid"})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invalid require name: \"not valid\"", result.Errors[0].Text)
	assert.Nil(t, result.Errors[0].Location)
	assert.Nil(t, result.Tree)

	result = Transform([]byte(importTree), TransformOptions{RequireName: "load", ImportName: "load"})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "The require name and the import name must be different (both are \"load\")", result.Errors[0].Text)

	result = Transform([]byte(importTree), TransformOptions{ExportsObject: "module..exports"})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invalid exports object: \"module..exports\"", result.Errors[0].Text)
}

func TestTransformInvalidTree(t *testing.T) {
	result := Transform([]byte(`{"type": "Program", "sourceType": "module", "body": [{"type": "Foo"}]}`), TransformOptions{})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invalid input tree at body[0] (Foo): Unknown statement type \"Foo\"", result.Errors[0].Text)
	assert.Nil(t, result.Tree)
	assert.Nil(t, result.JS)

	result = Transform([]byte(`not json`), TransformOptions{})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Text, "Invalid input tree at <root>: Invalid JSON")
}

func TestTransformRewriteError(t *testing.T) {
	result := Transform([]byte(exportStarTree), TransformOptions{})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Cannot rewrite \"export *\" from \"x\" because the names it re-exports are not known until that module is loaded",
		result.Errors[0].Text)
	assert.Nil(t, result.Errors[0].Location)
	assert.Nil(t, result.Tree)

	// The original text lets the error point at the statement
	result = Transform([]byte(exportStarTree), TransformOptions{
		Sourcefile: "entry.js",
		Source:     "export * from \"x\";\n",
	})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, &Location{
		File:     "entry.js",
		Line:     1,
		Column:   0,
		LineText: "export * from \"x\";",
	}, result.Errors[0].Location)
}

func TestTransformWarnings(t *testing.T) {
	result := Transform([]byte(requireTree), TransformOptions{Source: "const require = 1;"})
	require.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, Message{
		ID:   "local-require-binding",
		Text: "Calls to the local binding \"require\" will still be renamed to \"__require__\"",
		Location: &Location{
			File:     "<stdin>",
			Line:     1,
			Column:   6,
			LineText: "const require = 1;",
		},
	}, result.Warnings[0])
	assert.NotNil(t, result.Tree)

	// Warnings can be silenced
	result = Transform([]byte(requireTree), TransformOptions{
		LogOverride: map[string]LogLevel{"local-require-binding": LogLevelSilent},
	})
	require.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)

	// Warnings can also be turned into errors, which means there is no output
	result = Transform([]byte(requireTree), TransformOptions{
		LogOverride: map[string]LogLevel{"local-require-binding": LogLevelError},
	})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "local-require-binding", result.Errors[0].ID)
	assert.Nil(t, result.Tree)
}

func TestTransformConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]TransformResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Transform([]byte(importTree), TransformOptions{Format: FormatJS})
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		require.Empty(t, result.Errors)
		assert.Equal(t, "const foo = await __require__(\"bar\");\n", string(result.JS))
	}
}

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	result := Transform([]byte(importTree), TransformOptions{Sourcefile: "in.js"})
	require.Empty(t, result.Errors)

	entries := logs.FilterMessage("Transformed tree").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "in.js", fields["sourcefile"])
	assert.Equal(t, int64(1), fields["statements"])

	// A nil logger falls back to the no-op logger
	SetLogger(nil)
	assert.NotPanics(t, func() {
		result = Transform([]byte(importTree), TransformOptions{})
	})
	require.Empty(t, result.Errors)
	assert.Equal(t, 1, logs.Len())
}
