package config

import (
	"fmt"

	"github.com/asyncrequire/asyncrequire/internal/js_ast"
)

type OutputFormat uint8

const (
	// The rewritten tree is written back out as ESTree JSON so the host can
	// hand it to its own printer
	FormatJSON OutputFormat = iota

	// The rewritten tree is printed as JavaScript. This is mostly useful for
	// looking at what the rewrite did.
	FormatJS
)

func (f OutputFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatJS:
		return "js"
	default:
		panic("Internal error")
	}
}

type StdinInfo struct {
	Contents   string
	SourceFile string
}

type Options struct {
	// The asynchronous loader that static imports and "require()" calls are
	// redirected to
	RequireName string

	// The asynchronous loader that "import()" expressions are redirected to
	ImportName string

	// The container that exported bindings are assigned to. This may be a
	// dotted path such as "module.exports".
	ExportsObject string

	// By default an import with several specifiers loads its module once:
	//
	//   import a, {b} from 'x'
	//
	// becomes
	//
	//   const __mod_0__ = await __require__('x'), a = __mod_0__, b = __mod_0__.b;
	//
	// Setting this restores one awaited load per specifier.
	PerSpecifierLoads bool

	// Default imports normally bind the loaded module itself, which makes
	// them indistinguishable from namespace imports. Setting this makes them
	// read the "default" property instead.
	DefaultImportInterop bool

	OutputFormat OutputFormat
	Stdin        *StdinInfo
}

func Default() Options {
	return Options{
		RequireName:   "__require__",
		ImportName:    "__import__",
		ExportsObject: "exports",
	}
}

// Validate rejects names that would make the rewritten program invalid
func (options *Options) Validate() error {
	if !js_ast.IsBindingName(options.RequireName) {
		return fmt.Errorf("Invalid require name: %q", options.RequireName)
	}
	if !js_ast.IsBindingName(options.ImportName) {
		return fmt.Errorf("Invalid import name: %q", options.ImportName)
	}
	if options.RequireName == options.ImportName {
		return fmt.Errorf("The require name and the import name must be different (both are %q)", options.RequireName)
	}
	if !js_ast.IsDotChain(options.ExportsObject) {
		return fmt.Errorf("Invalid exports object: %q", options.ExportsObject)
	}
	return nil
}
