package api

// This package is the public interface to the rewriter. The input is a
// program tree in ESTree JSON form, which is what JavaScript parsers such as
// acorn and babel produce, and the output is the rewritten tree in the same
// form (or printed JavaScript for debugging).
//
//   result := api.Transform(tree, api.TransformOptions{
//     LogLevel: api.LogLevelWarning,
//   })
//   if len(result.Errors) == 0 {
//     os.Stdout.Write(result.Tree)
//   }

type Format uint8

const (
	FormatDefault Format = iota
	FormatESTree
	FormatJS
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	// This is empty for errors. Warnings that can be silenced or promoted
	// with "LogOverride" carry their identifier here.
	ID string

	Text     string
	Location *Location
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelVerbose
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

////////////////////////////////////////////////////////////////////////////////
// Transform API

type TransformOptions struct {
	Color       StderrColor
	ErrorLimit  int
	LogLevel    LogLevel
	LogOverride map[string]LogLevel

	// These default to "__require__", "__import__", and "exports"
	RequireName   string
	ImportName    string
	ExportsObject string

	PerSpecifierLoads    bool
	DefaultImportInterop bool

	Format           Format
	MinifyWhitespace bool

	// The tree only contains byte offsets. Setting these lets messages show
	// the file name, line, and column of the problem.
	Sourcefile string
	Source     string
}

type TransformResult struct {
	Errors   []Message
	Warnings []Message

	// Only one of these is set, depending on "Format"
	Tree []byte
	JS   []byte
}

// Transform is safe to call from multiple goroutines at once
func Transform(tree []byte, options TransformOptions) TransformResult {
	return transformImpl(tree, options)
}
