package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/asyncrequire/asyncrequire/internal/logger"
	"github.com/asyncrequire/asyncrequire/pkg/api"
)

func newTransformOptions() api.TransformOptions {
	return api.TransformOptions{
		LogOverride: make(map[string]api.LogLevel),
	}
}

type parseOptionsKind uint8

const (
	// This means we're parsing it for our own internal use
	kindInternal parseOptionsKind = iota

	// This means the result is returned through a public API
	kindExternal
)

// Paths only make sense for the command-line tool itself. They are nil when
// the options are parsed for someone else.
type fileOptions struct {
	inputFile    string
	originalFile string
	outfile      string
}

func parseLogLevel(value string, arg string) (api.LogLevel, error) {
	switch value {
	case "verbose":
		return api.LogLevelVerbose, nil
	case "info":
		return api.LogLevelInfo, nil
	case "warning":
		return api.LogLevelWarning, nil
	case "error":
		return api.LogLevelError, nil
	case "silent":
		return api.LogLevelSilent, nil
	default:
		return api.LogLevelSilent, fmt.Errorf("Invalid log level: %q (valid: verbose, info, warning, error, silent)", arg)
	}
}

func parseOptionsImpl(
	osArgs []string,
	transformOpts *api.TransformOptions,
	files *fileOptions,
	kind parseOptionsKind,
) error {
	for _, arg := range osArgs {
		switch {
		case strings.HasPrefix(arg, "--require-name="):
			transformOpts.RequireName = arg[len("--require-name="):]

		case strings.HasPrefix(arg, "--import-name="):
			transformOpts.ImportName = arg[len("--import-name="):]

		case strings.HasPrefix(arg, "--exports="):
			transformOpts.ExportsObject = arg[len("--exports="):]

		case arg == "--per-specifier":
			transformOpts.PerSpecifierLoads = true

		case arg == "--default-interop":
			transformOpts.DefaultImportInterop = true

		case arg == "--minify-whitespace":
			transformOpts.MinifyWhitespace = true

		case strings.HasPrefix(arg, "--format="):
			value := arg[len("--format="):]
			switch value {
			case "json", "estree":
				transformOpts.Format = api.FormatESTree
			case "js":
				transformOpts.Format = api.FormatJS
			default:
				return fmt.Errorf("Invalid format: %q (valid: json, js)", value)
			}

		case strings.HasPrefix(arg, "--sourcefile="):
			transformOpts.Sourcefile = arg[len("--sourcefile="):]

		case strings.HasPrefix(arg, "--original=") && files != nil:
			files.originalFile = arg[len("--original="):]

		case strings.HasPrefix(arg, "--outfile=") && files != nil:
			files.outfile = arg[len("--outfile="):]

		case strings.HasPrefix(arg, "--error-limit="), strings.HasPrefix(arg, "--log-limit="):
			value := arg[strings.IndexByte(arg, '=')+1:]
			limit, err := strconv.Atoi(value)
			if err != nil || limit < 0 {
				return fmt.Errorf("Invalid log limit: %q", value)
			}
			transformOpts.ErrorLimit = limit

		// Make sure this stays in sync with "PrintErrorToStderr"
		case strings.HasPrefix(arg, "--color="):
			value := arg[len("--color="):]
			switch value {
			case "false":
				transformOpts.Color = api.ColorNever
			case "true":
				transformOpts.Color = api.ColorAlways
			default:
				return fmt.Errorf("Invalid color: %q (valid: false, true)", value)
			}

		// Make sure this stays in sync with "PrintErrorToStderr"
		case strings.HasPrefix(arg, "--log-level="):
			logLevel, err := parseLogLevel(arg[len("--log-level="):], arg)
			if err != nil {
				return err
			}
			transformOpts.LogLevel = logLevel

		case strings.HasPrefix(arg, "--log-override:"):
			value := arg[len("--log-override:"):]
			equals := strings.IndexByte(value, '=')
			if equals == -1 {
				return fmt.Errorf("Missing \"=\": %q", value)
			}
			logLevel, err := parseLogLevel(value[equals+1:], arg)
			if err != nil {
				return err
			}
			transformOpts.LogOverride[value[:equals]] = logLevel

		case strings.HasPrefix(arg, "'--"):
			return fmt.Errorf("Unexpected single quote character before flag (use \\\" to escape double quotes): %s", arg)

		case !strings.HasPrefix(arg, "-") && files != nil:
			if files.inputFile != "" {
				return fmt.Errorf("Only one input file is allowed but found both %q and %q", files.inputFile, arg)
			}
			files.inputFile = arg

		default:
			if kind == kindExternal && !strings.HasPrefix(arg, "-") {
				return fmt.Errorf("Unexpected file path: %q", arg)
			}
			return fmt.Errorf("Invalid transform flag: %q", arg)
		}
	}

	return nil
}

func parseOptionsForRun(osArgs []string) (*api.TransformOptions, *fileOptions, error) {
	options := newTransformOptions()
	files := &fileOptions{}

	// Apply defaults appropriate for the CLI
	options.ErrorLimit = 10
	options.LogLevel = api.LogLevelInfo

	if err := parseOptionsImpl(osArgs, &options, files, kindInternal); err != nil {
		return nil, nil, err
	}
	return &options, files, nil
}

func runImpl(osArgs []string) int {
	options, files, err := parseOptionsForRun(osArgs)
	if err != nil {
		logger.PrintErrorToStderr(osArgs, err.Error())
		return 1
	}

	// Verbose logging also turns on the operational log
	if options.LogLevel == api.LogLevelVerbose {
		if zapLogger, err := zap.NewDevelopment(); err == nil {
			api.SetLogger(zapLogger)
			defer zapLogger.Sync()
		}
	}

	// Read the tree from the input file or from stdin
	var input []byte
	if files.inputFile != "" {
		input, err = os.ReadFile(files.inputFile)
	} else {
		input, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		logger.PrintErrorToStderr(osArgs, fmt.Sprintf("Could not read the input tree: %s", err.Error()))
		return 1
	}

	// The original source text is optional and is only used for messages
	if files.originalFile != "" {
		contents, err := os.ReadFile(files.originalFile)
		if err != nil {
			logger.PrintErrorToStderr(osArgs, fmt.Sprintf("Could not read the original source: %s", err.Error()))
			return 1
		}
		options.Source = string(contents)
		if options.Sourcefile == "" {
			options.Sourcefile = files.originalFile
		}
	}

	// Run the transform and stop if there were errors
	result := api.Transform(input, *options)
	if len(result.Errors) > 0 {
		return 1
	}
	output := result.Tree
	if options.Format == api.FormatJS {
		output = result.JS
	}

	// Special-case writing to stdout
	if files.outfile == "" {
		if _, err := os.Stdout.Write(output); err != nil {
			logger.PrintErrorToStderr(osArgs, fmt.Sprintf("Failed to write to stdout: %s", err.Error()))
			return 1
		}
		return 0
	}

	if err := os.MkdirAll(filepath.Dir(files.outfile), 0755); err != nil {
		logger.PrintErrorToStderr(osArgs, fmt.Sprintf("Failed to create output directory: %s", err.Error()))
		return 1
	}
	if err := os.WriteFile(files.outfile, output, 0644); err != nil {
		logger.PrintErrorToStderr(osArgs, fmt.Sprintf("Failed to write to output file: %s", err.Error()))
		return 1
	}
	return 0
}
