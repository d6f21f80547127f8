package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"go.uber.org/zap"

	"github.com/asyncrequire/asyncrequire/internal/logger"
	"github.com/asyncrequire/asyncrequire/pkg/api"
	"github.com/asyncrequire/asyncrequire/pkg/cli"
)

const asyncrequireVersion = "0.1.0"

const helpText = `
Usage:
  asyncrequire [options] [tree.json]

Reads an ESTree program from the file (or stdin) and rewrites its imports,
exports, require() calls, and import() expressions to use asynchronous
loader functions.

Options:
  --require-name=...    Loader for static imports and require() (default
                        __require__)
  --import-name=...     Loader for import() expressions (default __import__)
  --exports=...         Object that exports are assigned to (default exports,
                        may be a dotted path like module.exports)
  --format=...          Output format (json or js, default json)
  --outfile=...         Write the output to this file instead of stdout

Advanced options:
  --version                 Print the current version (` + asyncrequireVersion + `) and exit
  --color=...               Force use of color terminal escapes (true or false)
  --default-interop         Make default imports read the "default" property
  --error-limit=...         Maximum error count or 0 to disable (default 10)
  --log-level=...           Disable logging (verbose, info, warning, error,
                            silent)
  --log-override:X=Y        Use log level Y for log messages with identifier X
  --minify-whitespace       Remove whitespace when using --format=js
  --original=...            Read the original source text from this file so
                            messages can show the line and column
  --per-specifier           Load the module once per import specifier
  --service                 Rewrite requests from a host over stdin/stdout
  --sourcefile=...          Set the file name shown in messages

Examples:
  # Rewrite a tree and print the result as JavaScript
  asyncrequire tree.json --format=js

  # Assign exports to module.exports and load with a custom function
  asyncrequire --exports=module.exports --require-name=load < tree.json > out.json
`

func main() {
	osArgs := os.Args[1:]
	traceFile := ""
	cpuprofileFile := ""
	isRunningService := false

	// Do an initial scan over the argument list
	argsEnd := 0
	for _, arg := range osArgs {
		switch {
		// Show help if a common help flag is provided
		case arg == "-h", arg == "-help", arg == "--help", arg == "/?":
			fmt.Fprintf(os.Stderr, "%s\n", helpText)
			os.Exit(0)

		// Special-case the version flag here
		case arg == "--version":
			fmt.Fprintf(os.Stderr, "%s\n", asyncrequireVersion)
			os.Exit(0)

		case strings.HasPrefix(arg, "--trace="):
			traceFile = arg[len("--trace="):]

		case strings.HasPrefix(arg, "--cpuprofile="):
			cpuprofileFile = arg[len("--cpuprofile="):]

		// This flag turns the process into a long-running service that uses
		// message passing with the host process over stdin/stdout
		case arg == "--service":
			isRunningService = true

		default:
			// Strip any arguments that were handled above
			osArgs[argsEnd] = arg
			argsEnd++
		}
	}
	osArgs = osArgs[:argsEnd]

	// Run in service mode if requested
	if isRunningService {
		os.Exit(serviceMain(osArgs))
	}

	// Print help text when there are no arguments
	if len(osArgs) == 0 && logger.GetTerminalInfo(os.Stdin).IsTTY {
		fmt.Fprintf(os.Stderr, "%s\n", helpText)
		os.Exit(0)
	}

	// Capture the defer statements below so the profiles are flushed first
	exitCode := 1
	func() {
		// To view a CPU trace, use "go tool trace [file]"
		if traceFile != "" {
			f, err := os.Create(traceFile)
			if err != nil {
				logger.PrintErrorToStderr(osArgs, fmt.Sprintf(
					"Failed to create trace file: %s", err.Error()))
				return
			}
			defer f.Close()
			trace.Start(f)
			defer trace.Stop()
		}

		if cpuprofileFile != "" {
			f, err := os.Create(cpuprofileFile)
			if err != nil {
				logger.PrintErrorToStderr(osArgs, fmt.Sprintf(
					"Failed to create cpuprofile file: %s", err.Error()))
				return
			}
			defer f.Close()
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}

		exitCode = cli.Run(osArgs)
	}()

	os.Exit(exitCode)
}

// The service only understands "--log-level=verbose". Every other flag
// belongs to an individual transform request.
func serviceMain(osArgs []string) int {
	zapLogger := zap.NewNop()
	for _, arg := range osArgs {
		if arg == "--log-level=verbose" {
			if development, err := zap.NewDevelopment(); err == nil {
				zapLogger = development
			}
		} else {
			logger.PrintErrorToStderr(osArgs, fmt.Sprintf("Invalid service flag: %q", arg))
			return 1
		}
	}
	defer zapLogger.Sync()
	api.SetLogger(zapLogger)

	if err := runService(os.Stdin, os.Stdout, zapLogger); err != nil {
		logger.PrintErrorToStderr(osArgs, err.Error())
		return 1
	}
	return 0
}
