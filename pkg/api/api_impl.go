package api

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/asyncrequire/asyncrequire/internal/config"
	"github.com/asyncrequire/asyncrequire/internal/estree"
	"github.com/asyncrequire/asyncrequire/internal/js_ast"
	"github.com/asyncrequire/asyncrequire/internal/js_printer"
	"github.com/asyncrequire/asyncrequire/internal/logger"
	"github.com/asyncrequire/asyncrequire/internal/rewriter"
)

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelVerbose:
		return logger.LevelVerbose
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	case LogLevelSilent:
		return logger.LevelSilent
	default:
		panic("Invalid log level")
	}
}

func validateLogOverrides(input map[string]LogLevel) map[logger.MsgID]logger.LogLevel {
	output := make(map[logger.MsgID]logger.LogLevel)
	for k, v := range input {
		logger.StringToMsgIDs(k, validateLogLevel(v), output)
	}
	return output
}

func validateFormat(value Format) config.OutputFormat {
	switch value {
	case FormatDefault, FormatESTree:
		return config.FormatJSON
	case FormatJS:
		return config.FormatJS
	default:
		panic("Invalid format")
	}
}

// Empty names mean "use the default" so that the zero value of
// "TransformOptions" is useful
func validateOptions(options TransformOptions) config.Options {
	result := config.Default()
	if options.RequireName != "" {
		result.RequireName = options.RequireName
	}
	if options.ImportName != "" {
		result.ImportName = options.ImportName
	}
	if options.ExportsObject != "" {
		result.ExportsObject = options.ExportsObject
	}
	result.PerSpecifierLoads = options.PerSpecifierLoads
	result.DefaultImportInterop = options.DefaultImportInterop
	result.OutputFormat = validateFormat(options.Format)
	if options.Sourcefile != "" || options.Source != "" {
		result.Stdin = &config.StdinInfo{
			Contents:   options.Source,
			SourceFile: options.Sourcefile,
		}
	}
	return result
}

func convertLocationToPublic(loc *logger.MsgLocation) *Location {
	if loc != nil {
		return &Location{
			File:     loc.File,
			Line:     loc.Line,
			Column:   loc.Column,
			Length:   loc.Length,
			LineText: loc.LineText,
		}
	}
	return nil
}

func convertMessagesToPublic(kind logger.MsgKind, msgs []logger.Msg) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if msg.Kind == kind {
			filtered = append(filtered, Message{
				ID:       logger.MsgIDToString(msg.ID),
				Text:     msg.Text,
				Location: convertLocationToPublic(msg.Location),
			})
		}
	}
	return filtered
}

func transformImpl(tree []byte, options TransformOptions) TransformResult {
	start := time.Now()

	// Silent callers still want the messages, just not on stderr
	var log logger.Log
	overrides := validateLogOverrides(options.LogOverride)
	if options.LogLevel == LogLevelSilent {
		log = logger.NewDeferLog(overrides)
	} else {
		log = logger.NewStderrLog(logger.StderrOptions{
			IncludeSource: true,
			ErrorLimit:    options.ErrorLimit,
			Color:         validateColor(options.Color),
			LogLevel:      validateLogLevel(options.LogLevel),
			Overrides:     overrides,
		})
	}

	// Convert and validate the options
	rewriteOptions := validateOptions(options)
	if err := rewriteOptions.Validate(); err != nil {
		log.AddError(nil, logger.Loc{}, err.Error())
	}

	var source *logger.Source
	if stdin := rewriteOptions.Stdin; stdin != nil {
		prettyPath := stdin.SourceFile
		if prettyPath == "" {
			prettyPath = "<stdin>"
		}
		source = &logger.Source{PrettyPath: prettyPath, Contents: stdin.Contents}
	}

	var result js_ast.Program
	var output []byte
	if !log.HasErrors() {
		printOptions := js_printer.Options{MinifyWhitespace: options.MinifyWhitespace}
		result, output = transformTree(log, source, tree, rewriteOptions, printOptions)
	}

	msgs := log.Done()
	errorMsgs := convertMessagesToPublic(logger.Error, msgs)
	warnings := convertMessagesToPublic(logger.Warning, msgs)

	Logger().Debug("Transformed tree",
		zap.String("sourcefile", options.Sourcefile),
		zap.Int("inputBytes", len(tree)),
		zap.Int("statements", len(result.Body())),
		zap.Int("errors", len(errorMsgs)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", time.Since(start)))

	// Never hand back a partially rewritten tree
	if len(errorMsgs) > 0 {
		return TransformResult{Errors: errorMsgs, Warnings: warnings}
	}

	transformResult := TransformResult{Warnings: warnings}
	switch rewriteOptions.OutputFormat {
	case config.FormatJSON:
		transformResult.Tree = output
	case config.FormatJS:
		transformResult.JS = output
	}
	return transformResult
}

// Every failure is reported to "log" so the caller only needs to check
// "log.HasErrors()" afterward
func transformTree(
	log logger.Log,
	source *logger.Source,
	tree []byte,
	options config.Options,
	printOptions js_printer.Options,
) (js_ast.Program, []byte) {
	program, err := estree.Decode(tree)
	if err != nil {
		log.AddError(nil, logger.Loc{}, fmt.Sprintf("Invalid input tree at %s", err.Error()))
		return js_ast.Program{}, nil
	}

	result, err := rewriter.Rewrite(log, source, program, options)
	if err != nil {
		var rewriteErr *rewriter.Error
		if errors.As(err, &rewriteErr) {
			log.AddError(source, rewriteErr.Loc, rewriteErr.Text)
		} else {
			log.AddError(nil, logger.Loc{}, err.Error())
		}
		return js_ast.Program{}, nil
	}

	switch options.OutputFormat {
	case config.FormatJS:
		return result, js_printer.Print(result, printOptions).JS

	default:
		encoded, err := estree.Encode(result)
		if err != nil {
			log.AddError(nil, logger.Loc{}, fmt.Sprintf("Failed to encode the rewritten tree: %s", err.Error()))
			return js_ast.Program{}, nil
		}
		return result, encoded
	}
}
