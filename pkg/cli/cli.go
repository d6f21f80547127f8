// This API exposes the command-line interface for asyncrequire. It can be used
// to run asyncrequire from Go without the overhead of creating a child process.
//
// Example usage:
//
//	package main
//
//	import (
//	    "os"
//
//	    "github.com/asyncrequire/asyncrequire/pkg/cli"
//	)
//
//	func main() {
//	    os.Exit(cli.Run(os.Args[1:]))
//	}
package cli

import (
	"github.com/asyncrequire/asyncrequire/pkg/api"
)

// This function invokes the asyncrequire CLI. It takes an array of command-line
// arguments (excluding the executable argument itself) and returns an exit
// code. There are some minor differences between this CLI and the actual
// "asyncrequire" executable such as the "--help" and "--version" flags which
// are only handled by the executable.
func Run(osArgs []string) int {
	return runImpl(osArgs)
}

// This parses an array of strings into an options object suitable for passing
// to "api.Transform()". Use this if you need to reuse the same argument parsing
// logic as the asyncrequire CLI.
//
// Example usage:
//
//	options, err := cli.ParseTransformOptions([]string{
//	    "--format=js",
//	    "--exports=module.exports",
//	})
//
//	result := api.Transform(tree, options)
func ParseTransformOptions(args []string) (options api.TransformOptions, err error) {
	options = newTransformOptions()
	err = parseOptionsImpl(args, &options, nil, kindExternal)
	return
}
