// Command shadercook compiles a WGSL shader and cooks its reflection
// metadata into an engine-loadable blob.
//
// Usage:
//
//	shadercook [options] <input.wgsl>
//
// Examples:
//
//	shadercook shader.wgsl                  # Cook to shader.keshrf
//	shadercook -o out/shader.keshrf shader.wgsl
//	shadercook -report shader.wgsl          # Also print the layout
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Mcgode/KryneEngineTools/blob"
	"github.com/Mcgode/KryneEngineTools/layout"
	"github.com/Mcgode/KryneEngineTools/wgslfront"
)

var (
	output  = flag.String("o", "", "output file (default: input with .keshrf extension)")
	report  = flag.Bool("report", false, "print the flattened layout to stdout")
	version = flag.Bool("version", false, "print version")
)

const shadercookVersion = "0.1.0-dev"

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("shadercook version %s\n", shadercookVersion)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	inputPath := args[0]

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	shader, err := wgslfront.Reflect(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reflection error: %v\n", err)
		os.Exit(1)
	}

	flattened, err := layout.Flatten(shader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Layout error: %v\n", err)
		os.Exit(1)
	}

	if *report {
		fmt.Print(flattened.Report())
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = replaceExtension(inputPath, ".keshrf")
	}

	data := blob.Encode(flattened)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Cooked %s to %s (%d bytes)\n", inputPath, outputPath, len(data))
}

func replaceExtension(path, ext string) string {
	if i := strings.LastIndexByte(path, '.'); i > strings.LastIndexByte(path, '/') {
		return path[:i] + ext
	}
	return path + ext
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: shadercook [options] <input.wgsl>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  shadercook shader.wgsl               Cook to shader.keshrf\n")
	fmt.Fprintf(os.Stderr, "  shadercook -o out.keshrf shader.wgsl Cook to a chosen path\n")
	fmt.Fprintf(os.Stderr, "  shadercook -report shader.wgsl       Print the flattened layout\n")
}
