package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livepreview <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render      Render a document to HTML or PDF")
	fmt.Fprintln(w, "  highlight   Print the highlighted overlay of a source file")
	fmt.Fprintln(w, "  watch       Render again whenever the source changes")
	fmt.Fprintln(w, "  serve       Start the live preview editor")
	fmt.Fprintln(w, "  images      Manage the image gallery")
	fmt.Fprintln(w, "  doctor      Check system configuration")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'livepreview help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w, "      --log-level <s>       Log level: debug, info, warn, error")
}

func printModeUsage(w io.Writer) {
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "  -b, --bib <path>          Bibliography file (YAML)")
	fmt.Fprintln(w, "  -i, --images <dir>        Image directory; file stem is the identifier")
	fmt.Fprintln(w, "      --pdf                 Render a PDF instead of HTML")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout (e.g., 30s, 2m)")
}

func printStorageUsage(w io.Writer) {
	fmt.Fprintln(w, "Storage:")
	fmt.Fprintln(w, "      --storage <s>         Driver: memory, file, redis, sqlite")
	fmt.Fprintln(w, "      --storage-path <path> Directory (file) or database file (sqlite)")
	fmt.Fprintln(w, "      --redis-addr <addr>   Redis address (host:port)")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livepreview render <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render a document once. HTML goes to stdout unless -o is given.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Source file (optional with --sample)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file, \"-\" for stdout")
	fmt.Fprintln(w, "      --sample              Render the built-in sample document")
	fmt.Fprintln(w)
	printModeUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printHighlightUsage prints usage for the highlight command.
func printHighlightUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livepreview highlight <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the syntax-highlighted overlay of a source file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: stdout)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livepreview watch <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render again after every change of the source, the bibliography or")
	fmt.Fprintln(w, "the image directory. A failed render keeps the previous output.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: <input>.html or .pdf)")
	fmt.Fprintln(w, "  -d, --debounce <d>        Quiet period after the last change (e.g., 500ms)")
	fmt.Fprintln(w)
	printModeUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livepreview serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Start the live preview editor in the browser.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default: 127.0.0.1:8080)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -d, --debounce <d>        Quiet period after the last edit (e.g., 500ms)")
	fmt.Fprintln(w)
	printStorageUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printImagesUsage prints usage for the images command.
func printImagesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livepreview images <subcommand> [args] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Manage the image gallery kept in the configured store.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Subcommands:")
	fmt.Fprintln(w, "  add <file>...   Add images, printing their identifiers")
	fmt.Fprintln(w, "  list            List images")
	fmt.Fprintln(w, "  rm <id>         Delete one image")
	fmt.Fprintln(w, "  clear           Delete every image")
	fmt.Fprintln(w)
	printStorageUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livepreview doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the browser, the environment and the configured store.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Output in JSON format")
	fmt.Fprintln(w)
	printStorageUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "highlight":
		printHighlightUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "images":
		printImagesUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: livepreview version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: livepreview help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
