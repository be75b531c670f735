package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config   string
	quiet    bool
	verbose  bool
	logLevel string
}

// renderModeFlags holds the flags of commands that render a document.
type renderModeFlags struct {
	timeout string
	pdf     bool
	bib     string
	images  string
}

// storageFlags overrides the storage section of the config.
type storageFlags struct {
	driver string
	path   string
	addr   string
}

// renderFlags holds all flags of the render command.
type renderFlags struct {
	common commonFlags
	mode   renderModeFlags
	output string
	sample bool
}

// highlightFlags holds all flags of the highlight command.
type highlightFlags struct {
	common commonFlags
	output string
}

// watchFlags holds all flags of the watch command.
type watchFlags struct {
	common   commonFlags
	mode     renderModeFlags
	output   string
	debounce string
}

// serveFlags holds all flags of the serve command.
type serveFlags struct {
	common   commonFlags
	storage  storageFlags
	addr     string
	timeout  string
	debounce string
}

// imagesFlags holds all flags of the images command.
type imagesFlags struct {
	common  commonFlags
	storage storageFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// addRenderModeFlags adds document rendering flags to a FlagSet.
func addRenderModeFlags(fs *flag.FlagSet, f *renderModeFlags) {
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.pdf, "pdf", false, "render a PDF instead of HTML")
	fs.StringVarP(&f.bib, "bib", "b", "", "bibliography file (YAML)")
	fs.StringVarP(&f.images, "images", "i", "", "directory of images, named by identifier")
}

// addStorageFlags adds storage override flags to a FlagSet.
func addStorageFlags(fs *flag.FlagSet, f *storageFlags) {
	fs.StringVar(&f.driver, "storage", "", "storage driver: memory, file, redis, sqlite")
	fs.StringVar(&f.path, "storage-path", "", "storage directory or database file")
	fs.StringVar(&f.addr, "redis-addr", "", "redis address (host:port)")
}

func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, stderr io.Writer) (*renderFlags, []string, error) {
	fs := newFlagSet("render", printRenderUsage, stderr)
	f := &renderFlags{}
	addRenderFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout for HTML, <input>.pdf for PDF)")
	fs.BoolVar(&f.sample, "sample", false, "render the built-in sample document")
	addRenderModeFlags(fs, &f.mode)
	addCommonFlags(fs, &f.common)
}

// parseHighlightFlags parses highlight command flags.
func parseHighlightFlags(args []string, stderr io.Writer) (*highlightFlags, []string, error) {
	fs := newFlagSet("highlight", printHighlightUsage, stderr)
	f := &highlightFlags{}
	addHighlightFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func addHighlightFlags(fs *flag.FlagSet, f *highlightFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	addCommonFlags(fs, &f.common)
}

// parseWatchFlags parses watch command flags.
func parseWatchFlags(args []string, stderr io.Writer) (*watchFlags, []string, error) {
	fs := newFlagSet("watch", printWatchUsage, stderr)
	f := &watchFlags{}
	addWatchFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func addWatchFlags(fs *flag.FlagSet, f *watchFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: <input>.html or <input>.pdf)")
	fs.StringVarP(&f.debounce, "debounce", "d", "", "quiet period after the last change (e.g., 500ms)")
	addRenderModeFlags(fs, &f.mode)
	addCommonFlags(fs, &f.common)
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	fs := newFlagSet("serve", printServeUsage, stderr)
	f := &serveFlags{}
	addServeFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func addServeFlags(fs *flag.FlagSet, f *serveFlags) {
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default: 127.0.0.1:8080)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g., 30s, 2m)")
	fs.StringVarP(&f.debounce, "debounce", "d", "", "quiet period after the last edit (e.g., 500ms)")
	addStorageFlags(fs, &f.storage)
	addCommonFlags(fs, &f.common)
}

// parseImagesFlags parses images command flags.
func parseImagesFlags(args []string, stderr io.Writer) (*imagesFlags, []string, error) {
	fs := newFlagSet("images", printImagesUsage, stderr)
	f := &imagesFlags{}
	addImagesFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func addImagesFlags(fs *flag.FlagSet, f *imagesFlags) {
	addStorageFlags(fs, &f.storage)
	addCommonFlags(fs, &f.common)
}

// doctorFlags holds all flags of the doctor command.
type doctorFlags struct {
	common  commonFlags
	storage storageFlags
	json    bool
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	fs := newFlagSet("doctor", printDoctorUsage, stderr)
	f := &doctorFlags{}
	addDoctorFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func addDoctorFlags(fs *flag.FlagSet, f *doctorFlags) {
	fs.BoolVar(&f.json, "json", false, "output in JSON format")
	addStorageFlags(fs, &f.storage)
	addCommonFlags(fs, &f.common)
}
