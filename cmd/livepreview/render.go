package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-livepreview"
	"github.com/alnah/go-livepreview/internal/assets"
	"github.com/alnah/go-livepreview/internal/fileutil"
)

// stdoutPath selects standard output for -o.
const stdoutPath = "-"

// samplePath names the built-in sample document in messages and default
// output paths.
const samplePath = "sample.typ"

// timeRounding is the precision of durations printed to the user.
const timeRounding = time.Millisecond

// standalonePage wraps preview markup into a self-contained HTML file.
var standalonePage = template.Must(template.New("standalone").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body>
{{.Markup}}
</body>
</html>
`))

// runRender renders one document and writes it as HTML or PDF.
func runRender(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}

	cfg, err := loadConfig(f.common)
	if err != nil {
		return err
	}
	if err := mergeDuration("timeout", f.mode.timeout, &cfg.Render.Timeout); err != nil {
		return err
	}
	if f.mode.pdf {
		cfg.Render.Mode = "binary"
	}
	cfg, logger, err := finalize(cfg, env)
	if err != nil {
		return err
	}

	in, inputPath, err := readInput(positional, f.sample, f.mode)
	if err != nil {
		return err
	}

	opts, err := sessionOptions(cfg, logger, env)
	if err != nil {
		return err
	}
	p, err := livepreview.NewPipeline(opts...)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	mode, _ := livepreview.ParseMode(cfg.Render.Mode)
	start := env.Now()
	res, err := p.Run(ctx, in, mode)
	if err != nil {
		return err
	}

	if !f.common.quiet {
		for _, s := range res.Skipped {
			fmt.Fprintf(env.Stderr, "warning: image %s skipped: %v\n", s.ID, s.Err)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(env.Stderr, "warning: %s\n", w)
		}
	}

	css, err := loadPageStyle(cfg.Render)
	if err != nil {
		return err
	}
	data, err := encodeOutput(res.Output, mode, filepath.Base(inputPath), css)
	if err != nil {
		return err
	}
	outPath := resolveOutputPath(f.output, inputPath, mode)
	if err := writeOutput(outPath, data, env.Stdout); err != nil {
		return err
	}

	if !f.common.quiet && outPath != stdoutPath {
		fmt.Fprintf(env.Stderr, "%s -> %s (%d page(s), %s)\n",
			inputPath, outPath, res.Output.Pages, env.Now().Sub(start).Round(timeRounding))
	}
	return nil
}

// runHighlight writes the highlighted overlay of a source file.
func runHighlight(args []string, env *Environment) error {
	f, positional, err := parseHighlightFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) == 0 {
		return ErrNoInput
	}
	source, err := readTextFile(positional[0])
	if err != nil {
		return err
	}

	out := f.output
	if out == "" {
		out = stdoutPath
	}
	return writeOutput(out, []byte(livepreview.Highlight(source)+"\n"), env.Stdout)
}

// readInput builds the render input from the positional source path, or
// the built-in sample, plus the optional bibliography and image directory.
func readInput(positional []string, sample bool, f renderModeFlags) (livepreview.Input, string, error) {
	var in livepreview.Input
	var path string

	switch {
	case sample:
		path = samplePath
		in.Source = assets.DefaultSource()
		in.Bibliography = assets.DefaultBibliography()
	case len(positional) == 0:
		return in, "", ErrNoInput
	default:
		path = positional[0]
		source, err := readTextFile(path)
		if err != nil {
			return in, "", err
		}
		in.Source = source
	}

	if f.bib != "" {
		bib, err := readTextFile(f.bib)
		if err != nil {
			return in, "", err
		}
		in.Bibliography = bib
	}
	if f.images != "" {
		images, err := loadImageDir(f.images)
		if err != nil {
			return in, "", err
		}
		in.Images = images
	}
	return in, path, nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrReadSource, path, err)
	}
	return string(data), nil
}

// loadImageDir reads every regular, non-hidden file of dir as an image
// named by its file name without extension ("001.png" is image "001").
func loadImageDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadSource, dir, err)
	}
	images := make(map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name)) // #nosec G304 -- inside the user's image directory
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrReadSource, name, err)
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		images[id] = base64.StdEncoding.EncodeToString(data)
	}
	return images, nil
}

// encodeOutput returns the bytes written for a render result. HTML pages
// embed css, or the default stylesheet when css is empty.
func encodeOutput(out *livepreview.Output, mode livepreview.Mode, title, css string) ([]byte, error) {
	if mode == livepreview.ModeBinary {
		return out.Bytes, nil
	}
	if css == "" {
		var err error
		if css, err = assets.LoadStyle(assets.DefaultStyleName); err != nil {
			return nil, fmt.Errorf("loading preview style: %w", err)
		}
	}
	var buf bytes.Buffer
	err := standalonePage.Execute(&buf, struct {
		Title  string
		Style  template.CSS
		Markup template.HTML
	}{
		Title:  title,
		Style:  template.CSS(css),         // #nosec G203 -- embedded stylesheet
		Markup: template.HTML(out.Markup), // #nosec G203 -- produced by the engine
	})
	if err != nil {
		return nil, fmt.Errorf("executing page template: %w", err)
	}
	return buf.Bytes(), nil
}

// resolveOutputPath picks the destination of a render.
// HTML defaults to stdout, PDF to the input path with a .pdf extension.
func resolveOutputPath(flagOutput, inputPath string, mode livepreview.Mode) string {
	if flagOutput != "" {
		return flagOutput
	}
	if mode == livepreview.ModeBinary {
		return fileutil.ReplaceExt(inputPath, ".pdf")
	}
	return stdoutPath
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdoutPath {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		return nil
	}
	if err := fileutil.WriteFileAtomic(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteOutput, path, err)
	}
	return nil
}
