package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/alnah/go-livepreview"
	"github.com/alnah/go-livepreview/internal/fileutil"
	"github.com/alnah/go-livepreview/internal/store"
)

// watcher feeds file changes into a session and writes every committed
// outcome to the output file.
type watcher struct {
	sess    *livepreview.Session
	source  string
	bib     string
	images  string
	outPath string
	style   string // page stylesheet, "" for the default
	mode    livepreview.Mode
	env     *Environment
	quiet   bool

	mu      sync.Mutex
	written int // number of outputs written
}

// runWatch renders a source file again on every change of it, its
// bibliography or its image directory.
func runWatch(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseWatchFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) == 0 {
		return ErrNoInput
	}

	cfg, err := loadConfig(f.common)
	if err != nil {
		return err
	}
	if err := mergeDuration("timeout", f.mode.timeout, &cfg.Render.Timeout); err != nil {
		return err
	}
	if err := mergeDuration("debounce", f.debounce, &cfg.Editor.Debounce); err != nil {
		return err
	}
	if f.mode.pdf {
		cfg.Render.Mode = "binary"
	}
	cfg, logger, err := finalize(cfg, env)
	if err != nil {
		return err
	}
	mode, _ := livepreview.ParseMode(cfg.Render.Mode)

	in, inputPath, err := readInput(positional, false, f.mode)
	if err != nil {
		return err
	}

	opts, err := sessionOptions(cfg, logger, env)
	if err != nil {
		return err
	}
	css, err := loadPageStyle(cfg.Render)
	if err != nil {
		return err
	}
	sess, err := livepreview.NewSession(ctx, store.NewMemory(), opts...)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	w := &watcher{
		sess:    sess,
		source:  filepath.Clean(inputPath),
		outPath: watchOutputPath(f.output, inputPath, mode),
		style:   css,
		mode:    mode,
		env:     env,
		quiet:   f.common.quiet,
	}
	if f.mode.bib != "" {
		w.bib = filepath.Clean(f.mode.bib)
	}
	if f.mode.images != "" {
		w.images = filepath.Clean(f.mode.images)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	updates, cancel := sess.Sink.Subscribe()
	defer cancel()

	if err := w.load(ctx, in); err != nil {
		return err
	}
	if !w.quiet {
		fmt.Fprintf(env.Stderr, "watching %s -> %s (Ctrl+C to stop)\n", inputPath, w.outPath)
	}
	return w.run(ctx, fsw.Events, fsw.Errors, updates)
}

// watchOutputPath defaults to the input path with .html or .pdf.
func watchOutputPath(flagOutput, inputPath string, mode livepreview.Mode) string {
	if flagOutput != "" {
		return flagOutput
	}
	if mode == livepreview.ModeBinary {
		return fileutil.ReplaceExt(inputPath, ".pdf")
	}
	return fileutil.ReplaceExt(inputPath, ".html")
}

// dirs returns the directories to watch. Editors often replace files by
// renaming, so parent directories are watched instead of the files.
func (w *watcher) dirs() []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	add(filepath.Dir(w.source))
	if w.bib != "" {
		add(filepath.Dir(w.bib))
	}
	if w.images != "" {
		add(w.images)
	}
	return dirs
}

// load installs the initial state in the editor.
func (w *watcher) load(ctx context.Context, in livepreview.Input) error {
	w.sess.Editor.SetImages(in.Images)
	if err := w.sess.Editor.SetBibliography(ctx, in.Bibliography); err != nil {
		return err
	}
	return w.sess.Editor.SetSource(ctx, in.Source)
}

func (w *watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, updates <-chan livepreview.Outcome) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, ev); err != nil && !w.quiet {
				fmt.Fprintf(w.env.Stderr, "warning: %v\n", err)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			fmt.Fprintf(w.env.Stderr, "warning: file watcher: %v\n", err)
		case o, ok := <-updates:
			if !ok {
				return nil
			}
			w.publish(o)
		}
	}
}

// handle re-reads whatever changed.
func (w *watcher) handle(ctx context.Context, ev fsnotify.Event) error {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return nil
	}
	name := filepath.Clean(ev.Name)

	switch {
	case name == w.source:
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			return nil // wait for the replacement to be created
		}
		source, err := readTextFile(w.source)
		if err != nil {
			return err
		}
		return w.sess.Editor.SetSource(ctx, source)
	case w.bib != "" && name == w.bib:
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			return nil
		}
		bib, err := readTextFile(w.bib)
		if err != nil {
			return err
		}
		return w.sess.Editor.SetBibliography(ctx, bib)
	case w.images != "" && filepath.Dir(name) == w.images:
		images, err := loadImageDir(w.images)
		if err != nil {
			return err
		}
		w.sess.Editor.SetImages(images)
	}
	return nil
}

// publish writes a success to the output file and reports a failure. The
// previous output is kept when a render fails.
func (w *watcher) publish(o livepreview.Outcome) {
	if !o.Success() {
		fmt.Fprintf(w.env.Stderr, "render failed: %s\n", o.Message)
		return
	}
	for _, id := range o.Skipped {
		if !w.quiet {
			fmt.Fprintf(w.env.Stderr, "warning: image %s skipped\n", id)
		}
	}

	data, err := encodeOutput(o.Output, w.mode, filepath.Base(w.source), w.style)
	if err == nil {
		err = writeOutput(w.outPath, data, w.env.Stdout)
	}
	if err != nil {
		fmt.Fprintf(w.env.Stderr, "error: %v\n", err)
		return
	}

	w.mu.Lock()
	w.written++
	w.mu.Unlock()
	if !w.quiet {
		fmt.Fprintf(w.env.Stderr, "updated %s (%d page(s))\n", w.outPath, o.Output.Pages)
	}
}

// writes returns the number of outputs written.
func (w *watcher) writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}
