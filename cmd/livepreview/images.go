package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/alnah/go-livepreview/internal/gallery"
)

// runImages manages the gallery of the configured store.
func runImages(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseImagesFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) == 0 {
		printImagesUsage(env.Stderr)
		return fmt.Errorf("%w: images requires a subcommand", ErrUsage)
	}
	sub, rest := positional[0], positional[1:]

	cfg, err := loadConfig(f.common)
	if err != nil {
		return err
	}
	mergeStorageFlags(f.storage, cfg)
	cfg, logger, err := finalize(cfg, env)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, env)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	g := gallery.New(st, gallery.WithLogger(logger))

	switch sub {
	case "add":
		if len(rest) == 0 {
			return fmt.Errorf("%w: images add requires at least one file", ErrUsage)
		}
		return addImages(ctx, g, rest, env)
	case "list", "ls":
		return listImages(ctx, g, env)
	case "rm", "delete":
		if len(rest) != 1 {
			return fmt.Errorf("%w: images rm requires exactly one id", ErrUsage)
		}
		if err := g.Delete(ctx, rest[0]); err != nil {
			return err
		}
		if !f.common.quiet {
			fmt.Fprintf(env.Stderr, "deleted image %s\n", rest[0])
		}
		return nil
	case "clear":
		return g.Clear(ctx)
	default:
		return fmt.Errorf("%w: unknown images subcommand %q", ErrUsage, sub)
	}
}

// addImages stores each file and prints "<id>\t<snippet>" per image.
func addImages(ctx context.Context, g *gallery.Gallery, paths []string, env *Environment) error {
	for _, path := range paths {
		content, err := os.ReadFile(path) // #nosec G304 -- path is user-provided
		if err != nil {
			return fmt.Errorf("%w %s: %w", ErrReadSource, path, err)
		}
		img, err := g.Add(ctx, gallery.DataURL(content), filepath.Base(path))
		if err != nil {
			return fmt.Errorf("adding %s: %w", path, err)
		}
		fmt.Fprintf(env.Stdout, "%s\t%s\n", img.ID, gallery.Snippet(img.ID))
	}
	return nil
}

func listImages(ctx context.Context, g *gallery.Gallery, env *Environment) error {
	images, err := g.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILENAME\tADDED")
	for _, img := range images {
		added := time.UnixMilli(img.Timestamp).UTC().Format(time.RFC3339)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", img.ID, img.Filename, added)
	}
	return tw.Flush()
}
