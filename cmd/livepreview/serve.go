package main

import (
	"context"
	"fmt"

	"github.com/alnah/go-livepreview"
	"github.com/alnah/go-livepreview/internal/metrics"
	"github.com/alnah/go-livepreview/internal/server"
)

// runServe serves the live editor until interrupted.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, _, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}

	cfg, err := loadConfig(f.common)
	if err != nil {
		return err
	}
	if err := mergeDuration("timeout", f.timeout, &cfg.Render.Timeout); err != nil {
		return err
	}
	if err := mergeDuration("debounce", f.debounce, &cfg.Editor.Debounce); err != nil {
		return err
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	mergeStorageFlags(f.storage, cfg)
	// The preview always renders markup; PDF goes through /api/export.pdf.
	cfg.Render.Mode = "markup"
	cfg, logger, err := finalize(cfg, env)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, env)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	rec := metrics.NewRecorder()
	opts, err := sessionOptions(cfg, logger, env, livepreview.WithObserver(rec))
	if err != nil {
		return err
	}
	sess, err := livepreview.NewSession(ctx, st, opts...)
	if err != nil {
		return &storageError{driver: cfg.Storage.Driver, err: err}
	}
	defer func() { _ = sess.Close() }()

	srv, err := server.New(sess, server.WithLogger(logger), server.WithMetrics(rec.Handler()))
	if err != nil {
		return err
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stderr, "serving on http://%s (storage: %s)\n", cfg.Server.Addr, cfg.Storage.Driver)
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
