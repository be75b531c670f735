package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-livepreview"
	"github.com/alnah/go-livepreview/internal/assets"
	"github.com/alnah/go-livepreview/internal/config"
	"github.com/alnah/go-livepreview/internal/engine"
	"github.com/alnah/go-livepreview/internal/gallery"
	"github.com/alnah/go-livepreview/internal/hints"
	"github.com/alnah/go-livepreview/internal/logging"
	"github.com/alnah/go-livepreview/internal/store"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput         = errors.New("no input specified")
	ErrReadSource      = errors.New("failed to read source file")
	ErrWriteOutput     = errors.New("failed to write output file")
	ErrStorage         = errors.New("storage unavailable")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrUsage           = errors.New("invalid usage")
)

// filePermissions is rw-r--r--: owner read+write, others read.
const filePermissions = 0o644

// storageError names the driver that failed so the hint can be specific.
type storageError struct {
	driver string
	err    error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%v (%s): %v", ErrStorage, e.driver, e.err)
}

func (e *storageError) Unwrap() []error {
	return []error{ErrStorage, e.err}
}

// runMain dispatches the command in args[1] and returns the exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}
	warnUnknownEnvVars(env.Stderr)

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "render":
		err = runRender(ctx, rest, env)
	case "highlight":
		err = runHighlight(rest, env)
	case "watch":
		err = runWatch(ctx, rest, env)
	case "serve":
		err = runServe(ctx, rest, env)
	case "images":
		err = runImages(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "completion":
		err = runCompletion(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "go-livepreview %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var se *storageError
	switch {
	case errors.Is(err, engine.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, livepreview.ErrEmptySource):
		return hints.ForEmptySource()
	case errors.Is(err, gallery.ErrLimitReached):
		return hints.ForImageLimit()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths("livepreview"))
	case errors.As(err, &se):
		return hints.ForStorage(se.driver)
	default:
		return ""
	}
}

// usageError wraps flag parse errors so they map to ExitUsage.
func usageError(err error) error {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// loadConfig resolves the configuration of a command.
// Priority: CLI flags > env vars > config file > defaults.
func loadConfig(f commonFlags) (*config.Config, error) {
	envCfg := loadEnvConfig()

	name := f.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	mergeCommonFlags(f, cfg)
	return cfg, nil
}

// mergeCommonFlags applies the logging flags. --verbose wins over
// --quiet, which wins over --log-level.
func mergeCommonFlags(f commonFlags, cfg *config.Config) {
	switch {
	case f.verbose:
		cfg.Log.Level = "debug"
	case f.quiet:
		cfg.Log.Level = "error"
	case f.logLevel != "":
		cfg.Log.Level = f.logLevel
	}
}

// mergeDuration parses a duration flag into dst when set.
func mergeDuration(flagName, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("%w: --%s %q", ErrInvalidDuration, flagName, value)
	}
	*dst = d
	return nil
}

// mergeStorageFlags applies storage overrides.
func mergeStorageFlags(f storageFlags, cfg *config.Config) {
	if f.driver != "" {
		cfg.Storage.Driver = f.driver
	}
	if f.path != "" {
		cfg.Storage.Path = f.path
	}
	if f.addr != "" {
		cfg.Storage.Addr = f.addr
	}
}

// finalize validates the merged config and builds its logger.
func finalize(cfg *config.Config, env *Environment) (*config.Config, *slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	cfg = cfg.WithDefaults()
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewWriter(env.Stderr, level), nil
}

// sessionOptions maps the config onto library options.
func sessionOptions(cfg *config.Config, logger *slog.Logger, env *Environment, extra ...livepreview.Option) ([]livepreview.Option, error) {
	mode, err := livepreview.ParseMode(cfg.Render.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	opts := []livepreview.Option{
		livepreview.WithDelay(cfg.Editor.Debounce),
		livepreview.WithTimeout(cfg.Render.Timeout),
		livepreview.WithMode(mode),
		livepreview.WithLogger(logger),
	}
	if env.Renderer != nil {
		opts = append(opts, livepreview.WithRenderer(env.Renderer))
	}
	css, err := loadPageStyle(cfg.Render)
	if err != nil {
		return nil, err
	}
	if css != "" {
		opts = append(opts, livepreview.WithStyle(css))
	}
	return append(opts, extra...), nil
}

// loadPageStyle resolves render.style against render.assetPath and the
// embedded styles. It returns "" when neither is configured.
func loadPageStyle(cfg config.RenderConfig) (string, error) {
	if cfg.Style == "" && cfg.AssetPath == "" {
		return "", nil
	}
	resolver, err := assets.NewAssetResolver(cfg.AssetPath)
	if err != nil {
		return "", fmt.Errorf("%w: render.assetPath: %v", config.ErrInvalidValue, err)
	}
	name := cfg.Style
	if name == "" {
		name = assets.DefaultStyleName
	}
	css, err := resolver.LoadStyle(name)
	if err != nil {
		return "", fmt.Errorf("loading style %q: %w", name, err)
	}
	return css, nil
}

// openStore opens the configured store, tagging failures with the driver.
func openStore(ctx context.Context, cfg *config.Config, env *Environment) (store.Store, error) {
	s, err := env.OpenStore(ctx, cfg.Storage)
	if err != nil {
		if errors.Is(err, store.ErrUnknownDriver) {
			return nil, err
		}
		return nil, &storageError{driver: cfg.Storage.Driver, err: err}
	}
	return s, nil
}
