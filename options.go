package livepreview

import (
	"log/slog"
	"time"

	"github.com/alnah/go-livepreview/internal/logging"
)

// Defaults used when no option overrides them.
const (
	DefaultDelay   = 500 * time.Millisecond
	DefaultTimeout = 30 * time.Second
)

// Option configures a Pipeline, Scheduler or Session. Options that do not
// apply to a constructor are ignored by it.
type Option func(*options)

// options holds the configuration shared by the constructors.
type options struct {
	delay     time.Duration
	timeout   time.Duration
	mode      Mode
	logger    *slog.Logger
	renderer  Renderer
	style     string
	observer  Observer
	afterFunc func(time.Duration, func()) stopper
}

// stopper is the part of *time.Timer the scheduler uses.
type stopper interface {
	Stop() bool
}

func newOptions(opts []Option) options {
	o := options{
		delay:    DefaultDelay,
		timeout:  DefaultTimeout,
		mode:     ModeMarkup,
		logger:   logging.NewNop(),
		observer: nopObserver{},
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithDelay sets the debounce window after the last edit.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithDelay(d time.Duration) Option {
	if d <= 0 {
		panic("livepreview: WithDelay duration must be positive")
	}
	return func(o *options) {
		o.delay = d
	}
}

// WithTimeout bounds a single render attempt.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("livepreview: WithTimeout duration must be positive")
	}
	return func(o *options) {
		o.timeout = d
	}
}

// WithMode sets the render mode of scheduled attempts. Default ModeMarkup.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithLogger sets the structured logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRenderer replaces the reference engine. The caller keeps ownership:
// closing the pipeline does not close r.
func WithRenderer(r Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithStyle replaces the page stylesheet of the reference engine's PDF
// export. Ignored with WithRenderer.
func WithStyle(css string) Option {
	return func(o *options) {
		o.style = css
	}
}

// WithObserver receives scheduling events (metrics).
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// withAfterFunc replaces time.AfterFunc (for testing).
func withAfterFunc(f func(time.Duration, func()) stopper) Option {
	return func(o *options) {
		o.afterFunc = f
	}
}
