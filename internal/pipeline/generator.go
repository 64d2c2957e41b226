package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vibemix/internal/completion"
	"vibemix/internal/config"
	"vibemix/internal/logging"
	"vibemix/internal/notifications"
	"vibemix/internal/shell"
	"vibemix/internal/staging"
	"vibemix/internal/store"
)

// Generator coordinates slideshow generation runs.
type Generator struct {
	cfg      *config.Config
	runner   shell.Runner
	writer   staging.Writer
	lister   completion.Lister
	pollOpts completion.Options
	settings store.Settings
	picker   DirectoryPicker
	history  History
	notifier notifications.Service
	logger   *slog.Logger

	runnerSet  bool
	launchMode string
	cutSettle  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	newID      func() string
	listener   func(Status)

	mu     sync.Mutex
	status Status
	active map[string]*run

	emitMu sync.Mutex
}

// run is the mutable state of one Generate call.
type run struct {
	id       string
	title    string
	started  time.Time
	cancel   context.CancelFunc
	canceled bool
	claimed  bool
	recorded bool
	progress float64
	sampler  *logging.ProgressSampler
}

// Option configures optional Generator collaborators.
type Option func(*Generator)

// WithRunner sets the process runner. A nil runner makes every run fail its
// preconditions.
func WithRunner(r shell.Runner) Option {
	return func(g *Generator) {
		g.runner = r
		g.runnerSet = true
	}
}

// WithWriter overrides how staged files are written.
func WithWriter(w staging.Writer) Option {
	return func(g *Generator) { g.writer = w }
}

// WithLister overrides the directory listing used by completion polling.
func WithLister(l completion.Lister) Option {
	return func(g *Generator) { g.lister = l }
}

// WithPollOptions overrides the poll interval, settle delay, and timeout.
func WithPollOptions(opts completion.Options) Option {
	return func(g *Generator) { g.pollOpts = opts }
}

// WithSettings sets the store used to remember the output directory.
func WithSettings(s store.Settings) Option {
	return func(g *Generator) { g.settings = s }
}

// WithPicker sets the interactive output directory picker.
func WithPicker(p DirectoryPicker) Option {
	return func(g *Generator) { g.picker = p }
}

// WithHistory records each run.
func WithHistory(h History) Option {
	return func(g *Generator) { g.history = h }
}

// WithNotifier overrides the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(g *Generator) { g.notifier = n }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithLaunchMode selects config.LauncherTerminal or config.LauncherAttached.
func WithLaunchMode(mode string) Option {
	return func(g *Generator) { g.launchMode = mode }
}

// WithCutSettle sets how long to wait after launching a detached cut stage.
func WithCutSettle(d time.Duration) Option {
	return func(g *Generator) { g.cutSettle = d }
}

// WithStatusListener registers a callback for every published Status.
// Calls are serialized and made in publication order; fn must not call Cancel.
func WithStatusListener(fn func(Status)) Option {
	return func(g *Generator) { g.listener = fn }
}

// NewGenerator builds a Generator from configuration. Collaborators default
// to the local machine: shell.Local, the filesystem writer and lister, and
// the configured notification service.
func NewGenerator(cfg *config.Config, opts ...Option) *Generator {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	g := &Generator{
		cfg:    cfg,
		writer: staging.FileWriter{},
		lister: completion.DirLister{},
		pollOpts: completion.Options{
			Interval: cfg.PollInterval(),
			Settle:   cfg.PollSettle(),
			Timeout:  cfg.PollTimeout(),
		},
		notifier:   notifications.NewService(cfg),
		launchMode: cfg.Launcher.Mode,
		cutSettle:  cfg.CutSettle(),
		sleep:      sleepContext,
		newID:      uuid.NewString,
		status:     Status{Stage: StageIdle, Message: "Ready to process"},
		active:     make(map[string]*run),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logging.NewNop()
	}
	g.logger = logging.NewComponentLogger(g.logger, "pipeline")
	if !g.runnerSet {
		g.runner = shell.NewLocal(cfg.Launcher.Terminal, g.logger)
	}
	if g.notifier == nil {
		g.notifier = notifications.NewService(nil)
	}
	if g.launchMode == "" {
		g.launchMode = config.LauncherTerminal
	}
	return g
}

// Status returns the most recently published status.
func (g *Generator) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Cancel marks every active run as cancelled. Polling stops and the runs
// return a cancellation result, but processes already launched in a
// terminal window keep running. It reports whether any run was active.
func (g *Generator) Cancel() bool {
	g.mu.Lock()
	cancelled := false
	for _, r := range g.active {
		if r.canceled {
			continue
		}
		r.canceled = true
		r.cancel()
		cancelled = true
	}
	g.mu.Unlock()
	if cancelled {
		g.logger.Info("generation cancelled by user", logging.String(logging.FieldEventType, "generation_cancelled"))
		g.emit(Status{Stage: StageError, Progress: 0, Message: cancelMessage})
	}
	return cancelled
}

// claim registers a run for stagingPath. It fails when the path is taken.
func (g *Generator) claim(stagingPath string, r *run) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[stagingPath]; busy {
		return false
	}
	g.active[stagingPath] = r
	r.claimed = true
	return true
}

func (g *Generator) release(stagingPath string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, stagingPath)
}

// publish records st for r. Progress never moves backwards within a run
// except on the transition to error, and a cancelled run publishes nothing.
// A run that has not claimed its staging path yet only publishes while no
// other run is active.
func (g *Generator) publish(r *run, st Status) {
	g.mu.Lock()
	if r != nil {
		if r.canceled || (!r.claimed && len(g.active) > 0) {
			g.mu.Unlock()
			return
		}
		if st.Stage != StageError {
			if st.Progress < r.progress {
				st.Progress = r.progress
			}
			r.progress = st.Progress
		}
	}
	g.mu.Unlock()
	g.emit(st)
}

func (g *Generator) emit(st Status) {
	g.emitMu.Lock()
	defer g.emitMu.Unlock()
	g.mu.Lock()
	g.status = st
	g.mu.Unlock()
	if g.listener != nil {
		g.listener(st)
	}
}

func (g *Generator) isCanceled(r *run) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return r.canceled
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
