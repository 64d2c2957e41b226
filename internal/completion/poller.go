package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"vibemix/internal/logging"
)

// ErrTimeout is returned when the output never stabilizes within the timeout.
var ErrTimeout = errors.New("Processing timed out. Please check the terminal window for any errors.") //nolint:staticcheck

// Options tunes the polling protocol.
type Options struct {
	Interval time.Duration
	Settle   time.Duration
	Timeout  time.Duration
	// RampFrom and RampTo bound the synthetic progress reported while waiting.
	RampFrom float64
	RampTo   float64
}

// DefaultOptions returns the standard timings: poll every 5s, settle 2s,
// give up after 10 minutes, ramp progress from 80 to 95.
func DefaultOptions() Options {
	return Options{
		Interval: 5 * time.Second,
		Settle:   2 * time.Second,
		Timeout:  10 * time.Minute,
		RampFrom: 80,
		RampTo:   95,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Interval <= 0 {
		o.Interval = def.Interval
	}
	if o.Settle <= 0 {
		o.Settle = def.Settle
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.RampFrom == 0 && o.RampTo == 0 {
		o.RampFrom, o.RampTo = def.RampFrom, def.RampTo
	}
	return o
}

// Update is a progress report emitted after each unsuccessful poll.
type Update struct {
	Progress float64
	Elapsed  time.Duration
	Message  string
}

// Poller waits for files to appear and stop changing.
type Poller struct {
	lister Lister
	opts   Options
	logger *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Poller. A nil lister uses the local filesystem.
func New(lister Lister, opts Options, logger *slog.Logger) *Poller {
	if lister == nil {
		lister = DirLister{}
	}
	return &Poller{
		lister: lister,
		opts:   opts.withDefaults(),
		logger: logging.NewComponentLogger(logger, "completion"),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Options returns the effective options.
func (p *Poller) Options() Options {
	return p.opts
}

// WithRamp returns a copy of the poller that reports progress between from and to.
func (p *Poller) WithRamp(from, to float64) *Poller {
	clone := *p
	clone.opts.RampFrom = from
	clone.opts.RampTo = to
	return &clone
}

// Wait blocks until path is present and stable, the timeout elapses
// (ErrTimeout), or ctx is done (ctx.Err()). onProgress may be nil.
func (p *Poller) Wait(ctx context.Context, path string, onProgress func(Update)) error {
	dir, name := filepath.Dir(path), filepath.Base(path)
	start := p.now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if first, ok := p.find(ctx, dir, name); ok && first.Size > 0 {
			if err := p.sleep(ctx, p.opts.Settle); err != nil {
				return err
			}
			if second, ok := p.find(ctx, dir, name); ok && second.Size == first.Size && second.ModTime.Equal(first.ModTime) {
				p.logger.Debug("output stable",
					logging.String("path", path),
					logging.Any("size", second.Size),
					logging.Duration("waited", p.now().Sub(start)),
				)
				return nil
			}
		}

		if err := p.sleep(ctx, p.opts.Interval); err != nil {
			return err
		}
		elapsed := p.now().Sub(start)
		if onProgress != nil {
			onProgress(Update{
				Progress: p.ramp(elapsed),
				Elapsed:  elapsed,
				Message:  fmt.Sprintf("Waiting for processing... (%ds elapsed)", int(elapsed.Seconds())),
			})
		}
		if elapsed >= p.opts.Timeout {
			return ErrTimeout
		}
	}
}

func (p *Poller) ramp(elapsed time.Duration) float64 {
	fraction := float64(elapsed) / float64(p.opts.Timeout)
	if fraction > 1 {
		fraction = 1
	}
	value := p.opts.RampFrom + (p.opts.RampTo-p.opts.RampFrom)*fraction
	if value > p.opts.RampTo {
		return p.opts.RampTo
	}
	return value
}

func (p *Poller) find(ctx context.Context, dir, name string) (Entry, bool) {
	entries, err := p.lister.List(ctx, dir)
	if err != nil {
		p.logger.Debug("listing failed; will retry", logging.String("dir", dir), logging.Error(err))
		return Entry{}, false
	}
	for _, entry := range entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
