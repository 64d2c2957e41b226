package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"vibemix/internal/completion"
	"vibemix/internal/config"
	"vibemix/internal/pipeline"
	"vibemix/internal/shell"
	"vibemix/internal/staging"
	"vibemix/internal/testsupport"
)

type fakeRunner struct {
	mu       sync.Mutex
	launched []shell.Command
	ran      []shell.Command
	onLaunch func(cmd shell.Command) error
	onRun    func(cmd shell.Command) (shell.Result, error)
}

func (f *fakeRunner) Launch(_ context.Context, cmd shell.Command) error {
	f.mu.Lock()
	f.launched = append(f.launched, cmd)
	hook := f.onLaunch
	f.mu.Unlock()
	if hook != nil {
		return hook(cmd)
	}
	return nil
}

func (f *fakeRunner) Run(_ context.Context, cmd shell.Command) (shell.Result, error) {
	f.mu.Lock()
	f.ran = append(f.ran, cmd)
	hook := f.onRun
	f.mu.Unlock()
	if hook != nil {
		return hook(cmd)
	}
	return shell.Result{}, nil
}

func (f *fakeRunner) launches() []shell.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shell.Command(nil), f.launched...)
}

func (f *fakeRunner) runs() []shell.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shell.Command(nil), f.ran...)
}

// outputOf returns the artifact an ffmpeg invocation writes: its last argument.
func outputOf(cmd shell.Command) string {
	if len(cmd.Args) == 0 {
		return ""
	}
	out := cmd.Args[len(cmd.Args)-1]
	if strings.Contains(out, "%03d") {
		out = fmt.Sprintf(out, 0)
	}
	return out
}

func writeArtifact(cmd shell.Command) error {
	return os.WriteFile(outputOf(cmd), []byte("rendered video"), 0o644)
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
	cuts      []string
}

func (n *fakeNotifier) NotifyGenerationCompleted(_ context.Context, title, _ string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, title)
	return nil
}

func (n *fakeNotifier) NotifyGenerationFailed(_ context.Context, title string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, title)
	return nil
}

func (n *fakeNotifier) NotifyCutStarted(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cuts = append(n.cuts, title)
	return nil
}

func (n *fakeNotifier) TestNotification(context.Context) error { return nil }

type statusLog struct {
	mu      sync.Mutex
	entries []pipeline.Status
}

func (l *statusLog) record(st pipeline.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, st)
}

func (l *statusLog) all() []pipeline.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]pipeline.Status(nil), l.entries...)
}

// stages collapses consecutive duplicates.
func (l *statusLog) stages() []pipeline.Stage {
	var out []pipeline.Stage
	for _, st := range l.all() {
		if len(out) == 0 || out[len(out)-1] != st.Stage {
			out = append(out, st.Stage)
		}
	}
	return out
}

// failingWriter writes through to disk until it sees a path with failExt.
type failingWriter struct {
	failExt string
}

func (w failingWriter) Write(ctx context.Context, path string, data []byte, enc staging.Encoding) error {
	if filepath.Ext(path) == w.failExt {
		return errors.New("disk quota exceeded")
	}
	return staging.FileWriter{}.Write(ctx, path, data, enc)
}

type harness struct {
	cfg       *config.Config
	runner    *fakeRunner
	notifier  *fakeNotifier
	log       *statusLog
	outputDir string
	gen       *pipeline.Generator
}

func fastPolling() completion.Options {
	return completion.Options{
		Interval: 5 * time.Millisecond,
		Settle:   2 * time.Millisecond,
		Timeout:  2 * time.Second,
	}
}

func newHarness(t *testing.T, mode string, opts ...pipeline.Option) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithLauncherMode(mode))
	h := &harness{
		cfg:       cfg,
		runner:    &fakeRunner{},
		notifier:  &fakeNotifier{},
		log:       &statusLog{},
		outputDir: cfg.Paths.OutputDir,
	}
	base := []pipeline.Option{
		pipeline.WithRunner(h.runner),
		pipeline.WithNotifier(h.notifier),
		pipeline.WithPollOptions(fastPolling()),
		pipeline.WithStatusListener(h.log.record),
		pipeline.WithCutSettle(0),
	}
	h.gen = pipeline.NewGenerator(cfg, append(base, opts...)...)
	return h
}

func project(title string, device pipeline.Device) pipeline.ProjectConfig {
	return pipeline.ProjectConfig{
		Title:                title,
		LoopCount:            1,
		ImageDurationSeconds: 5,
		Device:               device,
	}
}

func assets(kind string, count int, seconds float64) []pipeline.MediaAsset {
	out := make([]pipeline.MediaAsset, 0, count)
	for i, data := range testsupport.MediaPayloads(kind, count) {
		out = append(out, pipeline.MediaAsset{
			Name:            fmt.Sprintf("%s-original-%d", kind, i),
			Data:            data,
			DurationSeconds: seconds,
		})
	}
	return out
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to be absent, stat err=%v", path, err)
	}
}

func assertNonDecreasing(t *testing.T, statuses []pipeline.Status) {
	t.Helper()
	last := -1.0
	for _, st := range statuses {
		if st.Stage == pipeline.StageError {
			return
		}
		if st.Progress < last {
			t.Fatalf("progress moved backwards: %.2f after %.2f (%s)", st.Progress, last, st.Message)
		}
		last = st.Progress
	}
}
