package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vibemix/internal/completion"
	"vibemix/internal/logging"
	"vibemix/internal/media/ffmpeg"
	"vibemix/internal/services"
	"vibemix/internal/staging"
	"vibemix/internal/store"
	"vibemix/internal/textutil"
)

// User-facing messages that callers and tests match on.
const (
	msgNoRunner      = "Command runner required for video processing"
	msgNoImages      = "No images provided"
	msgNoAudio       = "No audio files provided"
	msgNoOutputDir   = "No output directory selected"
	msgBusy          = "Another run is already generating this project"
	cancelMessage    = "Processing cancelled by user"
	completedMessage = "Video generation complete!"
)

// Generate runs one slideshow generation and always returns exactly one Result.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := g.checkPreconditions(req); err != nil {
		return g.fail(ctx, nil, "", err)
	}
	req.Project.Device, _ = ParseDevice(string(req.Project.Device))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := &run{
		id:      g.newID(),
		title:   req.Project.Title,
		started: time.Now(),
		cancel:  cancel,
		sampler: logging.NewProgressSampler(10),
	}
	runCtx = services.WithRunID(runCtx, r.id)
	logger := logging.WithContext(runCtx, g.logger)

	outputDir, err := g.resolveOutputDir(runCtx, r, req.OutputDir, logger)
	if err != nil {
		return g.fail(runCtx, r, "", g.cancellation(r, err))
	}

	name := textutil.ProjectName(req.Project.Title)
	tempDir := staging.PathFor(outputDir, name)
	outputPath := filepath.Join(outputDir, name+".mp4")

	if !g.claim(tempDir, r) {
		return g.fail(runCtx, nil, "", services.Wrap(services.ErrBusy, string(StagePreparing), "claim staging", msgBusy, nil))
	}
	defer g.release(tempDir)

	logger.Info("generation started",
		logging.String(logging.FieldEventType, "generation_started"),
		logging.String("title", req.Project.Title),
		logging.String("device", string(req.Project.Device)),
		logging.Int("images", len(req.Images)),
		logging.Int("audio", len(req.Audio)),
		logging.String("output_path", outputPath),
	)
	g.recordStart(runCtx, r, req.Project, outputDir, logger)

	result, runErr := g.execute(runCtx, r, req, outputDir, tempDir, outputPath, logger)
	if runErr != nil {
		return g.fail(runCtx, r, outputDir, g.cancellation(r, runErr))
	}

	elapsed := time.Since(r.started)
	logger.Info("generation completed",
		logging.String(logging.FieldEventType, "generation_completed"),
		logging.String("output_path", outputPath),
		logging.Duration("elapsed", elapsed),
	)
	g.recordFinish(runCtx, r, StageComplete, outputDir, outputPath, "", logger)
	if err := g.notifier.NotifyGenerationCompleted(runCtx, req.Project.Title, outputPath, elapsed); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}
	return result
}

func (g *Generator) checkPreconditions(req Request) error {
	const stage = string(StagePreparing)
	switch {
	case g.runner == nil:
		return services.Wrap(services.ErrConfiguration, stage, "check runner", msgNoRunner, nil)
	case len(req.Images) == 0:
		return services.Wrap(services.ErrValidation, stage, "check inputs", msgNoImages, nil)
	case len(req.Audio) == 0:
		return services.Wrap(services.ErrValidation, stage, "check inputs", msgNoAudio, nil)
	}
	if err := req.Project.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, stage, "check project", "Invalid project settings", err)
	}
	return nil
}

// resolveOutputDir prefers the request, then the remembered directory, then
// the configured default, and finally asks the picker. A picked directory is
// remembered for the next run.
func (g *Generator) resolveOutputDir(ctx context.Context, r *run, requested string, logger *slog.Logger) (string, error) {
	dir := strings.TrimSpace(requested)
	if dir == "" && g.settings != nil {
		saved, ok, err := g.settings.Get(ctx, store.OutputDirKey)
		if err != nil {
			logging.WarnWithContext(logger, "remembered output directory unavailable", "settings_read_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the state directory permissions"),
				logging.String(logging.FieldImpact, "falls back to the configured or picked directory"),
			)
		} else if ok {
			dir = strings.TrimSpace(saved)
		}
	}
	if dir == "" {
		dir = strings.TrimSpace(g.cfg.Paths.OutputDir)
	}
	if dir != "" {
		g.publish(r, Status{Stage: StagePreparing, Progress: 5, Message: "Using saved output directory..."})
		return filepath.Clean(dir), nil
	}

	g.publish(r, Status{Stage: StagePreparing, Progress: 5, Message: "Selecting output directory..."})
	if g.picker == nil {
		return "", services.Wrap(services.ErrValidation, string(StagePreparing), "pick output directory", msgNoOutputDir, nil)
	}
	picked, err := g.picker.PickDirectory(ctx)
	if err != nil && ctx.Err() != nil {
		return "", ctx.Err()
	}
	picked = strings.TrimSpace(picked)
	if err != nil || picked == "" {
		if err != nil {
			logger.Debug("directory picker failed", logging.Error(err))
		}
		return "", services.Wrap(services.ErrValidation, string(StagePreparing), "pick output directory", msgNoOutputDir, nil)
	}
	picked = filepath.Clean(picked)
	if g.settings != nil {
		if err := g.settings.Set(ctx, store.OutputDirKey, picked); err != nil {
			logging.WarnWithContext(logger, "failed to remember output directory", "settings_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the state directory permissions"),
				logging.String(logging.FieldImpact, "the directory will be requested again next run"),
			)
		}
	}
	return picked, nil
}

// execute runs the steps after the output directory is known. The staging
// directory is removed on every return path once created.
func (g *Generator) execute(ctx context.Context, r *run, req Request, outputDir, tempDir, outputPath string, logger *slog.Logger) (Result, error) {
	const stage = string(StagePreparing)
	g.publish(r, Status{Stage: StagePreparing, Progress: 10, Message: "Creating temporary files..."})

	dir, err := staging.Create(tempDir, g.writer, logger)
	if err != nil {
		if errors.Is(err, staging.ErrLocked) {
			return Result{}, services.Wrap(services.ErrBusy, stage, "create staging", msgBusy, err)
		}
		return Result{}, services.Wrap(services.ErrStaging, stage, "create staging", "Staging failed", err)
	}
	defer func() {
		if err := dir.Remove(); err != nil {
			logger.Debug("staging removal reported error", logging.Error(err))
		}
	}()

	images, err := dir.StageImages(ctx, payloads(req.Images))
	if err != nil {
		return Result{}, services.Wrap(services.ErrStaging, stage, "stage images", "Staging failed", err)
	}
	audio, err := dir.StageAudio(ctx, payloads(req.Audio))
	if err != nil {
		return Result{}, services.Wrap(services.ErrStaging, stage, "stage audio", "Staging failed", err)
	}
	g.publish(r, Status{Stage: StagePreparing, Progress: 20, Message: "Files prepared, starting video processing..."})

	if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Result{}, services.Wrap(services.ErrStaging, stage, "replace output", "Could not replace existing output", err)
	}

	plan := ffmpeg.Plan{
		Binary:               g.cfg.FFmpeg.Binary,
		Images:               images,
		Audio:                audio,
		WorkDir:              tempDir,
		Output:               outputPath,
		ImageDurationSeconds: req.Project.ImageDurationSeconds,
		LoopCount:            req.Project.LoopCount,
	}
	if err := g.render(ctx, r, req, plan, logger); err != nil {
		return Result{}, err
	}

	g.publish(r, Status{Stage: StageFinalizing, Progress: 80, Message: "Waiting for processing to complete... (monitor the terminal window)"})
	poller := completion.New(g.lister, g.pollOpts, logger).WithRamp(80, 95)
	if err := poller.Wait(ctx, outputPath, func(u completion.Update) {
		g.publish(r, Status{Stage: StageFinalizing, Progress: u.Progress, Message: u.Message})
	}); err != nil {
		return Result{}, g.classifyWait(err)
	}

	completeMessage := completedMessage
	if req.Project.CutEnabled {
		detached, err := g.cut(ctx, r, req.Project, outputDir, outputPath, logger)
		if err != nil {
			return Result{}, err
		}
		if detached {
			completeMessage = completedMessage + " Segments are still being written in the terminal window."
		}
	}

	g.publish(r, Status{Stage: StageFinalizing, Progress: 90, Message: "Cleaning up temporary files..."})
	if err := dir.Remove(); err != nil {
		logger.Debug("staging removal reported error", logging.Error(err))
	}

	g.publish(r, Status{
		Stage:      StageComplete,
		Progress:   100,
		Message:    completeMessage,
		OutputPath: outputPath,
		OutputDir:  outputDir,
	})
	return Result{Success: true, OutputPath: outputPath, OutputDir: outputDir}, nil
}

// cancellation maps context cancellation and user cancels to ErrCanceled.
func (g *Generator) cancellation(r *run, err error) error {
	if g.isCanceled(r) || errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrCanceled, "", "", cancelMessage, nil)
	}
	return err
}

func (g *Generator) classifyWait(err error) error {
	switch {
	case errors.Is(err, completion.ErrTimeout):
		return services.Wrap(services.ErrTimeout, string(StageFinalizing), "await output", completion.ErrTimeout.Error(), nil)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return services.Wrap(services.ErrTimeout, string(StageFinalizing), "await output", "Processing did not finish", err)
	}
}

// fail publishes the error status, records the outcome, and builds the Result.
// A nil run leaves the published status alone.
func (g *Generator) fail(ctx context.Context, r *run, outputDir string, err error) Result {
	message := services.UserMessage(err)
	canceled := errors.Is(err, services.ErrCanceled)
	if r != nil {
		statusMessage := "Error: " + message
		if canceled {
			statusMessage = message
		}
		g.publish(r, Status{Stage: StageError, Progress: 0, Message: statusMessage})
	}

	logger := logging.WithContext(ctx, g.logger)
	if canceled {
		logger.Info("generation cancelled", logging.String(logging.FieldEventType, "generation_cancelled"))
	} else {
		logging.ErrorWithContext(logger, "generation failed", "generation_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
			logging.String(logging.FieldImpact, "no video was produced"),
		)
	}

	if r != nil && r.recorded {
		detached := context.WithoutCancel(ctx)
		g.recordFinish(detached, r, StageError, outputDir, "", message, logger)
		if !canceled {
			if notifyErr := g.notifier.NotifyGenerationFailed(detached, r.title, err); notifyErr != nil {
				logger.Debug("failure notification failed", logging.Error(notifyErr))
			}
		}
	}
	return Result{Success: false, Error: message, Err: err}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "check the supplied images, audio, and project settings"
	case errors.Is(err, services.ErrStaging):
		return "check free space and permissions in the output directory"
	case errors.Is(err, services.ErrExternalTool):
		return "run `vibemix ffmpeg check` and inspect the ffmpeg output"
	case errors.Is(err, services.ErrTimeout):
		return "check the terminal window for ffmpeg errors"
	case errors.Is(err, services.ErrBusy):
		return "wait for the other run to finish or choose another title"
	case errors.Is(err, services.ErrConfiguration):
		return "run `vibemix config validate`"
	default:
		return "see the log for details"
	}
}

func (g *Generator) recordStart(ctx context.Context, r *run, project ProjectConfig, outputDir string, logger *slog.Logger) {
	if g.history == nil {
		return
	}
	rec := store.RunRecord{
		ID:        r.id,
		Title:     project.Title,
		Device:    string(project.Device),
		Stage:     string(StagePreparing),
		OutputDir: outputDir,
		StartedAt: r.started,
	}
	if err := g.history.RecordRunStart(ctx, rec); err != nil {
		logger.Warn("failed to record run start", logging.Error(err))
		return
	}
	r.recorded = true
}

func (g *Generator) recordFinish(ctx context.Context, r *run, stage Stage, outputDir, outputPath, message string, logger *slog.Logger) {
	if g.history == nil || !r.recorded {
		return
	}
	rec := store.RunRecord{
		ID:         r.id,
		Stage:      string(stage),
		OutputDir:  outputDir,
		OutputPath: outputPath,
		Error:      message,
		FinishedAt: time.Now(),
	}
	if err := g.history.RecordRunFinish(ctx, rec); err != nil {
		logger.Debug("failed to record run finish", logging.Error(err))
	}
}

func stageLabel(base, label string, step, steps int) string {
	title := strings.TrimSpace(base + " " + label)
	if steps > 1 {
		return fmt.Sprintf("%s - Step %d", title, step)
	}
	return title
}
