package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vibemix/internal/completion"
	"vibemix/internal/config"
	"vibemix/internal/logging"
	"vibemix/internal/logs"
	"vibemix/internal/media/ffmpeg"
	"vibemix/internal/services"
	"vibemix/internal/shell"
)

// band maps a stage's own 0-100 progress onto a slice of the run's progress.
type band struct {
	stage   Stage
	from    float64
	to      float64
	message string
}

func (b band) at(percent float64) float64 {
	return b.from + (b.to-b.from)*percent/100
}

func (g *Generator) attached() bool {
	return g.launchMode == config.LauncherAttached
}

// terminalHint is appended to stage messages when ffmpeg runs in a visible window.
func (g *Generator) terminalHint() string {
	if g.attached() {
		return ""
	}
	return " (check terminal window)"
}

// render launches the device-specific invocations. On two-stage devices the
// audio mux is only started once the silent segment is complete.
func (g *Generator) render(ctx context.Context, r *run, req Request, plan ffmpeg.Plan, logger *slog.Logger) error {
	device := string(req.Project.Device)
	enc, err := ffmpeg.EncoderFor(device)
	if err != nil {
		return services.Wrap(services.ErrValidation, string(StageProcessingVideo), "select encoder", "Invalid project settings", err)
	}
	invocations, err := ffmpeg.Build(device, plan)
	if err != nil {
		return services.Wrap(services.ErrValidation, string(StageProcessingVideo), "build command", "Could not build ffmpeg command", err)
	}

	accelerator := strings.TrimSuffix(enc.Label(), " Processing")
	outputSeconds := totalAudioSeconds(req.Audio) * float64(req.Project.LoopCount)
	steps := len(invocations)

	if !req.Project.Device.TwoStage() {
		video := band{stage: StageProcessingVideo, from: 25, to: 80,
			message: fmt.Sprintf("Processing video with %s...%s", accelerator, g.terminalHint())}
		g.publish(r, Status{Stage: video.stage, Progress: video.from, Message: video.message})
		title := stageLabel(g.cfg.Launcher.WindowTitle, enc.Label(), 1, steps)
		return g.runStage(ctx, r, invocations[0], title, plan.WorkDir, video, outputSeconds)
	}

	if steps != 2 {
		return services.Wrap(services.ErrValidation, string(StageProcessingVideo), "build command", "Could not build ffmpeg command",
			fmt.Errorf("expected segment and mux invocations, got %d", steps))
	}
	segment, mux := invocations[0], invocations[1]
	video := band{stage: StageProcessingVideo, from: 25, to: 55,
		message: fmt.Sprintf("Creating video segment with %s acceleration...", accelerator)}
	g.publish(r, Status{Stage: video.stage, Progress: video.from, Message: video.message})
	segmentSeconds := float64(plan.ImageDurationSeconds * len(plan.Images))
	if err := g.runStage(ctx, r, segment, stageLabel(g.cfg.Launcher.WindowTitle, enc.Label(), 1, steps), plan.WorkDir, video, segmentSeconds); err != nil {
		return err
	}
	if !g.attached() {
		probe := completion.New(g.lister, g.pollOpts, logger).WithRamp(video.from, video.to)
		err := probe.Wait(ctx, segment.Output, func(u completion.Update) {
			g.publish(r, Status{Stage: video.stage, Progress: u.Progress, Message: video.message})
		})
		if err != nil {
			return g.classifyWait(err)
		}
	}

	audio := band{stage: StageProcessingAudio, from: 60, to: 80,
		message: "Adding audio track..." + g.terminalHint()}
	g.publish(r, Status{Stage: audio.stage, Progress: audio.from, Message: audio.message})
	return g.runStage(ctx, r, mux, stageLabel(g.cfg.Launcher.WindowTitle, enc.Label(), 2, steps), plan.WorkDir, audio, outputSeconds)
}

// runStage starts one invocation. In terminal mode it returns once the
// window is launched; in attached mode it waits for exit and streams
// progress into b.
func (g *Generator) runStage(ctx context.Context, r *run, inv ffmpeg.Invocation, title, workDir string, b band, totalSeconds float64) error {
	ctx = services.WithStage(ctx, string(b.stage))
	logger := logging.WithContext(ctx, g.logger)
	logger.Info("starting ffmpeg stage",
		logging.String(logging.FieldEventType, "ffmpeg_stage_started"),
		logging.String("step", inv.Stage),
		logging.String("command", inv.CommandLine()),
		logging.String("launch_mode", g.launchMode),
	)

	if !g.attached() {
		cmd := shell.Command{
			Title:   title,
			Binary:  inv.Binary,
			Args:    inv.Args,
			Line:    inv.CommandLine(),
			Dir:     workDir,
			LogPath: g.launchLogPath(r),
		}
		if err := g.runner.Launch(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return services.Wrap(services.ErrExternalTool, string(b.stage), "launch "+inv.Stage, "Failed to launch ffmpeg", err)
		}
		return nil
	}

	tracker := ffmpeg.NewProgressTracker(totalSeconds)
	r.sampler.Reset()
	cmd := shell.Command{
		Title:  title,
		Binary: inv.Binary,
		Args:   inv.Args,
		Dir:    workDir,
		OnOutput: func(line string) {
			percent := tracker.Feed(line)
			if percent <= 0 {
				return
			}
			g.publish(r, Status{Stage: b.stage, Progress: b.at(percent), Message: b.message})
			if r.sampler.ShouldLog(inv.Stage, int(percent)) {
				logger.Debug("ffmpeg progress",
					logging.String(logging.FieldStage, inv.Stage),
					logging.Float64("percent", percent),
				)
			}
		},
	}
	if _, err := g.runner.Run(ctx, cmd); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, string(b.stage), "run "+inv.Stage, "FFmpeg failed", err)
	}
	return nil
}

func (g *Generator) launchLogPath(r *run) string {
	if r == nil {
		return ""
	}
	return logs.RunLogPath(g.cfg.Paths.LogDir, r.id)
}

// cut splits the finished video into fixed-length segments next to it. It
// reports true when the split continues in a detached terminal.
func (g *Generator) cut(ctx context.Context, r *run, project ProjectConfig, outputDir, outputPath string, logger *slog.Logger) (bool, error) {
	const stage = string(StageFinalizing)
	segmentsDir := filepath.Join(outputDir, ffmpeg.SegmentsDirName)
	if err := os.MkdirAll(segmentsDir, 0o755); err != nil {
		return false, services.Wrap(services.ErrStaging, stage, "create segments dir", "Could not create segments directory", err)
	}
	baseName := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	inv, err := ffmpeg.CutCommand(ffmpeg.CutPlan{
		Binary:          g.cfg.FFmpeg.Binary,
		Input:           outputPath,
		SegmentsDir:     segmentsDir,
		BaseName:        baseName,
		IntervalMinutes: project.CutIntervalMinutes,
	})
	if err != nil {
		return false, services.Wrap(services.ErrValidation, stage, "build cut", "Could not build cut command", err)
	}

	minutes := strconv.FormatFloat(project.CutIntervalMinutes, 'f', -1, 64)
	split := band{stage: StageFinalizing, from: 85, to: 90,
		message: fmt.Sprintf("Splitting video into %s-minute segments...", minutes)}
	g.publish(r, Status{Stage: split.stage, Progress: split.from, Message: split.message})
	if err := g.notifier.NotifyCutStarted(ctx, project.Title, segmentsDir); err != nil {
		logger.Debug("cut notification failed", logging.Error(err))
	}

	title := stageLabel(g.cfg.Launcher.WindowTitle, "Splitting Video", 1, 1)
	if err := g.runStage(ctx, r, inv, title, outputDir, split, 0); err != nil {
		return false, err
	}
	if g.attached() {
		return false, nil
	}

	g.publish(r, Status{Stage: split.stage, Progress: split.from,
		Message: split.message + " (continues in terminal window)"})
	if err := g.sleep(ctx, g.cutSettle); err != nil {
		return false, err
	}
	return true, nil
}
