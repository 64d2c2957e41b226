package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vibemix/internal/config"
	"vibemix/internal/logging"
	"vibemix/internal/media/ffprobe"
	"vibemix/internal/pipeline"
	"vibemix/internal/store"
)

type generateOptions struct {
	images        []string
	audio         []string
	title         string
	loops         int
	imageDuration int
	device        string
	cut           bool
	cutInterval   float64
	output        string
	mode          string
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render images and audio into a slideshow video",
		Long: `Render images and audio into a slideshow video.

Images are shown in order for --image-duration seconds each and loop for the
length of the audio. Audio tracks play in order and repeat --loop times.
The output directory comes from --output, then the remembered directory,
then paths.output_dir, and finally an interactive prompt.`,
		Example: `  vibemix generate --image cover.png --audio a.mp3 --audio b.mp3 --title "Late Night"
  vibemix generate -i 1.jpg -i 2.jpg -a mix.wav --device gpu-nvidia --cut --cut-interval 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runGenerate(cmd, ctx, cfg, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.images, "image", "i", nil, "Image file (repeatable, in display order)")
	cmd.Flags().StringArrayVarP(&opts.audio, "audio", "a", nil, "Audio file (repeatable, in playback order)")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Project title (default from config)")
	cmd.Flags().IntVar(&opts.loops, "loop", 0, "Number of times the audio plays (default from config)")
	cmd.Flags().IntVar(&opts.imageDuration, "image-duration", 0, "Seconds each image is shown (default from config)")
	cmd.Flags().StringVar(&opts.device, "device", "", "Processing device: cpu, gpu-nvidia, or gpu-amd")
	cmd.Flags().BoolVar(&opts.cut, "cut", false, "Split the finished video into fixed-length segments")
	cmd.Flags().Float64Var(&opts.cutInterval, "cut-interval", 0, "Segment length in minutes when --cut is set")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Launcher mode: terminal or attached (default from config)")
	return cmd
}

func runGenerate(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, opts generateOptions) error {
	logger := ctx.loggerFor(cfg)
	project := projectFromFlags(cmd, cfg, opts)

	if mode := strings.ToLower(strings.TrimSpace(opts.mode)); mode != "" {
		if mode != config.LauncherTerminal && mode != config.LauncherAttached {
			return fmt.Errorf("unsupported launcher mode %q (want terminal or attached)", opts.mode)
		}
		opts.mode = mode
	}

	images, err := readAssets(opts.images)
	if err != nil {
		return err
	}
	audio, err := readAssets(opts.audio)
	if err != nil {
		return err
	}
	probeDurations(cmd.Context(), cfg.FFmpeg.ProbeBinary, opts.audio, audio, logger)

	outputDir := strings.TrimSpace(opts.output)
	if outputDir != "" {
		expanded, err := config.ExpandPath(outputDir)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		outputDir = expanded
	}

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer st.Close()

	progress := newProgressView(cmd.ErrOrStderr(), ctx.JSONMode())
	genOpts := []pipeline.Option{
		pipeline.WithRunner(ctx.runner(cfg)),
		pipeline.WithSettings(st),
		pipeline.WithHistory(st),
		pipeline.WithLogger(logger),
		pipeline.WithPicker(promptPicker(cmd.InOrStdin(), cmd.ErrOrStderr())),
		pipeline.WithStatusListener(progress.update),
	}
	if opts.mode != "" {
		genOpts = append(genOpts, pipeline.WithLaunchMode(opts.mode))
	}
	gen := pipeline.NewGenerator(cfg, genOpts...)

	result := gen.Generate(cmd.Context(), pipeline.Request{
		Project:   project,
		Images:    images,
		Audio:     audio,
		OutputDir: outputDir,
	})
	progress.finish()

	if ctx.JSONMode() {
		if err := writeJSON(cmd, result); err != nil {
			return err
		}
	} else if result.Success {
		fmt.Fprintf(cmd.OutOrStdout(), "Video written to %s\n", result.OutputPath)
	}
	if !result.Success {
		return errors.New(result.Error)
	}
	return nil
}

// projectFromFlags overlays the flags the user set onto the [project] defaults.
func projectFromFlags(cmd *cobra.Command, cfg *config.Config, opts generateOptions) pipeline.ProjectConfig {
	project := pipeline.ProjectFromConfig(cfg)
	flags := cmd.Flags()
	if flags.Changed("title") {
		project.Title = strings.TrimSpace(opts.title)
	}
	if flags.Changed("loop") {
		project.LoopCount = opts.loops
	}
	if flags.Changed("image-duration") {
		project.ImageDurationSeconds = opts.imageDuration
	}
	if flags.Changed("device") {
		project.Device = pipeline.Device(opts.device)
	}
	if flags.Changed("cut") {
		project.CutEnabled = opts.cut
	}
	if flags.Changed("cut-interval") {
		project.CutIntervalMinutes = opts.cutInterval
	}
	return project
}

func readAssets(paths []string) ([]pipeline.MediaAsset, error) {
	assets := make([]pipeline.MediaAsset, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		assets = append(assets, pipeline.MediaAsset{Name: filepath.Base(path), Data: data})
	}
	return assets, nil
}

// probeDurations fills in audio durations for progress reporting. Files
// ffprobe cannot read keep a zero duration.
func probeDurations(ctx context.Context, probeBinary string, paths []string, assets []pipeline.MediaAsset, logger *slog.Logger) {
	for i := range assets {
		seconds, err := ffprobe.AudioDuration(ctx, probeBinary, paths[i])
		if err != nil {
			logging.WarnWithContext(logger, "audio duration unavailable", "audio_probe_failed",
				logging.String("path", paths[i]),
				logging.Error(err),
				logging.String(logging.FieldImpact, "progress percentages are estimated"),
			)
			continue
		}
		assets[i].DurationSeconds = seconds
	}
}

// promptPicker asks for an output directory on the terminal.
func promptPicker(in io.Reader, out io.Writer) pipeline.DirectoryPicker {
	return pipeline.DirectoryPickerFunc(func(ctx context.Context) (string, error) {
		fmt.Fprint(out, "Output directory: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return "", nil
		}
		expanded, err := config.ExpandPath(line)
		if err != nil {
			return "", err
		}
		return filepath.Abs(expanded)
	})
}

// progressView renders status updates as a bar on terminals and as plain
// lines elsewhere. JSON mode prints nothing.
type progressView struct {
	out     io.Writer
	bar     *progressbar.ProgressBar
	quiet   bool
	lastMsg string
	titler  cases.Caser
}

func newProgressView(out io.Writer, jsonMode bool) *progressView {
	view := &progressView{out: out, quiet: jsonMode, titler: cases.Title(language.Und)}
	if !jsonMode && shouldColorize(out) {
		view.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Preparing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
		)
	}
	return view
}

func (v *progressView) update(st pipeline.Status) {
	if v.quiet {
		return
	}
	if v.bar != nil {
		v.bar.Describe(v.stageLabel(st.Stage))
		_ = v.bar.Set(int(math.Round(st.Progress)))
		return
	}
	if st.Message == v.lastMsg {
		return
	}
	v.lastMsg = st.Message
	fmt.Fprintf(v.out, "[%3.0f%%] %s\n", st.Progress, st.Message)
}

func (v *progressView) finish() {
	if v.bar != nil && !v.bar.IsFinished() {
		_ = v.bar.Exit()
		fmt.Fprintln(v.out)
	}
}

func (v *progressView) stageLabel(stage pipeline.Stage) string {
	return v.titler.String(strings.ReplaceAll(string(stage), "-", " "))
}
