package ffmpeg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"vibemix/internal/config"
)

// Canvas and timing constants shared by every encoder.
const (
	CanvasWidth  = 1920
	CanvasHeight = 1080
	FrameRate    = 25

	// audioLoopSize is the aloop sample buffer: 85 minutes of 44.1kHz audio.
	audioLoopSize = 220500000

	// SegmentFileName is the intermediate silent video produced by hardware encoders.
	SegmentFileName = "slideshow_segment.mp4"
)

// Stage names.
const (
	StageRender  = "render"
	StageSegment = "segment"
	StageMux     = "mux"
	StageCut     = "cut"
)

// Plan describes one slideshow render.
type Plan struct {
	Binary               string
	Images               []string
	Audio                []string
	WorkDir              string
	Output               string
	ImageDurationSeconds int
	LoopCount            int
}

// SegmentPath is where hardware encoders write the silent intermediate video.
func (p Plan) SegmentPath() string {
	return filepath.Join(p.WorkDir, SegmentFileName)
}

// LoopFrames is the frame count of one pass over every image at FrameRate.
func (p Plan) LoopFrames() int {
	return p.ImageDurationSeconds * FrameRate * len(p.Images)
}

// Validate reports plans the builder cannot turn into a well-formed graph.
func (p Plan) Validate() error {
	switch {
	case len(p.Images) == 0:
		return errors.New("plan has no images")
	case len(p.Audio) == 0:
		return errors.New("plan has no audio")
	case strings.TrimSpace(p.Output) == "":
		return errors.New("plan has no output path")
	case p.ImageDurationSeconds < 1:
		return fmt.Errorf("image duration must be at least 1 second (got %d)", p.ImageDurationSeconds)
	case p.LoopCount < 1:
		return fmt.Errorf("loop count must be at least 1 (got %d)", p.LoopCount)
	}
	return nil
}

func (p Plan) binary() string {
	if b := strings.TrimSpace(p.Binary); b != "" {
		return b
	}
	return "ffmpeg"
}

// Encoder builds the device-specific invocations for a plan.
//
// SegmentCommand always produces the first (or only) invocation. MuxCommand
// returns false when the encoder renders in a single pass.
type Encoder interface {
	Device() string
	Label() string
	SegmentCommand(p Plan) Invocation
	MuxCommand(p Plan) (Invocation, bool)
}

// EncoderFor selects the encoder for a device name. Legacy aliases such as
// "gpu" and "amd-gpu" are accepted.
func EncoderFor(device string) (Encoder, error) {
	switch config.NormalizeDevice(device) {
	case config.DeviceCPU:
		return softwareEncoder{}, nil
	case config.DeviceGPUNvidia:
		return hardwareEncoder{
			device: config.DeviceGPUNvidia,
			label:  "GPU Processing",
			codec:  []string{"-c:v", "h264_nvenc", "-preset", "p7", "-cq", "18"},
		}, nil
	case config.DeviceGPUAMD:
		return hardwareEncoder{
			device: config.DeviceGPUAMD,
			label:  "AMD GPU Processing",
			codec:  []string{"-c:v", "h264_amf", "-quality", "quality", "-rc", "cqp", "-qp_i", "18", "-qp_p", "18"},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported processing device %q", device)
	}
}

// Build validates the plan and returns the ordered invocations for device.
func Build(device string, p Plan) ([]Invocation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	enc, err := EncoderFor(device)
	if err != nil {
		return nil, err
	}
	stages := []Invocation{enc.SegmentCommand(p)}
	if mux, ok := enc.MuxCommand(p); ok {
		stages = append(stages, mux)
	}
	return stages, nil
}

type softwareEncoder struct{}

func (softwareEncoder) Device() string { return config.DeviceCPU }

func (softwareEncoder) Label() string { return "CPU Processing" }

func (softwareEncoder) SegmentCommand(p Plan) Invocation {
	var args argList
	args.flag("-y")
	addImageInputs(&args, p)
	addAudioInputs(&args, p.Audio)

	graph := strings.Join([]string{
		scaleChains(len(p.Images)),
		imageConcat(len(p.Images)) + ",fps=" + strconv.Itoa(FrameRate) +
			",loop=loop=-1:size=" + strconv.Itoa(p.LoopFrames()) + "[v]",
		audioChain(len(p.Images), len(p.Audio), p.LoopCount),
	}, "; ")
	args.flag("-filter_complex")
	args.literal(graph)
	args.flag("-map")
	args.literal("[v]")
	args.flag("-map")
	args.literal("[a]")
	args.flag("-c:v", "libx264", "-preset", "medium", "-crf", "23")
	args.flag("-c:a", "aac", "-shortest")
	args.literal(p.Output)
	return args.invocation(p.binary(), StageRender, p.Output)
}

func (softwareEncoder) MuxCommand(Plan) (Invocation, bool) {
	return Invocation{}, false
}

// hardwareEncoder renders a silent segment on the GPU, then loops it under
// the audio with a stream copy.
type hardwareEncoder struct {
	device string
	label  string
	codec  []string
}

func (e hardwareEncoder) Device() string { return e.device }

func (e hardwareEncoder) Label() string { return e.label }

func (e hardwareEncoder) SegmentCommand(p Plan) Invocation {
	var args argList
	args.flag("-y")
	addImageInputs(&args, p)

	graph := scaleChains(len(p.Images)) + "; " +
		imageConcat(len(p.Images)) + ",fps=" + strconv.Itoa(FrameRate) + "[v]"
	args.flag("-filter_complex")
	args.literal(graph)
	args.flag("-map")
	args.literal("[v]")
	args.flag(e.codec...)
	args.flag("-an")
	segment := p.SegmentPath()
	args.literal(segment)
	return args.invocation(p.binary(), StageSegment, segment)
}

func (e hardwareEncoder) MuxCommand(p Plan) (Invocation, bool) {
	var args argList
	args.flag("-y", "-stream_loop", "-1", "-i")
	args.literal(p.SegmentPath())
	addAudioInputs(&args, p.Audio)
	args.flag("-filter_complex")
	args.literal(audioChain(1, len(p.Audio), p.LoopCount))
	args.flag("-map", "0:v", "-map")
	args.literal("[a]")
	args.flag("-c:v", "copy", "-c:a", "aac", "-shortest")
	args.literal(p.Output)
	return args.invocation(p.binary(), StageMux, p.Output), true
}

func addImageInputs(args *argList, p Plan) {
	duration := strconv.Itoa(p.ImageDurationSeconds)
	for _, image := range p.Images {
		args.flag("-loop", "1", "-t", duration, "-i")
		args.literal(image)
	}
}

func addAudioInputs(args *argList, audio []string) {
	for _, track := range audio {
		args.flag("-i")
		args.literal(track)
	}
}

// scaleChains letterboxes every image input onto the canvas as [v0]..[vN-1].
func scaleChains(count int) string {
	chains := make([]string, count)
	for i := range count {
		chains[i] = fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,format=yuv420p[v%d]",
			i, CanvasWidth, CanvasHeight, CanvasWidth, CanvasHeight, i)
	}
	return strings.Join(chains, "; ")
}

func imageConcat(count int) string {
	var b strings.Builder
	for i := range count {
		fmt.Fprintf(&b, "[v%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=0", count)
	return b.String()
}

// audioChain concatenates audio inputs starting at input index first and
// repeats the result loops times as [a].
func audioChain(first, count, loops int) string {
	var b strings.Builder
	for i := range count {
		fmt.Fprintf(&b, "[%d:a]", first+i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[a_cat]; [a_cat]aloop=loop=%d:size=%d[a]", count, loops-1, audioLoopSize)
	return b.String()
}
