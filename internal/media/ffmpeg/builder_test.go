package ffmpeg

import (
	"path/filepath"
	"strings"
	"testing"
)

func samplePlan(images, audio int) Plan {
	work := filepath.Join("/out", "my_trip_temp")
	plan := Plan{
		WorkDir:              work,
		Output:               filepath.Join("/out", "my_trip.mp4"),
		ImageDurationSeconds: 5,
		LoopCount:            2,
	}
	for i := range images {
		plan.Images = append(plan.Images, filepath.Join(work, itoa(i)+".png"))
	}
	for i := range audio {
		plan.Audio = append(plan.Audio, filepath.Join(work, itoa(i)+".wav"))
	}
	return plan
}

func itoa(i int) string {
	return string(rune('0' + i))
}

func TestLoopFrames(t *testing.T) {
	for duration := 1; duration <= 6; duration++ {
		for count := 1; count <= 4; count++ {
			plan := samplePlan(count, 1)
			plan.ImageDurationSeconds = duration
			if got, want := plan.LoopFrames(), duration*25*count; got != want {
				t.Fatalf("LoopFrames(duration=%d, images=%d) = %d, want %d", duration, count, got, want)
			}
		}
	}
}

func TestBuildSoftware(t *testing.T) {
	plan := samplePlan(2, 2)
	stages, err := Build("cpu", plan)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(stages) != 1 {
		t.Fatalf("expected single stage, got %d", len(stages))
	}
	inv := stages[0]
	if inv.Stage != StageRender || inv.Output != plan.Output || inv.Binary != "ffmpeg" {
		t.Fatalf("unexpected invocation %+v", inv)
	}
	graph := argAfter(t, inv.Args, "-filter_complex")
	wantGraph := "[0:v]scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,setsar=1,format=yuv420p[v0]; " +
		"[1:v]scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,setsar=1,format=yuv420p[v1]; " +
		"[v0][v1]concat=n=2:v=1:a=0,fps=25,loop=loop=-1:size=250[v]; " +
		"[2:a][3:a]concat=n=2:v=0:a=1[a_cat]; [a_cat]aloop=loop=1:size=220500000[a]"
	if graph != wantGraph {
		t.Fatalf("filter graph mismatch:\n got: %s\nwant: %s", graph, wantGraph)
	}
	line := inv.line(false)
	for _, want := range []string{
		`ffmpeg -y -loop 1 -t 5 -i '/out/my_trip_temp/0.png' -loop 1 -t 5 -i '/out/my_trip_temp/1.png' -i '/out/my_trip_temp/0.wav'`,
		`-map '[v]' -map '[a]' -c:v libx264 -preset medium -crf 23 -c:a aac -shortest '/out/my_trip.mp4'`,
		`-filter_complex '` + wantGraph + `'`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("command line missing %q:\n%s", want, line)
		}
	}
}

func TestBuildHardwareStages(t *testing.T) {
	tests := []struct {
		device string
		codec  string
	}{
		{"gpu-nvidia", "-c:v h264_nvenc -preset p7 -cq 18 -an"},
		{"gpu", "-c:v h264_nvenc -preset p7 -cq 18 -an"},
		{"gpu-amd", "-c:v h264_amf -quality quality -rc cqp -qp_i 18 -qp_p 18 -an"},
		{"amd-gpu", "-c:v h264_amf -quality quality -rc cqp -qp_i 18 -qp_p 18 -an"},
	}
	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			plan := samplePlan(1, 2)
			stages, err := Build(tt.device, plan)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(stages) != 2 {
				t.Fatalf("expected two stages, got %d", len(stages))
			}
			segment, mux := stages[0], stages[1]
			if segment.Stage != StageSegment || segment.Output != plan.SegmentPath() {
				t.Fatalf("unexpected segment invocation %+v", segment)
			}
			if !strings.Contains(segment.line(false), tt.codec) {
				t.Fatalf("segment command missing %q: %s", tt.codec, segment.line(false))
			}
			if got := argAfter(t, segment.Args, "-filter_complex"); !strings.HasSuffix(got, "[v0]concat=n=1:v=1:a=0,fps=25[v]") {
				t.Fatalf("unexpected segment graph %q", got)
			}
			if strings.Contains(segment.line(false), ".wav") {
				t.Fatalf("segment stage must not read audio: %s", segment.line(false))
			}

			if mux.Stage != StageMux || mux.Output != plan.Output {
				t.Fatalf("unexpected mux invocation %+v", mux)
			}
			wantPrefix := `ffmpeg -y -stream_loop -1 -i '/out/my_trip_temp/slideshow_segment.mp4' -i '/out/my_trip_temp/0.wav' -i '/out/my_trip_temp/1.wav'`
			if !strings.HasPrefix(mux.line(false), wantPrefix) {
				t.Fatalf("mux command prefix mismatch:\n%s", mux.line(false))
			}
			wantGraph := "[1:a][2:a]concat=n=2:v=0:a=1[a_cat]; [a_cat]aloop=loop=1:size=220500000[a]"
			if got := argAfter(t, mux.Args, "-filter_complex"); got != wantGraph {
				t.Fatalf("mux graph = %q, want %q", got, wantGraph)
			}
			if !strings.HasSuffix(mux.line(false), `-map 0:v -map '[a]' -c:v copy -c:a aac -shortest '/out/my_trip.mp4'`) {
				t.Fatalf("mux command suffix mismatch:\n%s", mux.line(false))
			}
		})
	}
}

func TestBuildRejectsInvalidPlans(t *testing.T) {
	tests := map[string]func(*Plan){
		"no images":     func(p *Plan) { p.Images = nil },
		"no audio":      func(p *Plan) { p.Audio = nil },
		"no output":     func(p *Plan) { p.Output = " " },
		"zero duration": func(p *Plan) { p.ImageDurationSeconds = 0 },
		"zero loops":    func(p *Plan) { p.LoopCount = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			plan := samplePlan(1, 1)
			mutate(&plan)
			if _, err := Build("cpu", plan); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Build("quantum", samplePlan(1, 1)); err == nil {
		t.Fatal("expected error for unknown device")
	}
}

func TestEncoderDevices(t *testing.T) {
	for device, want := range map[string]string{
		"":           "cpu",
		"cpu":        "cpu",
		"nvenc":      "gpu-nvidia",
		"amd":        "gpu-amd",
		"gpu-amd":    "gpu-amd",
		"GPU":        "gpu-nvidia",
		"amd-gpu":    "gpu-amd",
		"gpu-nvidia": "gpu-nvidia",
	} {
		enc, err := EncoderFor(device)
		if err != nil {
			t.Fatalf("EncoderFor(%q): %v", device, err)
		}
		if enc.Device() != want {
			t.Fatalf("EncoderFor(%q).Device() = %q, want %q", device, enc.Device(), want)
		}
	}
}

func TestCommandLineQuotesPathsWithSpaces(t *testing.T) {
	plan := samplePlan(1, 1)
	plan.Binary = "/opt/my tools/ffmpeg"
	plan.Output = `/out/My "Best" Trip.mp4`
	stages, err := Build("cpu", plan)
	if err != nil {
		t.Fatal(err)
	}
	line := stages[0].line(false)
	if !strings.HasPrefix(line, `'/opt/my tools/ffmpeg' -y`) {
		t.Fatalf("binary not quoted: %s", line)
	}
	if !strings.HasSuffix(line, `'/out/My "Best" Trip.mp4'`) {
		t.Fatalf("output not escaped: %s", line)
	}
}

func TestPosixLineKeepsShellCharactersLiteral(t *testing.T) {
	plan := samplePlan(1, 1)
	plan.Output = "/out/$HOME `id` back\\slash it's.mp4"
	stages, err := Build("cpu", plan)
	if err != nil {
		t.Fatal(err)
	}
	line := stages[0].line(false)
	want := `'/out/$HOME ` + "`id`" + ` back\slash it'\''s.mp4'`
	if !strings.HasSuffix(line, want) {
		t.Fatalf("output not single-quoted:\n got: %s\nwant suffix: %s", line, want)
	}
}

func TestWindowsLineUsesDoubleQuotes(t *testing.T) {
	plan := samplePlan(1, 1)
	plan.Binary = "/opt/my tools/ffmpeg"
	plan.Output = `/out/My "Best" Trip.mp4`
	stages, err := Build("cpu", plan)
	if err != nil {
		t.Fatal(err)
	}
	line := stages[0].line(true)
	if !strings.HasPrefix(line, `"/opt/my tools/ffmpeg" -y`) {
		t.Fatalf("binary not quoted: %s", line)
	}
	if !strings.HasSuffix(line, `"/out/My \"Best\" Trip.mp4"`) {
		t.Fatalf("output not escaped: %s", line)
	}
}

func TestCutCommand(t *testing.T) {
	inv, err := CutCommand(CutPlan{
		Input:           "/out/my_trip.mp4",
		SegmentsDir:     "/out/segments",
		BaseName:        "my_trip",
		IntervalMinutes: 1.5,
	})
	if err != nil {
		t.Fatalf("CutCommand: %v", err)
	}
	want := `ffmpeg -y -i '/out/my_trip.mp4' -map 0 -c copy -f segment -segment_time 90 -reset_timestamps 1 '/out/segments/my_trip_%03d.mp4'`
	if got := inv.line(false); got != want {
		t.Fatalf("cut command:\n got: %s\nwant: %s", got, want)
	}
	if inv.Stage != StageCut || inv.Output != "/out/segments" {
		t.Fatalf("unexpected cut invocation %+v", inv)
	}

	if _, err := CutCommand(CutPlan{Input: "a.mp4", SegmentsDir: "s", BaseName: "a"}); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if _, err := CutCommand(CutPlan{SegmentsDir: "s", BaseName: "a", IntervalMinutes: 1}); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func argAfter(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}
