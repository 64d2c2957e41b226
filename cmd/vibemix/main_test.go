package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vibemix/internal/store"
	"vibemix/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "launcher: attached")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err == nil {
		t.Fatal("expected config init to refuse an existing file without --overwrite")
	}
}

func TestConfigValidateRejectsBadDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[project]\ndevice = \"quantum\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected invalid device to fail validation")
	}
}

func TestSettingsSetGetClear(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "videos")

	out, _, err := runCLI(t, []string{"settings", "get"}, env.configPath)
	if err != nil {
		t.Fatalf("settings get: %v", err)
	}
	requireContains(t, out, "No output directory remembered")

	if _, _, err := runCLI(t, []string{"settings", "set", target}, env.configPath); err != nil {
		t.Fatalf("settings set: %v", err)
	}

	out, _, err = runCLI(t, []string{"--json", "settings", "get"}, env.configPath)
	if err != nil {
		t.Fatalf("settings get json: %v", err)
	}
	var payload struct {
		Key   string `json:"key"`
		Value string `json:"value"`
		Set   bool   `json:"set"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode settings json: %v (%q)", err, out)
	}
	if !payload.Set || payload.Value != target || payload.Key != store.OutputDirKey {
		t.Fatalf("unexpected settings payload: %+v", payload)
	}

	if _, _, err := runCLI(t, []string{"settings", "clear"}, env.configPath); err != nil {
		t.Fatalf("settings clear: %v", err)
	}
	out, _, err = runCLI(t, []string{"settings", "get"}, env.configPath)
	if err != nil {
		t.Fatalf("settings get after clear: %v", err)
	}
	requireContains(t, out, "No output directory remembered")
}

func TestHistoryListsAndClearsRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	st := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()
	started := time.Now().Add(-2 * time.Minute)
	rec := store.RunRecord{ID: "run-1", Title: "Late Night", Device: "cpu", Stage: "preparing", StartedAt: started}
	if err := st.RecordRunStart(ctx, rec); err != nil {
		t.Fatalf("RecordRunStart: %v", err)
	}
	rec.Stage = "complete"
	rec.OutputPath = filepath.Join(env.cfg.Paths.OutputDir, "late_night.mp4")
	rec.FinishedAt = started.Add(90 * time.Second)
	if err := st.RecordRunFinish(ctx, rec); err != nil {
		t.Fatalf("RecordRunFinish: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Late Night")
	requireContains(t, out, "1m30s")
	requireContains(t, out, "late_night.mp4")

	out, _, err = runCLI(t, []string{"--json", "history"}, env.configPath)
	if err != nil {
		t.Fatalf("history json: %v", err)
	}
	var runs []store.RunRecord
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history json: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" || runs[0].Stage != "complete" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	out, _, err = runCLI(t, []string{"history", "--clear"}, env.configPath)
	if err != nil {
		t.Fatalf("history --clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 run(s)")
}

func TestStagingListAndClean(t *testing.T) {
	env := setupCLITestEnv(t)
	outputDir := env.cfg.Paths.OutputDir

	stale := filepath.Join(outputDir, "old_trip_temp")
	testsupport.WriteFile(t, filepath.Join(stale, "0.png"), 2048)
	past := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	fresh := filepath.Join(outputDir, "new_trip_temp")
	testsupport.WriteFile(t, filepath.Join(fresh, "0.wav"), 16)
	testsupport.WriteFile(t, filepath.Join(outputDir, "keep.mp4"), 16)

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "old_trip_temp")
	requireContains(t, out, "new_trip_temp")
	requireContains(t, out, "2 directories")
	if strings.Contains(out, "keep.mp4") {
		t.Fatalf("staging list should ignore regular files: %q", out)
	}

	out, _, err = runCLI(t, []string{"staging", "clean"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "Removed "+stale)
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh staging dir should survive default clean: %v", err)
	}

	if _, _, err := runCLI(t, []string{"staging", "clean", "--all"}, env.configPath); err != nil {
		t.Fatalf("staging clean --all: %v", err)
	}
	if got := testsupport.ListNames(t, outputDir); len(got) != 1 || got[0] != "keep.mp4" {
		t.Fatalf("expected only keep.mp4 to remain, got %v", got)
	}
}

func TestGenerateRejectsMissingInputs(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"generate", "--title", "Empty"}, env.configPath)
	if err == nil || err.Error() != "No images provided" {
		t.Fatalf("expected missing images error, got %v", err)
	}

	image := filepath.Join(t.TempDir(), "cover.png")
	testsupport.WriteFile(t, image, 64)
	out, _, err := runCLI(t, []string{"--json", "generate", "--image", image}, env.configPath)
	if err == nil {
		t.Fatal("expected missing audio to fail")
	}
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if jsonErr := json.Unmarshal([]byte(out), &result); jsonErr != nil {
		t.Fatalf("decode result: %v (%q)", jsonErr, out)
	}
	if result.Success || result.Error != "No audio files provided" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, _, err := runCLI(t, []string{"generate", "--image", filepath.Join(t.TempDir(), "missing.png")}, env.configPath); err == nil {
		t.Fatal("expected unreadable image to fail")
	}
}

func TestGenerateRejectsUnknownMode(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"generate", "--mode", "headless"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unsupported launcher mode") {
		t.Fatalf("expected mode error, got %v", err)
	}
}

func TestFFmpegCheckWithStubs(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out, _, err := runCLI(t, []string{"ffmpeg", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("ffmpeg check: %v", err)
	}
	requireContains(t, out, "ffmpeg")
	requireContains(t, out, "yes")
}

func TestInstallDryRunPrintsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"ffmpeg", "install", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("ffmpeg install --dry-run: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected install command output")
	}
}

func TestLogsShowsRunOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.LogDir, "ffmpeg-run-7.log")
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("frame=1\nframe=2\nframe=3\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "run-7", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "frame=2\nframe=3\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}
