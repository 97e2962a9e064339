package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hlsladder/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_Missing(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "missing"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected missing dir failure, got %#v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result := CheckDirectoryAccess("test", file)
	if result.Passed || !strings.Contains(result.Detail, "is not a directory") {
		t.Fatalf("expected not-a-directory failure, got %#v", result)
	}
}

func TestCheckOutputRootUsesAncestor(t *testing.T) {
	base := t.TempDir()
	result := CheckOutputRoot(filepath.Join(base, "a", "b"))
	if !result.Passed {
		t.Fatalf("expected pass via ancestor, got %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected creation note, got %s", result.Detail)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	binDir := t.TempDir()
	ffprobe := filepath.Join(binDir, "ffprobe")
	if err := os.WriteFile(ffprobe, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	cfg := config.Default()
	cfg.Tools.FFprobe = ffprobe
	cfg.Tools.FFmpeg = filepath.Join(binDir, "missing-ffmpeg")

	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("expected ffprobe available, got %#v", statuses[0])
	}
	if statuses[1].Available {
		t.Fatalf("expected ffmpeg missing, got %#v", statuses[1])
	}
}

func TestRunAll(t *testing.T) {
	if RunAll(nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
	cfg := config.Default()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Logging.Dir = t.TempDir()

	results := RunAll(&cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("expected %s to pass, got %s", r.Name, r.Detail)
		}
	}
	if results[0].Name != "History directory" || results[1].Name != "Log directory" {
		t.Fatalf("unexpected names: %#v", results)
	}
}
