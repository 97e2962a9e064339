package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hlsladder/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"probe", "ffprobe", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestClass(t *testing.T) {
	cases := map[string]error{
		"":              nil,
		"busy":          services.Wrap(services.ErrBusy, "pipeline", "lock", "held", nil),
		"configuration": services.Wrap(services.ErrConfiguration, "preflight", "", "", nil),
		"validation":    services.Wrap(services.ErrValidation, "probe", "", "", nil),
		"manifest":      services.Wrap(services.ErrManifest, "manifest", "", "", nil),
		"external_tool": services.Wrap(services.ErrExternalTool, "probe", "", "", nil),
		"unknown":       errors.New("other"),
	}
	for want, err := range cases {
		if got := services.Class(err); got != want {
			t.Fatalf("Class(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := services.WithRung(services.WithStage(services.WithRunID(context.Background(), "run-1"), "probe"), "480p")
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "probe" {
		t.Fatalf("unexpected stage %q %v", stage, ok)
	}
	if rung, ok := services.RungFromContext(ctx); !ok || rung != "480p" {
		t.Fatalf("unexpected rung %q %v", rung, ok)
	}
	if services.WithRunID(context.Background(), "") != context.Background() {
		t.Fatal("expected empty run id to leave context untouched")
	}
}
