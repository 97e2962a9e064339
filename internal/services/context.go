package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	stageKey contextKey = "stage"
	rungKey  contextKey = "rung"
)

// WithRunID annotates context with the conversion run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRung annotates context with the rung a rendition job is producing.
func WithRung(ctx context.Context, rung string) context.Context {
	if rung == "" {
		return ctx
	}
	return context.WithValue(ctx, rungKey, rung)
}

// RungFromContext returns the rung identifier if present.
func RungFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(rungKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
