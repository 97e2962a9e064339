package preflight

import (
	"path/filepath"

	"hlsladder/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks applicable to cfg. Binary checks are
// reported separately by CheckSystemDeps.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.History.Enabled && cfg.History.Path != "" {
		results = append(results, CheckOutputRoot(filepath.Dir(cfg.History.Path)))
		results[len(results)-1].Name = "History directory"
	}

	if cfg.Logging.Dir != "" {
		results = append(results, CheckOutputRoot(cfg.Logging.Dir))
		results[len(results)-1].Name = "Log directory"
	}

	return results
}
