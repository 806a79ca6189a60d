package preflight

import (
	"context"

	"reelgen/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll executes the local checks a run needs: directory access, background
// clips and API key presence. Network probes are left to Doctor.
func RunAll(cfg *config.Config, publish bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	// An empty work_dir means the system temp directory.
	if cfg.Paths.WorkDir != "" {
		results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	}
	results = append(results, CheckBackgrounds(cfg.Paths.BackgroundDir, cfg.Render.Extensions))
	results = append(results, CheckCredentials(cfg, publish))
	return results
}

// Doctor runs RunAll plus the network probes for the configured providers.
func Doctor(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := RunAll(cfg, true)
	if cfg.Script.Provider == config.ProviderOpenRouter {
		results = append(results, CheckLLM(ctx, "OpenRouter LLM", cfg.GetLLM()))
	}
	if cfg.Speech.APIKey != "" {
		results = append(results, CheckElevenLabs(ctx, cfg.Speech))
	}
	return results
}
