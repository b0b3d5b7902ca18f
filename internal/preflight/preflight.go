package preflight

import (
	"context"
	"strings"

	"docvault/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check. archiveRoot overrides the
// configured root when the runtime settings carry a different one.
func RunAll(ctx context.Context, cfg *config.Config, archiveRoot string) []Result {
	if cfg == nil {
		return nil
	}
	if strings.TrimSpace(archiveRoot) == "" {
		archiveRoot = cfg.Archive.Root
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Archive root", archiveRoot),
		CheckTemplates(cfg.Paths.TemplatesDir),
		CheckCommand("Open command", cfg.Creator.OpenCommand),
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
