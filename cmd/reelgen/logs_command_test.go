package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsCommandTailsNewestFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := strings.Join([]string{
		`{"level":"info","msg":"stage started","run_id":"r1","stage":"script"}`,
		`{"level":"error","msg":"run failed","run_id":"r1","stage":"render"}`,
		`{"level":"info","msg":"stage started","run_id":"r2","stage":"script"}`,
	}, "\n") + "\n"
	path := filepath.Join(env.cfg.Paths.LogDir, "reelgen-2099-01-01.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), "\n") != 1 {
		t.Fatalf("expected two lines, got:\n%s", out)
	}
	requireContains(t, out, `"run_id":"r2"`)

	out, _, err = runCLI(t, []string{"logs", "--lines", "0", "--run", "r1", "--level", "error"}, env.configPath)
	if err != nil {
		t.Fatalf("logs filtered: %v", err)
	}
	requireContains(t, out, "run failed")
	if strings.Contains(out, "r2") {
		t.Fatalf("filter leaked other run:\n%s", out)
	}
}

func TestLogsCommandNoFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries available")
}
