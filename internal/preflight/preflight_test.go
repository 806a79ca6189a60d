package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelgen/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail for missing dir, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBackgrounds(t *testing.T) {
	dir := t.TempDir()
	if result := CheckBackgrounds(dir, nil); result.Passed {
		t.Fatal("expected failure for empty background dir")
	}
	if err := os.WriteFile(filepath.Join(dir, "sakura.MOV"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckBackgrounds(dir, []string{".mov"})
	if !result.Passed || !strings.Contains(result.Detail, "1 clips") {
		t.Fatalf("expected pass with one clip, got %+v", result)
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.BackgroundDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.Paths.BackgroundDir, "bg.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Speech.APIKey = "el-test"
	cfg.Publish.APIKey = "up-test"
	return cfg
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil, false); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_AllPass(t *testing.T) {
	cfg := testConfig(t)
	results := RunAll(&cfg, true)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_SkipsEmptyWorkDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.WorkDir = ""
	results := RunAll(&cfg, false)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Name == "Work directory" {
			t.Fatal("work directory should not be checked when unset")
		}
	}
}

func TestRunAll_MissingPublishKeyOnlyWhenPublishing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.APIKey = ""
	if failed := Failed(RunAll(&cfg, false)); len(failed) != 0 {
		t.Fatalf("publish key should not matter when skipping publish: %+v", failed)
	}
	failed := Failed(RunAll(&cfg, true))
	if len(failed) != 1 || !strings.Contains(failed[0].Detail, "publish.api_key") {
		t.Fatalf("expected publish key failure, got %+v", failed)
	}
}

func TestCheckElevenLabs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"subscription":{"tier":"starter","character_count":29000,"character_limit":30000}}`))
	}))
	defer srv.Close()

	result := CheckElevenLabs(context.Background(), config.Speech{APIKey: "good", BaseURL: srv.URL})
	if !result.Passed || !strings.Contains(result.Detail, "1000 characters left") {
		t.Fatalf("expected pass, got %+v", result)
	}
	if result := CheckElevenLabs(context.Background(), config.Speech{APIKey: "bad", BaseURL: srv.URL}); result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	if result := CheckLLM(context.Background(), "LLM", config.LLMConfig{}); result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckSystemDepsIncludesUVXForWhisperX(t *testing.T) {
	cfg := config.Default()
	cfg.Alignment.Provider = config.AlignerWhisperX
	statuses := CheckSystemDeps(context.Background(), &cfg)
	if len(statuses) != 3 || statuses[2].Name != "uvx" {
		t.Fatalf("expected uvx requirement, got %+v", statuses)
	}
}
