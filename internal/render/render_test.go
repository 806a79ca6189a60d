package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelgen/internal/captions"
	"reelgen/internal/media/ffmpeg"
	"reelgen/internal/media/ffprobe"
)

var sampleCards = []captions.Card{
	{Text: "Konnichiwa minna", Start: 0, End: 0.9},
	{Text: "kyou wa", Start: 1.1, End: 1.8},
}

func fakeEncoder(t *testing.T, capture *[]string) ffmpeg.Runner {
	t.Helper()
	return ffmpeg.RunnerFunc(func(_ context.Context, args ...string) error {
		*capture = args
		return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
	})
}

func TestRenderEncodesPartialThenRenames(t *testing.T) {
	outDir := t.TempDir()
	workDir := t.TempDir()
	output := filepath.Join(outDir, "asmr_reel_day7.mp4")
	var args []string
	r := &Renderer{
		Runner:   fakeEncoder(t, &args),
		Settings: Settings{WriteSRT: true},
		Style:    captions.Style{FontName: "DejaVu Sans", FontSize: 45, PrimaryColor: "#FFFFFF", OutlineColor: "#FF0096"},
	}

	result, err := r.Render(context.Background(), Request{
		Background: "/bg/loop.mp4",
		Audio:      "/work/speech.mp3",
		Cards:      sampleCards,
		Output:     output,
		Duration:   41.25,
		WorkDir:    workDir,
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if args[len(args)-1] != filepath.Join(outDir, "asmr_reel_day7.partial.mp4") {
		t.Fatalf("encode should target the partial file, got %v", args[len(args)-1])
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("final output missing: %v", err)
	}
	if _, err := os.Stat(args[len(args)-1]); !os.IsNotExist(err) {
		t.Fatalf("partial file should be renamed away, stat err=%v", err)
	}
	if result.SRTPath != filepath.Join(outDir, "asmr_reel_day7.srt") {
		t.Fatalf("unexpected sidecar %q", result.SRTPath)
	}
	ass, err := os.ReadFile(filepath.Join(workDir, "captions.ass"))
	if err != nil || !strings.Contains(string(ass), "Konnichiwa minna") {
		t.Fatalf("caption track not written: %v", err)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{"scale=480:854,setsar=1,fps=30,ass=", "-c:v libx264", "-preset medium", "-b:v 4000k", "-c:a aac", "-t 41.250", "-map 1:a:0"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %v", want, args)
		}
	}
}

func TestRenderFailureLeavesNoOutput(t *testing.T) {
	outDir := t.TempDir()
	output := filepath.Join(outDir, "reel.mp4")
	boom := errors.New("encoder crashed")
	r := &Renderer{Runner: ffmpeg.RunnerFunc(func(_ context.Context, args ...string) error {
		_ = os.WriteFile(args[len(args)-1], []byte("half"), 0o644)
		return boom
	})}
	_, err := r.Render(context.Background(), Request{
		Background: "bg.mp4", Audio: "a.mp3", Cards: sampleCards, Output: output, Duration: 2, WorkDir: t.TempDir(),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected encoder error, got %v", err)
	}
	entries, _ := os.ReadDir(outDir)
	if len(entries) != 0 {
		t.Fatalf("expected empty output dir, found %d entries", len(entries))
	}
}

func TestRenderValidatesRequest(t *testing.T) {
	r := &Renderer{Runner: ffmpeg.RunnerFunc(func(context.Context, ...string) error { return nil })}
	base := Request{Background: "bg.mp4", Audio: "a.mp3", Cards: sampleCards, Output: "out.mp4", Duration: 1}

	noCards := base
	noCards.Cards = nil
	if _, err := r.Render(context.Background(), noCards); !errors.Is(err, captions.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	badDuration := base
	badDuration.Duration = 0
	if _, err := r.Render(context.Background(), badDuration); err == nil {
		t.Fatal("expected duration error")
	}
}

func TestEscapeFilterValue(t *testing.T) {
	got := escapeFilterValue(`/tmp/run:1/it's,here.ass`)
	want := `/tmp/run\\:1/it\\\'s\,here.ass`
	if got != want {
		t.Fatalf("escapeFilterValue = %q, want %q", got, want)
	}
}

func TestBuildArgsFontsDir(t *testing.T) {
	s := DefaultSettings()
	s.FontsDir = "/fonts"
	args := buildArgs(s, Request{Background: "b", Audio: "a", Duration: 1}, "/w/c.ass", "/o/x.partial.mp4")
	if !strings.Contains(strings.Join(args, " "), "ass=/w/c.ass:fontsdir=/fonts[v]") {
		t.Fatalf("fontsdir not applied: %v", args)
	}
}

func probeResult(width, height int, duration string) ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", Width: width, Height: height},
			{Index: 1, CodecType: "audio"},
		},
		Format: ffprobe.Format{Duration: duration, Size: "2048"},
	}
}

func TestRenderVerifiesEncode(t *testing.T) {
	outDir := t.TempDir()
	output := filepath.Join(outDir, "reel.mp4")
	var args []string
	var probed string
	r := &Renderer{
		Runner: fakeEncoder(t, &args),
		Inspect: func(_ context.Context, path string) (ffprobe.Result, error) {
			probed = path
			return probeResult(480, 854, "2.020"), nil
		},
	}
	result, err := r.Render(context.Background(), Request{
		Background: "bg.mp4", Audio: "a.mp3", Cards: sampleCards, Output: output, Duration: 2, WorkDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if probed != filepath.Join(outDir, "reel.partial.mp4") {
		t.Fatalf("expected the partial file to be probed, got %q", probed)
	}
	if result.SizeBytes != 2048 {
		t.Fatalf("SizeBytes = %d, want 2048", result.SizeBytes)
	}
}

func TestRenderRejectsBadEncode(t *testing.T) {
	cases := map[string]ffprobe.Result{
		"wrong frame": probeResult(1080, 1920, "2.0"),
		"too short":   probeResult(480, 854, "1.2"),
		"no audio": {
			Streams: []ffprobe.Stream{{CodecType: "video", Width: 480, Height: 854}},
			Format:  ffprobe.Format{Duration: "2.0"},
		},
	}
	for name, probe := range cases {
		t.Run(name, func(t *testing.T) {
			outDir := t.TempDir()
			output := filepath.Join(outDir, "reel.mp4")
			if err := os.WriteFile(output, []byte("yesterday"), 0o644); err != nil {
				t.Fatal(err)
			}
			var args []string
			r := &Renderer{
				Runner: fakeEncoder(t, &args),
				Inspect: func(context.Context, string) (ffprobe.Result, error) {
					return probe, nil
				},
			}
			_, err := r.Render(context.Background(), Request{
				Background: "bg.mp4", Audio: "a.mp3", Cards: sampleCards, Output: output, Duration: 2, WorkDir: t.TempDir(),
			})
			if !errors.Is(err, ErrInvalidOutput) {
				t.Fatalf("expected ErrInvalidOutput, got %v", err)
			}
			data, _ := os.ReadFile(output)
			if string(data) != "yesterday" {
				t.Fatalf("previous output replaced: %q", data)
			}
			if _, err := os.Stat(filepath.Join(outDir, "reel.partial.mp4")); !os.IsNotExist(err) {
				t.Fatalf("partial file left behind: %v", err)
			}
		})
	}
}

func TestBuildArgsNeverTrimShort(t *testing.T) {
	args := buildArgs(Settings{}, Request{Duration: 12.3451}, "captions.ass", "out.mp4")
	if !strings.Contains(strings.Join(args, " "), "-t 12.346") {
		t.Fatalf("duration should round up, got %v", args)
	}
}
