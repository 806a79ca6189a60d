package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"reelgen/internal/alignment"
	"reelgen/internal/background"
	"reelgen/internal/captions"
	"reelgen/internal/config"
	"reelgen/internal/history"
	"reelgen/internal/notifications"
	"reelgen/internal/publish"
	"reelgen/internal/render"
	"reelgen/internal/script"
	"reelgen/internal/services"
	"reelgen/internal/services/elevenlabs"
	"reelgen/internal/testsupport"
)

type fakeScript struct {
	text string
	err  error
}

func (f *fakeScript) Produce(_ context.Context, _ time.Time, opts script.Options) (script.Script, error) {
	if f.err != nil {
		return script.Script{}, f.err
	}
	day := opts.Day
	if day == 0 {
		day = 7
	}
	return script.Script{Text: f.text, Template: script.TemplateDefault, Day: day, Model: "fake"}, nil
}

type fakeSpeech struct {
	calls int
}

func (f *fakeSpeech) Synthesize(_ context.Context, req elevenlabs.Request, w io.Writer) (elevenlabs.Result, error) {
	f.calls++
	n, err := io.WriteString(w, "ID3"+req.Text)
	return elevenlabs.Result{Bytes: int64(n), ContentType: "audio/mpeg"}, err
}

type fakeAligner struct {
	words []captions.WordInterval
	err   error
	calls int
}

func (f *fakeAligner) Name() string { return "fake:aligner" }

func (f *fakeAligner) Align(_ context.Context, audioPath string) ([]captions.WordInterval, error) {
	f.calls++
	if _, err := os.Stat(audioPath); err != nil {
		return nil, err
	}
	return f.words, f.err
}

type fakeLooper struct {
	target float64
	calls  int
}

func (f *fakeLooper) Loop(_ context.Context, source string, target float64, dest string) (background.Result, error) {
	f.calls++
	f.target = target
	return background.Result{Path: dest, Copies: 2, SourceDuration: 1.5}, nil
}

type fakeRenderer struct {
	req       render.Request
	calls     int
	workDirOK bool
}

func (f *fakeRenderer) Render(_ context.Context, req render.Request) (render.Result, error) {
	f.calls++
	f.req = req
	if info, err := os.Stat(req.WorkDir); err == nil && info.IsDir() {
		f.workDirOK = true
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return render.Result{}, err
	}
	if err := os.WriteFile(req.Output, []byte("mp4"), 0o644); err != nil {
		return render.Result{}, err
	}
	return render.Result{Output: req.Output, Captions: len(req.Cards)}, nil
}

type fakePublisher struct {
	upload publish.Upload
	calls  int
	err    error
}

func (f *fakePublisher) Upload(_ context.Context, upload publish.Upload) (publish.Response, error) {
	f.calls++
	f.upload = upload
	if f.err != nil {
		return nil, f.err
	}
	return publish.Response{"success": true}, nil
}

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
	err      error
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return r.err
}

type harness struct {
	cfg       *config.Config
	store     *history.Store
	script    *fakeScript
	speech    *fakeSpeech
	aligner   *fakeAligner
	looper    *fakeLooper
	renderer  *fakeRenderer
	publisher *fakePublisher
	notifier  *recordingNotifier
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return &harness{
		cfg:    cfg,
		store:  testsupport.MustOpenHistory(t, cfg),
		script: &fakeScript{text: `Today we learn "arigatou" together`},
		speech: &fakeSpeech{},
		aligner: &fakeAligner{words: []captions.WordInterval{
			{Text: "Hi", Start: 0, End: 0.3},
			{Text: "there", Start: 0.3, End: 0.6},
			{Text: "friend", Start: 0.6, End: 1.5},
		}},
		looper:    &fakeLooper{},
		renderer:  &fakeRenderer{},
		publisher: &fakePublisher{},
		notifier:  &recordingNotifier{},
	}
}

func (h *harness) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(h.cfg, Deps{
		Script:  h.script,
		Speech:  h.speech,
		Aligner: h.aligner,
		Probe: func(context.Context, string) (float64, error) {
			return 2.5, nil
		},
		Background: func(string, []string) (string, error) {
			return "/clips/rain.mp4", nil
		},
		Looper:    h.looper,
		Renderer:  h.renderer,
		Publisher: h.publisher,
		History:   h.store,
		Notifier:  h.notifier,
		Clock: func() time.Time {
			return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func assertNoRunDirs(t *testing.T, workDir string) {
	t.Helper()
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "run-") {
			t.Fatalf("run directory %s left behind", entry.Name())
		}
	}
}

func TestRunPublishesRenderedReel(t *testing.T) {
	h := newHarness(t, testsupport.WithPublishing(true))
	report, err := h.pipeline(t).Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Day != 7 || report.Cards != 2 || report.Words != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.AudioSeconds != 2.5 || h.looper.target != 2.5 || h.renderer.req.Duration != 2.5 {
		t.Fatalf("audio duration not propagated: report=%v loop=%v render=%v", report.AudioSeconds, h.looper.target, h.renderer.req.Duration)
	}
	if want := h.cfg.OutputPath(7); report.Output != want {
		t.Fatalf("output = %q, want %q", report.Output, want)
	}
	if _, err := os.Stat(report.Output); err != nil {
		t.Fatalf("rendered file missing: %v", err)
	}
	if !h.renderer.workDirOK {
		t.Fatal("renderer did not see the run directory")
	}
	if got := h.renderer.req.Cards; got[0].Text != "Hi there" || got[1].Text != "friend" {
		t.Fatalf("unexpected cards: %+v", got)
	}
	if !report.Published || h.publisher.calls != 1 {
		t.Fatalf("expected one upload, got %d", h.publisher.calls)
	}
	if !strings.HasPrefix(h.publisher.upload.Title, "'arigatou'") {
		t.Fatalf("title = %q", h.publisher.upload.Title)
	}
	if h.publisher.upload.VideoPath != report.Output {
		t.Fatalf("uploaded %q, want %q", h.publisher.upload.VideoPath, report.Output)
	}
	if !strings.Contains(h.publisher.upload.Title, "#") || len(h.publisher.upload.Tags) != 0 {
		t.Fatalf("hashtags belong in the title only: title=%q tags=%v", h.publisher.upload.Title, h.publisher.upload.Tags)
	}
	assertNoRunDirs(t, h.cfg.Paths.WorkDir)

	run, err := h.store.GetRun(context.Background(), report.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Status != history.StatusPublished || run.CardCount != 2 || run.Background != "/clips/rain.mp4" {
		t.Fatalf("unexpected history record: %+v", run)
	}
	if run.PublishResponse == "" || run.FinishedAt == nil {
		t.Fatalf("expected publish response and finish time: %+v", run)
	}

	want := []notifications.Event{notifications.EventRunCompleted, notifications.EventPublished}
	if len(h.notifier.events) != len(want) {
		t.Fatalf("events = %v, want %v", h.notifier.events, want)
	}
	for i := range want {
		if h.notifier.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", h.notifier.events, want)
		}
	}
}

func TestRunAbortsOnEmptyTranscript(t *testing.T) {
	h := newHarness(t)
	h.aligner.words = nil
	h.aligner.err = alignment.ErrEmptyTranscript

	report, err := h.pipeline(t).Run(context.Background(), RunOptions{})
	if !errors.Is(err, alignment.ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if h.looper.calls != 0 || h.renderer.calls != 0 {
		t.Fatalf("later stages ran: loop=%d render=%d", h.looper.calls, h.renderer.calls)
	}
	assertNoRunDirs(t, h.cfg.Paths.WorkDir)

	run, _ := h.store.GetRun(context.Background(), report.RunID)
	if run == nil || run.Status != history.StatusFailed || run.ErrorMessage == "" {
		t.Fatalf("expected failed run, got %+v", run)
	}
	if len(h.notifier.events) != 1 || h.notifier.events[0] != notifications.EventError {
		t.Fatalf("events = %v", h.notifier.events)
	}
	if stage := h.notifier.payloads[0]["stage"]; stage != StageAlignment {
		t.Fatalf("error stage = %v", stage)
	}
}

func TestRunAbortsOnOverlappingTranscript(t *testing.T) {
	h := newHarness(t)
	h.aligner.words = []captions.WordInterval{
		{Text: "a", Start: 0, End: 1},
		{Text: "b", Start: 0.2, End: 0.8},
	}

	_, err := h.pipeline(t).Run(context.Background(), RunOptions{})
	if !errors.Is(err, captions.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if h.looper.calls != 0 || h.renderer.calls != 0 {
		t.Fatalf("later stages ran: loop=%d render=%d", h.looper.calls, h.renderer.calls)
	}
	if len(h.notifier.payloads) != 1 || h.notifier.payloads[0]["stage"] != StageSegment {
		t.Fatalf("expected one segment-stage error, got %v", h.notifier.payloads)
	}
}

func TestRunRepairsTimingJitter(t *testing.T) {
	h := newHarness(t)
	h.aligner.words = []captions.WordInterval{
		{Text: "Hi", Start: 0, End: 0.3},
		{Text: "there", Start: 0.295, End: 0.6},
		{Text: "!", Start: 0.6, End: 0.6},
		{Text: "friend", Start: 0.6, End: 1.5},
	}

	report, err := h.pipeline(t).Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Words != 3 {
		t.Fatalf("expected 3 words after repair, got %d", report.Words)
	}
	if got := h.renderer.req.Cards; len(got) != 2 || got[0].Text != "Hi there !" {
		t.Fatalf("unexpected cards: %+v", got)
	}
}

func TestRunAbortsWithoutBackground(t *testing.T) {
	h := newHarness(t, testsupport.WithDirectories())
	p := h.pipeline(t)
	p.deps.Background = func(dir string, exts []string) (string, error) {
		return background.Select(dir, exts, nil)
	}

	_, err := p.Run(context.Background(), RunOptions{})
	if !errors.Is(err, background.ErrNoBackgroundAsset) {
		t.Fatalf("expected ErrNoBackgroundAsset, got %v", err)
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
	if h.aligner.calls != 1 || h.renderer.calls != 0 {
		t.Fatalf("unexpected stage calls: align=%d render=%d", h.aligner.calls, h.renderer.calls)
	}
}

func TestRunKeepsOutputWhenUploadFails(t *testing.T) {
	h := newHarness(t, testsupport.WithPublishing(true))
	h.publisher.err = &publish.TransportError{Path: "/upload", Err: errors.New("connection reset")}

	report, err := h.pipeline(t).Run(context.Background(), RunOptions{})
	var transportErr *publish.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if report == nil || report.Output == "" {
		t.Fatal("report should carry the rendered output")
	}
	if _, statErr := os.Stat(report.Output); statErr != nil {
		t.Fatalf("rendered file should be kept: %v", statErr)
	}
	run, _ := h.store.GetRun(context.Background(), report.RunID)
	if run == nil || run.Status != history.StatusPublishFailed {
		t.Fatalf("expected publish_failed, got %+v", run)
	}
	last := h.notifier.events[len(h.notifier.events)-1]
	if last != notifications.EventPublishFailed {
		t.Fatalf("last event = %s", last)
	}
}

func TestRunSkipPublish(t *testing.T) {
	h := newHarness(t, testsupport.WithPublishing(true))
	output := filepath.Join(testsupport.BaseDir(h.cfg), "custom", "reel.mp4")

	report, err := h.pipeline(t).Run(context.Background(), RunOptions{SkipPublish: true, Day: 42, OutputPath: output})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.publisher.calls != 0 || report.Published {
		t.Fatal("publisher should not run")
	}
	if report.Day != 42 || report.Output != output {
		t.Fatalf("overrides ignored: %+v", report)
	}
	run, _ := h.store.GetRun(context.Background(), report.RunID)
	if run == nil || run.Status != history.StatusRendered || run.FinishedAt == nil {
		t.Fatalf("expected finished rendered run, got %+v", run)
	}
}

func TestRunNotificationFailureDoesNotFailRun(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("ntfy unreachable")
	if _, err := h.pipeline(t).Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	h := newHarness(t, testsupport.WithDirectories())
	lock := flock.New(h.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: %v %v", locked, err)
	}
	defer lock.Unlock()

	if _, err := h.pipeline(t).Run(context.Background(), RunOptions{}); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if h.speech.calls != 0 {
		t.Fatal("no stage should run without the lock")
	}
}

func TestRunMarksInterruptedRuns(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	stale := &history.Run{ID: "crashed", StartedAt: time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)}
	if err := h.store.StartRun(ctx, stale); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if _, err := h.pipeline(t).Run(ctx, RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	run, err := h.store.GetRun(ctx, "crashed")
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != history.StatusFailed {
		t.Fatalf("stale run status = %s", run.Status)
	}
}

func TestRunCanceledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := h.pipeline(t).Run(ctx, RunOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(h.notifier.events) != 0 {
		t.Fatalf("canceled run should not notify, got %v", h.notifier.events)
	}
	run, _ := h.store.GetRun(context.Background(), report.RunID)
	if run == nil || run.Status != history.StatusFailed {
		t.Fatalf("expected failed record, got %+v", run)
	}
}

func TestNewReportsMissingDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := New(cfg, Deps{}, nil)
	if err == nil || !strings.Contains(err.Error(), "synthesizer") {
		t.Fatalf("expected missing deps error, got %v", err)
	}
}

func TestAudioExtension(t *testing.T) {
	cases := map[string]string{
		"":              "mp3",
		"mp3_44100_128": "mp3",
		"opus_48000_64": "opus",
		"PCM_16000":     "pcm",
	}
	for format, want := range cases {
		if got := audioExtension(format); got != want {
			t.Fatalf("audioExtension(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestTranscriptCoverage(t *testing.T) {
	words := []captions.WordInterval{
		{Text: "Today"}, {Text: "we"}, {Text: "learn"}, {Text: "arigatou"},
	}
	if got := transcriptCoverage(`Today we learn "arigatou"`, words); got != 1 {
		t.Fatalf("full coverage = %v, want 1", got)
	}
	if got := transcriptCoverage(`Today we learn "sayonara"`, words[:1]); got >= minScriptCoverage {
		t.Fatalf("expected drift below threshold, got %v", got)
	}
}
