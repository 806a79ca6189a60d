package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reelgen/internal/alignment"
	"reelgen/internal/background"
	"reelgen/internal/captions"
	"reelgen/internal/config"
	"reelgen/internal/history"
	"reelgen/internal/logging"
	"reelgen/internal/notifications"
	"reelgen/internal/publish"
	"reelgen/internal/script"
	"reelgen/internal/services"
	"reelgen/internal/staging"
)

// Stage names used in logs, errors and notifications.
const (
	StageScript     = "script"
	StageSpeech     = "speech"
	StageAlignment  = "alignment"
	StageSegment    = "segment"
	StageBackground = "background"
	StageRender     = "render"
	StagePublish    = "publish"
)

const (
	staleRunAge       = 24 * time.Hour
	minScriptCoverage = 0.6
)

// ErrRunInProgress is returned when another process holds the run lock.
var ErrRunInProgress = errors.New("another reelgen run is in progress")

// RunOptions override configuration for a single run.
type RunOptions struct {
	Template    string
	Day         int
	SkipPublish bool
	OutputPath  string
}

// Report summarizes a run. It is returned even when the run fails, filled up
// to the stage that failed.
type Report struct {
	RunID        string
	Day          int
	Template     string
	Script       string
	AudioSeconds float64
	Words        int
	Coverage     float64
	Cards        int
	Background   string
	Output       string
	SRTPath      string
	Title        string
	Published    bool
	Response     publish.Response
	Elapsed      time.Duration
}

// Deps are the stage implementations. Publisher and Notifier are optional.
type Deps struct {
	Script     ScriptSource
	Speech     Synthesizer
	Aligner    alignment.Aligner
	Probe      background.ProbeFunc
	Background BackgroundPicker
	Looper     Looper
	Renderer   Renderer
	Publisher  Publisher
	History    History
	Notifier   notifications.Service
	Clock      func() time.Time
}

// Pipeline runs reels with one set of dependencies.
type Pipeline struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

// New validates deps and returns a pipeline.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	var missing []string
	if deps.Script == nil {
		missing = append(missing, "script source")
	}
	if deps.Speech == nil {
		missing = append(missing, "synthesizer")
	}
	if deps.Aligner == nil {
		missing = append(missing, "aligner")
	}
	if deps.Probe == nil {
		missing = append(missing, "probe")
	}
	if deps.Looper == nil {
		missing = append(missing, "looper")
	}
	if deps.Renderer == nil {
		missing = append(missing, "renderer")
	}
	if deps.History == nil {
		missing = append(missing, "history")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline: missing %s", strings.Join(missing, ", "))
	}
	if deps.Background == nil {
		deps.Background = func(dir string, extensions []string) (string, error) {
			return background.Select(dir, extensions, nil)
		}
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Run executes every stage in order. Failures before the render abort the
// run; a failed upload leaves the rendered file in place and is returned
// alongside the report.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare directories", "", err)
	}

	lock := flock.New(p.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err), logging.String("lock", p.cfg.LockPath()))
		}
	}()

	started := p.deps.Clock()
	p.recoverInterrupted(ctx, logger, started)

	workDir := p.workDir()
	staging.CleanStale(ctx, workDir, staleRunAge, logger)
	dir, err := staging.NewRunDir(workDir, runID)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "create run directory", workDir, err)
	}
	defer func() {
		if err := dir.Remove(); err != nil {
			logging.WarnWithContext(logger, "run directory not removed", "staging_cleanup_failed",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "scratch files remain until the next run sweeps them"),
			)
		}
	}()

	record := &history.Run{ID: runID, StartedAt: started.UTC(), Status: history.StatusRunning}
	if err := p.deps.History.StartRun(context.WithoutCancel(ctx), record); err != nil {
		return nil, fmt.Errorf("record run start: %w", err)
	}

	state := &runState{
		p:       p,
		opts:    opts,
		dir:     dir,
		record:  record,
		started: started,
		logger:  logger,
		report:  &Report{RunID: runID},
	}
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("work_dir", dir.Path),
	)

	if err := state.produce(ctx); err != nil {
		return state.report, state.fail(ctx, err)
	}
	return state.report, state.distribute(ctx)
}

func (p *Pipeline) recoverInterrupted(ctx context.Context, logger *slog.Logger, now time.Time) {
	count, err := p.deps.History.MarkInterrupted(context.WithoutCancel(ctx), now)
	if err != nil {
		logging.WarnWithContext(logger, "could not mark interrupted runs", "history_recover_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database under paths.state_dir"),
		)
		return
	}
	if count > 0 {
		logger.Info("marked interrupted runs as failed", logging.Int64("count", count))
	}
}

func (p *Pipeline) workDir() string {
	if dir := strings.TrimSpace(p.cfg.Paths.WorkDir); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "reelgen")
}

// runState carries artifacts from one stage to the next.
type runState struct {
	p       *Pipeline
	opts    RunOptions
	dir     *staging.RunDir
	record  *history.Run
	started time.Time
	logger  *slog.Logger
	report  *Report
	current string

	script    script.Script
	audioPath string
	duration  float64
	words     []captions.WordInterval
	cards     []captions.Card
	loopPath  string
	output    string
}

// produce runs every stage up to and including the render.
func (s *runState) produce(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context, *slog.Logger) error
	}{
		{StageScript, s.generateScript},
		{StageSpeech, s.synthesize},
		{StageAlignment, s.align},
		{StageSegment, s.segment},
		{StageBackground, s.loopBackground},
		{StageRender, s.render},
	}
	for _, step := range steps {
		if err := s.stage(ctx, step.name, step.fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *runState) stage(ctx context.Context, name string, fn func(context.Context, *slog.Logger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.current = name
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, s.p.logger)
	start := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := fn(stageCtx, logger); err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
	)
	return nil
}

func (s *runState) persist(ctx context.Context) {
	if err := s.p.deps.History.UpdateRun(context.WithoutCancel(ctx), s.record); err != nil {
		logging.WarnWithContext(s.logger, "run history not updated", "history_update_failed",
			logging.Error(err),
			logging.String("status", string(s.record.Status)),
			logging.String(logging.FieldImpact, "history shows stale progress for this run"),
		)
	}
}

func (s *runState) finish(ctx context.Context, status history.Status) {
	now := s.p.deps.Clock().UTC()
	s.record.Status = status
	s.record.FinishedAt = &now
	s.report.Elapsed = now.Sub(s.started)
	s.persist(ctx)
}

func (s *runState) fail(ctx context.Context, err error) error {
	s.record.ErrorMessage = err.Error()
	s.finish(ctx, history.StatusFailed)
	if errors.Is(err, context.Canceled) {
		s.logger.Warn("run canceled",
			logging.String(logging.FieldStage, s.current),
			logging.String(logging.FieldEventType, "run_canceled"),
		)
		return err
	}
	s.logger.Error("run failed",
		logging.String(logging.FieldStage, s.current),
		logging.String("failure_kind", services.FailureKind(err)),
		logging.Error(err),
		logging.String(logging.FieldEventType, "run_failed"),
	)
	s.notify(context.WithoutCancel(ctx), notifications.EventError, notifications.Payload{
		"stage": s.current,
		"error": err.Error(),
	})
	return err
}

func (s *runState) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := s.p.deps.Notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug("shutting down, notification not sent", logging.String("event", string(event)))
			return
		}
		logging.WarnWithContext(s.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "operator is not notified about this run"),
		)
	}
}
