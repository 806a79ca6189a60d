package pipeline

import (
	"context"
	"io"
	"time"

	"reelgen/internal/background"
	"reelgen/internal/history"
	"reelgen/internal/publish"
	"reelgen/internal/render"
	"reelgen/internal/script"
	"reelgen/internal/services/elevenlabs"
)

// ScriptSource produces the day's narration.
type ScriptSource interface {
	Produce(ctx context.Context, now time.Time, opts script.Options) (script.Script, error)
}

// Synthesizer writes spoken audio for a text.
type Synthesizer interface {
	Synthesize(ctx context.Context, req elevenlabs.Request, w io.Writer) (elevenlabs.Result, error)
}

// Looper stretches a background clip to a duration.
type Looper interface {
	Loop(ctx context.Context, source string, target float64, dest string) (background.Result, error)
}

// Renderer composites the final video.
type Renderer interface {
	Render(ctx context.Context, req render.Request) (render.Result, error)
}

// Publisher uploads a rendered video.
type Publisher interface {
	Upload(ctx context.Context, upload publish.Upload) (publish.Response, error)
}

// BackgroundPicker chooses one clip from a directory.
type BackgroundPicker func(dir string, extensions []string) (string, error)

// History persists run records.
type History interface {
	StartRun(ctx context.Context, run *history.Run) error
	UpdateRun(ctx context.Context, run *history.Run) error
	MarkInterrupted(ctx context.Context, now time.Time) (int64, error)
}
