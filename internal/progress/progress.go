// Package progress restores gcstool's original stage/progress reporter
// (status.rs), reimplemented over zerolog instead of bare println! and
// gated on terminal detection: piped output gets only the stage start and
// completion lines, while an interactive terminal also gets a progress
// line roughly every 5% of a stage. The core GCS engine never calls
// this — only the CLI driver does.
package progress

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Tracker mirrors status.rs: a named stage, a running item count against
// an expected total, and per-stage timing.
type Tracker struct {
	log         zerolog.Logger
	interactive bool

	started    time.Time
	stage      string
	stageStart time.Time
	total      uint64
	done       uint64
	step       uint64
}

// New constructs a Tracker logging to stderr.
func New() *Tracker {
	return &Tracker{
		log:         zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger(),
		interactive: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
		started:     time.Now(),
	}
}

// Stage begins a new named stage of expected size total, finishing
// whatever stage was previously in progress.
func (t *Tracker) Stage(name string, total uint64) {
	t.FinishStage()

	t.stage = name
	t.stageStart = time.Now()
	t.total = total
	t.done = 0
	t.step = total / 20
	if t.step == 0 {
		t.step = 1
	}

	t.log.Info().Str("stage", name).Uint64("total", total).Msg("stage started")
}

// Incr records one unit of work done in the current stage. On an
// interactive terminal it logs roughly every 5% of progress; piped
// output only sees stage-boundary lines.
func (t *Tracker) Incr() {
	t.done++
	if !t.interactive {
		return
	}
	if t.done%t.step != 0 && t.done != t.total {
		return
	}

	elapsed := time.Since(t.stageStart).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(t.done) / elapsed
	}

	t.log.Info().
		Str("stage", t.stage).
		Uint64("done", t.done).
		Uint64("total", t.total).
		Float64("pct", float64(t.done)/float64(t.total)*100).
		Float64("per_sec", rate).
		Msg("progress")
}

// FinishStage logs completion of whatever stage is currently open, if
// any.
func (t *Tracker) FinishStage() {
	if t.stage == "" {
		return
	}
	t.log.Info().Str("stage", t.stage).Dur("elapsed", time.Since(t.stageStart)).Msg("stage complete")
	t.stage = ""
}

// Done finishes any open stage and logs total elapsed time.
func (t *Tracker) Done() {
	t.FinishStage()
	t.log.Info().Dur("elapsed", time.Since(t.started)).Msg("complete")
}
