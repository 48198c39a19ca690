package build

import (
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
	"git.home.luguber.info/inful/emailbuilder/internal/metrics"
)

// State is the per-run context shared by stages. Configuration lives with
// the stage implementations; State only carries what one run produces.
type State struct {
	BuildID  string
	Project  string
	Report   *Report
	Recorder metrics.Recorder
	Logger   *slog.Logger

	// Pages lists dist-relative HTML files written by the pages stage.
	Pages []string
}

// NewState creates run state with a fresh build id.
func NewState(project string, recorder metrics.Recorder) *State {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	id := uuid.NewString()
	return &State{
		BuildID:  id,
		Project:  project,
		Report:   NewReport(project),
		Recorder: recorder,
		Logger:   slog.Default().With(logfields.BuildID(id), logfields.Project(project)),
	}
}
