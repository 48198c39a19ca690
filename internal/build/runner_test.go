package build

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
)

func noop(context.Context, *State) error { return nil }

func recordingStage(calls *[]StageName, name StageName, err error) Stage {
	return func(context.Context, *State) error {
		*calls = append(*calls, name)
		return err
	}
}

func TestRunStages_AllSucceed(t *testing.T) {
	st := NewState("newsletter", nil)
	var calls []StageName
	stages := NewPipeline().
		Add(StagePages, recordingStage(&calls, StagePages, nil)).
		Add(StageInline, recordingStage(&calls, StageInline, nil)).
		Build()

	require.NoError(t, RunStages(testContext(t), st, stages))
	require.Equal(t, []StageName{StagePages, StageInline}, calls)
	require.Equal(t, []StageName{StagePages, StageInline}, st.Report.Executed())
	require.Contains(t, st.Report.StageDurations, StagePages)

	st.Report.Finish()
	require.Equal(t, OutcomeSuccess, st.Report.Outcome)
}

func TestRunStages_WarningContinues(t *testing.T) {
	st := NewState("newsletter", nil)
	var calls []StageName
	warn := ferrors.StyleError("sass compile failed").Build()
	stages := NewPipeline().
		Add(StageStyles, recordingStage(&calls, StageStyles, warn)).
		Add(StageInline, recordingStage(&calls, StageInline, nil)).
		Build()

	require.NoError(t, RunStages(testContext(t), st, stages))
	require.Equal(t, []StageName{StageStyles, StageInline}, calls)
	require.Equal(t, StageResultWarning, st.Report.Result(StageStyles))
	require.Len(t, st.Report.Warnings, 1)

	st.Report.Finish()
	require.Equal(t, OutcomeWarning, st.Report.Outcome)
}

func TestRunStages_FatalStopsAndSkipsRest(t *testing.T) {
	st := NewState("newsletter", nil)
	var calls []StageName
	boom := errors.New("layout missing")
	stages := NewPipeline().
		Add(StagePages, recordingStage(&calls, StagePages, boom)).
		Add(StageStyles, recordingStage(&calls, StageStyles, nil)).
		Add(StageInline, recordingStage(&calls, StageInline, nil)).
		Build()

	err := RunStages(testContext(t), st, stages)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorFatal, se.Kind)
	require.Equal(t, StagePages, se.Stage)

	require.Equal(t, []StageName{StagePages}, calls)
	require.Equal(t, StageResultFatal, st.Report.Result(StagePages))
	require.Equal(t, StageResultSkipped, st.Report.Result(StageInline))

	st.Report.Finish()
	require.Equal(t, OutcomeFailed, st.Report.Outcome)
}

func TestRunStages_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	st := NewState("newsletter", nil)
	err := RunStages(ctx, st, NewPipeline().Add(StageReset, noop).Add(StagePages, noop).Build())

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorCanceled, se.Kind)
	require.Equal(t, StageResultCanceled, st.Report.Result(StageReset))
	require.Equal(t, StageResultSkipped, st.Report.Result(StagePages))

	st.Report.Finish()
	require.Equal(t, OutcomeCanceled, st.Report.Outcome)
}

func TestRunStages_ExplicitStageErrorKindIsKept(t *testing.T) {
	st := NewState("newsletter", nil)
	stages := NewPipeline().
		Add(StageRelease, func(context.Context, *State) error {
			return NewWarnStageError(StageRelease, errors.New("nothing to release"))
		}).
		Build()

	require.NoError(t, RunStages(testContext(t), st, stages))
	require.Equal(t, StageResultWarning, st.Report.Result(StageRelease))
}

func TestPipeline_NamesAndBuildCopy(t *testing.T) {
	p := NewPipeline().
		Add(StageReset, noop).
		Add(StageInline, noop)
	require.Equal(t, []StageName{StageReset, StageInline}, p.Names())

	built := p.Build()
	built[0].Name = "mutated"
	require.Equal(t, StageReset, p.Defs[0].Name)
}

func TestReport_Persist(t *testing.T) {
	r := NewReport("newsletter")
	r.RecordStageResult(StagePages, StageResultSuccess, nil)
	r.AddIssue(StageStyles, NewWarnStageError(StageStyles, errors.New("undefined variable")))
	r.PagesBuilt = 2
	r.Environments = []string{"dev"}

	dir := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, r.Persist(dir))

	raw, err := os.ReadFile(filepath.Join(dir, "build-report.json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "warning", decoded["outcome"])
	require.Equal(t, "newsletter", decoded["project"])
	require.InDelta(t, 2, decoded["pages_built"], 0)

	txt, err := os.ReadFile(filepath.Join(dir, "build-report.txt"))
	require.NoError(t, err)
	require.Contains(t, string(txt), "outcome=warning")
}

func TestRunStages_ContextErrorFromStageIsCanceled(t *testing.T) {
	st := NewState("newsletter", nil)
	stages := NewPipeline().
		Add(StagePages, func(context.Context, *State) error { return context.Canceled }).
		Add(StageInline, noop).
		Build()

	err := RunStages(testContext(t), st, stages)
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorCanceled, se.Kind)
	require.Equal(t, StageResultSkipped, st.Report.Result(StageInline))
}
