package build

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// RunStages executes stages in order, recording timing and stopping on the
// first fatal or canceled outcome. Warnings are recorded and the run continues.
func RunStages(ctx context.Context, st *State, stages []StageDef) error {
	for i, def := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(def.Name, ctx.Err())
			st.Report.AddIssue(def.Name, se)
			st.Report.RecordStageResult(def.Name, StageResultCanceled, st.Recorder)
			for _, rest := range stages[i+1:] {
				st.Report.RecordStageResult(rest.Name, StageResultSkipped, st.Recorder)
			}
			return se
		default:
		}

		st.Logger.Debug("Stage starting", logfields.Stage(string(def.Name)))
		t0 := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(t0)

		st.Report.StageDurations[def.Name] = dur
		st.Recorder.ObserveStageDuration(string(def.Name), dur)

		if err == nil {
			st.Report.RecordStageResult(def.Name, StageResultSuccess, st.Recorder)
			st.Logger.Debug("Stage complete", logfields.Stage(string(def.Name)),
				logfields.DurationMS(float64(dur.Microseconds())/1000))
			continue
		}

		se := classify(def.Name, err)
		st.Report.AddIssue(def.Name, se)

		switch se.Kind {
		case StageErrorWarning:
			st.Report.RecordStageResult(def.Name, StageResultWarning, st.Recorder)
			st.Logger.Warn("Stage completed with warnings", logfields.Stage(string(def.Name)), logfields.Error(se.Err))
			continue
		case StageErrorCanceled:
			st.Report.RecordStageResult(def.Name, StageResultCanceled, st.Recorder)
		default:
			st.Report.RecordStageResult(def.Name, StageResultFatal, st.Recorder)
		}
		for _, rest := range stages[i+1:] {
			st.Report.RecordStageResult(rest.Name, StageResultSkipped, st.Recorder)
		}
		if se.Err == nil {
			return fmt.Errorf("stage %s aborted", def.Name)
		}
		return se
	}
	return nil
}
