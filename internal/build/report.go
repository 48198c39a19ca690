package build

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/emailbuilder/internal/metrics"
	"git.home.luguber.info/inful/emailbuilder/internal/version"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a structured entry describing a problem a stage reported.
type Issue struct {
	Stage    StageName     `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// StageRecord is one executed (or skipped) stage in run order.
type StageRecord struct {
	Stage  StageName   `json:"stage"`
	Result StageResult `json:"result"`
}

// Report captures what one build run did.
type Report struct {
	Project        string
	Start          time.Time
	End            time.Time
	Errors         []error
	Warnings       []error
	Issues         []Issue
	Stages         []StageRecord
	StageDurations map[StageName]time.Duration
	PagesBuilt     int
	Released       int
	Environments   []string
	Outcome        Outcome
}

// NewReport starts a report for project.
func NewReport(project string) *Report {
	return &Report{
		Project:        project,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

// AddIssue records se and mirrors it into Errors or Warnings.
func (r *Report) AddIssue(stage StageName, se *StageError) {
	severity := SeverityError
	if se.Kind == StageErrorWarning {
		severity = SeverityWarning
	}
	r.Issues = append(r.Issues, Issue{Stage: stage, Severity: severity, Message: se.Error()})
	if severity == SeverityWarning {
		r.Warnings = append(r.Warnings, se)
		return
	}
	r.Errors = append(r.Errors, se)
}

// RecordStageResult appends the stage outcome and emits metrics.
func (r *Report) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	r.Stages = append(r.Stages, StageRecord{Stage: stage, Result: res})
	if recorder == nil {
		return
	}
	recorder.IncStageResult(string(stage), metrics.ResultLabel(res))
}

// Executed lists stages that ran (any result except skipped), in order.
func (r *Report) Executed() []StageName {
	out := make([]StageName, 0, len(r.Stages))
	for _, s := range r.Stages {
		if s.Result != StageResultSkipped {
			out = append(out, s.Stage)
		}
	}
	return out
}

// Result returns the recorded result of stage, or "" when it never ran.
func (r *Report) Result(stage StageName) StageResult {
	for i := len(r.Stages) - 1; i >= 0; i-- {
		if r.Stages[i].Stage == stage {
			return r.Stages[i].Result
		}
	}
	return ""
}

// Finish stamps the end time and derives the outcome.
func (r *Report) Finish() {
	r.End = time.Now()
	r.DeriveOutcome()
}

// DeriveOutcome sets Outcome from recorded errors and warnings.
func (r *Report) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("project=%s pages=%d released=%d duration=%s errors=%d warnings=%d stages=%d outcome=%s",
		r.Project, r.PagesBuilt, r.Released, dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), len(r.Stages), r.Outcome)
}

// Persist writes build-report.json and build-report.txt atomically into root.
func (r *Report) Persist(root string) error {
	if r.End.IsZero() {
		r.Finish()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(root, "build-report.json"), jb); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(root, "build-report.txt"), []byte(r.Summary()+"\n"))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// reportJSON mirrors Report with string errors for JSON output.
type reportJSON struct {
	Project         string           `json:"project"`
	Version         string           `json:"emailbuilder_version"`
	Start           time.Time        `json:"start"`
	End             time.Time        `json:"end"`
	Outcome         string           `json:"outcome"`
	Errors          []string         `json:"errors"`
	Warnings        []string         `json:"warnings"`
	Issues          []Issue          `json:"issues"`
	Stages          []StageRecord    `json:"stages"`
	StageDurationMS map[string]int64 `json:"stage_duration_ms"`
	PagesBuilt      int              `json:"pages_built"`
	Released        int              `json:"released"`
	Environments    []string         `json:"environments"`
}

func (r *Report) serializable() reportJSON {
	out := reportJSON{
		Project:         r.Project,
		Version:         version.Version,
		Start:           r.Start,
		End:             r.End,
		Outcome:         string(r.Outcome),
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		Issues:          r.Issues,
		Stages:          r.Stages,
		StageDurationMS: make(map[string]int64, len(r.StageDurations)),
		PagesBuilt:      r.PagesBuilt,
		Released:        r.Released,
		Environments:    r.Environments,
	}
	if out.Issues == nil {
		out.Issues = []Issue{}
	}
	if out.Environments == nil {
		out.Environments = []string{}
	}
	for i, e := range r.Errors {
		out.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		out.Warnings[i] = w.Error()
	}
	for k, v := range r.StageDurations {
		out.StageDurationMS[string(k)] = v.Milliseconds()
	}
	return out
}
