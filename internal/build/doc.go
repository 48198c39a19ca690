// Package build provides the stage model shared by every emailbuilder run:
// stage names, stage errors with an explicit outcome kind, the ordered
// pipeline builder, the stage runner and the build report.
//
// A stage returns nil on success. Returning a ClassifiedError with warning
// severity (or a StageError of kind warning) records a warning and lets the
// run continue; any other error aborts the run.
package build
