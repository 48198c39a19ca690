// Package pipeline wires the build stages of one project into runnable
// plans: the full build used by the build and serve commands, and the
// smaller plans the watcher runs for each build.Trigger.
package pipeline
