// Package workspace owns the destructive side of a build: wiping the
// project's dist directory before pages are compiled and removing the
// per-environment template directories before a release repopulates them.
//
// Only directories of active environments are touched, so releasing to
// prod never deletes the dev templates of the same project.
package workspace
