// Package preview serves a project's dist directory with live reload and
// rebuilds it when sources change.
//
// Three groups of sources are watched: pages, templates (layouts, partials
// and data) and styles. Each change enqueues a build.Trigger on a
// single-flight queue; one rebuild runs at a time and requests that arrive
// meanwhile are merged into the next one. Every completed rebuild sends
// exactly one reload event to connected browsers.
package preview
