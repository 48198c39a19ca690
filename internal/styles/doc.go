// Package styles compiles the project stylesheet and prunes rules that no
// built page uses.
//
// Compilation failures are reported as warnings: an empty stylesheet is
// written so inlining still runs and the build continues with degraded CSS.
package styles
