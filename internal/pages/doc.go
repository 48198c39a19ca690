// Package pages compiles page templates into flat HTML.
//
// Each page under <project>/pages is rendered with Handlebars inside a
// layout from the shared layouts directory. Layouts include the page through
// the {{> body}} partial; project partials are available to both. The
// rendered document is then passed through an Expander (Inky) before being
// written to dist with the same relative path.
package pages
