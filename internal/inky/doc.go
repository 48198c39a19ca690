// Package inky expands the Inky email markup vocabulary into the nested
// table HTML that email clients render consistently.
//
// Supported tags: container, row, columns, button, callout, spacer,
// wrapper, menu, item, center, block-grid, h-line and raw. Every other
// element is left as is.
package inky
