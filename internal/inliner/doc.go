// Package inliner moves stylesheet rules onto the elements they match.
//
// At-rules (@media, @supports, @font-face, @keyframes, @import, @charset)
// cannot live in a style attribute. Those from the stylesheet are written
// back at a placeholder comment, because most email clients drop <link>
// styles but honor a single <style> block for media queries. A page's own
// <style> blocks are never inlined; each keeps only its at-rules.
package inliner
