// Package cssselect holds selector helpers shared by CSS pruning and inlining.
package cssselect

import (
	"regexp"
	"strings"
)

// dynamic pseudo-classes depend on user interaction or document state that a
// static HTML file cannot express.
var dynamic = map[string]bool{
	"hover": true, "active": true, "focus": true, "focus-within": true,
	"focus-visible": true, "visited": true, "link": true, "any-link": true,
	"target": true, "checked": true, "disabled": true, "enabled": true,
}

var pseudo = regexp.MustCompile(`::?([a-zA-Z-]+)(\([^)]*\))?`)

// IsDynamic reports whether sel uses a pseudo-element or a dynamic
// pseudo-class, so it cannot be applied as an inline style.
func IsDynamic(sel string) bool {
	for _, m := range pseudo.FindAllStringSubmatch(sel, -1) {
		if strings.HasPrefix(m[0], "::") || dynamic[strings.ToLower(m[1])] || isElementPseudo(m[1]) {
			return true
		}
	}
	return false
}

// Static removes pseudo-elements and dynamic pseudo-classes from sel. A
// compound left empty by the removal matches any element.
func Static(sel string) string {
	out := pseudo.ReplaceAllStringFunc(sel, func(m string) string {
		name := strings.TrimLeft(m, ":")
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		if strings.HasPrefix(m, "::") || dynamic[strings.ToLower(name)] || isElementPseudo(name) {
			return ""
		}
		return m
	})
	out = strings.TrimSpace(out)
	if out == "" || strings.HasSuffix(out, ">") || strings.HasSuffix(out, "+") || strings.HasSuffix(out, "~") {
		out = strings.TrimSpace(out + " *")
	}
	return out
}

// the CSS2 single-colon spelling of pseudo-elements.
func isElementPseudo(name string) bool {
	switch strings.ToLower(name) {
	case "before", "after", "first-line", "first-letter":
		return true
	}
	return false
}
