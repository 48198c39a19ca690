package pages

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/yuin/goldmark"
)

// helpers returns the Handlebars helpers available to every page. page is
// the base name of the page being rendered.
func helpers(page string) map[string]any {
	return map[string]any{
		"markdown": markdownHelper,
		"ifequal": func(a, b any, options *raymond.Options) string {
			if raymond.Str(a) == raymond.Str(b) {
				return options.Fn()
			}
			return options.Inverse()
		},
		"ifpage": func(name any, options *raymond.Options) string {
			if matchesPage(page, name) {
				return options.Fn()
			}
			return options.Inverse()
		},
		"unlesspage": func(name any, options *raymond.Options) string {
			if !matchesPage(page, name) {
				return options.Fn()
			}
			return options.Inverse()
		},
		"repeat": func(n any, options *raymond.Options) string {
			count, err := strconv.Atoi(strings.TrimSpace(raymond.Str(n)))
			if err != nil || count <= 0 {
				return ""
			}
			var b strings.Builder
			for i := 0; i < count; i++ {
				b.WriteString(options.Fn())
			}
			return b.String()
		},
	}
}

// matchesPage accepts a single name or a comma separated list.
func matchesPage(page string, names any) bool {
	for _, n := range strings.Split(raymond.Str(names), ",") {
		if strings.TrimSpace(n) == page {
			return true
		}
	}
	return false
}

func markdownHelper(options *raymond.Options) raymond.SafeString {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(dedent(options.Fn())), &buf); err != nil {
		panic(err)
	}
	return raymond.SafeString(buf.String())
}

// dedent strips the indentation shared by all non-blank lines so markdown
// nested inside indented markup is not read as a code block.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, l := range lines {
		if len(l) >= indent {
			lines[i] = l[indent:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
