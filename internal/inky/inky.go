package inky

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultColumnCount is the grid width of Foundation for Emails.
const DefaultColumnCount = 12

var rawBlock = regexp.MustCompile(`(?is)<raw>(.*?)</raw>`)

// Converter expands Inky tags. The zero value is not usable; use New.
type Converter struct {
	columnCount int
}

// Option configures a Converter.
type Option func(*Converter)

// WithColumnCount overrides the grid width.
func WithColumnCount(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.columnCount = n
		}
	}
}

// New creates a converter.
func New(opts ...Option) *Converter {
	c := &Converter{columnCount: DefaultColumnCount}
	for _, o := range opts {
		o(c)
	}
	return c
}

// columnInfo is captured before any conversion so sibling and nesting
// decisions see the markup the author wrote.
type columnInfo struct {
	first, last bool
	siblings    int
	hasRow      bool
}

type run struct {
	*Converter
	columns map[*html.Node]columnInfo
}

// Expand converts src. Full documents keep their doctype and head; anything
// without an <html> tag is treated as a body fragment.
func (c *Converter) Expand(src []byte) ([]byte, error) {
	var raws []string
	src = rawBlock.ReplaceAllFunc(src, func(m []byte) []byte {
		raws = append(raws, string(rawBlock.FindSubmatch(m)[1]))
		return []byte(rawToken(len(raws) - 1))
	})

	root, fragment, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	r := &run{Converter: c, columns: map[*html.Node]columnInfo{}}
	r.scan(root)
	r.walk(root)

	var buf bytes.Buffer
	if fragment {
		for n := root.FirstChild; n != nil; n = n.NextSibling {
			if err := html.Render(&buf, n); err != nil {
				return nil, err
			}
		}
	} else if err := html.Render(&buf, root); err != nil {
		return nil, err
	}

	out := buf.String()
	for i, raw := range raws {
		out = strings.Replace(out, rawToken(i), raw, 1)
	}
	return []byte(out), nil
}

func rawToken(i int) string {
	return "###INKY_RAW_" + strconv.Itoa(i) + "###"
}

func parse(src []byte) (*html.Node, bool, error) {
	if bytes.Contains(bytes.ToLower(src), []byte("<html")) {
		doc, err := html.Parse(bytes.NewReader(src))
		return doc, false, err
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(src), body)
	if err != nil {
		return nil, true, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, true, nil
}

func (r *run) scan(n *html.Node) {
	var cols []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "columns") {
			cols = append(cols, c)
		}
		if c.Type == html.ElementNode {
			r.scan(c)
		}
	}
	for i, c := range cols {
		r.columns[c] = columnInfo{
			first:    i == 0,
			last:     i == len(cols)-1,
			siblings: len(cols),
			hasRow:   containsRow(c),
		}
	}
}

// walk converts children before their parent so every builder works on
// already expanded content.
func (r *run) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			r.walk(c)
			if out := r.component(c); out != nil && out != c {
				n.InsertBefore(out, c)
				n.RemoveChild(c)
			}
		}
		c = next
	}
}

func (r *run) component(n *html.Node) *html.Node {
	switch n.Data {
	case "container":
		return container(n)
	case "row":
		return row(n)
	case "columns":
		return r.column(n)
	case "button":
		return button(n)
	case "callout":
		return callout(n)
	case "spacer":
		return spacer(n)
	case "wrapper":
		return wrapper(n)
	case "menu":
		return menu(n)
	case "item":
		return item(n)
	case "center":
		return center(n)
	case "block-grid":
		return blockGrid(n)
	case "h-line":
		return hLine(n)
	}
	return nil
}
