package inky

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// appendTree chains each node as the only child of the previous one and
// returns the innermost node.
func appendTree(parent *html.Node, chain ...*html.Node) *html.Node {
	for _, n := range chain {
		parent.AppendChild(n)
		parent = n
	}
	return parent
}

// tableRow builds table>tbody>tr and returns the table and the row.
func tableRow(attrs ...string) (*html.Node, *html.Node) {
	table := element("table", attrs...)
	tr := appendTree(table, element("tbody"), element("tr"))
	return table, tr
}

func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; c = from.FirstChild {
		from.RemoveChild(c)
		to.AppendChild(c)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key, fallback string) string {
	if v, ok := attr(n, key); ok && v != "" {
		return v
	}
	return fallback
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	return slices.Contains(strings.Fields(v), class)
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	v, _ := attr(n, "class")
	setAttr(n, "class", strings.TrimSpace(v+" "+class))
}

// classes joins the component's own classes with the ones the author set.
func classes(n *html.Node, base ...string) string {
	v, _ := attr(n, "class")
	return strings.Join(append(base, strings.Fields(v)...), " ")
}

// passthrough copies author attributes onto out, skipping class and the
// component's own parameters.
func passthrough(n, out *html.Node, skip ...string) {
	for _, a := range n.Attr {
		if a.Key == "class" || slices.Contains(skip, a.Key) {
			continue
		}
		if _, exists := attr(out, a.Key); exists {
			continue
		}
		out.Attr = append(out.Attr, a)
	}
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

func containsRow(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data == "row" || hasClass(c, "row") || containsRow(c) {
			return true
		}
	}
	return false
}
