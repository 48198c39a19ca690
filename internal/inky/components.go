package inky

import (
	"strconv"

	"golang.org/x/net/html"
)

func container(n *html.Node) *html.Node {
	table, tr := tableRow("align", "center", "class", classes(n, "container"))
	passthrough(n, table)
	moveChildren(n, appendTree(tr, element("td")))
	return table
}

func row(n *html.Node) *html.Node {
	table, tr := tableRow("class", classes(n, "row"))
	passthrough(n, table)
	moveChildren(n, tr)
	return table
}

func (r *run) column(n *html.Node) *html.Node {
	info := r.columns[n]
	if info.siblings == 0 {
		info = columnInfo{first: true, last: true, siblings: 1, hasRow: containsRow(n)}
	}

	small := attrOr(n, "small", strconv.Itoa(r.columnCount))
	large := attrOr(n, "large", attrOr(n, "small", strconv.Itoa(r.columnCount/info.siblings)))

	base := []string{"small-" + small, "large-" + large, "columns"}
	if info.first {
		base = append(base, "first")
	}
	if info.last {
		base = append(base, "last")
	}

	outer := element("th", "class", classes(n, base...))
	passthrough(n, outer, "small", "large", "no-expander")
	tr := appendTree(outer, element("table"), element("tbody"), element("tr"))
	moveChildren(n, appendTree(tr, element("th")))

	noExpander, set := attr(n, "no-expander")
	if large == strconv.Itoa(r.columnCount) && !info.hasRow && (!set || noExpander == "false") {
		tr.AppendChild(element("th", "class", "expander"))
	}
	return outer
}

func button(n *html.Node) *html.Node {
	expand := hasClass(n, "expand") || hasClass(n, "expanded")
	table, tr := tableRow("class", classes(n, "button"))
	passthrough(n, table, "href", "target")

	inner := appendTree(tr, element("td"), element("table"), element("tbody"), element("tr"), element("td"))
	if expand {
		inner = appendTree(inner, element("center", "data-parsed", ""))
	}

	content := inner
	if href, ok := attr(n, "href"); ok {
		a := element("a", "href", href)
		if target, ok := attr(n, "target"); ok {
			setAttr(a, "target", target)
		}
		if expand {
			setAttr(a, "align", "center")
			addClass(a, "float-center")
		}
		inner.AppendChild(a)
		content = a
	}
	moveChildren(n, content)

	if expand {
		tr.AppendChild(element("td", "class", "expander"))
	}
	return table
}

func callout(n *html.Node) *html.Node {
	table, tr := tableRow("class", "callout")
	passthrough(n, table)
	moveChildren(n, appendTree(tr, element("th", "class", classes(n, "callout-inner"))))
	tr.AppendChild(element("th", "class", "expander"))
	return table
}

func spacer(n *html.Node) *html.Node {
	size := attrOr(n, "size", "16")
	table, tr := tableRow("class", classes(n, "spacer"))
	passthrough(n, table, "size")
	td := appendTree(tr, element("td",
		"height", size,
		"style", "font-size:"+size+"px;line-height:"+size+"px;"))
	td.AppendChild(text("\u00a0"))
	return table
}

func wrapper(n *html.Node) *html.Node {
	table, tr := tableRow("class", classes(n, "wrapper"), "align", "center")
	passthrough(n, table)
	moveChildren(n, appendTree(tr, element("td", "class", "wrapper-inner")))
	return table
}

func menu(n *html.Node) *html.Node {
	table, tr := tableRow("class", classes(n, "menu"))
	passthrough(n, table)
	inner := appendTree(tr, element("td"), element("table"), element("tbody"), element("tr"))
	moveChildren(n, inner)
	return table
}

func item(n *html.Node) *html.Node {
	th := element("th", "class", classes(n, "menu-item"))
	a := appendTree(th, element("a", "href", attrOr(n, "href", "#")))
	if target, ok := attr(n, "target"); ok {
		setAttr(a, "target", target)
	}
	moveChildren(n, a)
	return th
}

// center is rewritten in place: children are centered and the element is
// marked parsed so a second pass leaves it alone.
func center(n *html.Node) *html.Node {
	if _, parsed := attr(n, "data-parsed"); parsed {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		setAttr(c, "align", "center")
		addClass(c, "float-center")
	}
	markMenuItems(n)
	setAttr(n, "data-parsed", "")
	return n
}

func markMenuItems(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if hasClass(c, "menu-item") {
			addClass(c, "float-center")
		}
		markMenuItems(c)
	}
}

func blockGrid(n *html.Node) *html.Node {
	table, tr := tableRow("class", classes(n, "block-grid", "up-"+attrOr(n, "up", "1")))
	passthrough(n, table, "up")
	moveChildren(n, tr)
	return table
}

func hLine(n *html.Node) *html.Node {
	table := element("table", "class", classes(n, "h-line"))
	passthrough(n, table)
	th := appendTree(table, element("tr"), element("th"))
	th.AppendChild(text("\u00a0"))
	return table
}
