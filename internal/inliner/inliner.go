package inliner

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/tdewolff/minify/v2"
	mcss "github.com/tdewolff/minify/v2/css"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	"git.home.luguber.info/inful/emailbuilder/internal/cssselect"
)

// Inliner applies a stylesheet to HTML documents.
type Inliner struct {
	href        string
	placeholder string
	minifier    *minify.M
}

// New creates an inliner from the inline configuration.
func New(cfg config.InlineConfig) *Inliner {
	in := &Inliner{href: cfg.StylesheetHref, placeholder: cfg.Placeholder}
	if in.href == "" {
		in.href = config.DefaultStylesheetHref
	}
	if in.placeholder == "" {
		in.placeholder = config.DefaultPlaceholder
	}
	if !cfg.SkipMinify {
		m := minify.New()
		m.AddFunc("text/css", mcss.Minify)
		m.Add("text/html", &mhtml.Minifier{
			KeepComments:        true,
			KeepDefaultAttrVals: true,
			KeepDocumentTags:    true,
			KeepEndTags:         true,
			KeepQuotes:          true,
		})
		in.minifier = m
	}
	return in
}

// split separates rules that can be inlined from the at-rules kept in a style block.
func split(rules []*css.Rule) (plain, kept []*css.Rule) {
	for _, r := range rules {
		if r.Kind == css.QualifiedRule {
			plain = append(plain, r)
			continue
		}
		kept = append(kept, r)
	}
	return plain, kept
}

// Inline applies stylesheet to doc and returns the rewritten document.
// Embedded <style> blocks are not inlined: each is reduced to its at-rules
// in place, or removed when it has none.
func (in *Inliner) Inline(stylesheet string, doc []byte) ([]byte, error) {
	sheet, err := parser.Parse(stylesheet)
	if err != nil {
		return nil, fmt.Errorf("parse stylesheet: %w", err)
	}
	plain, kept := split(sheet.Rules)

	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var styleErr error
	dom.Find("style").Each(func(_ int, s *goquery.Selection) {
		embedded, err := parser.Parse(s.Text())
		if err != nil {
			styleErr = err
			return
		}
		_, atRules := split(embedded.Rules)
		if len(atRules) == 0 {
			s.Remove()
			return
		}
		s.SetText(serialize(atRules))
	})
	if styleErr != nil {
		return nil, fmt.Errorf("parse style block: %w", styleErr)
	}

	if err := apply(dom, plain); err != nil {
		return nil, err
	}

	dom.Find("link").Each(func(_ int, s *goquery.Selection) {
		if href, _ := s.Attr("href"); href == in.href {
			s.Remove()
		}
	})

	rendered, err := dom.Html()
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	rendered = strings.Replace(rendered, in.placeholder, "<style>"+serialize(kept)+"</style>", 1)

	if in.minifier == nil {
		return []byte(rendered), nil
	}
	out, err := in.minifier.Bytes("text/html", []byte(rendered))
	if err != nil {
		return nil, fmt.Errorf("minify html: %w", err)
	}
	return out, nil
}

// serialize renders rules with @charset and @import first, where browsers
// require them.
func serialize(rules []*css.Rule) string {
	ordered := slices.Clone(rules)
	slices.SortStableFunc(ordered, func(a, b *css.Rule) int {
		return leadRank(a) - leadRank(b)
	})
	parts := make([]string, len(ordered))
	for i, r := range ordered {
		parts[i] = r.String()
	}
	return strings.Join(parts, "\n")
}

func leadRank(r *css.Rule) int {
	if r.Kind != css.AtRule {
		return 2
	}
	switch strings.ToLower(r.Name) {
	case "@charset":
		return 0
	case "@import":
		return 1
	}
	return 2
}

// match is one declaration applied to one element.
type match struct {
	decl        *css.Declaration
	specificity cascadia.Specificity
	order       int
}

func (m match) less(o match) bool {
	if m.decl.Important != o.decl.Important {
		return !m.decl.Important
	}
	if m.specificity != o.specificity {
		return m.specificity.Less(o.specificity)
	}
	return m.order < o.order
}

func apply(dom *goquery.Document, rules []*css.Rule) error {
	var nodes []*html.Node
	matches := map[*html.Node][]match{}
	order := 0

	for _, r := range rules {
		for _, sel := range r.Selectors {
			if cssselect.IsDynamic(sel) {
				continue
			}
			compiled, err := cascadia.Parse(sel)
			if err != nil {
				continue
			}
			spec := compiled.Specificity()
			for _, root := range dom.Nodes {
				for _, n := range cascadia.QueryAll(root, compiled) {
					if _, seen := matches[n]; !seen {
						nodes = append(nodes, n)
					}
					for _, d := range r.Declarations {
						matches[n] = append(matches[n], match{decl: d, specificity: spec, order: order})
						order++
					}
				}
			}
		}
	}

	for _, n := range nodes {
		ms := matches[n]
		slices.SortStableFunc(ms, func(a, b match) int {
			switch {
			case a.less(b):
				return -1
			case b.less(a):
				return 1
			}
			return 0
		})
		style := newDeclarations()
		for _, m := range ms {
			style.set(m.decl.Property, m.decl.Value)
		}
		if existing, ok := getAttr(n, "style"); ok {
			decls, err := parser.ParseDeclarations(existing)
			if err != nil {
				return fmt.Errorf("parse style attribute %q: %w", existing, err)
			}
			for _, d := range decls {
				style.set(d.Property, d.Value)
			}
		}
		setAttr(n, "style", style.String())
	}
	return nil
}

// declarations keeps the last value per property in first-set order.
type declarations struct {
	props  []string
	values map[string]string
}

func newDeclarations() *declarations {
	return &declarations{values: map[string]string{}}
}

func (d *declarations) set(prop, value string) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	if _, ok := d.values[prop]; !ok {
		d.props = append(d.props, prop)
	}
	d.values[prop] = strings.TrimSpace(value)
}

func (d *declarations) String() string {
	parts := make([]string, len(d.props))
	for i, p := range d.props {
		parts[i] = p + ": " + d.values[p] + ";"
	}
	return strings.Join(parts, " ")
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
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
