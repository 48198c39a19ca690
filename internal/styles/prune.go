package styles

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"

	"git.home.luguber.info/inful/emailbuilder/internal/cssselect"
)

// Pruner drops rules whose selectors match nothing in a set of documents.
type Pruner struct {
	docs  []*goquery.Document
	cache map[string]bool
}

// NewPruner creates a pruner over the given HTML documents.
func NewPruner(htmlDocs ...string) (*Pruner, error) {
	p := &Pruner{cache: map[string]bool{}}
	for _, src := range htmlDocs {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		p.docs = append(p.docs, doc)
	}
	return p, nil
}

// Prune parses src and returns it with unused rules removed.
func (p *Pruner) Prune(src string) (string, error) {
	sheet, err := parser.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse css: %w", err)
	}
	sheet.Rules = p.rules(sheet.Rules)
	return sheet.String(), nil
}

func (p *Pruner) rules(in []*css.Rule) []*css.Rule {
	out := make([]*css.Rule, 0, len(in))
	for _, r := range in {
		switch {
		case r.Kind == css.QualifiedRule:
			kept := make([]string, 0, len(r.Selectors))
			for _, sel := range r.Selectors {
				if p.used(sel) {
					kept = append(kept, sel)
				}
			}
			if len(kept) == 0 {
				continue
			}
			r.Selectors = kept
		case isConditional(r):
			r.Rules = p.rules(r.Rules)
			if len(r.Rules) == 0 {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// used reports whether sel matches an element in any document. Selectors
// cascadia cannot parse are kept.
func (p *Pruner) used(sel string) bool {
	static := cssselect.Static(sel)
	if v, ok := p.cache[static]; ok {
		return v
	}
	m, err := cascadia.Compile(static)
	if err != nil {
		p.cache[static] = true
		return true
	}
	found := false
	for _, doc := range p.docs {
		if doc.FindMatcher(m).Length() > 0 {
			found = true
			break
		}
	}
	p.cache[static] = found
	return found
}

func isConditional(r *css.Rule) bool {
	if r.Kind != css.AtRule {
		return false
	}
	switch strings.ToLower(r.Name) {
	case "@media", "@supports":
		return true
	}
	return false
}
