package pages

import (
	"context"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aymerick/raymond"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/emailbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// Expander rewrites rendered markup, e.g. Inky tags into tables.
type Expander interface {
	Expand(src []byte) ([]byte, error)
}

// Compiler renders pages with layouts and partials. Layout, partial and data
// sources are read on first use and cached until Refresh.
type Compiler struct {
	paths         config.Paths
	defaultLayout string
	expander      Expander

	mu    sync.Mutex
	cache *sources
}

// NewCompiler creates a page compiler. A nil expander writes rendered HTML unchanged.
func NewCompiler(paths config.Paths, defaultLayout string, expander Expander) *Compiler {
	if defaultLayout == "" {
		defaultLayout = config.DefaultLayout
	}
	return &Compiler{paths: paths, defaultLayout: defaultLayout, expander: expander}
}

// Refresh drops cached layouts, partials and data.
func (c *Compiler) Refresh() {
	c.mu.Lock()
	c.cache = nil
	c.mu.Unlock()
}

func (c *Compiler) sources() (*sources, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil {
		return c.cache, nil
	}
	src, err := loadSources(c.paths.Layouts, c.paths.Partials, c.paths.Data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to load templates").
			WithContext("project", c.paths.Project).Build()
	}
	c.cache = src
	return src, nil
}

// Compile renders every page into dist and returns the written paths
// relative to dist, in lexical order.
func (c *Compiler) Compile(ctx context.Context) ([]string, error) {
	src, err := c.sources()
	if err != nil {
		return nil, err
	}

	var pages []string
	err = filepath.WalkDir(c.paths.Pages, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		rel, err := filepath.Rel(c.paths.Pages, path)
		if err != nil {
			return err
		}
		pages = append(pages, rel)
		return nil
	})
	if err != nil {
		return nil, ferrors.FileSystemError("failed to list pages").WithCause(err).
			WithContext("path", c.paths.Pages).Build()
	}

	written := make([]string, 0, len(pages))
	for _, rel := range pages {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		raw, err := os.ReadFile(filepath.Join(c.paths.Pages, rel))
		if err != nil {
			return written, ferrors.FileSystemError("failed to read page").WithCause(err).
				WithContext("page", rel).Build()
		}
		out, err := c.render(src, rel, raw)
		if err != nil {
			return written, err
		}
		dst := filepath.Join(c.paths.Dist, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return written, ferrors.FileSystemError("failed to create output directory").WithCause(err).
				WithContext("path", filepath.Dir(dst)).Build()
		}
		if err := os.WriteFile(dst, out, 0o600); err != nil {
			return written, ferrors.FileSystemError("failed to write page").WithCause(err).
				WithContext("path", dst).Build()
		}
		slog.Debug("Page compiled", logfields.Page(rel))
		written = append(written, filepath.ToSlash(rel))
	}
	return written, nil
}

// Render compiles one page source. rel is the page path relative to the pages directory.
func (c *Compiler) Render(rel string, raw []byte) ([]byte, error) {
	src, err := c.sources()
	if err != nil {
		return nil, err
	}
	return c.render(src, rel, raw)
}

// bodyPartial is the partial name layouts use to include the page.
const bodyPartial = "body"

func (c *Compiler) render(src *sources, rel string, raw []byte) ([]byte, error) {
	page, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "invalid front matter").
			WithContext("page", rel).Build()
	}

	layoutName := page.Layout(c.defaultLayout)
	layoutSrc, ok := src.layouts[layoutName]
	if !ok {
		return nil, ferrors.TemplateError("layout not found").
			WithContext("page", rel).WithContext("layout", layoutName).Build()
	}

	if _, clash := src.partials[bodyPartial]; clash {
		return nil, ferrors.TemplateError("partial name \"body\" is reserved for the page content").
			WithContext("page", rel).WithContext("path", c.paths.Partials).Build()
	}

	tpl, err := raymond.Parse(layoutSrc)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to parse layout").
			WithContext("layout", layoutName).Build()
	}
	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	tpl.RegisterHelpers(helpers(name))
	tpl.RegisterPartials(src.partials)
	tpl.RegisterPartial(bodyPartial, string(page.Body))

	html, err := tpl.Exec(pageData(src.data, page.Fields, rel, name, layoutName))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to render page").
			WithContext("page", rel).WithContext("layout", layoutName).Build()
	}

	out := []byte(html)
	if c.expander != nil {
		out, err = c.expander.Expand(out)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to expand inky markup").
				WithContext("page", rel).Build()
		}
	}
	return out, nil
}

// pageData merges global data, front matter and the per-page variables, later wins.
func pageData(global, fields map[string]any, rel, name, layout string) map[string]any {
	data := make(map[string]any, len(global)+len(fields)+3)
	maps.Copy(data, global)
	maps.Copy(data, fields)
	data["page"] = name
	data["layout"] = layout
	data["root"] = rootPrefix(rel)
	return data
}

// rootPrefix is the relative path from a page back to the dist root.
func rootPrefix(rel string) string {
	depth := strings.Count(filepath.ToSlash(filepath.Clean(rel)), "/")
	return strings.Repeat("../", depth)
}

