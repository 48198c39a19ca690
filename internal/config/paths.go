package config

import (
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
)

// Paths holds every filesystem location a build touches for one project.
type Paths struct {
	Project string

	Pages     string // <root>/<project>/pages
	Layouts   string // <root>/layouts
	Partials  string // <root>/<project>/partials
	Data      string // <root>/<project>/data
	SCSS      string // <root>/<project>/scss
	SCSSEntry string // <root>/<project>/scss/app.scss

	Dist    string // <root>/<project>/dist
	DistCSS string // <root>/<project>/dist/css
	CSSFile string // <root>/<project>/dist/css/app.css

	ReleasePages string // <out>/pages
	Templates    string // <out>/templates/<project>
}

// ValidateProject rejects empty names and names that would escape the builder root.
func ValidateProject(project string) error {
	if strings.TrimSpace(project) == "" {
		return ferrors.ValidationError("projectname is required").Build()
	}
	if project == "." || project == ".." || strings.ContainsAny(project, `/\`) {
		return ferrors.ValidationError("projectname must be a single directory name").
			WithContext("projectname", project).Build()
	}
	return nil
}

// NewPaths resolves the layout for project under cfg's roots.
func NewPaths(cfg *Config, project string) (Paths, error) {
	if err := ValidateProject(project); err != nil {
		return Paths{}, err
	}
	projectDir := filepath.Join(cfg.Root, project)
	scss := filepath.Join(projectDir, "scss")
	dist := filepath.Join(projectDir, "dist")
	cssName := strings.TrimSuffix(cfg.Sass.Entry, filepath.Ext(cfg.Sass.Entry)) + ".css"

	return Paths{
		Project:      project,
		Pages:        filepath.Join(projectDir, "pages"),
		Layouts:      filepath.Join(cfg.Root, "layouts"),
		Partials:     filepath.Join(projectDir, "partials"),
		Data:         filepath.Join(projectDir, "data"),
		SCSS:         scss,
		SCSSEntry:    filepath.Join(scss, cfg.Sass.Entry),
		Dist:         dist,
		DistCSS:      filepath.Join(dist, "css"),
		CSSFile:      filepath.Join(dist, "css", cssName),
		ReleasePages: filepath.Join(cfg.OutputRoot, "pages"),
		Templates:    filepath.Join(cfg.OutputRoot, "templates", project),
	}, nil
}

// EnvDir is the extension-stripped template directory for env.
func (p Paths) EnvDir(env string) string {
	return filepath.Join(p.Templates, env)
}

// LegacyPagesDir is the old templates/<project>/pages location removed by the clean stage.
func (p Paths) LegacyPagesDir() string {
	return filepath.Join(p.Templates, "pages")
}
