package pages

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// sources is the cached view of layouts, partials and global data.
type sources struct {
	layouts  map[string]string
	partials map[string]string
	data     map[string]any
}

func loadSources(layoutsDir, partialsDir, dataDir string) (*sources, error) {
	layouts, err := loadTemplates(layoutsDir, true, ".html")
	if err != nil {
		return nil, fmt.Errorf("load layouts: %w", err)
	}
	partials, err := loadTemplates(partialsDir, false, ".html", ".hbs")
	if err != nil {
		return nil, fmt.Errorf("load partials: %w", err)
	}
	data, err := loadData(dataDir)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	return &sources{layouts: layouts, partials: partials, data: data}, nil
}

// loadTemplates reads every file with one of exts under dir. Layouts are keyed
// by slash-separated path without extension; partials by base name only.
func loadTemplates(dir string, byPath bool, exts ...string) (map[string]string, error) {
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !hasExt(path, exts) {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if byPath {
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return relErr
			}
			name = filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		}
		out[name] = string(raw)
		return nil
	})
	return out, err
}

// loadData reads <dir>/*.yml|yaml|json keyed by base name. JSON is decoded
// through the YAML parser.
func loadData(dir string) (map[string]any, error) {
	out := map[string]any{}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name(), []string{".yml", ".yaml", ".json"}) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = v
	}
	return out, nil
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
