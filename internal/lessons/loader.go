package lessons

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/devops.yaml
var builtin embed.FS

const builtinPath = "catalog/devops.yaml"

type FSLoader struct{}

func NewLoader() *FSLoader { return &FSLoader{} }

// LoadDefault returns the catalog compiled into the binary.
func (l *FSLoader) LoadDefault() (*Catalog, error) {
	b, err := builtin.ReadFile(builtinPath)
	if err != nil {
		return nil, err
	}
	c, err := parseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("builtin catalog: %w", err)
	}
	c.Path = "builtin:" + builtinPath
	return c, nil
}

// Load reads a catalog file, or a directory holding one lesson file per lesson.
// An empty path selects the builtin catalog.
func (l *FSLoader) Load(ctx context.Context, path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return l.LoadDefault()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return l.loadDir(ctx, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := parseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

func parseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &c, nil
}

func (l *FSLoader) loadDir(ctx context.Context, root string) (*Catalog, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	c := &Catalog{
		Kind:          CatalogKind,
		SchemaVersion: SupportedSchemaVersion,
		Name:          filepath.Base(root),
		Path:          root,
		Lessons:       make([]Lesson, 0, len(names)),
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lesson, err := loadLessonFile(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		c.Lessons = append(c.Lessons, lesson)
	}
	if err := validateLessons(c.Lessons); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", root, err)
	}
	return c, nil
}

func loadLessonFile(path string) (Lesson, error) {
	var lesson Lesson
	b, err := os.ReadFile(path)
	if err != nil {
		return lesson, err
	}
	if err := yaml.Unmarshal(b, &lesson); err != nil {
		return lesson, fmt.Errorf("parse %s: %w", path, err)
	}
	if lesson.Kind != LessonKind {
		return lesson, fmt.Errorf("validate %s: kind must be %q", path, LessonKind)
	}
	if err := lesson.Validate(); err != nil {
		return lesson, fmt.Errorf("validate %s: %w", path, err)
	}
	lesson.Path = path
	return lesson, nil
}
