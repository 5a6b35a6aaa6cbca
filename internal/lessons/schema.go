package lessons

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	CatalogKind            = "catalog"
	LessonKind             = "lesson"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

// Catalog is the ordered, read-only set of lessons a session works through.
// It is loaded once and shared by reference.
type Catalog struct {
	Kind          string   `yaml:"kind"`
	SchemaVersion int      `yaml:"schema_version"`
	Name          string   `yaml:"name"`
	Lessons       []Lesson `yaml:"lessons"`

	Path string `yaml:"-"`
}

type Lesson struct {
	Kind          string `yaml:"kind,omitempty"`
	SchemaVersion int    `yaml:"schema_version,omitempty"`
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Steps         []Step `yaml:"steps"`

	Path string `yaml:"-"`
}

type Step struct {
	Instruction     string `yaml:"instruction"`
	ExpectedCommand string `yaml:"expected_command"`
	Response        string `yaml:"response"`
	Hint            string `yaml:"hint"`
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Lessons)
}

// Lesson returns the lesson at idx, or false when idx is outside the catalog.
func (c *Catalog) Lesson(idx int) (Lesson, bool) {
	if c == nil || idx < 0 || idx >= len(c.Lessons) {
		return Lesson{}, false
	}
	return c.Lessons[idx], true
}

func (c *Catalog) IndexOf(id string) int {
	if c == nil {
		return -1
	}
	for i, l := range c.Lessons {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (c Catalog) Validate() error {
	if c.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if c.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if c.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", c.SchemaVersion, SupportedSchemaVersion)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return validateLessons(c.Lessons)
}

func validateLessons(lessons []Lesson) error {
	if len(lessons) == 0 {
		return fmt.Errorf("catalog must contain at least one lesson")
	}
	seen := map[string]struct{}{}
	for i, l := range lessons {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("lessons[%d]: %w", i, err)
		}
		if _, ok := seen[l.ID]; ok {
			return fmt.Errorf("duplicate lesson id %q", l.ID)
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}

func (l Lesson) Validate() error {
	if l.Kind != "" && l.Kind != LessonKind {
		return fmt.Errorf("kind must be %q", LessonKind)
	}
	if l.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported lesson schema_version %d (max supported %d)", l.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(l.ID) {
		return fmt.Errorf("invalid lesson id %q", l.ID)
	}
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("lesson %q: title is required", l.ID)
	}
	if len(l.Steps) == 0 {
		return fmt.Errorf("lesson %q: steps must contain at least one item", l.ID)
	}
	for i, s := range l.Steps {
		if strings.TrimSpace(s.ExpectedCommand) == "" {
			return fmt.Errorf("lesson %q steps[%d]: expected_command is required", l.ID, i)
		}
		if s.ExpectedCommand != strings.TrimSpace(s.ExpectedCommand) {
			return fmt.Errorf("lesson %q steps[%d]: expected_command must not have surrounding whitespace", l.ID, i)
		}
		if strings.TrimSpace(s.Instruction) == "" {
			return fmt.Errorf("lesson %q steps[%d]: instruction is required", l.ID, i)
		}
	}
	return nil
}
