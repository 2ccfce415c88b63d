package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/book-library/internal/core/domain"
)

// DefaultCategories is the built-in category set. Order matters: ties go to the earlier entry.
func DefaultCategories() []domain.CategoryDefinition {
	return []domain.CategoryDefinition{
		{Name: "Fiction", Description: "novel story fiction narrative plot character literary"},
		{Name: "Technical", Description: "programming code software engineering computer algorithm"},
		{Name: "Philosophy", Description: "philosophy ethics metaphysics logic existence thought"},
		{Name: "Science", Description: "science physics biology chemistry research theory"},
		{Name: "History", Description: "history historical war civilization ancient modern"},
		{Name: "Business", Description: "business management economics finance marketing strategy"},
		{Name: "Self-Help", Description: "self-help motivation productivity habits personal"},
	}
}

type categoriesFile struct {
	Categories []domain.CategoryDefinition `yaml:"categories"`
}

// LoadCategories reads an ordered category list from a YAML file.
// An empty path yields DefaultCategories.
func LoadCategories(path string) ([]domain.CategoryDefinition, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCategories(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	return ParseCategories(raw)
}

func ParseCategories(raw []byte) ([]domain.CategoryDefinition, error) {
	var file categoriesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, domain.WrapError(domain.ErrMisconfigured, "parse categories", err)
	}
	if len(file.Categories) == 0 {
		return nil, domain.WrapError(domain.ErrMisconfigured, "parse categories", fmt.Errorf("no categories defined"))
	}

	out := make([]domain.CategoryDefinition, 0, len(file.Categories))
	for _, c := range file.Categories {
		out = append(out, domain.CategoryDefinition{
			Name:        strings.TrimSpace(c.Name),
			Description: strings.TrimSpace(c.Description),
		})
	}
	return out, nil
}
