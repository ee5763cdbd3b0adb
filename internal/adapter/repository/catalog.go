package repository

import (
	"cmp"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

//go:embed catalogdata/stages.json
var defaultStagesJSON []byte

// Catalog serves the immutable curriculum and badge catalog from memory.
// Returned slices are shared and must not be modified.
type Catalog struct {
	stages []entity.Stage
	badges []entity.Badge
}

var (
	_ repository.ContentRepository = (*Catalog)(nil)
	_ repository.BadgeRepository   = (*Catalog)(nil)
)

// NewCatalog validates and orders the given stages. A nil badge list falls
// back to the built-in badges.
func NewCatalog(stages []entity.Stage, badges []entity.Badge) (*Catalog, error) {
	stages = slices.Clone(stages)
	slices.SortFunc(stages, func(a, b entity.Stage) int { return cmp.Compare(a.ID, b.ID) })
	for i := range stages {
		if err := validateStage(&stages[i]); err != nil {
			return nil, err
		}
		if i > 0 && stages[i-1].ID == stages[i].ID {
			return nil, fmt.Errorf("catalog: duplicate stage id %d", stages[i].ID)
		}
	}
	if badges == nil {
		badges = entity.DefaultBadges()
	}
	return &Catalog{stages: stages, badges: slices.Clone(badges)}, nil
}

// LoadCatalog reads the stage and badge catalogs from JSON files. An empty
// path selects the built-in catalog.
func LoadCatalog(stagesFile, badgesFile string) (*Catalog, error) {
	stagesData := defaultStagesJSON
	if stagesFile != "" {
		data, err := os.ReadFile(stagesFile)
		if err != nil {
			return nil, fmt.Errorf("read stages file: %w", err)
		}
		stagesData = data
	}
	var stages []entity.Stage
	if err := json.Unmarshal(stagesData, &stages); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}

	var badges []entity.Badge
	if badgesFile != "" {
		data, err := os.ReadFile(badgesFile)
		if err != nil {
			return nil, fmt.Errorf("read badges file: %w", err)
		}
		if err := json.Unmarshal(data, &badges); err != nil {
			return nil, fmt.Errorf("decode badges: %w", err)
		}
		if badges == nil {
			badges = []entity.Badge{}
		}
	}
	return NewCatalog(stages, badges)
}

func (c *Catalog) ListStages(ctx context.Context) ([]entity.Stage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.stages, nil
}

func (c *Catalog) ListBadges(ctx context.Context) ([]entity.Badge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.badges, nil
}

func validateStage(stage *entity.Stage) error {
	if stage.ID <= 0 {
		return fmt.Errorf("catalog: stage id must be positive, got %d", stage.ID)
	}
	if stage.RequiredXP < 0 {
		return fmt.Errorf("catalog: stage %d has negative requiredXP", stage.ID)
	}
	stage.Lessons = slices.Clone(stage.Lessons)
	slices.SortFunc(stage.Lessons, func(a, b entity.Lesson) int { return cmp.Compare(a.ID, b.ID) })
	for i, lesson := range stage.Lessons {
		if lesson.ID <= 0 {
			return fmt.Errorf("catalog: stage %d lesson id must be positive, got %d", stage.ID, lesson.ID)
		}
		if i > 0 && stage.Lessons[i-1].ID == lesson.ID {
			return fmt.Errorf("catalog: stage %d duplicate lesson id %d", stage.ID, lesson.ID)
		}
		if lesson.XPReward < 0 {
			return fmt.Errorf("catalog: stage %d lesson %d has negative xpReward", stage.ID, lesson.ID)
		}
	}
	return nil
}
