package usecase

import (
	"context"
	"fmt"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

// ContentUsecase exposes the read-only curriculum.
type ContentUsecase interface {
	ListStages(ctx context.Context) ([]entity.Stage, error)
	GetStage(ctx context.Context, stageID int) (*entity.Stage, error)
	GetLesson(ctx context.Context, stageID, lessonID int) (*entity.Lesson, error)
}

// NewContentUsecase wraps a content repository.
func NewContentUsecase(repo repository.ContentRepository) ContentUsecase {
	return &contentUsecase{repo: repo}
}

type contentUsecase struct {
	repo repository.ContentRepository
}

func (u *contentUsecase) ListStages(ctx context.Context) ([]entity.Stage, error) {
	return u.repo.ListStages(ctx)
}

func (u *contentUsecase) GetStage(ctx context.Context, stageID int) (*entity.Stage, error) {
	stages, err := u.repo.ListStages(ctx)
	if err != nil {
		return nil, err
	}
	return findStage(stages, stageID)
}

func (u *contentUsecase) GetLesson(ctx context.Context, stageID, lessonID int) (*entity.Lesson, error) {
	stage, err := u.GetStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	return findLesson(stage, lessonID)
}

func findStage(stages []entity.Stage, stageID int) (*entity.Stage, error) {
	for i := range stages {
		if stages[i].ID == stageID {
			return &stages[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", entity.ErrStageNotFound, stageID)
}

func findLesson(stage *entity.Stage, lessonID int) (*entity.Lesson, error) {
	lesson, ok := stage.Lesson(lessonID)
	if !ok {
		return nil, fmt.Errorf("%w: stage %d lesson %d", entity.ErrLessonNotFound, stage.ID, lessonID)
	}
	return lesson, nil
}
