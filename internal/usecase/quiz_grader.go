package usecase

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/eslsoft/finquest/internal/entity"
)

// GradeLesson scores a learner's answers to the lesson's interactive blocks.
// The score is the rounded percentage of interactive blocks answered
// correctly; a lesson without interactive blocks scores 100. Unanswered
// blocks count as wrong.
func GradeLesson(lesson entity.Lesson, answers []entity.Answer) (int, error) {
	byBlock := make(map[int]entity.Answer, len(answers))
	for _, answer := range answers {
		idx := answer.BlockIndex
		if idx < 0 || idx >= len(lesson.Content) {
			return 0, fmt.Errorf("%w: block %d out of range", entity.ErrInvalidAnswer, idx)
		}
		if !lesson.Content[idx].Interactive() {
			return 0, fmt.Errorf("%w: block %d (%s) is not graded", entity.ErrInvalidAnswer, idx, lesson.Content[idx].Kind())
		}
		if _, dup := byBlock[idx]; dup {
			return 0, fmt.Errorf("%w: block %d answered twice", entity.ErrInvalidAnswer, idx)
		}
		byBlock[idx] = answer
	}

	total, correct := 0, 0
	for idx, block := range lesson.Content {
		if !block.Interactive() {
			continue
		}
		total++
		answer, ok := byBlock[idx]
		if ok && gradeBlock(block, answer) {
			correct++
		}
	}

	if total == 0 {
		return 100, nil
	}
	return int(math.Round(100 * float64(correct) / float64(total))), nil
}

func gradeBlock(block entity.ContentBlock, answer entity.Answer) bool {
	switch b := block.(type) {
	case entity.MultipleChoiceBlock:
		if b.MultiSelect {
			return sameIndexSet(answer.Selected, b.Question.CorrectAnswer.Resolve(b.Question.Options))
		}
		return singleChoice(b.Question, answer.Selected)
	case entity.TrueFalseBlock:
		return singleChoice(b.Question, answer.Selected)
	case entity.SortingBlock:
		for _, item := range b.UnsortedItems {
			if answer.Placements[item.Item] != item.CorrectCategory {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func singleChoice(q entity.Question, selected []int) bool {
	if len(selected) != 1 || q.CorrectAnswer.IsList() {
		return false
	}
	key := q.CorrectAnswer.Resolve(q.Options)
	return len(key) == 1 && key[0] == selected[0]
}

func sameIndexSet(selected, key []int) bool {
	if len(key) == 0 {
		return false
	}
	chosen := lo.Uniq(selected)
	if len(chosen) != len(key) {
		return false
	}
	for _, idx := range chosen {
		if !lo.Contains(key, idx) {
			return false
		}
	}
	return true
}
