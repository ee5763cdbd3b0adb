package usecase

import (
	"math"

	"github.com/eslsoft/finquest/internal/entity"
)

// Checkpoint marks the lesson at a 1-based position of a stage as the stage's
// checkpoint quiz. It only affects presentation.
type Checkpoint struct {
	StageID  int
	Position int
}

// DefaultCheckpoint is the sixth lesson of the first stage.
var DefaultCheckpoint = Checkpoint{StageID: 1, Position: 6}

// ResolveLessonStates annotates each lesson of the stage, in author order,
// with its lock, completion and current flags.
func ResolveLessonStates(stage entity.Stage, completions []entity.CompletionRecord, checkpoint Checkpoint) []entity.LessonState {
	done := make(map[int]bool, len(completions))
	for _, c := range completions {
		if c.StageID == stage.ID {
			done[c.LessonID] = true
		}
	}

	states := make([]entity.LessonState, 0, len(stage.Lessons))
	currentFound := false
	for i, lesson := range stage.Lessons {
		position := i + 1
		completed := done[lesson.ID]
		gated := position > 1 && !done[stage.Lessons[i-1].ID]
		locked := lesson.IsLocked || gated

		current := !currentFound && !completed && !locked
		if current {
			currentFound = true
		}

		states = append(states, entity.LessonState{
			Lesson:       lesson,
			Position:     position,
			IsLocked:     locked,
			IsCompleted:  completed,
			IsCurrent:    current,
			IsCheckpoint: stage.ID == checkpoint.StageID && position == checkpoint.Position,
		})
	}
	return states
}

// ResolveStageStates reports, per stage, whether the learner has the XP to
// enter it and how many of its lessons are complete.
func ResolveStageStates(stages []entity.Stage, record *entity.ProgressRecord) []entity.StageState {
	states := make([]entity.StageState, 0, len(stages))
	for _, stage := range stages {
		completed := 0
		for _, lesson := range stage.Lessons {
			if record.IsCompleted(stage.ID, lesson.ID) {
				completed++
			}
		}
		total := len(stage.Lessons)
		percent := 0
		if total > 0 {
			percent = int(math.Round(100 * float64(completed) / float64(total)))
		}
		states = append(states, entity.StageState{
			Stage:            stage,
			IsLocked:         record.XP < stage.RequiredXP,
			LessonsTotal:     total,
			LessonsCompleted: completed,
			ProgressPercent:  percent,
		})
	}
	return states
}

// stageComplete reports whether every lesson of the stage has a completion.
func stageComplete(stage entity.Stage, record *entity.ProgressRecord) bool {
	for _, lesson := range stage.Lessons {
		if !record.IsCompleted(stage.ID, lesson.ID) {
			return false
		}
	}
	return len(stage.Lessons) > 0
}
