package usecase

import (
	"testing"

	"github.com/eslsoft/finquest/internal/entity"
)

func completion(stageID, lessonID, score int) entity.CompletionRecord {
	return entity.CompletionRecord{StageID: stageID, LessonID: lessonID, Score: score}
}

func TestResolveLessonStatesLinearChain(t *testing.T) {
	stage := entity.Stage{ID: 1, Lessons: lessons(3, 10)}
	states := ResolveLessonStates(stage, []entity.CompletionRecord{completion(1, 1, 100)}, DefaultCheckpoint)

	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
	if !states[0].IsCompleted || states[0].IsLocked || states[0].IsCurrent {
		t.Fatalf("lesson 1 should be completed, unlocked, not current: %+v", states[0])
	}
	if states[1].IsLocked || states[1].IsCompleted || !states[1].IsCurrent {
		t.Fatalf("lesson 2 should be unlocked and current: %+v", states[1])
	}
	if !states[2].IsLocked || states[2].IsCurrent {
		t.Fatalf("lesson 3 should be locked: %+v", states[2])
	}
	for i, s := range states {
		if s.Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, s.Position)
		}
	}
}

func TestResolveLessonStatesFirstLessonNeverGated(t *testing.T) {
	stage := entity.Stage{ID: 4, Lessons: lessons(4, 10)}
	histories := [][]entity.CompletionRecord{
		nil,
		{completion(4, 3, 50)},
		{completion(4, 1, 100), completion(4, 2, 100)},
		{completion(9, 1, 100)},
	}
	for _, history := range histories {
		states := ResolveLessonStates(stage, history, DefaultCheckpoint)
		if states[0].IsLocked {
			t.Fatalf("first lesson locked with history %v", history)
		}
		for n := 1; n < len(states); n++ {
			prevDone := states[n-1].IsCompleted
			if states[n].IsLocked == prevDone {
				t.Fatalf("lesson %d lock=%v but predecessor completed=%v", n+1, states[n].IsLocked, prevDone)
			}
		}
	}
}

func TestResolveLessonStatesSingleCurrent(t *testing.T) {
	// Non-linear history: lesson 3 done without lesson 2 leaves 2 and 4 open.
	stage := entity.Stage{ID: 1, Lessons: lessons(4, 10)}
	history := []entity.CompletionRecord{completion(1, 1, 100), completion(1, 3, 100)}
	states := ResolveLessonStates(stage, history, DefaultCheckpoint)

	current := 0
	for _, s := range states {
		if s.IsCurrent {
			current++
		}
	}
	if current != 1 || !states[1].IsCurrent {
		t.Fatalf("expected only lesson 2 to be current, got %+v", states)
	}
	if states[3].IsLocked {
		t.Fatal("lesson 4 should be unlocked after lesson 3")
	}
}

func TestResolveLessonStatesAuthorLockAndOrder(t *testing.T) {
	stage := entity.Stage{ID: 2, Lessons: []entity.Lesson{
		{ID: 10, IsLocked: true},
		{ID: 3},
		{ID: 7},
	}}
	states := ResolveLessonStates(stage, []entity.CompletionRecord{completion(2, 10, 80)}, DefaultCheckpoint)

	if !states[0].IsLocked {
		t.Fatal("author lock must be kept on the first lesson")
	}
	if states[1].IsLocked || !states[1].IsCurrent {
		t.Fatalf("second lesson follows author order and should be current: %+v", states[1])
	}
	if !states[2].IsLocked {
		t.Fatal("third lesson should be gated by the second")
	}
}

func TestResolveLessonStatesCheckpoint(t *testing.T) {
	stage := entity.Stage{ID: 1, Lessons: lessons(6, 10)}
	states := ResolveLessonStates(stage, nil, DefaultCheckpoint)
	for i, s := range states {
		if s.IsCheckpoint != (i == 5) {
			t.Fatalf("checkpoint flag wrong at position %d", i+1)
		}
	}
	other := ResolveLessonStates(entity.Stage{ID: 2, Lessons: lessons(6, 10)}, nil, DefaultCheckpoint)
	if other[5].IsCheckpoint {
		t.Fatal("checkpoint must only apply to the configured stage")
	}
}

func TestResolveStageStates(t *testing.T) {
	record := entity.NewProgressRecord("u1")
	record.XP = 60
	record.UpsertCompletion(completion(1, 1, 100))
	record.UpsertCompletion(completion(1, 2, 90))

	states := ResolveStageStates(testStages(), record)
	if len(states) != 2 {
		t.Fatalf("expected 2 stage states, got %d", len(states))
	}
	if states[0].IsLocked || states[0].LessonsCompleted != 2 || states[0].LessonsTotal != 6 || states[0].ProgressPercent != 33 {
		t.Fatalf("unexpected stage 1 state: %+v", states[0])
	}
	if !states[1].IsLocked || states[1].ProgressPercent != 0 {
		t.Fatalf("stage 2 should be locked below 100 XP: %+v", states[1])
	}

	record.XP = 100
	states = ResolveStageStates(testStages(), record)
	if states[1].IsLocked {
		t.Fatal("stage 2 should unlock at its required XP")
	}
}
