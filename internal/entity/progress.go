package entity

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// DefaultStageID is the stage every new learner starts in.
const DefaultStageID = 1

// CompletionRecord proves a learner finished a lesson.
type CompletionRecord struct {
	StageID     int       `json:"stage_id"`
	LessonID    int       `json:"lesson_id"`
	CompletedAt time.Time `json:"completed_at"`
	Score       int       `json:"score"`
	XPEarned    int       `json:"xp_earned"`
}

// ProgressRecord is the single mutable aggregate of a learner's progression.
type ProgressRecord struct {
	UserID           string             `json:"user_id"`
	XP               int                `json:"xp"`
	CurrentStageID   int                `json:"current_stage_id"`
	CompletedLessons []CompletionRecord `json:"completed_lessons"`
	EarnedBadges     []string           `json:"earned_badges"`
	LoginDates       []string           `json:"login_dates"`
	StreakDays       int                `json:"streak_days"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// NewProgressRecord returns the zero-state record for a user.
func NewProgressRecord(userID string) *ProgressRecord {
	return &ProgressRecord{
		UserID:           userID,
		CurrentStageID:   DefaultStageID,
		CompletedLessons: []CompletionRecord{},
		EarnedBadges:     []string{},
		LoginDates:       []string{},
	}
}

// NormalizeUserID trims the identifier and rejects empty values.
func NormalizeUserID(userID string) (string, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return "", ErrInvalidUserID
	}
	return id, nil
}

// Normalize fills nil collections so persisted JSON never carries nulls.
func (p *ProgressRecord) Normalize() {
	if p.CompletedLessons == nil {
		p.CompletedLessons = []CompletionRecord{}
	}
	if p.EarnedBadges == nil {
		p.EarnedBadges = []string{}
	}
	if p.LoginDates == nil {
		p.LoginDates = []string{}
	}
	if p.CurrentStageID == 0 {
		p.CurrentStageID = DefaultStageID
	}
}

// Completion looks up the completion record for a lesson.
func (p *ProgressRecord) Completion(stageID, lessonID int) (CompletionRecord, bool) {
	return lo.Find(p.CompletedLessons, func(c CompletionRecord) bool {
		return c.StageID == stageID && c.LessonID == lessonID
	})
}

// IsCompleted reports whether the lesson has a completion record.
func (p *ProgressRecord) IsCompleted(stageID, lessonID int) bool {
	_, ok := p.Completion(stageID, lessonID)
	return ok
}

// UpsertCompletion stores rec, overwriting an existing record for the same
// (stage, lesson) pair in place. It reports whether a record was replaced.
func (p *ProgressRecord) UpsertCompletion(rec CompletionRecord) bool {
	_, idx, ok := lo.FindIndexOf(p.CompletedLessons, func(c CompletionRecord) bool {
		return c.StageID == rec.StageID && c.LessonID == rec.LessonID
	})
	if ok {
		p.CompletedLessons[idx] = rec
		return true
	}
	p.CompletedLessons = append(p.CompletedLessons, rec)
	return false
}

// CompletionsInStage returns the completion records belonging to a stage.
func (p *ProgressRecord) CompletionsInStage(stageID int) []CompletionRecord {
	return lo.Filter(p.CompletedLessons, func(c CompletionRecord, _ int) bool {
		return c.StageID == stageID
	})
}

// HasBadge reports whether the badge was already earned.
func (p *ProgressRecord) HasBadge(badgeID string) bool {
	return lo.Contains(p.EarnedBadges, badgeID)
}

// AddBadge records a badge once. Badges are never removed.
func (p *ProgressRecord) AddBadge(badgeID string) bool {
	if badgeID == "" || p.HasBadge(badgeID) {
		return false
	}
	p.EarnedBadges = append(p.EarnedBadges, badgeID)
	return true
}

// HasLoginDate reports whether the calendar day is already recorded.
func (p *ProgressRecord) HasLoginDate(day string) bool {
	return lo.Contains(p.LoginDates, strings.TrimSpace(day))
}

// AddLoginDate appends a calendar day if it is new. The day must be YYYY-MM-DD.
func (p *ProgressRecord) AddLoginDate(day string) (bool, error) {
	t, err := ParseDay(day)
	if err != nil {
		return false, err
	}
	canonical := FormatDay(t)
	if p.HasLoginDate(canonical) {
		return false, nil
	}
	p.LoginDates = append(p.LoginDates, canonical)
	return true, nil
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (p *ProgressRecord) Clone() *ProgressRecord {
	if p == nil {
		return nil
	}
	out := *p
	out.CompletedLessons = append([]CompletionRecord{}, p.CompletedLessons...)
	out.EarnedBadges = append([]string{}, p.EarnedBadges...)
	out.LoginDates = append([]string{}, p.LoginDates...)
	return &out
}
