package mapping

import (
	"github.com/samber/lo"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/usecase"
)

// CompleteLessonRequest is the body of POST /completions. Score is
// required; a missing score is not treated as zero.
type CompleteLessonRequest struct {
	StageID  int  `json:"stage_id"`
	LessonID int  `json:"lesson_id"`
	Score    *int `json:"score"`
}

// SubmitLessonRequest is the body of POST /submissions.
type SubmitLessonRequest struct {
	StageID  int             `json:"stage_id"`
	LessonID int             `json:"lesson_id"`
	Answers  []entity.Answer `json:"answers"`
}

// AwardXPRequest is the body of POST /xp.
type AwardXPRequest struct {
	Amount int `json:"amount"`
}

// ProgressResponse wraps a record after a mutation.
type ProgressResponse struct {
	Progress  *entity.ProgressRecord `json:"progress"`
	Level     entity.LevelInfo       `json:"level"`
	NewBadges []entity.Badge         `json:"new_badges"`
	Persisted bool                   `json:"persisted"`
}

type CompletionResponse struct {
	ProgressResponse
	Completion entity.CompletionRecord `json:"completion"`
}

type LoginResponse struct {
	ProgressResponse
	Recorded bool `json:"recorded"`
}

// BadgeView is a catalog badge annotated with the learner's status.
type BadgeView struct {
	entity.Badge
	Earned bool `json:"earned"`
}

// ListResponse is the envelope for collection endpoints.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

func FromProgressResult(in *usecase.ProgressResult) ProgressResponse {
	return ProgressResponse{
		Progress:  in.Record,
		Level:     in.Level,
		NewBadges: lo.Ternary(in.NewBadges == nil, []entity.Badge{}, in.NewBadges),
		Persisted: in.Persisted,
	}
}

func FromCompletionResult(in *usecase.CompletionResult) CompletionResponse {
	return CompletionResponse{
		ProgressResponse: FromProgressResult(&in.ProgressResult),
		Completion:       in.Completion,
	}
}

func FromLoginResult(in *usecase.LoginResult) LoginResponse {
	return LoginResponse{
		ProgressResponse: FromProgressResult(&in.ProgressResult),
		Recorded:         in.Recorded,
	}
}

// ToBadgeViews marks each badge as earned when the record holds it.
func ToBadgeViews(badges []entity.Badge, record *entity.ProgressRecord) []BadgeView {
	return lo.Map(badges, func(b entity.Badge, _ int) BadgeView {
		return BadgeView{Badge: b, Earned: record != nil && record.HasBadge(b.ID)}
	})
}
