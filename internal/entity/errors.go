package entity

import "errors"

// Domain errors for progression, content and badge rules.
var (
	ErrInvalidAmount          = errors.New("invalid XP amount")
	ErrInvalidScore           = errors.New("invalid score")
	ErrStageNotFound          = errors.New("stage not found")
	ErrLessonNotFound         = errors.New("lesson not found")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	ErrInvalidUserID     = errors.New("invalid user ID")
	ErrProgressNotFound  = errors.New("progress not found")
	ErrInvalidBadgeRule  = errors.New("invalid badge rule")
	ErrInvalidBadgeQuery = errors.New("invalid badge query")
	ErrInvalidDate       = errors.New("invalid calendar date")
	ErrUnknownBlockKind  = errors.New("unknown content block kind")
	ErrInvalidAnswer     = errors.New("invalid answer")
)
