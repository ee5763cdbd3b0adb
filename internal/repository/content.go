package repository

import (
	"context"

	"github.com/eslsoft/finquest/internal/entity"
)

// ContentRepository supplies the immutable curriculum, ordered by stage id.
type ContentRepository interface {
	ListStages(ctx context.Context) ([]entity.Stage, error)
}

// BadgeRepository supplies the static badge catalog.
type BadgeRepository interface {
	ListBadges(ctx context.Context) ([]entity.Badge, error)
}

// BadgeStatus selects earned or locked badges for a learner.
type BadgeStatus string

const (
	BadgeStatusAll    BadgeStatus = ""
	BadgeStatusEarned BadgeStatus = "earned"
	BadgeStatusLocked BadgeStatus = "locked"
)

// ListBadgeQuery lists catalog badges for a learner.
type ListBadgeQuery struct {
	FilterOrder

	UserID string
	Status BadgeStatus
}
