package entity

// BadgeCategory groups badges for display.
type BadgeCategory string

const (
	BadgeCategoryAchievement BadgeCategory = "achievement"
	BadgeCategoryProgress    BadgeCategory = "progress"
	BadgeCategorySpecial     BadgeCategory = "special"
)

// RequirementType names the rule a badge is checked against.
type RequirementType string

const (
	RequirementLessonsCompleted RequirementType = "lessons_completed"
	RequirementStreak           RequirementType = "streak"
	RequirementXPEarned         RequirementType = "xp_earned"
	RequirementQuizScore        RequirementType = "quiz_score"
	// RequirementExpression evaluates a CEL boolean expression over the record.
	RequirementExpression RequirementType = "expression"
)

// BadgeRequirement is the rule that earns a badge.
type BadgeRequirement struct {
	Type          RequirementType `json:"type"`
	Threshold     int             `json:"threshold"`
	SpecificStage *int            `json:"specificStage,omitempty"`
	Expression    string          `json:"expression,omitempty"`
}

// Badge is an immutable catalog entry.
type Badge struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Icon        string           `json:"icon,omitempty"`
	Category    BadgeCategory    `json:"category"`
	Requirement BadgeRequirement `json:"requirements"`
}

// DefaultBadges returns the built-in badge catalog.
func DefaultBadges() []Badge {
	stageOne := 1
	return []Badge{
		{
			ID:          "first_quiz",
			Name:        "First Quiz",
			Description: "Completed your first quiz",
			Icon:        "emoji_events",
			Category:    BadgeCategoryAchievement,
			Requirement: BadgeRequirement{Type: RequirementLessonsCompleted, Threshold: 1},
		},
		{
			ID:          "streak_3",
			Name:        "3 Day Streak",
			Description: "Logged in for 3 consecutive days",
			Icon:        "military_tech",
			Category:    BadgeCategoryProgress,
			Requirement: BadgeRequirement{Type: RequirementStreak, Threshold: 3},
		},
		{
			ID:          "fast_learner",
			Name:        "Fast Learner",
			Description: "Completed 5 lessons",
			Icon:        "psychology",
			Category:    BadgeCategoryAchievement,
			Requirement: BadgeRequirement{Type: RequirementLessonsCompleted, Threshold: 5},
		},
		{
			ID:          "stage_1_master",
			Name:        "Stage 1 Master",
			Description: "Completed Stage 1 with 100% accuracy",
			Icon:        "workspace_premium",
			Category:    BadgeCategoryAchievement,
			Requirement: BadgeRequirement{Type: RequirementQuizScore, Threshold: 100, SpecificStage: &stageOne},
		},
		{
			ID:          "xp_champion",
			Name:        "XP Champion",
			Description: "Earned over 500 XP",
			Icon:        "stars",
			Category:    BadgeCategoryProgress,
			Requirement: BadgeRequirement{Type: RequirementXPEarned, Threshold: 500},
		},
	}
}
