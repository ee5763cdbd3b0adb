package usecase

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/finquest/internal/entity"
)

// BadgeEvaluator tests badge requirements against a progress record.
// Expression requirements are compiled once and cached by source text.
type BadgeEvaluator struct {
	logger logrus.FieldLogger
	env    *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewBadgeEvaluator builds the CEL environment shared by expression badges.
func NewBadgeEvaluator(logger logrus.FieldLogger) (*BadgeEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("xp", cel.IntType),
		cel.Variable("streak_days", cel.IntType),
		cel.Variable("lessons_completed", cel.IntType),
		cel.Variable("badges", cel.ListType(cel.StringType)),
		cel.Variable("stage_scores", cel.MapType(cel.IntType, cel.ListType(cel.IntType))),
	)
	if err != nil {
		return nil, fmt.Errorf("build badge expression env: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BadgeEvaluator{
		logger:   logger,
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Evaluate adds every unearned badge whose requirement holds to the record
// and returns the new ids in catalog order. Malformed catalog entries are
// logged and skipped.
func (e *BadgeEvaluator) Evaluate(record *entity.ProgressRecord, catalog []entity.Badge) []string {
	var earned []string
	for _, badge := range catalog {
		if record.HasBadge(badge.ID) {
			continue
		}
		ok, err := e.Check(record, badge)
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"badge_id": badge.ID,
				"user_id":  record.UserID,
			}).Warn("skipping malformed badge rule")
			continue
		}
		if ok && record.AddBadge(badge.ID) {
			earned = append(earned, badge.ID)
		}
	}
	return earned
}

// Check reports whether the record satisfies the badge's requirement.
func (e *BadgeEvaluator) Check(record *entity.ProgressRecord, badge entity.Badge) (bool, error) {
	if strings.TrimSpace(badge.ID) == "" {
		return false, fmt.Errorf("%w: badge id is empty", entity.ErrInvalidBadgeRule)
	}
	req := badge.Requirement
	if req.Type != entity.RequirementExpression && req.Threshold < 0 {
		return false, fmt.Errorf("%w: negative threshold %d", entity.ErrInvalidBadgeRule, req.Threshold)
	}

	switch req.Type {
	case entity.RequirementLessonsCompleted:
		return len(record.CompletedLessons) >= req.Threshold, nil
	case entity.RequirementStreak:
		return record.StreakDays >= req.Threshold, nil
	case entity.RequirementXPEarned:
		return record.XP >= req.Threshold, nil
	case entity.RequirementQuizScore:
		if req.SpecificStage == nil {
			return false, fmt.Errorf("%w: quiz_score requires specificStage", entity.ErrInvalidBadgeRule)
		}
		completions := record.CompletionsInStage(*req.SpecificStage)
		if len(completions) == 0 {
			return false, nil
		}
		for _, c := range completions {
			if c.Score != 100 {
				return false, nil
			}
		}
		return true, nil
	case entity.RequirementExpression:
		return e.evalExpression(record, req.Expression)
	default:
		return false, fmt.Errorf("%w: unknown requirement type %q", entity.ErrInvalidBadgeRule, req.Type)
	}
}

// Validate compiles a badge's expression without evaluating it.
func (e *BadgeEvaluator) Validate(badge entity.Badge) error {
	if badge.Requirement.Type != entity.RequirementExpression {
		return nil
	}
	_, err := e.program(badge.Requirement.Expression)
	return err
}

func (e *BadgeEvaluator) evalExpression(record *entity.ProgressRecord, expr string) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	scores := make(map[int64][]int64)
	for _, c := range record.CompletedLessons {
		scores[int64(c.StageID)] = append(scores[int64(c.StageID)], int64(c.Score))
	}

	out, _, err := prg.Eval(map[string]any{
		"xp":                int64(record.XP),
		"streak_days":       int64(record.StreakDays),
		"lessons_completed": int64(len(record.CompletedLessons)),
		"badges":            append([]string{}, record.EarnedBadges...),
		"stage_scores":      scores,
	})
	if err != nil {
		return false, fmt.Errorf("%w: evaluate %q: %v", entity.ErrInvalidBadgeRule, expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression %q did not yield a bool", entity.ErrInvalidBadgeRule, expr)
	}
	return result, nil
}

func (e *BadgeEvaluator) program(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", entity.ErrInvalidBadgeRule)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, ok := e.programs[expr]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", entity.ErrInvalidBadgeRule, expr, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: expression %q has type %s, want bool", entity.ErrInvalidBadgeRule, expr, out)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: program %q: %v", entity.ErrInvalidBadgeRule, expr, err)
	}
	e.programs[expr] = prg
	return prg, nil
}
