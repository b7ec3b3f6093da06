package journal

import (
	"context"
	"log/slog"
	"strings"

	"tradejournal/pkg/recordstore"
)

// GoalPeriod is the horizon a goal is tracked over.
type GoalPeriod string

const (
	GoalDaily   GoalPeriod = "daily"
	GoalWeekly  GoalPeriod = "weekly"
	GoalMonthly GoalPeriod = "monthly"
)

// GoalPeriods lists the periods in display order.
var GoalPeriods = []GoalPeriod{GoalDaily, GoalWeekly, GoalMonthly}

// Goal is a trading goal with a completion percentage.
type Goal struct {
	ID       string     `json:"id"`
	Period   GoalPeriod `json:"period"`
	Text     string     `json:"text"`
	Progress int        `json:"progress"`
}

// RecordID implements recordstore.Record.
func (g Goal) RecordID() string { return g.ID }

// GoalInput is the payload for creating a goal.
type GoalInput struct {
	Period   GoalPeriod `json:"period" validate:"required,oneof=daily weekly monthly"`
	Text     string     `json:"text" validate:"required"`
	Progress int        `json:"progress" validate:"min=0,max=100"`
}

// GoalRepository is the typed entry point for goal records.
type GoalRepository struct {
	store  *recordstore.Store
	goals  *recordstore.Collection[Goal]
	ids    IDGenerator
	logger *slog.Logger
}

// NewGoalRepository binds a goal repository to store.
func NewGoalRepository(store *recordstore.Store, ids IDGenerator, logger *slog.Logger) *GoalRepository {
	if ids == nil {
		ids = NewULIDGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoalRepository{
		store:  store,
		goals:  goalCollection(store),
		ids:    ids,
		logger: logger,
	}
}

// CreateGoal assigns a fresh id and inserts the goal.
func (r *GoalRepository) CreateGoal(ctx context.Context, in GoalInput) (Goal, error) {
	in, err := normalizeGoalInput(in)
	if err != nil {
		return Goal{}, err
	}
	id, err := r.ids.NewID()
	if err != nil {
		return Goal{}, err
	}
	goal, err := r.goals.Add(ctx, Goal{ID: id, Period: in.Period, Text: in.Text, Progress: in.Progress})
	if err != nil {
		return Goal{}, classifyStoreError("create goal", err)
	}
	return goal, nil
}

// GetGoal returns the goal with id. A missing id yields found == false.
func (r *GoalRepository) GetGoal(ctx context.Context, id string) (Goal, bool, error) {
	goal, found, err := r.goals.Get(ctx, id)
	if err != nil {
		return Goal{}, false, classifyStoreError("get goal", err)
	}
	return goal, found, nil
}

// ListGoals returns the goals of one period, or every goal when period is
// empty.
func (r *GoalRepository) ListGoals(ctx context.Context, period GoalPeriod) ([]Goal, error) {
	period = GoalPeriod(strings.ToLower(strings.TrimSpace(string(period))))
	var (
		goals []Goal
		err   error
	)
	switch period {
	case "":
		goals, err = r.goals.All(ctx)
	case GoalDaily, GoalWeekly, GoalMonthly:
		goals, err = r.goals.FindByIndex(ctx, PeriodIndex, string(period))
	default:
		return nil, NewError(ErrCodeValidation, "period must be one of daily weekly monthly")
	}
	if err != nil {
		return nil, classifyStoreError("list goals", err)
	}
	return goals, nil
}

// UpdateGoal replaces an existing goal. It fails with ErrCodeNotFound when
// the id is unknown.
func (r *GoalRepository) UpdateGoal(ctx context.Context, goal Goal) (Goal, error) {
	goal.ID = strings.TrimSpace(goal.ID)
	if goal.ID == "" {
		return Goal{}, NewError(ErrCodeInvalidInput, "goal id is required")
	}
	in, err := normalizeGoalInput(GoalInput{Period: goal.Period, Text: goal.Text, Progress: goal.Progress})
	if err != nil {
		return Goal{}, err
	}
	updated, err := r.goals.Replace(ctx, Goal{ID: goal.ID, Period: in.Period, Text: in.Text, Progress: in.Progress})
	if err != nil {
		return Goal{}, classifyStoreError("update goal", err)
	}
	return updated, nil
}

// UpdateGoalProgress sets the progress of one goal, keeping its text and
// period.
func (r *GoalRepository) UpdateGoalProgress(ctx context.Context, id string, progress int) (Goal, error) {
	if progress < 0 || progress > 100 {
		return Goal{}, NewError(ErrCodeValidation, "progress must be between 0 and 100")
	}
	var updated Goal
	err := r.store.Update(ctx, func(tx *recordstore.Tx) error {
		goals := r.goals.WithTx(tx)
		goal, found, err := goals.Get(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return NewError(ErrCodeNotFound, "goal not found")
		}
		goal.Progress = progress
		updated, err = goals.Replace(ctx, goal)
		return err
	})
	if err != nil {
		return Goal{}, classifyStoreError("update goal progress", err)
	}
	return updated, nil
}

// DeleteGoal removes one goal. Deleting an unknown id is a no-op.
func (r *GoalRepository) DeleteGoal(ctx context.Context, id string) error {
	if err := r.goals.Delete(ctx, id); err != nil {
		return classifyStoreError("delete goal", err)
	}
	return nil
}
