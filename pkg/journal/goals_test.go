package journal

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setupGoals(t *testing.T) *GoalRepository {
	t.Helper()
	return NewGoalRepository(setupTestStore(t), sequentialIDs("G"), discardLogger())
}

func TestGoals_CRUD(t *testing.T) {
	goals := setupGoals(t)
	ctx := context.Background()

	daily, err := goals.CreateGoal(ctx, GoalInput{Period: " Daily ", Text: "  Follow the plan  "})
	assertNoError(t, err, "create daily")
	want := Goal{ID: "G-001", Period: GoalDaily, Text: "Follow the plan", Progress: 0}
	if diff := cmp.Diff(want, daily); diff != "" {
		t.Fatalf("unexpected goal (-want +got):\n%s", diff)
	}
	_, err = goals.CreateGoal(ctx, GoalInput{Period: GoalWeekly, Text: "Journal every trade", Progress: 40})
	assertNoError(t, err, "create weekly")

	got, found, err := goals.GetGoal(ctx, daily.ID)
	assertNoError(t, err, "get goal")
	if !found {
		t.Fatalf("goal %s not found", daily.ID)
	}
	if diff := cmp.Diff(daily, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	updated, err := goals.UpdateGoalProgress(ctx, daily.ID, 75)
	assertNoError(t, err, "update progress")
	if updated.Progress != 75 || updated.Text != daily.Text || updated.Period != GoalDaily {
		t.Fatalf("unexpected goal after progress update: %+v", updated)
	}

	updated.Text = "Stop after two losses"
	updated.Period = GoalMonthly
	updated, err = goals.UpdateGoal(ctx, updated)
	assertNoError(t, err, "update goal")
	monthly, err := goals.ListGoals(ctx, GoalMonthly)
	assertNoError(t, err, "list monthly")
	if len(monthly) != 1 || monthly[0].Text != "Stop after two losses" {
		t.Fatalf("expected moved goal in monthly list, got %+v", monthly)
	}
	dailyList, err := goals.ListGoals(ctx, GoalDaily)
	assertNoError(t, err, "list daily")
	if len(dailyList) != 0 {
		t.Fatalf("expected period index updated, got %+v", dailyList)
	}

	all, err := goals.ListGoals(ctx, "")
	assertNoError(t, err, "list all")
	if len(all) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(all))
	}

	assertNoError(t, goals.DeleteGoal(ctx, updated.ID), "delete goal")
	assertNoError(t, goals.DeleteGoal(ctx, updated.ID), "delete missing goal")
	if _, found, _ := goals.GetGoal(ctx, updated.ID); found {
		t.Fatalf("expected goal deleted")
	}
}

func TestGoals_Validation(t *testing.T) {
	goals := setupGoals(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   GoalInput
	}{
		{name: "missing text", in: GoalInput{Period: GoalDaily, Text: "   "}},
		{name: "unknown period", in: GoalInput{Period: "yearly", Text: "x"}},
		{name: "missing period", in: GoalInput{Text: "x"}},
		{name: "negative progress", in: GoalInput{Period: GoalDaily, Text: "x", Progress: -1}},
		{name: "progress over 100", in: GoalInput{Period: GoalDaily, Text: "x", Progress: 101}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := goals.CreateGoal(ctx, tc.in)
			assertErrorCode(t, err, ErrCodeValidation, "create goal")
		})
	}

	_, err := goals.ListGoals(ctx, "yearly")
	assertErrorCode(t, err, ErrCodeValidation, "list unknown period")
	_, err = goals.UpdateGoalProgress(ctx, "missing", 10)
	assertErrorCode(t, err, ErrCodeNotFound, "progress on missing goal")
	_, err = goals.UpdateGoal(ctx, Goal{ID: "missing", Period: GoalDaily, Text: "x"})
	assertErrorCode(t, err, ErrCodeNotFound, "update missing goal")
	_, err = goals.UpdateGoal(ctx, Goal{Period: GoalDaily, Text: "x"})
	assertErrorCode(t, err, ErrCodeInvalidInput, "update without id")

	created, err := goals.CreateGoal(ctx, GoalInput{Period: GoalDaily, Text: "x"})
	assertNoError(t, err, "create goal")
	_, err = goals.UpdateGoalProgress(ctx, created.ID, 150)
	assertErrorCode(t, err, ErrCodeValidation, "progress out of range")
}
