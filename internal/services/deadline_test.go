package services

import (
	"context"
	"testing"
	"time"

	"github.com/onboardhub/onboardhub-backend/internal/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddWorkingDaysSkipsWeekends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 2026-09-04 is a Friday.
	friday := date(2026, time.September, 4)
	got, err := env.deadline.AddWorkingDays(ctx, nil, friday, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if want := date(2026, time.September, 7); !got.Equal(want) {
		t.Fatalf("one working day after Friday = %v, want Monday %v", got, want)
	}

	got, err = env.deadline.AddWorkingDays(ctx, nil, friday, 5)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if want := date(2026, time.September, 11); !got.Equal(want) {
		t.Fatalf("five working days after Friday = %v, want next Friday %v", got, want)
	}
}

func TestCalendarOverrides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Monday 2026-09-07 becomes a holiday, Saturday 2026-09-05 a working day.
	err := env.catalog.UpsertCalendar(ctx, []*types.WorkingCalendar{
		{Date: date(2026, time.September, 7), IsWorkingDay: false, Description: "Holiday"},
		{Date: date(2026, time.September, 5), IsWorkingDay: true, Description: "Moved working day"},
	})
	if err != nil {
		t.Fatalf("upsert calendar: %v", err)
	}

	friday := date(2026, time.September, 4)
	got, err := env.deadline.AddWorkingDays(ctx, nil, friday, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if want := date(2026, time.September, 5); !got.Equal(want) {
		t.Fatalf("next working day = %v, want the moved Saturday %v", got, want)
	}

	got, err = env.deadline.AddWorkingDays(ctx, nil, friday, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if want := date(2026, time.September, 8); !got.Equal(want) {
		t.Fatalf("second working day = %v, want Tuesday %v after the holiday", got, want)
	}

	working, err := env.deadline.IsWorkingDay(ctx, nil, date(2026, time.September, 7))
	if err != nil {
		t.Fatalf("is working day: %v", err)
	}
	if working {
		t.Fatal("overridden Monday should not be a working day")
	}
}

func TestWorkingDaysForSteps(t *testing.T) {
	env := newTestEnv(t)

	intp := func(v int) *int { return &v }
	cases := []struct {
		name  string
		steps []*types.FlowStep
		want  int
	}{
		{"no estimates still takes a day", []*types.FlowStep{{}, {}}, 1},
		{"under one day rounds up", []*types.FlowStep{{EstimatedTimeMinutes: intp(100)}}, 1},
		{"exactly one day", []*types.FlowStep{{EstimatedTimeMinutes: intp(480)}}, 1},
		{"rounds up across days", []*types.FlowStep{{EstimatedTimeMinutes: intp(480)}, {EstimatedTimeMinutes: intp(20)}}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := env.deadline.WorkingDaysForSteps(tc.steps); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestExpectedCompletionDateUsesEstimates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	intp := func(v int) *int { return &v }
	// 960 minutes = 2 working days from Monday 2026-09-07.
	steps := []*types.FlowStep{
		{EstimatedTimeMinutes: intp(480)},
		{EstimatedTimeMinutes: intp(480)},
	}
	got, err := env.deadline.ExpectedCompletionDate(ctx, nil, date(2026, time.September, 7), steps)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if want := date(2026, time.September, 9); !got.Equal(want) {
		t.Fatalf("deadline = %v, want %v", got, want)
	}
}
