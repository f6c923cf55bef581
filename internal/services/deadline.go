package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"
	"gopkg.in/yaml.v3"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/repos"
	"github.com/onboardhub/onboardhub-backend/internal/types"
	"github.com/onboardhub/onboardhub-backend/internal/utils"
)

// DeadlineService turns step time estimates into an expected completion
// date, counting working days only. Saturday and Sunday are non-working
// unless a calendar row says otherwise, and calendar rows can also mark a
// weekday as non-working (public holidays).
type DeadlineService interface {
	IsWorkingDay(ctx context.Context, tx *gorm.DB, date time.Time) (bool, error)
	AddWorkingDays(ctx context.Context, tx *gorm.DB, start time.Time, days int) (time.Time, error)
	WorkingDaysForSteps(steps []*types.FlowStep) int
	ExpectedCompletionDate(ctx context.Context, tx *gorm.DB, start time.Time, steps []*types.FlowStep) (time.Time, error)
	SeedCalendarFromFile(ctx context.Context) error
}

type deadlineService struct {
	calendarRepo      repos.WorkingCalendarRepo
	log               *logger.Logger
	minutesPerWorkDay int
}

func NewDeadlineService(calendarRepo repos.WorkingCalendarRepo, baseLog *logger.Logger) DeadlineService {
	serviceLog := baseLog.With("service", "DeadlineService")
	return &deadlineService{
		calendarRepo:      calendarRepo,
		log:               serviceLog,
		minutesPerWorkDay: utils.GetEnvAsInt("WORK_DAY_MINUTES", 480, baseLog),
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *deadlineService) IsWorkingDay(ctx context.Context, tx *gorm.DB, date time.Time) (bool, error) {
	date = truncateToDate(date)
	override, err := s.calendarRepo.GetByDate(ctx, tx, date)
	if err == nil {
		return override.IsWorkingDay, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday, nil
}

// AddWorkingDays walks forward from start one calendar day at a time until
// the requested number of working days has passed. The start day itself is
// never counted.
func (s *deadlineService) AddWorkingDays(ctx context.Context, tx *gorm.DB, start time.Time, days int) (time.Time, error) {
	current := truncateToDate(start)
	remaining := days
	for remaining > 0 {
		current = current.AddDate(0, 0, 1)
		working, err := s.IsWorkingDay(ctx, tx, current)
		if err != nil {
			return time.Time{}, err
		}
		if working {
			remaining--
		}
	}
	return current, nil
}

// WorkingDaysForSteps converts the summed step estimates into whole working
// days, rounding up, with a floor of one day.
func (s *deadlineService) WorkingDaysForSteps(steps []*types.FlowStep) int {
	totalMinutes := 0
	for _, step := range steps {
		if step.EstimatedTimeMinutes != nil {
			totalMinutes += *step.EstimatedTimeMinutes
		}
	}
	days := (totalMinutes + s.minutesPerWorkDay - 1) / s.minutesPerWorkDay
	if days < 1 {
		days = 1
	}
	return days
}

func (s *deadlineService) ExpectedCompletionDate(ctx context.Context, tx *gorm.DB, start time.Time, steps []*types.FlowStep) (time.Time, error) {
	return s.AddWorkingDays(ctx, tx, start, s.WorkingDaysForSteps(steps))
}

type calendarFileEntry struct {
	Date         string `yaml:"date"`
	IsWorkingDay bool   `yaml:"is_working_day"`
	Description  string `yaml:"description"`
}

// SeedCalendarFromFile loads calendar overrides from the YAML file named by
// WORKING_CALENDAR_FILE. Missing configuration is not an error; the
// weekday default applies.
func (s *deadlineService) SeedCalendarFromFile(ctx context.Context) error {
	path := utils.GetEnv("WORKING_CALENDAR_FILE", "", s.log)
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read calendar file: %w", err)
	}
	var entries []calendarFileEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parse calendar file: %w", err)
	}
	rows := make([]*types.WorkingCalendar, 0, len(entries))
	for _, e := range entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			return fmt.Errorf("parse calendar date %q: %w", e.Date, err)
		}
		rows = append(rows, &types.WorkingCalendar{
			Date:         date,
			IsWorkingDay: e.IsWorkingDay,
			Description:  e.Description,
		})
	}
	if err := s.calendarRepo.Upsert(ctx, nil, rows); err != nil {
		return fmt.Errorf("upsert calendar rows: %w", err)
	}
	s.log.Info("Seeded working calendar", "entries", len(rows), "file", path)
	return nil
}
