package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/onboardhub/onboardhub-backend/internal/clients/redis"
	"github.com/onboardhub/onboardhub-backend/internal/db"
	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/repos"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

// testEnv wires the full service stack against an in-memory sqlite
// database, one database per test.
type testEnv struct {
	db          *gorm.DB
	userRepo    repos.UserRepo
	flowRepo    repos.FlowRepo
	stepRepo    repos.FlowStepRepo
	actionRepo  repos.FlowActionRepo
	snapshots   SnapshotService
	audit       AuditService
	deadline    DeadlineService
	flows       FlowService
	progression ProgressionService
	catalog     CatalogService
	auth        AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := repos.NewUserRepo(gdb, log)
	flowRepo := repos.NewFlowRepo(gdb, log)
	stepRepo := repos.NewFlowStepRepo(gdb, log)
	userFlowRepo := repos.NewUserFlowRepo(gdb, log)
	progressRepo := repos.NewUserStepProgressRepo(gdb, log)
	answerRepo := repos.NewUserQuizAnswerRepo(gdb, log)
	buddyRepo := repos.NewFlowBuddyRepo(gdb, log)
	actionRepo := repos.NewFlowActionRepo(gdb, log)
	calendarRepo := repos.NewWorkingCalendarRepo(gdb, log)
	snapshotRepo := repos.NewSnapshotRepo(gdb, log)

	deadline := NewDeadlineService(calendarRepo, log)
	audit := NewAuditService(actionRepo, redis.NoopFlowEventBus{}, log)
	snapshots := NewSnapshotService(snapshotRepo, log)
	flows := NewFlowService(gdb, userRepo, flowRepo, stepRepo, userFlowRepo, progressRepo, buddyRepo, deadline, audit, log)
	progression := NewProgressionService(gdb, userFlowRepo, stepRepo, progressRepo, answerRepo, snapshots, audit, log)
	catalog := NewCatalogService(gdb, flowRepo, stepRepo, calendarRepo, log)
	auth := NewAuthService(gdb, userRepo, "test-secret", time.Hour, log)

	return &testEnv{
		db:          gdb,
		userRepo:    userRepo,
		flowRepo:    flowRepo,
		stepRepo:    stepRepo,
		actionRepo:  actionRepo,
		snapshots:   snapshots,
		audit:       audit,
		deadline:    deadline,
		flows:       flows,
		progression: progression,
		catalog:     catalog,
		auth:        auth,
	}
}

func (env *testEnv) createUser(t *testing.T, email string, roleNames ...string) *types.User {
	t.Helper()
	if len(roleNames) == 0 {
		roleNames = []string{types.RoleUser}
	}
	user := &types.User{
		Email:     email,
		Password:  "not-a-real-hash",
		FirstName: "Test",
		LastName:  "User",
		Roles:     types.RolesJSON(roleNames...),
		IsActive:  true,
	}
	if _, err := env.userRepo.Create(context.Background(), nil, []*types.User{user}); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// seedOnboardingFlow builds a three step flow: an article, a task with
// code word "pineapple" and a two question quiz with a 70% threshold.
func (env *testEnv) seedOnboardingFlow(t *testing.T) *types.Flow {
	t.Helper()
	minutes := 60
	flow, err := env.catalog.CreateFlow(context.Background(), CreateFlowInput{
		Title:       "Engineering Onboarding",
		Description: "First week basics",
		IsMandatory: true,
		Steps: []StepInput{
			{
				Title:                "Welcome",
				EstimatedTimeMinutes: &minutes,
				Article: &ArticleInput{
					Title:   "Welcome to the team",
					Content: "Read this first.",
					Summary: "Intro",
				},
			},
			{
				Title:                "Find the code word",
				EstimatedTimeMinutes: &minutes,
				Task: &TaskInput{
					Title:       "Scavenger hunt",
					Instruction: "Ask your buddy for the code word.",
					CodeWord:    "pineapple",
				},
			},
			{
				Title:                "Knowledge check",
				EstimatedTimeMinutes: &minutes,
				Quiz: &QuizInput{
					Title:                  "Onboarding quiz",
					PassingScorePercentage: 70,
					Questions: []QuizQuestionInput{
						{
							Question: "Where is the wiki?",
							Answers: []QuizAnswerInput{
								{AnswerText: "intranet", IsCorrect: true},
								{AnswerText: "nowhere"},
							},
						},
						{
							Question: "Who approves leave?",
							Answers: []QuizAnswerInput{
								{AnswerText: "your manager", IsCorrect: true},
								{AnswerText: "nobody"},
							},
						},
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("seed flow: %v", err)
	}
	return flow
}

// startedFlow seeds the standard flow and starts it for a fresh learner.
func (env *testEnv) startedFlow(t *testing.T) (*types.UserFlow, *types.User, *types.User, *types.Flow) {
	t.Helper()
	learner := env.createUser(t, fmt.Sprintf("learner-%s@example.com", uuid.New().String()[:8]))
	buddy := env.createUser(t, fmt.Sprintf("buddy-%s@example.com", uuid.New().String()[:8]), types.RoleBuddy)
	flow := env.seedOnboardingFlow(t)
	userFlow, err := env.flows.Start(context.Background(), StartFlowInput{
		UserID:  learner.ID,
		FlowID:  flow.ID,
		ActorID: buddy.ID,
	})
	if err != nil {
		t.Fatalf("start flow: %v", err)
	}
	return userFlow, learner, buddy, flow
}

func (env *testEnv) stepsOf(t *testing.T, flowID uuid.UUID) []*types.FlowStep {
	t.Helper()
	steps, err := env.stepRepo.GetActiveByFlowID(context.Background(), nil, flowID)
	if err != nil {
		t.Fatalf("load steps: %v", err)
	}
	return steps
}

func (env *testEnv) progressFor(t *testing.T, userFlowID uuid.UUID) map[uuid.UUID]*types.UserStepProgress {
	t.Helper()
	var rows []*types.UserStepProgress
	if err := env.db.Where("user_flow_id = ?", userFlowID).Find(&rows).Error; err != nil {
		t.Fatalf("load progress: %v", err)
	}
	byStep := make(map[uuid.UUID]*types.UserStepProgress, len(rows))
	for _, row := range rows {
		byStep[row.FlowStepID] = row
	}
	return byStep
}
