package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
	"github.com/onboardhub/onboardhub-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "onboardhub", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	return AutoMigrateAll(s.db)
}

// AutoMigrateAll migrates every table the application owns. Shared with the
// sqlite-backed test harness so both schemas stay in sync.
func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.User{},
		&types.Flow{},
		&types.FlowStep{},
		&types.Article{},
		&types.Task{},
		&types.Quiz{},
		&types.QuizQuestion{},
		&types.QuizAnswer{},
		&types.UserFlow{},
		&types.UserStepProgress{},
		&types.UserQuizAnswer{},
		&types.FlowBuddy{},
		&types.FlowAction{},
		&types.WorkingCalendar{},
		&types.TaskSnapshot{},
		&types.ArticleSnapshot{},
		&types.QuizSnapshot{},
		&types.QuizQuestionSnapshot{},
		&types.QuizAnswerSnapshot{},
		&types.UserQuizAnswerSnapshot{},
	)
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
