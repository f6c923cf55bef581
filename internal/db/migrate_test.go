package db

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/onboardhub/onboardhub-backend/internal/types"
)

// The schema must migrate on sqlite, not just postgres: the service tests
// run against it. Column defaults in the model tags therefore have to be
// dialect-neutral.
func TestAutoMigrateAllOnSqlite(t *testing.T) {
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

	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// Timestamps come from gorm's create tracking, not a column default.
	user := &types.User{
		Email:     "migrate@example.com",
		Password:  "not-a-real-hash",
		FirstName: "First",
		LastName:  "Last",
		Roles:     types.RolesJSON(types.RoleUser),
		IsActive:  true,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	var reloaded types.User
	if err := gdb.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.CreatedAt.IsZero() || reloaded.UpdatedAt.IsZero() {
		t.Errorf("timestamps not populated: created_at=%v updated_at=%v", reloaded.CreatedAt, reloaded.UpdatedAt)
	}
}
