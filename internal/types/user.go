package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleBuddy     = "buddy"
	RoleModerator = "moderator"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string         `gorm:"not null;column:password" json:"-"`
	FirstName string         `gorm:"not null;column:first_name" json:"first_name"`
	LastName  string         `gorm:"not null;column:last_name" json:"last_name"`
	Roles     datatypes.JSON `gorm:"column:roles" json:"roles"`
	IsActive  bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) RoleNames() []string {
	var names []string
	if len(u.Roles) == 0 {
		return names
	}
	_ = json.Unmarshal(u.Roles, &names)
	return names
}

func (u *User) HasRole(name string) bool {
	for _, r := range u.RoleNames() {
		if r == name {
			return true
		}
	}
	return false
}

func RolesJSON(names ...string) datatypes.JSON {
	raw, _ := json.Marshal(names)
	return datatypes.JSON(raw)
}
