package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns websites and receives alert emails
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"` // Never expose password hash in JSON
	CreatedAt time.Time `json:"created_at"`

	// Relationships (optional, for eager loading)
	Websites []Website `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate assigns a UUID when none is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
