package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Website is a monitored target. The core pipeline only reads it;
// create/update/delete happen through the API handlers.
type Website struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"user_id" gorm:"not null;index;uniqueIndex:idx_website_name_user"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_website_name_user"`
	URL       string    `json:"url" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships (optional, for eager loading)
	User   User    `json:"-" gorm:"foreignKey:UserID"`
	Checks []Check `json:"-" gorm:"foreignKey:WebsiteID"`
}

// BeforeCreate assigns a UUID when none is set
func (w *Website) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// TableName specifies the table name for Website
func (Website) TableName() string {
	return "websites"
}
