package models

import "time"

// Check status values
const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// Check is a persisted probe result with its resolved owner.
// Rows are immutable once written and pruned after the retention window.
// The (website_id, reigon, created_at) unique index is what lets the
// flush worker insert batches with duplicate-skip semantics.
type Check struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	WebsiteID    string    `json:"website_id" gorm:"column:website_id;not null;index:idx_check_website_time;uniqueIndex:idx_check_dedup"`
	UserID       string    `json:"userId" gorm:"column:userId;not null;index"`
	StatusCode   int       `json:"status_code" gorm:"column:status_code"` // 0 when the probe never got a response
	ResponseTime int       `json:"response_time" gorm:"column:response_time"`
	Status       string    `json:"status" gorm:"not null"`
	Reigon       string    `json:"reigon" gorm:"column:reigon;uniqueIndex:idx_check_dedup"` // sic
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;not null;index:idx_check_website_time,sort:desc;uniqueIndex:idx_check_dedup"`

	// Relationship (optional, for eager loading)
	Website Website `json:"-" gorm:"foreignKey:WebsiteID"`
}

// TableName specifies the table name for Check
func (Check) TableName() string {
	return "checks"
}
