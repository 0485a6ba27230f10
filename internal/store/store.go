package store

import (
	"context"
	"errors"
	"time"

	"github.com/watchtowerhq/watchtower/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// WebsiteStore persists monitored websites. The flush worker uses
// OwnerOf to resolve a check record's owning user.
type WebsiteStore interface {
	Create(ctx context.Context, website *models.Website) error
	FindByID(ctx context.Context, id string) (*models.Website, error)
	FindByNameAndUser(ctx context.Context, name, userID string) (*models.Website, error)
	ListByUser(ctx context.Context, userID string) ([]models.Website, error)
	Update(ctx context.Context, website *models.Website) error
	Delete(ctx context.Context, id string) error
	OwnerOf(ctx context.Context, websiteID string) (string, error)
}

// WebsiteCounts are the cumulative check counts the alert evaluator
// and the uptime endpoints are built on.
type WebsiteCounts struct {
	Total int64
	Up    int64
}

// UserSummary aggregates a user's checks across all of their websites.
type UserSummary struct {
	TotalChecks     int64   `json:"totalChecks"`
	Up              int64   `json:"up"`
	Down            int64   `json:"down"`
	AvgResponseTime float64 `json:"avgResponseTime"`
}

// CheckStore persists probe results.
type CheckStore interface {
	// InsertBatch writes a batch of checks, skipping rows that collide
	// with an existing (website_id, reigon, created_at) entry.
	InsertBatch(ctx context.Context, checks []models.Check) error

	CountByWebsite(ctx context.Context, websiteID string) (WebsiteCounts, error)
	AvgResponseTime(ctx context.Context, websiteID string) (float64, error)
	Latest(ctx context.Context, websiteID string) (*models.Check, error)
	ListSince(ctx context.Context, websiteID string, since time.Time) ([]models.Check, error)
	UserSummary(ctx context.Context, userID string) (*UserSummary, error)

	DeleteByWebsite(ctx context.Context, websiteID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
