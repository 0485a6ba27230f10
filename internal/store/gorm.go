package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/watchtowerhq/watchtower/internal/models"
)

// GormUserStore is the postgres-backed UserStore.
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore creates a GormUserStore.
func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GormWebsiteStore is the postgres-backed WebsiteStore.
type GormWebsiteStore struct {
	db *gorm.DB
}

// NewGormWebsiteStore creates a GormWebsiteStore.
func NewGormWebsiteStore(db *gorm.DB) *GormWebsiteStore {
	return &GormWebsiteStore{db: db}
}

func (s *GormWebsiteStore) Create(ctx context.Context, website *models.Website) error {
	return s.db.WithContext(ctx).Create(website).Error
}

func (s *GormWebsiteStore) FindByID(ctx context.Context, id string) (*models.Website, error) {
	var website models.Website
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&website).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &website, nil
}

func (s *GormWebsiteStore) FindByNameAndUser(ctx context.Context, name, userID string) (*models.Website, error) {
	var website models.Website
	err := s.db.WithContext(ctx).Where("name = ? AND user_id = ?", name, userID).First(&website).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &website, nil
}

func (s *GormWebsiteStore) ListByUser(ctx context.Context, userID string) ([]models.Website, error) {
	var websites []models.Website
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&websites).Error
	return websites, err
}

func (s *GormWebsiteStore) Update(ctx context.Context, website *models.Website) error {
	return s.db.WithContext(ctx).Save(website).Error
}

func (s *GormWebsiteStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Website{}).Error
}

func (s *GormWebsiteStore) OwnerOf(ctx context.Context, websiteID string) (string, error) {
	var userID string
	err := s.db.WithContext(ctx).
		Model(&models.Website{}).
		Select("user_id").
		Where("id = ?", websiteID).
		Take(&userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// GormCheckStore is the postgres-backed CheckStore.
type GormCheckStore struct {
	db *gorm.DB
}

// NewGormCheckStore creates a GormCheckStore.
func NewGormCheckStore(db *gorm.DB) *GormCheckStore {
	return &GormCheckStore{db: db}
}

func (s *GormCheckStore) InsertBatch(ctx context.Context, checks []models.Check) error {
	if len(checks) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&checks).Error
}

func (s *GormCheckStore) CountByWebsite(ctx context.Context, websiteID string) (WebsiteCounts, error) {
	var counts WebsiteCounts

	err := s.db.WithContext(ctx).
		Model(&models.Check{}).
		Where("website_id = ?", websiteID).
		Count(&counts.Total).Error
	if err != nil {
		return WebsiteCounts{}, err
	}

	err = s.db.WithContext(ctx).
		Model(&models.Check{}).
		Where("website_id = ? AND status = ?", websiteID, models.StatusUp).
		Count(&counts.Up).Error
	if err != nil {
		return WebsiteCounts{}, err
	}

	return counts, nil
}

func (s *GormCheckStore) AvgResponseTime(ctx context.Context, websiteID string) (float64, error) {
	var avg *float64
	err := s.db.WithContext(ctx).
		Model(&models.Check{}).
		Select("AVG(response_time)").
		Where("website_id = ?", websiteID).
		Take(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (s *GormCheckStore) Latest(ctx context.Context, websiteID string) (*models.Check, error) {
	var check models.Check
	err := s.db.WithContext(ctx).
		Where("website_id = ?", websiteID).
		Order("created_at DESC").
		First(&check).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

func (s *GormCheckStore) ListSince(ctx context.Context, websiteID string, since time.Time) ([]models.Check, error) {
	var checks []models.Check
	q := s.db.WithContext(ctx).Where("website_id = ?", websiteID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Order("created_at ASC").Find(&checks).Error
	return checks, err
}

func (s *GormCheckStore) UserSummary(ctx context.Context, userID string) (*UserSummary, error) {
	var row struct {
		TotalChecks     int64
		Up              int64
		Down            int64
		AvgResponseTime *float64
	}

	err := s.db.WithContext(ctx).
		Model(&models.Check{}).
		Select(`COUNT(*) AS total_checks,
			SUM(CASE WHEN status = 'UP' THEN 1 ELSE 0 END) AS up,
			SUM(CASE WHEN status = 'DOWN' THEN 1 ELSE 0 END) AS down,
			AVG(response_time) AS avg_response_time`).
		Where(`"userId" = ?`, userID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}

	summary := &UserSummary{
		TotalChecks: row.TotalChecks,
		Up:          row.Up,
		Down:        row.Down,
	}
	if row.AvgResponseTime != nil {
		summary.AvgResponseTime = *row.AvgResponseTime
	}
	return summary, nil
}

func (s *GormCheckStore) DeleteByWebsite(ctx context.Context, websiteID string) error {
	return s.db.WithContext(ctx).Where("website_id = ?", websiteID).Delete(&models.Check{}).Error
}

func (s *GormCheckStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Check{})
	return result.RowsAffected, result.Error
}
