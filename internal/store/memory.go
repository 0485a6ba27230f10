package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower/internal/models"
)

// Memory is an in-process implementation of all three stores, used by
// tests and by components that only need the interfaces.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	websites map[string]*models.Website
	checks   []models.Check
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*models.User),
		websites: make(map[string]*models.Website),
	}
}

func (m *Memory) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	m.users[user.ID] = user
	return nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

// AddWebsite registers a website, assigning an ID when absent.
func (m *Memory) AddWebsite(ctx context.Context, website *models.Website) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if website.ID == "" {
		website.ID = uuid.NewString()
	}
	if website.CreatedAt.IsZero() {
		website.CreatedAt = time.Now().UTC()
	}
	m.websites[website.ID] = website
	return nil
}

// WebsiteStore is the websites view of the memory store.
type websiteView struct{ *Memory }

// Websites returns the WebsiteStore view.
func (m *Memory) Websites() WebsiteStore { return websiteView{m} }

func (v websiteView) Create(ctx context.Context, website *models.Website) error {
	return v.AddWebsite(ctx, website)
}

func (v websiteView) FindByID(ctx context.Context, id string) (*models.Website, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if w, ok := v.websites[id]; ok {
		return w, nil
	}
	return nil, ErrNotFound
}

func (v websiteView) FindByNameAndUser(ctx context.Context, name, userID string) (*models.Website, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, w := range v.websites {
		if w.Name == name && w.UserID == userID {
			return w, nil
		}
	}
	return nil, ErrNotFound
}

func (v websiteView) ListByUser(ctx context.Context, userID string) ([]models.Website, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Website, 0, len(v.websites))
	for _, w := range v.websites {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (v websiteView) Update(ctx context.Context, website *models.Website) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.websites[website.ID]; !ok {
		return ErrNotFound
	}
	v.websites[website.ID] = website
	return nil
}

func (v websiteView) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.websites, id)
	return nil
}

func (v websiteView) OwnerOf(ctx context.Context, websiteID string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if w, ok := v.websites[websiteID]; ok {
		return w.UserID, nil
	}
	return "", ErrNotFound
}

// checkView is the checks view of the memory store.
type checkView struct{ *Memory }

// Checks returns the CheckStore view.
func (m *Memory) Checks() CheckStore { return checkView{m} }

func (v checkView) InsertBatch(ctx context.Context, checks []models.Check) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	existing := make(map[string]bool, len(v.checks))
	for _, c := range v.checks {
		existing[dedupKey(c)] = true
	}

	for _, c := range checks {
		key := dedupKey(c)
		if existing[key] {
			continue
		}
		existing[key] = true
		c.ID = int64(len(v.checks) + 1)
		v.checks = append(v.checks, c)
	}
	return nil
}

func dedupKey(c models.Check) string {
	return c.WebsiteID + "|" + c.Reigon + "|" + c.CreatedAt.UTC().Format(time.RFC3339Nano)
}

func (v checkView) CountByWebsite(ctx context.Context, websiteID string) (WebsiteCounts, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var counts WebsiteCounts
	for _, c := range v.checks {
		if c.WebsiteID != websiteID {
			continue
		}
		counts.Total++
		if c.Status == models.StatusUp {
			counts.Up++
		}
	}
	return counts, nil
}

func (v checkView) AvgResponseTime(ctx context.Context, websiteID string) (float64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var sum, n int64
	for _, c := range v.checks {
		if c.WebsiteID == websiteID {
			sum += int64(c.ResponseTime)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (v checkView) Latest(ctx context.Context, websiteID string) (*models.Check, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var latest *models.Check
	for i := range v.checks {
		c := &v.checks[i]
		if c.WebsiteID != websiteID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (v checkView) ListSince(ctx context.Context, websiteID string, since time.Time) ([]models.Check, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []models.Check
	for _, c := range v.checks {
		if c.WebsiteID != websiteID {
			continue
		}
		if !since.IsZero() && c.CreatedAt.Before(since) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (v checkView) UserSummary(ctx context.Context, userID string) (*UserSummary, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	summary := &UserSummary{}
	var sum int64
	for _, c := range v.checks {
		if c.UserID != userID {
			continue
		}
		summary.TotalChecks++
		sum += int64(c.ResponseTime)
		if c.Status == models.StatusUp {
			summary.Up++
		} else {
			summary.Down++
		}
	}
	if summary.TotalChecks > 0 {
		summary.AvgResponseTime = float64(sum) / float64(summary.TotalChecks)
	}
	return summary, nil
}

func (v checkView) DeleteByWebsite(ctx context.Context, websiteID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.checks[:0]
	for _, c := range v.checks {
		if c.WebsiteID != websiteID {
			kept = append(kept, c)
		}
	}
	v.checks = kept
	return nil
}

func (v checkView) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var removed int64
	kept := v.checks[:0]
	for _, c := range v.checks {
		if c.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	v.checks = kept
	return removed, nil
}
