package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/watchtowerhq/watchtower/internal/alert"
	"github.com/watchtowerhq/watchtower/internal/config"
	"github.com/watchtowerhq/watchtower/internal/models"
	"github.com/watchtowerhq/watchtower/internal/queue"
	"github.com/watchtowerhq/watchtower/internal/scheduler"
	"github.com/watchtowerhq/watchtower/internal/store"
)

// StartMonitoringRequest selects a website by name and an optional
// probe region.
type StartMonitoringRequest struct {
	WebsiteName string `json:"websiteName"`
	Region      string `json:"region,omitempty"`
}

// StopMonitoringRequest selects a website by name.
type StopMonitoringRequest struct {
	WebsiteName string `json:"websiteName"`
}

// UptimeResponse reports cumulative availability for one website.
type UptimeResponse struct {
	WebsiteID       string  `json:"websiteId"`
	TotalChecks     int64   `json:"totalChecks"`
	UptimePct       float64 `json:"uptimePct"`
	ErrorRatePct    float64 `json:"errorRatePct"`
	AvgResponseTime float64 `json:"avgResponseTime"`
}

// HandleStartMonitoring begins probing a website and queues a
// confirmation email.
func HandleStartMonitoring(websites store.WebsiteStore, sched *scheduler.Scheduler, emails queue.EmailQueue, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())

		var req StartMonitoringRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WebsiteName == "" {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		website, err := websites.FindByNameAndUser(r.Context(), req.WebsiteName, user.ID)
		if err != nil {
			http.Error(w, "Website not found", http.StatusNotFound)
			return
		}

		region := req.Region
		if region == "" {
			region = cfg.Monitor.DefaultRegion
		}

		sched.Start(website.ID, website.URL, region, cfg.Monitor.ProbeInterval, user.Email, website.Name)

		job := alert.RenderMonitoringStartedEmail(user.Email, website.Name, website.URL, region)
		if err := emails.Enqueue(r.Context(), job); err != nil {
			// Monitoring is already running; the missing email is not
			// worth failing the request over.
			log.Println("Error queueing monitoring email:", err.Error())
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message":   "Monitoring started",
			"websiteId": website.ID,
			"region":    region,
		})
	}
}

// HandleStopMonitoring cancels a website's monitoring job.
func HandleStopMonitoring(websites store.WebsiteStore, sched *scheduler.Scheduler, emails queue.EmailQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())

		var req StopMonitoringRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WebsiteName == "" {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		website, err := websites.FindByNameAndUser(r.Context(), req.WebsiteName, user.ID)
		if err != nil {
			http.Error(w, "Website not found", http.StatusNotFound)
			return
		}

		if !sched.Monitoring(website.ID) {
			http.Error(w, "Website is not being monitored", http.StatusConflict)
			return
		}

		sched.Stop(website.ID)

		job := alert.RenderMonitoringStoppedEmail(user.Email, website.Name)
		if err := emails.Enqueue(r.Context(), job); err != nil {
			log.Println("Error queueing monitoring email:", err.Error())
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message":   "Monitoring stopped",
			"websiteId": website.ID,
		})
	}
}

// HandleGetChecks lists persisted checks for a website, optionally
// windowed with ?since=RFC3339.
func HandleGetChecks(websites store.WebsiteStore, checks store.CheckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		website, ok := websiteByName(w, r, websites)
		if !ok {
			return
		}

		var since time.Time
		if raw := r.URL.Query().Get("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				http.Error(w, "since must be an RFC3339 timestamp", http.StatusBadRequest)
				return
			}
			since = parsed
		}

		list, err := checks.ListSince(r.Context(), website.ID, since)
		if err != nil {
			http.Error(w, "Failed to list checks", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []models.Check{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

// HandleGetLatestCheck returns the most recent check for a website.
func HandleGetLatestCheck(websites store.WebsiteStore, checks store.CheckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		website, ok := websiteByName(w, r, websites)
		if !ok {
			return
		}

		latest, err := checks.Latest(r.Context(), website.ID)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "No checks recorded yet", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to load check", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(latest)
	}
}

// HandleGetUptime reports cumulative uptime and error-rate metrics for
// a website.
func HandleGetUptime(websites store.WebsiteStore, checks store.CheckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		website, ok := websiteByName(w, r, websites)
		if !ok {
			return
		}

		counts, err := checks.CountByWebsite(r.Context(), website.ID)
		if err != nil {
			http.Error(w, "Failed to compute uptime", http.StatusInternalServerError)
			return
		}

		resp := UptimeResponse{WebsiteID: website.ID, TotalChecks: counts.Total}
		if counts.Total > 0 {
			resp.UptimePct = float64(counts.Up) / float64(counts.Total) * 100
			resp.ErrorRatePct = float64(counts.Total-counts.Up) / float64(counts.Total) * 100

			avg, err := checks.AvgResponseTime(r.Context(), website.ID)
			if err != nil {
				http.Error(w, "Failed to compute uptime", http.StatusInternalServerError)
				return
			}
			resp.AvgResponseTime = avg
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// HandleGetUserMetrics aggregates check totals across all of the
// current user's websites.
func HandleGetUserMetrics(checks store.CheckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())

		summary, err := checks.UserSummary(r.Context(), user.ID)
		if err != nil {
			http.Error(w, "Failed to compute metrics", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// HandleDeleteChecks removes all persisted checks for a website.
func HandleDeleteChecks(websites store.WebsiteStore, checks store.CheckStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		website, ok := websiteByName(w, r, websites)
		if !ok {
			return
		}

		if err := checks.DeleteByWebsite(r.Context(), website.ID); err != nil {
			http.Error(w, "Failed to delete checks", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// websiteByName resolves the {websitename} route param against the
// current user's websites.
func websiteByName(w http.ResponseWriter, r *http.Request, websites store.WebsiteStore) (*models.Website, bool) {
	user := userFromContext(r.Context())
	name := chi.URLParam(r, "websitename")

	website, err := websites.FindByNameAndUser(r.Context(), name, user.ID)
	if err != nil {
		http.Error(w, "Website not found", http.StatusNotFound)
		return nil, false
	}
	return website, true
}
