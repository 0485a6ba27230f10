package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/watchtowerhq/watchtower/internal/models"
	"github.com/watchtowerhq/watchtower/internal/scheduler"
	"github.com/watchtowerhq/watchtower/internal/store"
)

// WebsiteRequest represents a website create/update payload
type WebsiteRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (req *WebsiteRequest) validate() error {
	if req.Name == "" {
		return errors.New("name is required")
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return errors.New("url must be a valid http(s) URL")
	}
	return nil
}

// HandleCreateWebsite registers a new website for the current user
func HandleCreateWebsite(websites store.WebsiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())

		var req WebsiteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if err := req.validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if _, err := websites.FindByNameAndUser(r.Context(), req.Name, user.ID); err == nil {
			http.Error(w, "A website with that name already exists", http.StatusConflict)
			return
		}

		website := models.Website{
			UserID:    user.ID,
			Name:      req.Name,
			URL:       req.URL,
			CreatedAt: time.Now(),
		}
		if err := websites.Create(r.Context(), &website); err != nil {
			log.Println("Error creating website:", err.Error())
			http.Error(w, "Failed to create website", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(website)
	}
}

// HandleGetWebsites lists the current user's websites
func HandleGetWebsites(websites store.WebsiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())

		list, err := websites.ListByUser(r.Context(), user.ID)
		if err != nil {
			http.Error(w, "Failed to list websites", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

// HandleGetWebsite returns one website owned by the current user
func HandleGetWebsite(websites store.WebsiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		website, ok := ownedWebsite(w, r, websites)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(website)
	}
}

// HandleUpdateWebsite updates a website's name or URL
func HandleUpdateWebsite(websites store.WebsiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		website, ok := ownedWebsite(w, r, websites)
		if !ok {
			return
		}

		var req WebsiteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if err := req.validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		website.Name = req.Name
		website.URL = req.URL
		website.UpdatedAt = time.Now()

		if err := websites.Update(r.Context(), website); err != nil {
			http.Error(w, "Failed to update website", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(website)
	}
}

// HandleDeleteWebsite removes a website, its checks, and its
// monitoring job.
func HandleDeleteWebsite(websites store.WebsiteStore, checks store.CheckStore, sched *scheduler.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		website, ok := ownedWebsite(w, r, websites)
		if !ok {
			return
		}

		sched.Stop(website.ID)

		if err := checks.DeleteByWebsite(r.Context(), website.ID); err != nil {
			log.Println("Error deleting checks:", err.Error())
			http.Error(w, "Failed to delete website", http.StatusInternalServerError)
			return
		}
		if err := websites.Delete(r.Context(), website.ID); err != nil {
			http.Error(w, "Failed to delete website", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ownedWebsite loads the {id} route param and enforces ownership.
// Foreign websites return 404 rather than 403 so IDs are not probeable.
func ownedWebsite(w http.ResponseWriter, r *http.Request, websites store.WebsiteStore) (*models.Website, bool) {
	user := userFromContext(r.Context())
	id := chi.URLParam(r, "id")

	website, err := websites.FindByID(r.Context(), id)
	if err != nil || website.UserID != user.ID {
		http.Error(w, "Website not found", http.StatusNotFound)
		return nil, false
	}
	return website, true
}
