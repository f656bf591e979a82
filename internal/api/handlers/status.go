package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/amaumene/goshowarr/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	loc    *time.Location
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, loc *time.Location, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		loc:    loc,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalEpisodes  int     `json:"total_episodes"`
	Years          int     `json:"years"`
	LatestShowtime *string `json:"latest_showtime,omitempty"`
	Broadcasting   bool    `json:"broadcasting"`
	CurrentShow    *string `json:"current_show,omitempty"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	total, err := h.db.CountEpisodes()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count episodes")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{TotalEpisodes: total}

	years, err := h.db.Years(0)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list years")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	seen := make(map[int]bool)
	for _, year := range years {
		seen[year] = true
	}
	response.Years = len(seen)

	if latest, err := h.db.LatestEpisode(0); err == nil {
		s := latest.Showtime.In(h.loc).Format(time.RFC3339)
		response.LatestShowtime = &s
	} else if !errors.Is(err, models.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to get latest episode")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if current, err := h.db.EpisodeAt(time.Now()); err == nil {
		response.Broadcasting = true
		s := current.Showtime.In(h.loc).Format("2006-01-02")
		response.CurrentShow = &s
	} else if !errors.Is(err, models.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to get current episode")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
