package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/amaumene/goshowarr/internal/models"
	"github.com/sirupsen/logrus"
)

// EpisodesHandler is the ingestion surface. The external scheduling
// process creates and destroys episodes through it; the resolution
// pipeline only ever reads.
type EpisodesHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewEpisodesHandler creates a new episodes handler
func NewEpisodesHandler(db *models.Database, logger *logrus.Logger) *EpisodesHandler {
	return &EpisodesHandler{
		db:     db,
		logger: logger,
	}
}

type createEpisodeRequest struct {
	Showtime      time.Time `json:"showtime"`
	End           time.Time `json:"end"`
	Message       string    `json:"message"`
	VotingAllowed *bool     `json:"voting_allowed"`
}

// Create handles POST /api/episodes
func (h *EpisodesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.WithError(err).Error("Failed to decode episode payload")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if payload.Showtime.IsZero() || payload.End.IsZero() {
		http.Error(w, "showtime and end are required", http.StatusBadRequest)
		return
	}

	episode := &models.Episode{
		Showtime:      payload.Showtime,
		End:           payload.End,
		Message:       payload.Message,
		VotingAllowed: true,
	}
	if payload.VotingAllowed != nil {
		episode.VotingAllowed = *payload.VotingAllowed
	}

	if err := h.db.CreateEpisode(episode); err != nil {
		if errors.Is(err, models.ErrOverlap) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.WithError(err).Error("Failed to create episode")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"id":       episode.ID,
		"showtime": episode.Showtime.Format(time.RFC3339),
	}).Info("Episode created")

	writeJSON(w, http.StatusCreated, map[string]any{"episode": episode})
}

// Delete handles DELETE /api/episodes/{id}
func (h *EpisodesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		notFound(w, "not found")
		return
	}

	if err := h.db.DeleteEpisode(id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			notFound(w, "not found")
			return
		}
		h.logger.WithError(err).Error("Failed to delete episode")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.WithField("id", id).Info("Episode deleted")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
