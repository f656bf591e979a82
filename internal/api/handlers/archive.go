package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/amaumene/goshowarr/internal/resolver"
	"github.com/sirupsen/logrus"
)

// ArchiveHandler serves the year index and per-year episode listings.
// The episode currently broadcasting is excluded from archive views.
type ArchiveHandler struct {
	store  resolver.EpisodeStore
	loc    *time.Location
	logger *logrus.Logger
	now    func() time.Time
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(store resolver.EpisodeStore, loc *time.Location, logger *logrus.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		store:  store,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// List handles GET /archive: the latest year with episodes
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	h.serve(w, nil)
}

// ByYear handles GET /archive/{year}
func (h *ArchiveHandler) ByYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		notFound(w, "not found")
		return
	}
	h.serve(w, &year)
}

func (h *ArchiveHandler) serve(w http.ResponseWriter, requested *int) {
	res := resolver.NewResolution(h.store, h.loc, h.now())

	year, err := res.ResolveYear(requested, true)
	if errors.Is(err, resolver.ErrNoYear) {
		notFound(w, "we don't have episodes for that year")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve archive year")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	years, err := res.ListYears(true)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list years")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	episodes, err := res.ListForYear(year, true)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list episodes for year")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"years":       years,
		"year":        year,
		"object_list": episodes,
	})
}
