package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/amaumene/goshowarr/internal/models"
	"github.com/amaumene/goshowarr/internal/resolver"
	"github.com/sirupsen/logrus"
)

// ShowHandler resolves date references to episodes
type ShowHandler struct {
	store  resolver.EpisodeStore
	loc    *time.Location
	logger *logrus.Logger
	now    func() time.Time
}

// NewShowHandler creates a new show handler
func NewShowHandler(store resolver.EpisodeStore, loc *time.Location, logger *logrus.Logger) *ShowHandler {
	return &ShowHandler{
		store:  store,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// Current handles GET /shows/current: the episode in progress, or the
// most recently completed one when nothing is broadcasting
func (h *ShowHandler) Current(w http.ResponseWriter, r *http.Request) {
	res := resolver.NewResolution(h.store, h.loc, h.now())
	h.render(w, res, nil, resolver.InProgressOrMostRecentCompleted)
}

// Latest handles GET /shows/latest: the most recently completed episode
func (h *ShowHandler) Latest(w http.ResponseWriter, r *http.Request) {
	res := resolver.NewResolution(h.store, h.loc, h.now())
	h.render(w, res, nil, resolver.MostRecentCompleted)
}

// ByDate handles GET /shows/{date}. Non-canonical spellings (legacy
// format, or a date that resolved forward to a later episode) redirect
// permanently to the canonical ISO date URL, preserving the query.
func (h *ShowHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("date")

	date, format, err := resolver.ParseDate(raw)
	if err != nil {
		notFound(w, "not found")
		return
	}

	res := resolver.NewResolution(h.store, h.loc, h.now())

	episode, err := res.Locate(&date, resolver.MostRecentCompleted)
	if errors.Is(err, models.ErrNotFound) {
		notFound(w, "not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to locate episode")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	decision := res.CheckCanonical(&date, format, episode)
	if decision.Redirect {
		target := "/shows/" + decision.Canonical.String()
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		h.logger.WithFields(logrus.Fields{
			"requested": raw,
			"canonical": decision.Canonical.String(),
		}).Debug("Redirecting to canonical date")
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	h.render(w, res, &date, resolver.MostRecentCompleted)
}

// render builds the response context. It locates again rather than
// taking an episode so the second lookup exercises the request cache,
// the same way the page context and the body both ask for the show.
func (h *ShowHandler) render(w http.ResponseWriter, res *resolver.Resolution, date *resolver.Date, policy resolver.Policy) {
	episode, err := res.Locate(date, policy)
	if errors.Is(err, models.ErrNotFound) {
		notFound(w, "not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to locate episode")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"show": episode})
}
