package resolver

import (
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/goshowarr/internal/models"
)

// Policy selects which episode a dateless lookup defaults to. Callers
// pass a value; behavior never varies by handler subtype.
type Policy int

const (
	// MostRecentCompleted selects the episode with the greatest end
	// strictly before now
	MostRecentCompleted Policy = iota
	// InProgressOrMostRecentCompleted selects the episode currently
	// broadcasting, falling back to MostRecentCompleted when none is
	InProgressOrMostRecentCompleted
)

// EpisodeStore is the read surface the resolver needs from the episode
// store collaborator
type EpisodeStore interface {
	EpisodeAt(t time.Time) (*models.Episode, error)
	MostRecentCompleted(now time.Time) (*models.Episode, error)
	FirstEpisodeAfter(t time.Time) (*models.Episode, error)
	LatestEpisode(excludeID uint64) (*models.Episode, error)
	Years(excludeID uint64) ([]int, error)
	DistinctYears(excludeID uint64) ([]int, error)
	SupportsDistinctYears() bool
	EpisodesForYear(year int, excludeID uint64) ([]*models.Episode, error)
}

// Resolution resolves date references against the store for one
// request. It carries the request's sampled "now" and a cache that dies
// with it; construct one per incoming request.
type Resolution struct {
	store EpisodeStore
	loc   *time.Location
	now   time.Time
	cache *Cache
}

// NewResolution creates the resolution context for one request
func NewResolution(store EpisodeStore, loc *time.Location, now time.Time) *Resolution {
	return &Resolution{
		store: store,
		loc:   loc,
		now:   now,
		cache: NewCache(),
	}
}

// Locate finds the single episode a date reference points at. With no
// date, the policy picks the default episode. With a date, the episode
// with the smallest showtime strictly after midnight of that date in
// the configured location is selected, so a date between episodes
// resolves forward to the next one. Repeated calls with the same inputs
// return the cached episode without re-querying.
func (r *Resolution) Locate(date *Date, policy Policy) (*models.Episode, error) {
	v, err := r.cache.Memoize(locateKey(date, policy), func() (any, error) {
		return r.locate(date, policy)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Episode), nil
}

func (r *Resolution) locate(date *Date, policy Policy) (*models.Episode, error) {
	if date == nil {
		if policy == InProgressOrMostRecentCompleted {
			episode, err := r.store.EpisodeAt(r.now)
			if err == nil {
				return episode, nil
			}
			if !errors.Is(err, models.ErrNotFound) {
				return nil, err
			}
		}
		return r.store.MostRecentCompleted(r.now)
	}
	return r.store.FirstEpisodeAfter(date.Midnight(r.loc))
}

func locateKey(date *Date, policy Policy) string {
	if date == nil {
		return fmt.Sprintf("locate:none:%d", policy)
	}
	return fmt.Sprintf("locate:%s:%d", date, policy)
}
