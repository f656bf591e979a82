package resolver

import (
	"errors"
	"sort"

	"github.com/amaumene/goshowarr/internal/models"
)

// ErrNoYear is returned when a requested year has no episodes
var ErrNoYear = errors.New("no episodes for that year")

// ListYears computes the distinct years having at least one episode,
// ascending. When the store engine supports distinct-by-year natively
// that path is used; otherwise the duplicated year list is deduplicated
// through a set and sorted. Both paths produce identical results on
// identical data. With excludeCurrent, an in-progress episode does not
// count towards its year.
func (r *Resolution) ListYears(excludeCurrent bool) ([]int, error) {
	excludeID, err := r.currentID(excludeCurrent)
	if err != nil {
		return nil, err
	}

	if r.store.SupportsDistinctYears() {
		return r.store.DistinctYears(excludeID)
	}

	years, err := r.store.Years(excludeID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(years))
	distinct := make([]int, 0, len(years))
	for _, year := range years {
		if seen[year] {
			continue
		}
		seen[year] = true
		distinct = append(distinct, year)
	}
	sort.Ints(distinct)
	return distinct, nil
}

// ListForYear returns the episodes of a year, showtime descending
func (r *Resolution) ListForYear(year int, excludeCurrent bool) ([]*models.Episode, error) {
	excludeID, err := r.currentID(excludeCurrent)
	if err != nil {
		return nil, err
	}
	return r.store.EpisodesForYear(year, excludeID)
}

// ResolveYear picks the year an archive request refers to. With no
// requested year the greatest year present is used; an explicitly
// requested year must appear in ListYears or the call fails ErrNoYear.
func (r *Resolution) ResolveYear(requested *int, excludeCurrent bool) (int, error) {
	year := 0
	if requested != nil {
		year = *requested
	} else {
		excludeID, err := r.currentID(excludeCurrent)
		if err != nil {
			return 0, err
		}
		latest, err := r.store.LatestEpisode(excludeID)
		if errors.Is(err, models.ErrNotFound) {
			return 0, ErrNoYear
		}
		if err != nil {
			return 0, err
		}
		year = latest.Showtime.In(r.loc).Year()
	}

	years, err := r.ListYears(excludeCurrent)
	if err != nil {
		return 0, err
	}
	for _, y := range years {
		if y == year {
			return year, nil
		}
	}
	return 0, ErrNoYear
}

// currentID identifies the strictly in-progress episode to exclude from
// archive views, 0 when nothing is broadcasting. A completed episode is
// never excluded even though dateless lookups can fall back to it.
func (r *Resolution) currentID(excludeCurrent bool) (uint64, error) {
	if !excludeCurrent {
		return 0, nil
	}

	v, err := r.cache.Memoize("current-id", func() (any, error) {
		episode, err := r.store.EpisodeAt(r.now)
		if errors.Is(err, models.ErrNotFound) {
			return uint64(0), nil
		}
		if err != nil {
			return nil, err
		}
		return episode.ID, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}
