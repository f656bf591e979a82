package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store. All year computations are made in
// the configured location so that an instant near midnight on New Year's
// Eve lands in the broadcast's local year, not UTC's.
type Database struct {
	store *bolthold.Store
	loc   *time.Location
}

// NewDatabase creates a new database connection
func NewDatabase(path string, loc *time.Location) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store, loc: loc}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Ingestion operations

// CreateEpisode inserts a new episode after checking its interval is
// well-formed and does not overlap an existing episode
func (db *Database) CreateEpisode(episode *Episode) error {
	if err := episode.Validate(); err != nil {
		return err
	}

	var overlapping []*Episode
	err := db.store.Find(&overlapping,
		bolthold.Where("Showtime").Lt(episode.End).
			And("End").Gt(episode.Showtime))
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("%w: %s", ErrOverlap,
			overlapping[0].Showtime.Format(time.RFC3339))
	}

	episode.CreatedAt = time.Now()
	episode.UpdatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), episode)
}

// DeleteEpisode deletes an episode by ID
func (db *Database) DeleteEpisode(id uint64) error {
	err := db.store.Delete(id, &Episode{})
	if errors.Is(err, bolthold.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// GetEpisodeByID retrieves an episode by ID
func (db *Database) GetEpisodeByID(id uint64) (*Episode, error) {
	var episode Episode
	err := db.store.Get(id, &episode)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &episode, nil
}

// CountEpisodes returns the total number of stored episodes
func (db *Database) CountEpisodes() (int, error) {
	count, err := db.store.Count(&Episode{}, nil)
	return count, err
}

// Resolution queries

// EpisodeAt retrieves the episode whose [Showtime, End) interval
// contains the given instant
func (db *Database) EpisodeAt(t time.Time) (*Episode, error) {
	var episodes []*Episode
	err := db.store.Find(&episodes,
		bolthold.Where("Showtime").Le(t).And("End").Gt(t))
	if err != nil {
		return nil, err
	}
	return pickLowestID(episodes)
}

// MostRecentCompleted retrieves the episode with the greatest End
// strictly before now
func (db *Database) MostRecentCompleted(now time.Time) (*Episode, error) {
	var episodes []*Episode
	err := db.store.Find(&episodes, bolthold.Where("End").Lt(now))
	if err != nil {
		return nil, err
	}

	var best *Episode
	for _, ep := range episodes {
		if best == nil || ep.End.After(best.End) ||
			(ep.End.Equal(best.End) && ep.ID < best.ID) {
			best = ep
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

// FirstEpisodeAfter retrieves the episode with the smallest Showtime
// strictly after the given instant
func (db *Database) FirstEpisodeAfter(t time.Time) (*Episode, error) {
	var episodes []*Episode
	err := db.store.Find(&episodes, bolthold.Where("Showtime").Gt(t))
	if err != nil {
		return nil, err
	}

	var best *Episode
	for _, ep := range episodes {
		if best == nil || ep.Showtime.Before(best.Showtime) ||
			(ep.Showtime.Equal(best.Showtime) && ep.ID < best.ID) {
			best = ep
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

// LatestEpisode retrieves the episode with the greatest Showtime,
// skipping excludeID when non-zero
func (db *Database) LatestEpisode(excludeID uint64) (*Episode, error) {
	var episodes []*Episode
	err := db.store.Find(&episodes, nil)
	if err != nil {
		return nil, err
	}

	var best *Episode
	for _, ep := range episodes {
		if excludeID != 0 && ep.ID == excludeID {
			continue
		}
		if best == nil || ep.Showtime.After(best.Showtime) ||
			(ep.Showtime.Equal(best.Showtime) && ep.ID < best.ID) {
			best = ep
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

// Archive queries

// Years returns the showtime year of every stored episode, ascending,
// duplicates included. Callers wanting a distinct set must deduplicate.
func (db *Database) Years(excludeID uint64) ([]int, error) {
	var episodes []*Episode
	err := db.store.Find(&episodes, nil)
	if err != nil {
		return nil, err
	}

	years := make([]int, 0, len(episodes))
	for _, ep := range episodes {
		if excludeID != 0 && ep.ID == excludeID {
			continue
		}
		years = append(years, ep.Showtime.In(db.loc).Year())
	}
	sort.Ints(years)
	return years, nil
}

// DistinctYears would return the distinct showtime years directly from
// the engine. bbolt has no distinct-by-derived-column query, so this
// engine reports ErrNotSupported; see SupportsDistinctYears.
func (db *Database) DistinctYears(excludeID uint64) ([]int, error) {
	return nil, ErrNotSupported
}

// SupportsDistinctYears reports whether the engine can compute
// DistinctYears natively
func (db *Database) SupportsDistinctYears() bool {
	return false
}

// EpisodesForYear retrieves every episode whose showtime falls in the
// given year, ordered by showtime descending, skipping excludeID
func (db *Database) EpisodesForYear(year int, excludeID uint64) ([]*Episode, error) {
	var episodes []*Episode
	err := db.store.Find(&episodes, nil)
	if err != nil {
		return nil, err
	}

	matched := make([]*Episode, 0, len(episodes))
	for _, ep := range episodes {
		if excludeID != 0 && ep.ID == excludeID {
			continue
		}
		if ep.Showtime.In(db.loc).Year() == year {
			matched = append(matched, ep)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Showtime.Equal(matched[j].Showtime) {
			return matched[i].Showtime.After(matched[j].Showtime)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

func pickLowestID(episodes []*Episode) (*Episode, error) {
	var best *Episode
	for _, ep := range episodes {
		if best == nil || ep.ID < best.ID {
			best = ep
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}
