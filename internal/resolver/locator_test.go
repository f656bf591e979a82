package resolver

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/amaumene/goshowarr/internal/models"
)

// fakeStore is an in-memory EpisodeStore. The distinct flag switches it
// between an engine with native distinct-year support and one without,
// and calls counts queries so memoization can be asserted.
type fakeStore struct {
	episodes []*models.Episode
	loc      *time.Location
	distinct bool
	calls    map[string]int
}

func newFakeStore(loc *time.Location, episodes ...*models.Episode) *fakeStore {
	return &fakeStore{
		episodes: episodes,
		loc:      loc,
		calls:    make(map[string]int),
	}
}

func (f *fakeStore) count(op string) {
	f.calls[op]++
}

func (f *fakeStore) EpisodeAt(t time.Time) (*models.Episode, error) {
	f.count("EpisodeAt")
	var best *models.Episode
	for _, ep := range f.episodes {
		if !ep.InProgressAt(t) {
			continue
		}
		if best == nil || ep.ID < best.ID {
			best = ep
		}
	}
	if best == nil {
		return nil, models.ErrNotFound
	}
	return best, nil
}

func (f *fakeStore) MostRecentCompleted(now time.Time) (*models.Episode, error) {
	f.count("MostRecentCompleted")
	var best *models.Episode
	for _, ep := range f.episodes {
		if !ep.End.Before(now) {
			continue
		}
		if best == nil || ep.End.After(best.End) ||
			(ep.End.Equal(best.End) && ep.ID < best.ID) {
			best = ep
		}
	}
	if best == nil {
		return nil, models.ErrNotFound
	}
	return best, nil
}

func (f *fakeStore) FirstEpisodeAfter(t time.Time) (*models.Episode, error) {
	f.count("FirstEpisodeAfter")
	var best *models.Episode
	for _, ep := range f.episodes {
		if !ep.Showtime.After(t) {
			continue
		}
		if best == nil || ep.Showtime.Before(best.Showtime) ||
			(ep.Showtime.Equal(best.Showtime) && ep.ID < best.ID) {
			best = ep
		}
	}
	if best == nil {
		return nil, models.ErrNotFound
	}
	return best, nil
}

func (f *fakeStore) LatestEpisode(excludeID uint64) (*models.Episode, error) {
	f.count("LatestEpisode")
	var best *models.Episode
	for _, ep := range f.episodes {
		if excludeID != 0 && ep.ID == excludeID {
			continue
		}
		if best == nil || ep.Showtime.After(best.Showtime) ||
			(ep.Showtime.Equal(best.Showtime) && ep.ID < best.ID) {
			best = ep
		}
	}
	if best == nil {
		return nil, models.ErrNotFound
	}
	return best, nil
}

func (f *fakeStore) Years(excludeID uint64) ([]int, error) {
	f.count("Years")
	var years []int
	for _, ep := range f.episodes {
		if excludeID != 0 && ep.ID == excludeID {
			continue
		}
		years = append(years, ep.Showtime.In(f.loc).Year())
	}
	sort.Ints(years)
	return years, nil
}

func (f *fakeStore) DistinctYears(excludeID uint64) ([]int, error) {
	f.count("DistinctYears")
	if !f.distinct {
		return nil, models.ErrNotSupported
	}
	seen := make(map[int]bool)
	years := make([]int, 0, len(f.episodes))
	for _, ep := range f.episodes {
		if excludeID != 0 && ep.ID == excludeID {
			continue
		}
		year := ep.Showtime.In(f.loc).Year()
		if !seen[year] {
			seen[year] = true
			years = append(years, year)
		}
	}
	sort.Ints(years)
	return years, nil
}

func (f *fakeStore) SupportsDistinctYears() bool {
	return f.distinct
}

func (f *fakeStore) EpisodesForYear(year int, excludeID uint64) ([]*models.Episode, error) {
	f.count("EpisodesForYear")
	var matched []*models.Episode
	for _, ep := range f.episodes {
		if excludeID != 0 && ep.ID == excludeID {
			continue
		}
		if ep.Showtime.In(f.loc).Year() == year {
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

func episode(id uint64, showtime time.Time, length time.Duration) *models.Episode {
	return &models.Episode{ID: id, Showtime: showtime, End: showtime.Add(length)}
}

func mustDate(t *testing.T, raw string) Date {
	t.Helper()
	date, _, err := ParseDate(raw)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", raw, err)
	}
	return date
}

func TestLocateByDate(t *testing.T) {
	loc := time.UTC
	jan := episode(1, time.Date(2023, 1, 5, 21, 0, 0, 0, loc), 2*time.Hour)
	feb := episode(2, time.Date(2023, 2, 10, 21, 0, 0, 0, loc), 2*time.Hour)
	store := newFakeStore(loc, jan, feb)

	now := time.Date(2023, 6, 1, 12, 0, 0, 0, loc)

	tests := []struct {
		name string
		date string
		want uint64
	}{
		{"exact air date", "2023-01-05", 1},
		{"date between episodes resolves forward", "2023-01-20", 2},
		{"day before first episode", "2023-01-04", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResolution(store, loc, now)
			date := mustDate(t, tt.date)
			got, err := res.Locate(&date, MostRecentCompleted)
			if err != nil {
				t.Fatalf("Locate failed: %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("Locate(%s) = episode %d, want %d", tt.date, got.ID, tt.want)
			}
		})
	}
}

func TestLocateAfterNewestEpisode(t *testing.T) {
	loc := time.UTC
	store := newFakeStore(loc,
		episode(1, time.Date(2023, 1, 5, 21, 0, 0, 0, loc), 2*time.Hour))

	res := NewResolution(store, loc, time.Date(2023, 6, 1, 0, 0, 0, 0, loc))
	date := mustDate(t, "2023-03-01")

	_, err := res.Locate(&date, MostRecentCompleted)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for date past the newest episode, got %v", err)
	}
}

func TestLocateDefaultPolicies(t *testing.T) {
	loc := time.UTC
	done := episode(1, time.Date(2023, 1, 5, 21, 0, 0, 0, loc), 2*time.Hour)
	live := episode(2, time.Date(2023, 1, 12, 21, 0, 0, 0, loc), 2*time.Hour)
	store := newFakeStore(loc, done, live)

	during := time.Date(2023, 1, 12, 22, 0, 0, 0, loc)

	res := NewResolution(store, loc, during)
	got, err := res.Locate(nil, InProgressOrMostRecentCompleted)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.ID != live.ID {
		t.Errorf("current policy during broadcast = episode %d, want %d", got.ID, live.ID)
	}

	res = NewResolution(store, loc, during)
	got, err = res.Locate(nil, MostRecentCompleted)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.ID != done.ID {
		t.Errorf("completed policy during broadcast = episode %d, want %d", got.ID, done.ID)
	}

	// Nothing in progress: the current policy falls back
	after := time.Date(2023, 1, 13, 12, 0, 0, 0, loc)
	res = NewResolution(store, loc, after)
	got, err = res.Locate(nil, InProgressOrMostRecentCompleted)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.ID != live.ID {
		t.Errorf("current policy after broadcast = episode %d, want %d", got.ID, live.ID)
	}
}

func TestLocateNoEpisodes(t *testing.T) {
	loc := time.UTC
	store := newFakeStore(loc)
	res := NewResolution(store, loc, time.Date(2023, 1, 1, 0, 0, 0, 0, loc))

	for _, policy := range []Policy{MostRecentCompleted, InProgressOrMostRecentCompleted} {
		if _, err := res.Locate(nil, policy); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("policy %d on empty store: got %v, want ErrNotFound", policy, err)
		}
	}
}

func TestLocateMemoized(t *testing.T) {
	loc := time.UTC
	store := newFakeStore(loc,
		episode(1, time.Date(2023, 1, 5, 21, 0, 0, 0, loc), 2*time.Hour))

	res := NewResolution(store, loc, time.Date(2023, 6, 1, 0, 0, 0, 0, loc))
	date := mustDate(t, "2023-01-01")

	first, err := res.Locate(&date, MostRecentCompleted)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	second, err := res.Locate(&date, MostRecentCompleted)
	if err != nil {
		t.Fatalf("second Locate failed: %v", err)
	}

	if first != second {
		t.Error("repeated Locate did not return the cached episode reference")
	}
	if store.calls["FirstEpisodeAfter"] != 1 {
		t.Errorf("store queried %d times, want 1", store.calls["FirstEpisodeAfter"])
	}

	// A fresh resolution must not see the old cache
	res2 := NewResolution(store, loc, time.Date(2023, 6, 1, 0, 0, 0, 0, loc))
	if _, err := res2.Locate(&date, MostRecentCompleted); err != nil {
		t.Fatalf("Locate on fresh resolution failed: %v", err)
	}
	if store.calls["FirstEpisodeAfter"] != 2 {
		t.Errorf("fresh resolution did not re-query; %d calls, want 2", store.calls["FirstEpisodeAfter"])
	}
}

func TestLocateErrorsNotMemoized(t *testing.T) {
	loc := time.UTC
	store := newFakeStore(loc)
	res := NewResolution(store, loc, time.Date(2023, 1, 1, 0, 0, 0, 0, loc))
	date := mustDate(t, "2023-01-01")

	for i := 0; i < 2; i++ {
		if _, err := res.Locate(&date, MostRecentCompleted); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if store.calls["FirstEpisodeAfter"] != 2 {
		t.Errorf("failed lookups should not be cached; %d calls, want 2", store.calls["FirstEpisodeAfter"])
	}
}

func TestLocateTieBreaksByLowestID(t *testing.T) {
	loc := time.UTC
	showtime := time.Date(2023, 1, 5, 21, 0, 0, 0, loc)
	// Overlapping episodes should not exist, but the locator must stay
	// deterministic if they do.
	store := newFakeStore(loc,
		episode(7, showtime, 2*time.Hour),
		episode(3, showtime, 2*time.Hour))

	res := NewResolution(store, loc, time.Date(2023, 6, 1, 0, 0, 0, 0, loc))
	date := mustDate(t, "2023-01-01")

	got, err := res.Locate(&date, MostRecentCompleted)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.ID != 3 {
		t.Errorf("tie broken to episode %d, want 3", got.ID)
	}
}

func TestLocateMidnightIsExclusive(t *testing.T) {
	loc := time.UTC
	// Airing exactly at midnight: showtime must be strictly greater
	// than the requested day's midnight, so this resolves forward.
	atMidnight := episode(1, time.Date(2023, 1, 5, 0, 0, 0, 0, loc), 2*time.Hour)
	next := episode(2, time.Date(2023, 1, 12, 21, 0, 0, 0, loc), 2*time.Hour)
	store := newFakeStore(loc, atMidnight, next)

	res := NewResolution(store, loc, time.Date(2023, 6, 1, 0, 0, 0, 0, loc))
	date := mustDate(t, "2023-01-05")

	got, err := res.Locate(&date, MostRecentCompleted)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.ID != next.ID {
		t.Errorf("midnight showtime treated as after midnight; got episode %d, want %d", got.ID, next.ID)
	}
}
