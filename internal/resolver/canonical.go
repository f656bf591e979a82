package resolver

import "github.com/amaumene/goshowarr/internal/models"

// Decision says whether a request may render as-is or must redirect to
// the episode's canonical date URL
type Decision struct {
	Redirect  bool
	Canonical Date // valid only when Redirect is true
}

// CheckCanonical compares the requested date against the located
// episode's air date. A dateless request is always canonical. A dated
// request is canonical only when it used the ISO format and names the
// exact calendar date of the episode's showtime; every other spelling
// redirects to that date so each episode has exactly one URL.
func (r *Resolution) CheckCanonical(requested *Date, format Format, episode *models.Episode) Decision {
	if requested == nil {
		return Decision{}
	}

	actual := DateOf(episode.Showtime, r.loc)
	if format == FormatISO && actual == *requested {
		return Decision{}
	}
	return Decision{Redirect: true, Canonical: actual}
}
