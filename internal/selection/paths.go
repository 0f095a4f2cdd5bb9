package selection

import (
	"net/url"
	"strings"

	"github.com/pmorell/localevents/internal/model"
)

// CanonicalPath builds the preferred URL for an event: the
// location-qualified form when city and state are known, the plain
// slug form otherwise, and the legacy query form when there is no slug
// at all.
func CanonicalPath(e model.Event) string {
	if e.Slug != "" {
		if e.City != "" && e.State != "" {
			return "/us/" + pathSegment(e.State) + "/" + pathSegment(e.City) +
				"/events/" + url.PathEscape(e.Slug)
		}
		return "/events/" + url.PathEscape(e.Slug)
	}
	return "/?event=" + url.QueryEscape(e.ID)
}

func pathSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return url.PathEscape(s)
}
