package geo

import (
	"net/url"
	"strings"
)

const mapsDirBaseURL = "https://www.google.com/maps/dir/"

// BuildMapsLink formats an ordered route through the named locations as a
// Google Maps directions URL. Each path segment is the query-escaped token
// "<Location Name> <City>" (a space between the two, no comma). The link is
// consumed by end users and never re-parsed here.
func BuildMapsLink(city string, orderedNames []string) string {
	segments := make([]string, 0, len(orderedNames))
	for _, name := range orderedNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		token := name
		if city != "" {
			token = name + " " + city
		}
		segments = append(segments, url.QueryEscape(token))
	}
	if len(segments) == 0 {
		return ""
	}
	return mapsDirBaseURL + strings.Join(segments, "/") + "/"
}

// BuildRouteLink is BuildMapsLink with a fixed starting point. The start is
// escaped as-is because it usually already names the city ("Sarajevo city
// center", a hotel with its address).
func BuildRouteLink(city, start string, orderedNames []string) string {
	start = strings.TrimSpace(start)
	if start == "" {
		return BuildMapsLink(city, orderedNames)
	}
	rest := BuildMapsLink(city, orderedNames)
	if rest == "" {
		return mapsDirBaseURL + url.QueryEscape(start) + "/"
	}
	return mapsDirBaseURL + url.QueryEscape(start) + "/" + strings.TrimPrefix(rest, mapsDirBaseURL)
}
