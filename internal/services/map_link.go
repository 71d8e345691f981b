package services

import (
	"net/url"
	"strconv"
	"strings"

	"travelplan/internal/models/itinerary_models"
)

const (
	mapsBaseURL = "https://www.google.com/maps"
	mapZoom     = 17
)

// Links the planner emits under these hosts never resolve to a real place.
var placeholderMarkers = []string{
	"googleusercontent.com",
}

func IsPlaceholderLink(link string) bool {
	for _, m := range placeholderMarkers {
		if strings.Contains(link, m) {
			return true
		}
	}
	return false
}

// IsUsableLink reports whether link is an http(s) URL that is not a placeholder.
func IsUsableLink(link *string) bool {
	if link == nil {
		return false
	}
	l := strings.TrimSpace(*link)
	if !strings.HasPrefix(l, "http://") && !strings.HasPrefix(l, "https://") {
		return false
	}
	return !IsPlaceholderLink(l)
}

// SynthesizeMapLink builds a map URL from whatever the activity carries:
// place id, then coordinates, then location name or title, then the bare map.
// It never returns an empty string.
func SynthesizeMapLink(a itinerary_models.Activity) string {
	label := activityLabel(a)

	if id := strings.TrimSpace(itinerary_models.Deref(a.PlaceID)); id != "" {
		query := label
		if query == "" {
			query = "place"
		}
		return mapsBaseURL + "/search/?api=1&query=" + encodeComponent(query) + "&query_place_id=" + encodeComponent(id)
	}

	if a.Location.HasCoordinates() {
		return mapsBaseURL + "/@?api=1&map_action=map&center=" +
			formatCoord(*a.Location.Lat) + "," + formatCoord(*a.Location.Lng) +
			"&zoom=" + strconv.Itoa(mapZoom)
	}

	if label != "" {
		return mapsBaseURL + "/search/?api=1&query=" + encodeComponent(label)
	}

	return mapsBaseURL
}

// activityLabel prefers the location name over the title.
func activityLabel(a itinerary_models.Activity) string {
	if name := strings.TrimSpace(itinerary_models.Deref(a.Location.Name)); name != "" {
		return name
	}
	return strings.TrimSpace(itinerary_models.Deref(a.Title))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// encodeComponent escapes s like a URI component, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
