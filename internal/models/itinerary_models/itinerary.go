package itinerary_models

import "math"

// Itinerary is the day-by-day plan produced by the planning service.
// Optional fields are pointers; nil means the upstream omitted the value.
type Itinerary struct {
	TripName           *string     `json:"trip_name"`
	StartDate          *string     `json:"start_date"`
	EndDate            *string     `json:"end_date"`
	DurationDays       *int        `json:"duration_days"`
	DestinationCountry *string     `json:"destination_country"`
	DestinationCities  []string    `json:"destination_cities"`
	DailyPlan          []DayPlan   `json:"daily_plan"`
	MapSummary         *MapSummary `json:"map_summary"`
	GeneralNotes       []string    `json:"general_notes"`
}

type DayPlan struct {
	Day           *int           `json:"day"`
	Date          *string        `json:"date"`
	City          *string        `json:"city"`
	Summary       *string        `json:"summary"`
	Accommodation *Accommodation `json:"accommodation"`
	Activities    []Activity     `json:"activities"`
	Notes         *string        `json:"notes"`
}

// DayNumber returns the upstream day index, or pos+1 when it was omitted.
func (d DayPlan) DayNumber(pos int) int {
	if d.Day != nil {
		return *d.Day
	}
	return pos + 1
}

type Accommodation struct {
	HotelName *string `json:"hotel_name"`
	CheckIn   *string `json:"check_in"`
	Address   *string `json:"address"`
}

type Activity struct {
	Time           *string          `json:"time"`
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Type           *string          `json:"type"`
	MapLink        *string          `json:"map_link"`
	Location       ActivityLocation `json:"location"`
	PlaceID        *string          `json:"place_id,omitempty"`
	PhotoReference *string          `json:"photo_reference,omitempty"`

	// Set by enrichment.
	PhotoURL         *string `json:"photo_url,omitempty"`
	FallbackPhotoURL *string `json:"fallback_photo_url,omitempty"`
	Category         string  `json:"category,omitempty"`
}

type ActivityLocation struct {
	Name *string  `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

// HasCoordinates reports whether both lat and lng are present.
func (l ActivityLocation) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

type MapSummary struct {
	Locations []MapLocation `json:"locations"`
}

type MapLocation struct {
	Name *string  `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Day  *int     `json:"day,omitempty"`
	Type *string  `json:"type,omitempty"`
}

// ValidMapLocations returns the map summary entries that carry a coordinate pair.
func (it Itinerary) ValidMapLocations() []MapLocation {
	out := make([]MapLocation, 0)
	if it.MapSummary == nil {
		return out
	}
	for _, loc := range it.MapSummary.Locations {
		if loc.Lat == nil || loc.Lng == nil {
			continue
		}
		if math.IsNaN(*loc.Lat) || math.IsNaN(*loc.Lng) {
			continue
		}
		out = append(out, loc)
	}
	return out
}

// CountActivities returns the total number of activities across all days.
func (it Itinerary) CountActivities() int {
	n := 0
	for _, d := range it.DailyPlan {
		n += len(d.Activities)
	}
	return n
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
