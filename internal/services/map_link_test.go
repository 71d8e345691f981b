package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	m "travelplan/internal/models/itinerary_models"
)

func TestSynthesizeMapLink(t *testing.T) {
	tests := []struct {
		name     string
		activity m.Activity
		want     string
	}{
		{
			name: "place id wins over everything",
			activity: m.Activity{
				Title:    m.Ptr("Louvre Museum"),
				PlaceID:  m.Ptr("abc123"),
				Location: m.ActivityLocation{Name: m.Ptr("Louvre"), Lat: m.Ptr(48.86), Lng: m.Ptr(2.33)},
			},
			want: "https://www.google.com/maps/search/?api=1&query=Louvre&query_place_id=abc123",
		},
		{
			name: "coordinates before names",
			activity: m.Activity{
				Title:    m.Ptr("Louvre Museum"),
				Location: m.ActivityLocation{Lat: m.Ptr(48.86), Lng: m.Ptr(2.33)},
			},
			want: "https://www.google.com/maps/@?api=1&map_action=map&center=48.86,2.33&zoom=17",
		},
		{
			name: "half a coordinate pair is ignored",
			activity: m.Activity{
				Title:    m.Ptr("Louvre Museum"),
				Location: m.ActivityLocation{Lat: m.Ptr(48.86)},
			},
			want: "https://www.google.com/maps/search/?api=1&query=Louvre%20Museum",
		},
		{
			name: "location name preferred over title",
			activity: m.Activity{
				Title:    m.Ptr("Museum visit"),
				Location: m.ActivityLocation{Name: m.Ptr("Musée d'Orsay & café")},
			},
			want: "https://www.google.com/maps/search/?api=1&query=Mus%C3%A9e%20d%27Orsay%20%26%20caf%C3%A9",
		},
		{
			name:     "blank strings count as absent",
			activity: m.Activity{Title: m.Ptr("  "), PlaceID: m.Ptr(""), Location: m.ActivityLocation{Name: m.Ptr("")}},
			want:     "https://www.google.com/maps",
		},
		{
			name:     "empty activity",
			activity: m.Activity{},
			want:     "https://www.google.com/maps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SynthesizeMapLink(tt.activity)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, SynthesizeMapLink(tt.activity), "must be deterministic")
			assert.NotEmpty(t, got)
		})
	}
}

func TestIsUsableLink(t *testing.T) {
	assert.True(t, IsUsableLink(m.Ptr("https://maps.google.com/?cid=1")))
	assert.True(t, IsUsableLink(m.Ptr("http://example.com/place")))
	assert.False(t, IsUsableLink(nil))
	assert.False(t, IsUsableLink(m.Ptr("")))
	assert.False(t, IsUsableLink(m.Ptr("maps.google.com/x")))
	assert.False(t, IsUsableLink(m.Ptr("https://googleusercontent.com/maps.google.com/0")))
	assert.True(t, IsPlaceholderLink("https://lh3.googleusercontent.com/maps.google.com/7"))
}
