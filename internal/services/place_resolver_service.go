package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"travelplan/internal/models/itinerary_models"
	"travelplan/pkg/metrics"
)

const stockPhotoBaseURL = "https://source.unsplash.com/400x300/"

type ResolveRequest struct {
	Activity         itinerary_models.Activity
	City             *string
	DayNumber        int
	ActivityPosition int
}

// ResolvedPlace always carries a non-empty MapLink and PhotoURL.
type ResolvedPlace struct {
	MapLink          string
	PlaceID          *string
	PhotoURL         string
	FallbackPhotoURL string
}

type PlaceResolverInterface interface {
	Resolve(ctx context.Context, req ResolveRequest) ResolvedPlace
}

type PlaceResolver struct {
	directory PlacesDirectory
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewPlaceResolver(directory PlacesDirectory, logger *zap.Logger) PlaceResolverInterface {
	return &PlaceResolver{
		directory: directory,
		logger:    logger,
		metrics:   metrics.Get(),
	}
}

// Resolve finds a map link and photo for one activity. Directory failures are
// logged and treated as "no data"; the synthesized fallbacks always apply.
func (r *PlaceResolver) Resolve(ctx context.Context, req ResolveRequest) ResolvedPlace {
	a := req.Activity
	log := r.logger.With(
		zap.String("activity", itinerary_models.Deref(a.Title)),
		zap.Int("day", req.DayNumber),
		zap.Int("position", req.ActivityPosition),
	)

	placeID := strings.TrimSpace(itinerary_models.Deref(a.PlaceID))
	var mapLink, linkSource, photoURL, photoSource string

	if IsUsableLink(a.MapLink) {
		mapLink, linkSource = strings.TrimSpace(*a.MapLink), "existing"
	}

	if r.directory.Available() {
		if ref := strings.TrimSpace(itinerary_models.Deref(a.PhotoReference)); ref != "" {
			photoURL, photoSource = r.directory.PhotoURL(ref), "reference"
		}

		if placeID == "" {
			if query, ok := searchQuery(a, req.City); ok {
				id, err := guard(func() (string, error) { return r.directory.FindPlaceID(ctx, query) })
				switch {
				case err != nil:
					log.Warn("place id search failed", zap.String("query", query), zap.Error(err))
				case id == "":
					log.Debug("place id search returned no candidates", zap.String("query", query))
				default:
					placeID = id
				}
			} else {
				log.Debug("skipping place id search: title or city missing")
			}
		}

		if placeID != "" {
			details, err := guard(func() (*PlaceDetails, error) { return r.directory.PlaceDetails(ctx, placeID) })
			switch {
			case err != nil:
				log.Warn("place details fetch failed", zap.String("place_id", placeID), zap.Error(err))
			case details == nil:
				log.Warn("place details fetch returned nothing", zap.String("place_id", placeID))
			default:
				if len(details.PhotoReferences) > 0 {
					photoURL, photoSource = r.directory.PhotoURL(details.PhotoReferences[0]), "directory"
				}
				if details.URL != "" && mapLink == "" {
					mapLink, linkSource = details.URL, "directory"
				}
			}
		}
	} else {
		log.Debug("places directory unavailable, using fallbacks")
	}

	out := ResolvedPlace{
		MapLink:          mapLink,
		PhotoURL:         photoURL,
		FallbackPhotoURL: secondaryPhotoURL(a),
	}
	if placeID != "" {
		out.PlaceID = itinerary_models.Ptr(placeID)
	}

	if out.PhotoURL == "" {
		out.PhotoURL, photoSource = StockPhotoURL(a, req.DayNumber, req.ActivityPosition), "stock"
	}
	if out.MapLink == "" {
		synth := a
		synth.PlaceID = out.PlaceID
		out.MapLink, linkSource = SynthesizeMapLink(synth), "synthesized"
	}

	r.metrics.MapLinkSourceTotal.WithLabelValues(linkSource).Inc()
	r.metrics.PhotoSourceTotal.WithLabelValues(photoSource).Inc()
	return out
}

// searchQuery joins title, optional location name and city. Title and city are required.
func searchQuery(a itinerary_models.Activity, city *string) (string, bool) {
	title := strings.TrimSpace(itinerary_models.Deref(a.Title))
	c := strings.TrimSpace(itinerary_models.Deref(city))
	if title == "" || c == "" {
		return "", false
	}
	parts := []string{title}
	if name := strings.TrimSpace(itinerary_models.Deref(a.Location.Name)); name != "" {
		parts = append(parts, name)
	}
	parts = append(parts, c)
	return strings.Join(parts, ", "), true
}

// StockPhotoURL builds the stock image keyed by type and title. The sig token
// is "<day>-<position>" so equal activities in one plan get distinct images.
func StockPhotoURL(a itinerary_models.Activity, dayNumber, position int) string {
	kind := strings.TrimSpace(itinerary_models.Deref(a.Type))
	if kind == "" {
		kind = "travel"
	}
	title := strings.TrimSpace(itinerary_models.Deref(a.Title))
	if title == "" {
		title = "destination"
	}
	return fmt.Sprintf("%s?%s,%s&sig=%d-%d", stockPhotoBaseURL, encodeComponent(kind), encodeComponent(title), dayNumber, position)
}

// secondaryPhotoURL is shown when the primary photo fails to load.
func secondaryPhotoURL(a itinerary_models.Activity) string {
	label := activityLabel(a)
	if label == "" {
		label = "placeholder"
	}
	return stockPhotoBaseURL + "?travel," + encodeComponent(label)
}

// guard turns a panic inside a directory call into an error.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("places directory panicked: %v", p)
		}
	}()
	return fn()
}
