package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"travelplan/internal/config"
	"travelplan/internal/models/request_models"
	"travelplan/pkg/utils"
)

const (
	OperationFindPlace = "findplacefromtext"
	OperationDetails   = "details"

	// PhotoProxyPath is where this service serves directory photos.
	PhotoProxyPath = "/api/places/photo"

	findPlaceFields = "place_id"
	detailsFields   = "photos,url,name"
)

type PlaceDetails struct {
	Name            string
	URL             string
	PhotoReferences []string
}

// PlacesDirectory looks places up in the third-party directory.
// When Available is false the other lookups return utils.ErrPlacesUnavailable.
type PlacesDirectory interface {
	Available() bool
	FindPlaceID(ctx context.Context, query string) (string, error)
	PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error)
	PhotoURL(reference string) string
}

type findPlaceResponse struct {
	Candidates []struct {
		PlaceID string `json:"place_id"`
	} `json:"candidates"`
	Status string `json:"status"`
}

type placeDetailsResponse struct {
	Result *struct {
		Name   string `json:"name"`
		URL    string `json:"url"`
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"result"`
	Status string `json:"status"`
}

// PlacesRelayClient talks to the places relay, which holds the API key.
type PlacesRelayClient struct {
	fetcher      FetcherInterface
	relayURL     string
	enabled      bool
	maxAttempts  int
	initialDelay time.Duration

	photoBaseURL  string
	photoAPIKey   string
	photoMaxWidth int
}

func NewPlacesRelayClient(cfg *config.Config, fetcher FetcherInterface) *PlacesRelayClient {
	c := &PlacesRelayClient{
		fetcher:       fetcher,
		relayURL:      cfg.PlacesRelayURL,
		enabled:       cfg.PlacesEnabled(),
		maxAttempts:   cfg.PlacesMaxAttempts,
		initialDelay:  cfg.FetchInitialDelay,
		photoMaxWidth: cfg.PhotoMaxWidth,
	}
	switch {
	case cfg.PhotoDirectURLs:
		c.photoBaseURL = cfg.PlacesUpstreamURL + "/photo"
		c.photoAPIKey = cfg.GooglePlacesAPIKey
	default:
		// A bare path resolves against the origin that served the itinerary.
		c.photoBaseURL = cfg.PhotoProxyBaseURL + PhotoProxyPath
	}
	return c
}

func (c *PlacesRelayClient) Available() bool {
	return c.enabled
}

// FindPlaceID returns the first candidate's id, or "" when nothing matched.
func (c *PlacesRelayClient) FindPlaceID(ctx context.Context, query string) (string, error) {
	if !c.enabled {
		return "", utils.ErrPlacesUnavailable
	}
	var resp findPlaceResponse
	if err := c.call(ctx, request_models.PlacesRelayRequest{
		Operation: OperationFindPlace,
		Query:     query,
		Fields:    findPlaceFields,
	}, &resp); err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		if cand.PlaceID != "" {
			return cand.PlaceID, nil
		}
	}
	return "", nil
}

func (c *PlacesRelayClient) PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if !c.enabled {
		return nil, utils.ErrPlacesUnavailable
	}
	var resp placeDetailsResponse
	if err := c.call(ctx, request_models.PlacesRelayRequest{
		Operation: OperationDetails,
		PlaceID:   placeID,
		Fields:    detailsFields,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, errors.New("place details response has no result")
	}

	out := &PlaceDetails{Name: resp.Result.Name, URL: resp.Result.URL}
	for _, p := range resp.Result.Photos {
		if p.PhotoReference != "" {
			out.PhotoReferences = append(out.PhotoReferences, p.PhotoReference)
		}
	}
	return out, nil
}

func (c *PlacesRelayClient) PhotoURL(reference string) string {
	q := url.Values{}
	q.Set("maxwidth", strconv.Itoa(c.photoMaxWidth))
	q.Set("photoreference", reference)
	if c.photoAPIKey != "" {
		q.Set("key", c.photoAPIKey)
	}
	return c.photoBaseURL + "?" + q.Encode()
}

func (c *PlacesRelayClient) call(ctx context.Context, body request_models.PlacesRelayRequest, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal relay request: %w", err)
	}
	return c.fetcher.FetchWithRetry(ctx, c.relayURL, RequestOptions{
		Method: http.MethodPost,
		Body:   payload,
	}, c.maxAttempts, c.initialDelay, out)
}
