package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"travelplan/internal/config"
	"travelplan/internal/models/request_models"
	"travelplan/pkg/memcache"
	"travelplan/pkg/metrics"
	"travelplan/pkg/utils"
)

const (
	defaultDetailsFields = "photos,url,name,formatted_address,rating"
	maxPhotoBytes        = 10 << 20
)

// Statuses the legacy places API reports for a request it actually served.
var servedStatuses = map[string]bool{"": true, "OK": true, "ZERO_RESULTS": true}

type RelayResponse struct {
	StatusCode int
	Body       json.RawMessage
}

type PlacePhoto struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type PlacesRelayServiceInterface interface {
	Enabled() bool
	// Relay forwards one directory request with the API key attached.
	Relay(ctx context.Context, req request_models.PlacesRelayRequest) (RelayResponse, error)
	Photo(ctx context.Context, reference string, maxWidth int) (*PlacePhoto, error)
}

type PlacesRelayService struct {
	http          *http.Client
	upstreamURL   string
	apiKey        string
	language      string
	photoMaxWidth int
	cache         memcache.Cache
	cacheTTL      time.Duration
	limiter       *rate.Limiter
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

func NewPlacesRelayService(cfg *config.Config, cache memcache.Cache, logger *zap.Logger) PlacesRelayServiceInterface {
	return &PlacesRelayService{
		http:          &http.Client{Timeout: cfg.HTTPTimeout},
		upstreamURL:   cfg.PlacesUpstreamURL,
		apiKey:        cfg.GooglePlacesAPIKey,
		language:      cfg.PlacesLanguage,
		photoMaxWidth: cfg.PhotoMaxWidth,
		cache:         cache,
		cacheTTL:      cfg.PlacesCacheTTL,
		limiter:       rate.NewLimiter(rate.Limit(cfg.PlacesRateLimit), cfg.PlacesBurst),
		logger:        logger,
		metrics:       metrics.Get(),
	}
}

func (s *PlacesRelayService) Enabled() bool {
	return s.apiKey != ""
}

func (s *PlacesRelayService) Relay(ctx context.Context, req request_models.PlacesRelayRequest) (RelayResponse, error) {
	if !s.Enabled() {
		s.metrics.RelayRequestsTotal.WithLabelValues(req.Operation, "unavailable").Inc()
		return RelayResponse{}, utils.ErrPlacesUnavailable
	}

	q := url.Values{}
	var endpoint, subject string
	switch {
	case req.Operation == OperationFindPlace && strings.TrimSpace(req.Query) != "":
		fields := req.Fields
		if fields == "" {
			fields = findPlaceFields
		}
		endpoint, subject = "/findplacefromtext/json", req.Query
		q.Set("input", req.Query)
		q.Set("inputtype", "textquery")
		q.Set("fields", fields)
	case req.Operation == OperationDetails && strings.TrimSpace(req.PlaceID) != "":
		fields := req.Fields
		if fields == "" {
			fields = defaultDetailsFields
		}
		endpoint, subject = "/details/json", req.PlaceID
		q.Set("place_id", req.PlaceID)
		q.Set("fields", fields)
	default:
		s.metrics.RelayRequestsTotal.WithLabelValues(req.Operation, "invalid").Inc()
		return RelayResponse{}, utils.ErrInvalidPlacesOperation
	}
	q.Set("language", s.language)

	cacheKey := "places:" + req.Operation + ":" + q.Encode()
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		s.metrics.RelayCacheHitsTotal.Inc()
		s.metrics.RelayRequestsTotal.WithLabelValues(req.Operation, "cached").Inc()
		return RelayResponse{StatusCode: http.StatusOK, Body: cached}, nil
	}

	q.Set("key", s.apiKey)
	status, body, err := s.get(ctx, s.upstreamURL+endpoint+"?"+q.Encode(), 1<<20)
	if err != nil {
		s.metrics.RelayRequestsTotal.WithLabelValues(req.Operation, "error").Inc()
		return RelayResponse{}, fmt.Errorf("places %s for %q: %w", req.Operation, subject, err)
	}

	var envelope struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	_ = json.Unmarshal(body, &envelope)

	if status/100 != 2 || !servedStatuses[envelope.Status] {
		msg := envelope.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("places %s failed for %q", req.Operation, subject)
		}
		if status/100 == 2 {
			status = http.StatusBadGateway
		}
		s.logger.Warn("places upstream rejected request",
			zap.String("operation", req.Operation),
			zap.Int("status", status),
			zap.String("upstream_status", envelope.Status),
			zap.String("error", msg),
		)
		s.metrics.RelayRequestsTotal.WithLabelValues(req.Operation, "upstream_error").Inc()
		errBody, _ := json.Marshal(map[string]any{"error": msg, "details": json.RawMessage(validJSONOrNull(body))})
		return RelayResponse{StatusCode: status, Body: errBody}, nil
	}

	s.cache.Set(ctx, cacheKey, body, s.cacheTTL)
	s.metrics.RelayRequestsTotal.WithLabelValues(req.Operation, "ok").Inc()
	return RelayResponse{StatusCode: http.StatusOK, Body: body}, nil
}

func (s *PlacesRelayService) Photo(ctx context.Context, reference string, maxWidth int) (*PlacePhoto, error) {
	if !s.Enabled() {
		return nil, utils.ErrPlacesUnavailable
	}
	if strings.TrimSpace(reference) == "" {
		return nil, utils.ErrInvalidPlacesOperation
	}
	if maxWidth <= 0 {
		maxWidth = s.photoMaxWidth
	}

	q := url.Values{}
	q.Set("maxwidth", strconv.Itoa(maxWidth))
	q.Set("photoreference", reference)

	cacheKey := "photo:" + q.Encode()
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		var photo PlacePhoto
		if err := json.Unmarshal(cached, &photo); err == nil {
			s.metrics.RelayCacheHitsTotal.Inc()
			return &photo, nil
		}
	}

	q.Set("key", s.apiKey)
	status, body, contentType, err := s.getWithType(ctx, s.upstreamURL+"/photo?"+q.Encode(), maxPhotoBytes)
	if err != nil {
		return nil, fmt.Errorf("places photo: %w", err)
	}
	if status != http.StatusOK || len(body) == 0 {
		return nil, fmt.Errorf("places photo: upstream status %d", status)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	photo := &PlacePhoto{ContentType: contentType, Data: body}
	if encoded, err := json.Marshal(photo); err == nil {
		s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL)
	}
	return photo, nil
}

func (s *PlacesRelayService) get(ctx context.Context, rawURL string, limit int64) (int, []byte, error) {
	status, body, _, err := s.getWithType(ctx, rawURL, limit)
	return status, body, err
}

func (s *PlacesRelayService) getWithType(ctx context.Context, rawURL string, limit int64) (int, []byte, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, nil, "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, "", withoutQuery(err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return 0, nil, "", withoutQuery(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return 0, nil, "", fmt.Errorf("read upstream body: %w", err)
	}
	return resp.StatusCode, body, resp.Header.Get("Content-Type"), nil
}

// withoutQuery strips the request query, which carries the API key, from
// transport errors.
func withoutQuery(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	target := ue.URL
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	return fmt.Errorf("%s %s: %w", ue.Op, target, ue.Err)
}

func validJSONOrNull(b []byte) []byte {
	if json.Valid(b) {
		return b
	}
	return []byte("null")
}
