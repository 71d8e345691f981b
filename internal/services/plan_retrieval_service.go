package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"travelplan/internal/config"
	"travelplan/internal/models/itinerary_models"
	"travelplan/internal/models/response_models"
	"travelplan/internal/repositories"
	"travelplan/pkg/metrics"
	"travelplan/pkg/utils"
)

type PlanRetrievalServiceInterface interface {
	// StartRetrieval moves the trip to loading and fetches in the background.
	StartRetrieval(tripID string) (response_models.RetrievalStarted, error)
	// Retrieve runs a retrieval to completion and returns the trip's state afterwards.
	Retrieve(ctx context.Context, tripID string) (response_models.PlanState, error)
	GetState(tripID string) (response_models.PlanState, error)
	GetSnapshot(ctx context.Context, tripID string) (*response_models.PlanSnapshot, error)
	Shutdown()
}

type tripState struct {
	latest uint64
	state  response_models.PlanState
}

type PlanRetrievalService struct {
	fetcher      FetcherInterface
	enricher     EnrichmentServiceInterface
	snapshots    repositories.IPlanSnapshotRepository
	baseURL      string
	maxAttempts  int
	initialDelay time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time

	mu    sync.Mutex
	trips map[string]*tripState

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewPlanRetrievalService(
	cfg *config.Config,
	fetcher FetcherInterface,
	enricher EnrichmentServiceInterface,
	snapshots repositories.IPlanSnapshotRepository,
	logger *zap.Logger,
) *PlanRetrievalService {
	ctx, cancel := context.WithCancel(context.Background())
	return &PlanRetrievalService{
		fetcher:      fetcher,
		enricher:     enricher,
		snapshots:    snapshots,
		baseURL:      cfg.ItineraryServiceURL,
		maxAttempts:  cfg.FetchMaxAttempts,
		initialDelay: cfg.FetchInitialDelay,
		logger:       logger,
		metrics:      metrics.Get(),
		now:          time.Now,
		trips:        make(map[string]*tripState),
		rootCtx:      ctx,
		cancel:       cancel,
	}
}

func normalizeTripID(tripID string) (string, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return "", utils.ErrInvalidTripID
	}
	return tripID, nil
}

func (s *PlanRetrievalService) StartRetrieval(tripID string) (response_models.RetrievalStarted, error) {
	tripID, err := normalizeTripID(tripID)
	if err != nil {
		return response_models.RetrievalStarted{}, err
	}

	token := s.begin(tripID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(s.rootCtx, tripID, token)
	}()

	return response_models.RetrievalStarted{
		TripID: tripID,
		Token:  token,
		Status: response_models.PlanStatusLoading,
	}, nil
}

func (s *PlanRetrievalService) Retrieve(ctx context.Context, tripID string) (response_models.PlanState, error) {
	tripID, err := normalizeTripID(tripID)
	if err != nil {
		return response_models.PlanState{}, err
	}

	token := s.begin(tripID)
	s.run(ctx, tripID, token)
	return s.GetState(tripID)
}

func (s *PlanRetrievalService) GetState(tripID string) (response_models.PlanState, error) {
	tripID, err := normalizeTripID(tripID)
	if err != nil {
		return response_models.PlanState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ts, ok := s.trips[tripID]; ok {
		return ts.state, nil
	}
	return response_models.PlanState{
		TripID:      tripID,
		DisplayName: utils.TripDisplayName(tripID),
		Status:      response_models.PlanStatusIdle,
	}, nil
}

func (s *PlanRetrievalService) GetSnapshot(ctx context.Context, tripID string) (*response_models.PlanSnapshot, error) {
	tripID, err := normalizeTripID(tripID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshots.GetSnapshot(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if snapshot == nil {
		return nil, utils.ErrSnapshotNotFound
	}

	var it itinerary_models.Itinerary
	if err := json.Unmarshal([]byte(snapshot.Payload), &it); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", utils.ErrDatabaseError, err)
	}
	return &response_models.PlanSnapshot{
		TripID:    snapshot.TripID,
		Token:     snapshot.Token,
		Itinerary: it,
		SavedAt:   time.Unix(snapshot.UpdatedAt, 0).UTC(),
	}, nil
}

// Shutdown cancels in-flight background retrievals and waits for them.
func (s *PlanRetrievalService) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// begin issues the next token for the trip and moves it to loading.
func (s *PlanRetrievalService) begin(tripID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.trips[tripID]
	if !ok {
		ts = &tripState{}
		s.trips[tripID] = ts
	}
	ts.latest++
	ts.state = response_models.PlanState{
		TripID:      tripID,
		DisplayName: utils.TripDisplayName(tripID),
		Status:      response_models.PlanStatusLoading,
		Token:       ts.latest,
		UpdatedAt:   s.now(),
	}
	return ts.latest
}

// apply stores the outcome only if token is still the trip's latest.
func (s *PlanRetrievalService) apply(tripID string, token uint64, state response_models.PlanState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.trips[tripID]
	if ts == nil || ts.latest != token {
		return false
	}
	state.TripID = tripID
	state.DisplayName = utils.TripDisplayName(tripID)
	state.Token = token
	state.UpdatedAt = s.now()
	ts.state = state
	return true
}

func (s *PlanRetrievalService) run(ctx context.Context, tripID string, token uint64) {
	log := s.logger.With(zap.String("trip_id", tripID), zap.Uint64("token", token))
	endpoint := s.baseURL + "/generate-plan/" + url.PathEscape(tripID)

	log.Info("fetching itinerary", zap.String("url", endpoint))

	var raw itinerary_models.Itinerary
	err := s.fetcher.FetchWithRetry(ctx, endpoint, RequestOptions{Method: http.MethodPost}, s.maxAttempts, s.initialDelay, &raw)
	if err != nil {
		log.Error("itinerary fetch failed", zap.Error(err))
		s.finish(log, tripID, token, response_models.PlanState{
			Status:       response_models.PlanStatusFailed,
			ErrorMessage: err.Error(),
		})
		return
	}

	enriched := s.enricher.Enrich(ctx, raw)
	applied := s.finish(log, tripID, token, response_models.PlanState{
		Status:       response_models.PlanStatusReady,
		Itinerary:    &enriched,
		MapLocations: enriched.ValidMapLocations(),
	})
	if !applied {
		return
	}

	payload, err := json.Marshal(enriched)
	if err != nil {
		log.Warn("encode snapshot failed", zap.Error(err))
		return
	}
	if err := s.snapshots.SaveSnapshot(context.WithoutCancel(ctx), tripID, token, payload); err != nil {
		log.Warn("save snapshot failed", zap.Error(err))
	}
}

func (s *PlanRetrievalService) finish(log *zap.Logger, tripID string, token uint64, state response_models.PlanState) bool {
	if !s.apply(tripID, token, state) {
		s.metrics.PlanRetrievalsTotal.WithLabelValues("superseded").Inc()
		log.Info("discarding superseded retrieval result", zap.String("status", string(state.Status)))
		return false
	}
	s.metrics.PlanRetrievalsTotal.WithLabelValues(string(state.Status)).Inc()
	log.Info("retrieval finished", zap.String("status", string(state.Status)))
	return true
}
