package plan_fx

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"travelplan/internal/config"
	"travelplan/internal/repositories"
	"travelplan/internal/services"
)

var Module = fx.Provide(
	ProvideEnrichmentService,
	ProvidePlanRetrievalService)

func ProvideEnrichmentService(cfg *config.Config, resolver services.PlaceResolverInterface, logger *zap.Logger) services.EnrichmentServiceInterface {
	return services.NewEnrichmentService(resolver, cfg.EnrichMaxConcurrency, logger)
}

// ProvidePlanRetrievalService stops background retrievals when the app stops.
func ProvidePlanRetrievalService(
	lc fx.Lifecycle,
	cfg *config.Config,
	enricher services.EnrichmentServiceInterface,
	snapshots repositories.IPlanSnapshotRepository,
	logger *zap.Logger,
) services.PlanRetrievalServiceInterface {
	fetcher := services.NewRetryingFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, "itinerary", logger)
	svc := services.NewPlanRetrievalService(cfg, fetcher, enricher, snapshots, logger)
	lc.Append(fx.StopHook(svc.Shutdown))
	return svc
}
