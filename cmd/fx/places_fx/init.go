package places_fx

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"travelplan/internal/config"
	"travelplan/internal/services"
	"travelplan/pkg/memcache"
)

var Module = fx.Provide(
	ProvidePlacesRelayService,
	ProvidePlacesDirectory,
	ProvidePlaceResolver)

func ProvidePlacesRelayService(cfg *config.Config, cache memcache.Cache, logger *zap.Logger) services.PlacesRelayServiceInterface {
	relay := services.NewPlacesRelayService(cfg, cache, logger)
	if !relay.Enabled() {
		logger.Warn("GOOGLE_PLACES_API_KEY not set, itineraries will use synthesized links and stock photos")
	}
	return relay
}

// ProvidePlacesDirectory returns the client enrichment uses to reach the relay.
func ProvidePlacesDirectory(cfg *config.Config, logger *zap.Logger) services.PlacesDirectory {
	fetcher := services.NewRetryingFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, "places_relay", logger)
	return services.NewPlacesRelayClient(cfg, fetcher)
}

func ProvidePlaceResolver(directory services.PlacesDirectory, logger *zap.Logger) services.PlaceResolverInterface {
	return services.NewPlaceResolver(directory, logger)
}
