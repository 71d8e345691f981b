package services

import (
	"context"
	"slices"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"travelplan/internal/models/itinerary_models"
	"travelplan/pkg/metrics"
)

type EnrichmentServiceInterface interface {
	// Enrich returns a copy of the itinerary with every activity resolved.
	// It never fails; unresolved activities get synthesized links and photos.
	Enrich(ctx context.Context, in itinerary_models.Itinerary) itinerary_models.Itinerary
}

type EnrichmentService struct {
	resolver       PlaceResolverInterface
	maxConcurrency int
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

func NewEnrichmentService(resolver PlaceResolverInterface, maxConcurrency int, logger *zap.Logger) EnrichmentServiceInterface {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &EnrichmentService{
		resolver:       resolver,
		maxConcurrency: maxConcurrency,
		logger:         logger,
		metrics:        metrics.Get(),
	}
}

type dayJob struct {
	pos int
	day itinerary_models.DayPlan
}

type activityJob struct {
	pos      int
	activity itinerary_models.Activity
}

func (s *EnrichmentService) Enrich(ctx context.Context, in itinerary_models.Itinerary) itinerary_models.Itinerary {
	start := time.Now()

	out := in
	out.DestinationCities = slices.Clone(in.DestinationCities)
	out.GeneralNotes = slices.Clone(in.GeneralNotes)
	if in.MapSummary != nil {
		ms := *in.MapSummary
		ms.Locations = slices.Clone(in.MapSummary.Locations)
		out.MapSummary = &ms
	}

	if len(in.DailyPlan) > 0 {
		jobs := make([]dayJob, len(in.DailyPlan))
		for i, d := range in.DailyPlan {
			jobs[i] = dayJob{pos: i, day: d}
		}
		days := iter.Mapper[dayJob, itinerary_models.DayPlan]{MaxGoroutines: len(jobs)}
		out.DailyPlan = days.Map(jobs, func(j *dayJob) itinerary_models.DayPlan {
			return s.enrichDay(ctx, j.pos, j.day)
		})
	}

	total := out.CountActivities()
	s.metrics.ActivitiesEnriched.Add(float64(total))
	s.metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("itinerary enriched",
		zap.Int("days", len(out.DailyPlan)),
		zap.Int("activities", total),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

func (s *EnrichmentService) enrichDay(ctx context.Context, pos int, day itinerary_models.DayPlan) itinerary_models.DayPlan {
	dayNumber := day.DayNumber(pos)
	if len(day.Activities) == 0 {
		day.Activities = []itinerary_models.Activity{}
		return day
	}

	jobs := make([]activityJob, len(day.Activities))
	for i, a := range day.Activities {
		jobs[i] = activityJob{pos: i, activity: a}
	}

	activities := iter.Mapper[activityJob, itinerary_models.Activity]{MaxGoroutines: s.maxConcurrency}
	day.Activities = activities.Map(jobs, func(j *activityJob) itinerary_models.Activity {
		res := s.resolver.Resolve(ctx, ResolveRequest{
			Activity:         j.activity,
			City:             day.City,
			DayNumber:        dayNumber,
			ActivityPosition: j.pos,
		})

		enriched := j.activity
		enriched.MapLink = itinerary_models.Ptr(res.MapLink)
		enriched.PlaceID = res.PlaceID
		enriched.PhotoURL = itinerary_models.Ptr(res.PhotoURL)
		enriched.FallbackPhotoURL = itinerary_models.Ptr(res.FallbackPhotoURL)
		enriched.Category = string(ClassifyActivity(j.activity.Type))
		return enriched
	})
	return day
}
