package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"travelplan/internal/models/itinerary_models"
)

type resolverFunc func(ctx context.Context, req ResolveRequest) ResolvedPlace

func (f resolverFunc) Resolve(ctx context.Context, req ResolveRequest) ResolvedPlace {
	return f(ctx, req)
}

func titled(titles ...string) []itinerary_models.Activity {
	out := make([]itinerary_models.Activity, len(titles))
	for i, t := range titles {
		out[i] = itinerary_models.Activity{Title: itinerary_models.Ptr(t)}
	}
	return out
}

func TestEnrich_PreservesOrder(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, req ResolveRequest) ResolvedPlace {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		label := fmt.Sprintf("%d/%d/%s", req.DayNumber, req.ActivityPosition, itinerary_models.Deref(req.Activity.Title))
		return ResolvedPlace{MapLink: "https://maps.test/" + label, PhotoURL: "https://photos.test/" + label}
	})
	svc := NewEnrichmentService(resolver, 2, zap.NewNop())

	in := itinerary_models.Itinerary{
		DailyPlan: []itinerary_models.DayPlan{
			{Day: itinerary_models.Ptr(1), Activities: titled("a", "b", "c", "d", "e")},
			{Activities: titled("f", "g")},
		},
	}
	out := svc.Enrich(context.Background(), in)

	require.Len(t, out.DailyPlan, 2)
	var links []string
	for _, d := range out.DailyPlan {
		for _, a := range d.Activities {
			links = append(links, itinerary_models.Deref(a.MapLink))
		}
	}
	assert.Equal(t, []string{
		"https://maps.test/1/0/a",
		"https://maps.test/1/1/b",
		"https://maps.test/1/2/c",
		"https://maps.test/1/3/d",
		"https://maps.test/1/4/e",
		"https://maps.test/2/0/f",
		"https://maps.test/2/1/g",
	}, links)
}

func TestEnrich_FailureIsIsolatedPerActivity(t *testing.T) {
	dir := &fakeDirectory{
		available: true,
		findID: func(query string) (string, error) {
			if query == "Broken, Paris" {
				return "", fmt.Errorf("relay returned 500")
			}
			return "id-" + query, nil
		},
		details: func(id string) (*PlaceDetails, error) {
			return &PlaceDetails{URL: "https://maps.test/" + id, PhotoReferences: []string{"ref-" + id}}, nil
		},
	}
	svc := NewEnrichmentService(NewPlaceResolver(dir, zap.NewNop()), 4, zap.NewNop())

	in := itinerary_models.Itinerary{
		DailyPlan: []itinerary_models.DayPlan{
			{City: itinerary_models.Ptr("Paris"), Activities: titled("Good", "Broken", "Fine")},
		},
	}
	out := svc.Enrich(context.Background(), in)

	acts := out.DailyPlan[0].Activities
	require.Len(t, acts, 3)
	assert.Equal(t, "https://maps.test/id-Good, Paris", *acts[0].MapLink)
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=Broken", *acts[1].MapLink)
	assert.Nil(t, acts[1].PlaceID)
	assert.Contains(t, *acts[1].PhotoURL, "source.unsplash.com")
	assert.Equal(t, "https://maps.test/id-Fine, Paris", *acts[2].MapLink)
}

func TestEnrich_EmptyDayAndInputUntouched(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, req ResolveRequest) ResolvedPlace {
		return ResolvedPlace{MapLink: "https://maps.test/x", PhotoURL: "https://photos.test/x", FallbackPhotoURL: "https://photos.test/y"}
	})
	svc := NewEnrichmentService(resolver, 0, zap.NewNop())

	in := itinerary_models.Itinerary{
		TripName: itinerary_models.Ptr("Paris"),
		DailyPlan: []itinerary_models.DayPlan{
			{Day: itinerary_models.Ptr(1)},
			{Day: itinerary_models.Ptr(2), Activities: []itinerary_models.Activity{
				{Title: itinerary_models.Ptr("Dinner"), Type: itinerary_models.Ptr("restaurant")},
			}},
		},
	}
	out := svc.Enrich(context.Background(), in)

	require.NotNil(t, out.DailyPlan[0].Activities)
	assert.Empty(t, out.DailyPlan[0].Activities)
	a := out.DailyPlan[1].Activities[0]
	assert.Equal(t, "https://maps.test/x", *a.MapLink)
	assert.Equal(t, "https://photos.test/y", *a.FallbackPhotoURL)
	assert.Equal(t, string(CategoryFood), a.Category)
	assert.Equal(t, "Paris", *out.TripName)

	// the caller's itinerary keeps its original activities
	assert.Nil(t, in.DailyPlan[0].Activities)
	assert.Nil(t, in.DailyPlan[1].Activities[0].MapLink)
	assert.Empty(t, in.DailyPlan[1].Activities[0].Category)
}

func TestEnrich_EmptyItinerary(t *testing.T) {
	svc := NewEnrichmentService(resolverFunc(func(context.Context, ResolveRequest) ResolvedPlace {
		t.Fatal("resolver must not be called")
		return ResolvedPlace{}
	}), 4, zap.NewNop())

	out := svc.Enrich(context.Background(), itinerary_models.Itinerary{})
	assert.Empty(t, out.DailyPlan)
}

// inFlight tracks concurrent resolver calls and the highest overlap seen.
type inFlight struct {
	cur  atomic.Int32
	peak atomic.Int32
}

func (f *inFlight) enter() {
	n := f.cur.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (f *inFlight) leave() { f.cur.Add(-1) }

func TestEnrich_ResolvesActivitiesOfADayConcurrently(t *testing.T) {
	const n = 6
	var arrived sync.WaitGroup
	arrived.Add(n)
	allArrived := make(chan struct{})
	go func() {
		arrived.Wait()
		close(allArrived)
	}()

	var track inFlight
	var timedOut atomic.Bool
	resolver := resolverFunc(func(_ context.Context, req ResolveRequest) ResolvedPlace {
		track.enter()
		defer track.leave()
		arrived.Done()
		// every call waits for all the others, so a serial loop would stall here
		select {
		case <-allArrived:
		case <-time.After(2 * time.Second):
			timedOut.Store(true)
		}
		return ResolvedPlace{MapLink: "https://maps.test/x", PhotoURL: "https://photos.test/x"}
	})
	svc := NewEnrichmentService(resolver, n, zap.NewNop())

	out := svc.Enrich(context.Background(), itinerary_models.Itinerary{
		DailyPlan: []itinerary_models.DayPlan{{Activities: titled("a", "b", "c", "d", "e", "f")}},
	})

	assert.False(t, timedOut.Load(), "resolver calls did not overlap")
	assert.Equal(t, int32(n), track.peak.Load())
	assert.Len(t, out.DailyPlan[0].Activities, n)
}

func TestEnrich_RespectsConcurrencyCap(t *testing.T) {
	var track inFlight
	resolver := resolverFunc(func(_ context.Context, req ResolveRequest) ResolvedPlace {
		track.enter()
		defer track.leave()
		time.Sleep(20 * time.Millisecond)
		return ResolvedPlace{MapLink: "https://maps.test/x", PhotoURL: "https://photos.test/x"}
	})
	svc := NewEnrichmentService(resolver, 2, zap.NewNop())

	out := svc.Enrich(context.Background(), itinerary_models.Itinerary{
		DailyPlan: []itinerary_models.DayPlan{{Activities: titled("a", "b", "c", "d", "e", "f")}},
	})

	assert.LessOrEqual(t, track.peak.Load(), int32(2))
	assert.GreaterOrEqual(t, track.peak.Load(), int32(1))
	assert.Len(t, out.DailyPlan[0].Activities, 6)
}
