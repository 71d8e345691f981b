package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"travelplan/internal/models/db_models"
)

type IPlanSnapshotRepository interface {
	// SaveSnapshot replaces the trip's snapshot with the given payload.
	SaveSnapshot(ctx context.Context, tripID string, token uint64, payload []byte) error
	// GetSnapshot returns nil, nil when the trip has no snapshot.
	GetSnapshot(ctx context.Context, tripID string) (*db_models.PlanSnapshot, error)
}

type PlanSnapshotRepository struct {
	db *gorm.DB
}

func NewPlanSnapshotRepository(db *gorm.DB) IPlanSnapshotRepository {
	return &PlanSnapshotRepository{db: db}
}

func (p PlanSnapshotRepository) SaveSnapshot(ctx context.Context, tripID string, token uint64, payload []byte) error {
	snapshot := db_models.PlanSnapshot{
		TripID:  tripID,
		Token:   token,
		Payload: string(payload),
	}

	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trip_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "payload", "updated_at"}),
	}).Create(&snapshot).Error
}

func (p PlanSnapshotRepository) GetSnapshot(ctx context.Context, tripID string) (*db_models.PlanSnapshot, error) {
	var snapshot db_models.PlanSnapshot
	err := p.db.WithContext(ctx).First(&snapshot, "trip_id = ?", tripID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &snapshot, nil
}

// InMemoryPlanSnapshotRepository is used when no database is configured.
type InMemoryPlanSnapshotRepository struct {
	mu    sync.RWMutex
	store map[string]db_models.PlanSnapshot
}

func NewInMemoryPlanSnapshotRepository() *InMemoryPlanSnapshotRepository {
	return &InMemoryPlanSnapshotRepository{store: make(map[string]db_models.PlanSnapshot)}
}

func (m *InMemoryPlanSnapshotRepository) SaveSnapshot(_ context.Context, tripID string, token uint64, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Unix()
	snapshot, ok := m.store[tripID]
	if !ok {
		snapshot.CreatedAt = now
	}
	snapshot.TripID = tripID
	snapshot.Token = token
	snapshot.Payload = string(payload)
	snapshot.UpdatedAt = now
	m.store[tripID] = snapshot
	return nil
}

func (m *InMemoryPlanSnapshotRepository) GetSnapshot(_ context.Context, tripID string) (*db_models.PlanSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot, ok := m.store[tripID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}
