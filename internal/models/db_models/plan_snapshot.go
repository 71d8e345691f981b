package db_models

// PlanSnapshot keeps the last ready itinerary of a trip in its wire form.
type PlanSnapshot struct {
	BaseModel
	TripID  string `gorm:"uniqueIndex;not null"`
	Token   uint64
	Payload string `gorm:"type:jsonb;not null"`
}
