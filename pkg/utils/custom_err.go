package utils

import "errors"

var (
	ErrInvalidTripID          = errors.New("invalid trip id")
	ErrPlacesUnavailable      = errors.New("places directory unavailable")
	ErrInvalidPlacesOperation = errors.New("invalid places operation or missing parameters")
	ErrSnapshotNotFound       = errors.New("plan snapshot not found")
	ErrDatabaseError          = errors.New("database error")
)
