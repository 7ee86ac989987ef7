package models

import "errors"

// Store errors shared by every repository implementation
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrBookingNotFound = errors.New("booking not found")

	// ErrStatusChanged is returned by a compare-and-set status update when the
	// stored status no longer matches the expected one
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
