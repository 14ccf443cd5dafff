package model

import "time"

// Table is a bookable dining table. IsAvailable is an administrative switch; a table
// with IsAvailable=false cannot be booked whatever its calendar says.
type Table struct {
	ID          int64
	Seats       int
	IsAvailable bool
}

// Booking occupies a table for the half-open window [Start, End).
type Booking struct {
	ID           int64
	TableID      int64
	Start        time.Time
	End          time.Time
	PartySize    int
	ContactName  string
	ContactEmail string
	ContactPhone string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
