package domain

import "time"

// Driver represents a driver in the system. Availability is implied by
// a recent location report; there is no separate online flag.
type Driver struct {
	ID        string
	Name      string
	Phone     string
	CarModel  string
	CarPlate  string
	CreatedAt time.Time
}
