package store

import "time"

// OperatingWindow describes a single day's open/close times in HH:MM (24-hour).
type OperatingWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Restaurant represents a restaurant record. Records are immutable after seed
// load; the store hands out copies, never internal pointers.
type Restaurant struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	Cuisine         string                     `json:"cuisine"`
	Location        string                     `json:"location"`
	Address         string                     `json:"address"`
	SeatingCapacity int                        `json:"seating_capacity"`
	OperatingHours  map[string]OperatingWindow `json:"operating_hours"`
	PriceRange      string                     `json:"price_range"`
	Rating          float64                    `json:"rating"`
	Description     string                     `json:"description"`
	FeatureTags     []string                   `json:"feature_tags,omitempty"`
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation represents a booking at a restaurant. Date is YYYY-MM-DD and
// Time is HH:MM (24-hour, minute granularity).
type Reservation struct {
	ID           string            `json:"id"`
	RestaurantID string            `json:"restaurant_id"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	PartySize    int               `json:"party_size"`
	CustomerName string            `json:"customer_name"`
	Status       ReservationStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

// RestaurantFilter narrows ListRestaurants results. Zero values mean "no
// constraint". Text fields match case-insensitively as substrings.
type RestaurantFilter struct {
	Cuisine     string
	Location    string
	MinCapacity int
}
