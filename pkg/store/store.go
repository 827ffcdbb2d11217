// Package store owns the in-memory restaurant and reservation collections.
//
// Invariants:
// - Restaurant IDs are unique and immutable; restaurants are never removed.
// - Every reservation references an existing restaurant.
// - Reservation status only moves confirmed -> cancelled, once.
// - All access goes through Store methods; callers receive copies.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrDuplicateID is returned when inserting a record whose ID already exists.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrNotFound is returned when a mutation targets an unknown record.
	ErrNotFound = errors.New("not found")

	// ErrUnknownRestaurant is returned when a reservation references a
	// restaurant that does not exist in the store.
	ErrUnknownRestaurant = errors.New("unknown restaurant")

	// ErrInvalidTransition is returned for a disallowed status change, such as
	// cancelling a reservation that is already cancelled.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store is the in-memory entity store. Reads take the read lock and return
// snapshot copies; writes are exclusive.
type Store struct {
	mu              sync.RWMutex
	restaurants     map[string]Restaurant
	restaurantOrder []string
	reservations    map[string]Reservation
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		restaurants:  make(map[string]Restaurant),
		reservations: make(map[string]Reservation),
	}
}

// AddRestaurant inserts a restaurant. Insertion order is preserved for
// listing.
func (s *Store) AddRestaurant(r Restaurant) error {
	if r.ID == "" {
		return fmt.Errorf("restaurant id cannot be empty")
	}
	if r.SeatingCapacity <= 0 {
		return fmt.Errorf("restaurant %s: seating capacity must be positive", r.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.restaurants[r.ID]; exists {
		return fmt.Errorf("restaurant %s: %w", r.ID, ErrDuplicateID)
	}

	s.restaurants[r.ID] = r
	s.restaurantOrder = append(s.restaurantOrder, r.ID)
	return nil
}

// GetRestaurant returns the restaurant and whether it exists.
func (s *Store) GetRestaurant(id string) (Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.restaurants[id]
	return r, ok
}

// RestaurantCount returns the number of restaurants in the store.
func (s *Store) RestaurantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.restaurants)
}

// ListRestaurants returns restaurants matching the filter in seed insertion
// order.
func (s *Store) ListRestaurants(filter RestaurantFilter) []Restaurant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Restaurant, 0, len(s.restaurantOrder))
	for _, id := range s.restaurantOrder {
		r := s.restaurants[id]
		if !matchesFilter(r, filter) {
			continue
		}
		results = append(results, r)
	}
	return results
}

func matchesFilter(r Restaurant, f RestaurantFilter) bool {
	if f.Cuisine != "" && !containsFold(r.Cuisine, f.Cuisine) {
		return false
	}
	if f.Location != "" && !containsFold(r.Location, f.Location) {
		return false
	}
	if f.MinCapacity > 0 && r.SeatingCapacity < f.MinCapacity {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// AddReservation inserts a reservation. The referenced restaurant must exist.
func (s *Store) AddReservation(res Reservation) error {
	if res.ID == "" {
		return fmt.Errorf("reservation id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[res.ID]; exists {
		return fmt.Errorf("reservation %s: %w", res.ID, ErrDuplicateID)
	}
	if _, exists := s.restaurants[res.RestaurantID]; !exists {
		return fmt.Errorf("reservation %s references %s: %w", res.ID, res.RestaurantID, ErrUnknownRestaurant)
	}

	s.reservations[res.ID] = res

	log.Debug().
		Str("reservation", res.ID).
		Str("restaurant", res.RestaurantID).
		Str("date", res.Date).
		Str("time", res.Time).
		Int("party_size", res.PartySize).
		Msg("Reservation stored")

	return nil
}

// GetReservation returns the reservation and whether it exists.
func (s *Store) GetReservation(id string) (Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.reservations[id]
	return res, ok
}

// ListReservationsFor returns all reservations for a restaurant on a date,
// regardless of status.
func (s *Store) ListReservationsFor(restaurantID, date string) []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []Reservation{}
	for _, res := range s.reservations {
		if res.RestaurantID == restaurantID && res.Date == date {
			results = append(results, res)
		}
	}
	return results
}

// SetReservationStatus applies a status transition. Cancelled reservations
// stay in the store for availability accounting; cancelling twice fails.
func (s *Store) SetReservationStatus(id string, status ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	if res.Status == StatusCancelled && status == StatusCancelled {
		return fmt.Errorf("reservation %s already cancelled: %w", id, ErrInvalidTransition)
	}

	res.Status = status
	s.reservations[id] = res

	log.Debug().
		Str("reservation", id).
		Str("status", string(status)).
		Msg("Reservation status updated")

	return nil
}
