// Package reservation computes seating availability and enforces booking
// invariants over the entity store.
//
// Invariants:
// - The sum of confirmed party sizes within one seating bucket never exceeds
//   the restaurant's capacity.
// - Book and Cancel serialize through a single mutex so the availability
//   check and the insert commit as one step.
// - Closed-hours checks run before capacity arithmetic, so a closed slot is
//   never reported as fully booked.
package reservation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/gupta-soham/goodfoods/pkg/store"
)

var (
	// ErrInvalidParty is returned when the requested party size is not positive.
	ErrInvalidParty = errors.New("party size must be positive")

	// ErrAlreadyCancelled is returned when cancelling a cancelled reservation.
	ErrAlreadyCancelled = errors.New("reservation already cancelled")

	// ErrInvalidSlot is returned when a date or time argument does not parse.
	ErrInvalidSlot = errors.New("invalid slot")
)

// UnavailableError reports a capacity shortfall for a requested slot.
type UnavailableError struct {
	RemainingCapacity int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("slot unavailable, remaining capacity %d", e.RemainingCapacity)
}

// ClosedError reports a request outside the restaurant's operating hours.
type ClosedError struct {
	Day string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("restaurant is closed at the requested time on %s", e.Day)
}

// Config holds the tunable slot parameters. The seating bucket is the window
// within which two reservations contend for the same seats.
type Config struct {
	BucketMinutes          int
	AlternateStepMinutes   int
	AlternateWindowMinutes int
	MaxAlternates          int
}

// DefaultConfig returns the default slot parameters: 90-minute seating turns,
// alternates scanned every 30 minutes up to 90 minutes out.
func DefaultConfig() Config {
	return Config{
		BucketMinutes:          90,
		AlternateStepMinutes:   30,
		AlternateWindowMinutes: 90,
		MaxAlternates:          3,
	}
}

// Availability is the result of a capacity query.
type Availability struct {
	Available         bool   `json:"available"`
	RemainingCapacity int    `json:"remaining_capacity"`
	Reason            string `json:"reason,omitempty"` // "closed" or "capacity" when unavailable
}

// Slot is a concrete date/time proposal.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Confirmation records a completed cancellation.
type Confirmation struct {
	ReservationID  string    `json:"reservation_id"`
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	PartySize      int       `json:"party_size"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// Engine answers capacity queries and owns the booking critical section.
type Engine struct {
	store  *store.Store
	cfg    Config
	logger zerolog.Logger

	// bookMu serializes every mutation's check-then-act sequence.
	bookMu sync.Mutex

	now func() time.Time
}

// New creates an Engine over the given store.
func New(st *store.Store, cfg Config, logger zerolog.Logger) *Engine {
	if cfg.BucketMinutes <= 0 {
		cfg.BucketMinutes = DefaultConfig().BucketMinutes
	}
	if cfg.AlternateStepMinutes <= 0 {
		cfg.AlternateStepMinutes = DefaultConfig().AlternateStepMinutes
	}
	if cfg.AlternateWindowMinutes <= 0 {
		cfg.AlternateWindowMinutes = DefaultConfig().AlternateWindowMinutes
	}
	if cfg.MaxAlternates <= 0 {
		cfg.MaxAlternates = DefaultConfig().MaxAlternates
	}

	return &Engine{
		store:  st,
		cfg:    cfg,
		logger: logger.With().Str("component", "reservation").Logger(),
		now:    time.Now,
	}
}

// CheckAvailability reports whether partySize guests fit at the restaurant on
// the given date and time.
func (e *Engine) CheckAvailability(restaurantID, date, clock string, partySize int) (Availability, error) {
	if partySize <= 0 {
		return Availability{}, ErrInvalidParty
	}

	r, ok := e.store.GetRestaurant(restaurantID)
	if !ok {
		return Availability{}, fmt.Errorf("restaurant %s: %w", restaurantID, store.ErrUnknownRestaurant)
	}

	requested, err := parseClock(clock)
	if err != nil {
		return Availability{}, err
	}
	day, err := weekday(date)
	if err != nil {
		return Availability{}, err
	}

	// Operating hours come first: a closed slot must never masquerade as
	// fully booked.
	if !e.withinHours(r, day, requested) {
		return Availability{Available: false, RemainingCapacity: 0, Reason: "closed"}, nil
	}

	remaining := r.SeatingCapacity - e.reservedOverlapping(restaurantID, date, requested)
	if remaining < 0 {
		remaining = 0
	}

	avail := Availability{
		Available:         remaining >= partySize,
		RemainingCapacity: remaining,
	}
	if !avail.Available {
		avail.Reason = "capacity"
	}
	return avail, nil
}

// reservedOverlapping sums confirmed party sizes whose clock time falls
// within one bucket width of the requested time on the same date.
func (e *Engine) reservedOverlapping(restaurantID, date string, requested int) int {
	total := 0
	for _, res := range e.store.ListReservationsFor(restaurantID, date) {
		if res.Status != store.StatusConfirmed {
			continue
		}
		existing, err := parseClock(res.Time)
		if err != nil {
			continue
		}
		if abs(existing-requested) < e.cfg.BucketMinutes {
			total += res.PartySize
		}
	}
	return total
}

func (e *Engine) withinHours(r store.Restaurant, day string, requested int) bool {
	window, ok := r.OperatingHours[day]
	if !ok {
		return false
	}
	open, err := parseClock(window.Open)
	if err != nil {
		return false
	}
	close, err := parseClock(window.Close)
	if err != nil {
		return false
	}
	return requested >= open && requested < close
}

// SuggestAlternates proposes up to max slots near the requested time that
// each independently pass CheckAvailability. Nearest slots come first;
// equidistant pairs list the earlier time first. If nothing in the same-day
// window fits, the next day at the same time is considered.
func (e *Engine) SuggestAlternates(restaurantID, date, clock string, partySize, max int) ([]Slot, error) {
	if max <= 0 {
		max = e.cfg.MaxAlternates
	}
	if partySize <= 0 {
		return nil, ErrInvalidParty
	}
	if _, ok := e.store.GetRestaurant(restaurantID); !ok {
		return nil, fmt.Errorf("restaurant %s: %w", restaurantID, store.ErrUnknownRestaurant)
	}

	requested, err := parseClock(clock)
	if err != nil {
		return nil, err
	}

	candidates := []Slot{}
	for dist := e.cfg.AlternateStepMinutes; dist <= e.cfg.AlternateWindowMinutes; dist += e.cfg.AlternateStepMinutes {
		for _, minutes := range []int{requested - dist, requested + dist} {
			if minutes < 0 || minutes >= 24*60 {
				continue
			}
			candidates = append(candidates, Slot{Date: date, Time: formatClock(minutes)})
		}
	}
	if next, err := nextDay(date); err == nil {
		candidates = append(candidates, Slot{Date: next, Time: clock})
	}

	suggestions := []Slot{}
	for _, slot := range candidates {
		avail, err := e.CheckAvailability(restaurantID, slot.Date, slot.Time, partySize)
		if err != nil {
			continue
		}
		if avail.Available {
			suggestions = append(suggestions, slot)
			if len(suggestions) >= max {
				break
			}
		}
	}
	return suggestions, nil
}

// Book re-validates availability and creates the reservation as one
// uninterruptible step with respect to other bookings and cancellations.
func (e *Engine) Book(restaurantID, date, clock string, partySize int, customerName string) (store.Reservation, error) {
	if partySize <= 0 {
		return store.Reservation{}, ErrInvalidParty
	}
	if customerName == "" {
		return store.Reservation{}, fmt.Errorf("customer name cannot be empty")
	}

	e.bookMu.Lock()
	defer e.bookMu.Unlock()

	avail, err := e.CheckAvailability(restaurantID, date, clock, partySize)
	if err != nil {
		return store.Reservation{}, err
	}
	if !avail.Available {
		if avail.Reason == "closed" {
			day, _ := weekday(date)
			return store.Reservation{}, &ClosedError{Day: day}
		}
		return store.Reservation{}, &UnavailableError{RemainingCapacity: avail.RemainingCapacity}
	}

	id, err := gonanoid.New()
	if err != nil {
		return store.Reservation{}, fmt.Errorf("generate reservation id: %w", err)
	}

	res := store.Reservation{
		ID:           id,
		RestaurantID: restaurantID,
		Date:         date,
		Time:         clock,
		PartySize:    partySize,
		CustomerName: customerName,
		Status:       store.StatusConfirmed,
		CreatedAt:    e.now(),
	}
	if err := e.store.AddReservation(res); err != nil {
		return store.Reservation{}, fmt.Errorf("commit reservation: %w", err)
	}

	e.logger.Info().
		Str("reservation", res.ID).
		Str("restaurant", restaurantID).
		Str("date", date).
		Str("time", clock).
		Int("party_size", partySize).
		Msg("Reservation booked")

	return res, nil
}

// Cancel transitions a reservation to cancelled, once.
func (e *Engine) Cancel(reservationID string) (Confirmation, error) {
	e.bookMu.Lock()
	defer e.bookMu.Unlock()

	res, ok := e.store.GetReservation(reservationID)
	if !ok {
		return Confirmation{}, fmt.Errorf("reservation %s: %w", reservationID, store.ErrNotFound)
	}
	if res.Status == store.StatusCancelled {
		return Confirmation{}, fmt.Errorf("reservation %s: %w", reservationID, ErrAlreadyCancelled)
	}

	if err := e.store.SetReservationStatus(reservationID, store.StatusCancelled); err != nil {
		return Confirmation{}, fmt.Errorf("cancel reservation: %w", err)
	}

	name := ""
	if r, ok := e.store.GetRestaurant(res.RestaurantID); ok {
		name = r.Name
	}

	e.logger.Info().
		Str("reservation", reservationID).
		Str("restaurant", res.RestaurantID).
		Msg("Reservation cancelled")

	return Confirmation{
		ReservationID:  reservationID,
		RestaurantID:   res.RestaurantID,
		RestaurantName: name,
		Date:           res.Date,
		Time:           res.Time,
		PartySize:      res.PartySize,
		CancelledAt:    e.now(),
	}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
