package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gupta-soham/goodfoods/pkg/reservation"
	"github.com/gupta-soham/goodfoods/pkg/store"
)

// stringParam extracts an optional string argument.
func stringParam(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// intParam extracts an integer argument. JSON numbers arrive as float64.
func intParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func floatParam(params map[string]interface{}, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// restaurantSummary is the wire shape for catalog entries.
type restaurantSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Cuisine         string  `json:"cuisine"`
	Location        string  `json:"location"`
	SeatingCapacity int     `json:"seating_capacity"`
	PriceRange      string  `json:"price_range"`
	Rating          float64 `json:"rating"`
}

func summarize(r store.Restaurant) restaurantSummary {
	return restaurantSummary{
		ID:              r.ID,
		Name:            r.Name,
		Cuisine:         r.Cuisine,
		Location:        r.Location,
		SeatingCapacity: r.SeatingCapacity,
		PriceRange:      r.PriceRange,
		Rating:          r.Rating,
	}
}

func renderSummaries(rs []restaurantSummary) string {
	if len(rs) == 0 {
		return "No restaurants matched."
	}
	var b strings.Builder
	for _, r := range rs {
		fmt.Fprintf(&b, "%s (%s): %s cuisine in %s, seats %d, %s, rated %.1f\n",
			r.Name, r.ID, r.Cuisine, r.Location, r.SeatingCapacity, r.PriceRange, r.Rating)
	}
	return strings.TrimRight(b.String(), "\n")
}

// handleSearchRestaurants filters the catalog by cuisine, location and party
// size; when a date and time are also supplied, only restaurants with an
// open slot for the party are returned.
func (s *Server) handleSearchRestaurants(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	filter := store.RestaurantFilter{
		Cuisine:  stringParam(params, "cuisine"),
		Location: stringParam(params, "location"),
	}
	partySize, hasParty := intParam(params, "party_size")
	if hasParty {
		filter.MinCapacity = partySize
	}

	date := stringParam(params, "date")
	clock := stringParam(params, "time")

	matches := s.store.ListRestaurants(filter)

	if date != "" && clock != "" {
		// Without an explicit party size the availability pass still runs,
		// checking for a single seat.
		checkParty := partySize
		if !hasParty || checkParty < 1 {
			checkParty = 1
		}
		open := matches[:0]
		for _, r := range matches {
			avail, err := s.engine.CheckAvailability(r.ID, date, clock, checkParty)
			if errors.Is(err, reservation.ErrInvalidSlot) {
				return FailureResult(FailInvalidSlot, err.Error()), nil
			}
			if err != nil {
				return nil, err
			}
			if avail.Available {
				open = append(open, r)
			}
		}
		matches = open
	}

	summaries := make([]restaurantSummary, 0, len(matches))
	for _, r := range matches {
		summaries = append(summaries, summarize(r))
	}

	return TextResult(renderSummaries(summaries), summaries), nil
}

// handleGetAvailability answers a single-slot capacity query, attaching
// alternate slots when the requested one does not work.
func (s *Server) handleGetAvailability(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	restaurantID := stringParam(params, "restaurant_id")
	date := stringParam(params, "date")
	clock := stringParam(params, "time")
	partySize, _ := intParam(params, "party_size")

	avail, err := s.engine.CheckAvailability(restaurantID, date, clock, partySize)
	switch {
	case errors.Is(err, store.ErrUnknownRestaurant):
		return FailureResult(FailUnknownRestaurant, fmt.Sprintf("no restaurant with id %s", restaurantID)), nil
	case errors.Is(err, reservation.ErrInvalidParty):
		return FailureResult(FailInvalidParty, "party size must be at least 1"), nil
	case errors.Is(err, reservation.ErrInvalidSlot):
		return FailureResult(FailInvalidSlot, err.Error()), nil
	case err != nil:
		return nil, err
	}

	type availabilityPayload struct {
		reservation.Availability
		Alternates []reservation.Slot `json:"alternates,omitempty"`
	}
	payload := availabilityPayload{Availability: avail}

	if avail.Available {
		text := fmt.Sprintf("Available: %d seats free at %s on %s.", avail.RemainingCapacity, clock, date)
		return TextResult(text, payload), nil
	}

	alternates, err := s.engine.SuggestAlternates(restaurantID, date, clock, partySize, 0)
	if err != nil {
		return nil, err
	}
	payload.Alternates = alternates

	var text string
	if avail.Reason == "closed" {
		text = fmt.Sprintf("The restaurant is closed at %s on %s.", clock, date)
	} else {
		text = fmt.Sprintf("Not available: only %d seats free around %s on %s.", avail.RemainingCapacity, clock, date)
	}
	if len(alternates) > 0 {
		parts := make([]string, 0, len(alternates))
		for _, slot := range alternates {
			parts = append(parts, fmt.Sprintf("%s %s", slot.Date, slot.Time))
		}
		text += " Alternatives: " + strings.Join(parts, ", ") + "."
	} else {
		text += " No alternative slots found nearby."
	}

	return TextResult(text, payload), nil
}

// handleMakeReservation books a slot, mapping each engine outcome onto a
// domain failure code the conversation layer can react to.
func (s *Server) handleMakeReservation(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	restaurantID := stringParam(params, "restaurant_id")
	date := stringParam(params, "date")
	clock := stringParam(params, "time")
	partySize, _ := intParam(params, "party_size")
	customerName := stringParam(params, "customer_name")

	res, err := s.engine.Book(restaurantID, date, clock, partySize, customerName)
	if err != nil {
		var unavailable *reservation.UnavailableError
		var closed *reservation.ClosedError
		switch {
		case errors.Is(err, store.ErrUnknownRestaurant):
			return FailureResult(FailUnknownRestaurant, fmt.Sprintf("no restaurant with id %s", restaurantID)), nil
		case errors.Is(err, reservation.ErrInvalidParty):
			return FailureResult(FailInvalidParty, "party size must be at least 1"), nil
		case errors.Is(err, reservation.ErrInvalidSlot):
			return FailureResult(FailInvalidSlot, err.Error()), nil
		case errors.As(err, &unavailable):
			result := FailureResult(FailUnavailable,
				fmt.Sprintf("slot is full, only %d seats remain around %s on %s", unavailable.RemainingCapacity, clock, date))
			result.Failure.RemainingCapacity = &unavailable.RemainingCapacity
			return result, nil
		case errors.As(err, &closed):
			return FailureResult(FailClosed, fmt.Sprintf("the restaurant is closed at %s on %s", clock, date)), nil
		default:
			return nil, err
		}
	}

	name := restaurantID
	if r, ok := s.store.GetRestaurant(restaurantID); ok {
		name = r.Name
	}

	text := fmt.Sprintf("Reservation confirmed at %s for %d on %s at %s. Confirmation id: %s.",
		name, res.PartySize, res.Date, res.Time, res.ID)
	return TextResult(text, res), nil
}

// handleCancelReservation cancels by confirmation id.
func (s *Server) handleCancelReservation(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	reservationID := stringParam(params, "reservation_id")

	conf, err := s.engine.Cancel(reservationID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return FailureResult(FailNotFound, fmt.Sprintf("no reservation with id %s", reservationID)), nil
	case errors.Is(err, reservation.ErrAlreadyCancelled):
		return FailureResult(FailAlreadyCancelled, fmt.Sprintf("reservation %s was already cancelled", reservationID)), nil
	case err != nil:
		return nil, err
	}

	text := fmt.Sprintf("Cancelled reservation %s at %s (%s %s, party of %d).",
		conf.ReservationID, conf.RestaurantName, conf.Date, conf.Time, conf.PartySize)
	return TextResult(text, conf), nil
}

// priceOrdinal ranks price tiers cheapest first. Unknown tiers sort last.
func priceOrdinal(priceRange string) int {
	switch priceRange {
	case "$":
		return 0
	case "$$":
		return 1
	case "$$$":
		return 2
	case "$$$$":
		return 3
	default:
		return 4
	}
}

// handleGetRecommendations ranks the catalog against a preference object:
// rating descending, then cheaper price tier.
func (s *Server) handleGetRecommendations(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	prefs, _ := params["preferences"].(map[string]interface{})
	if prefs == nil {
		prefs = map[string]interface{}{}
	}

	filter := store.RestaurantFilter{
		Cuisine:  stringParam(prefs, "cuisine"),
		Location: stringParam(prefs, "location"),
	}
	priceRange := stringParam(prefs, "price_range")
	minRating, hasMinRating := floatParam(prefs, "min_rating")

	matches := []store.Restaurant{}
	for _, r := range s.store.ListRestaurants(filter) {
		if priceRange != "" && r.PriceRange != priceRange {
			continue
		}
		if hasMinRating && r.Rating < minRating {
			continue
		}
		matches = append(matches, r)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Rating != matches[j].Rating {
			return matches[i].Rating > matches[j].Rating
		}
		return priceOrdinal(matches[i].PriceRange) < priceOrdinal(matches[j].PriceRange)
	})

	if len(matches) > maxRecommendations {
		matches = matches[:maxRecommendations]
	}

	summaries := make([]restaurantSummary, 0, len(matches))
	for _, r := range matches {
		summaries = append(summaries, summarize(r))
	}

	return TextResult(renderSummaries(summaries), summaries), nil
}

const maxRecommendations = 10

func (s *Server) registerTools() error {
	defs := []ToolDefinition{
		{
			Name:        "search_restaurants",
			Description: "Search restaurants by cuisine, location and party size, optionally filtered to ones with an open slot at a given date and time.",
			Parameters: []ToolParameter{
				{Name: "cuisine", Type: "string", Description: "Cuisine to match, case-insensitive substring"},
				{Name: "location", Type: "string", Description: "Neighbourhood to match, case-insensitive substring"},
				{Name: "party_size", Type: "integer", Description: "Number of guests"},
				{Name: "date", Type: "string", Description: "Reservation date, YYYY-MM-DD"},
				{Name: "time", Type: "string", Description: "Reservation time, HH:MM 24-hour"},
			},
			Handler: s.handleSearchRestaurants,
		},
		{
			Name:        "get_availability",
			Description: "Check whether a party fits at a restaurant on a given date and time; suggests alternate slots when it does not.",
			Parameters: []ToolParameter{
				{Name: "restaurant_id", Type: "string", Description: "Restaurant id, e.g. rest_001", Required: true},
				{Name: "date", Type: "string", Description: "Reservation date, YYYY-MM-DD", Required: true},
				{Name: "time", Type: "string", Description: "Reservation time, HH:MM 24-hour", Required: true},
				{Name: "party_size", Type: "integer", Description: "Number of guests", Required: true},
			},
			Handler: s.handleGetAvailability,
		},
		{
			Name:        "make_reservation",
			Description: "Book a table. Re-validates availability before committing.",
			Parameters: []ToolParameter{
				{Name: "restaurant_id", Type: "string", Description: "Restaurant id, e.g. rest_001", Required: true},
				{Name: "date", Type: "string", Description: "Reservation date, YYYY-MM-DD", Required: true},
				{Name: "time", Type: "string", Description: "Reservation time, HH:MM 24-hour", Required: true},
				{Name: "party_size", Type: "integer", Description: "Number of guests", Required: true},
				{Name: "customer_name", Type: "string", Description: "Name the booking is held under", Required: true},
			},
			Handler: s.handleMakeReservation,
		},
		{
			Name:        "cancel_reservation",
			Description: "Cancel an existing reservation by its confirmation id.",
			Parameters: []ToolParameter{
				{Name: "reservation_id", Type: "string", Description: "Confirmation id returned by make_reservation", Required: true},
			},
			Handler: s.handleCancelReservation,
		},
		{
			Name:        "get_recommendations",
			Description: "Recommend restaurants matching preference fields, best rated first, cheaper tiers breaking ties.",
			Parameters: []ToolParameter{
				{Name: "preferences", Type: "object", Description: "Optional fields: cuisine, location, price_range ($..$$$$), min_rating"},
			},
			Handler: s.handleGetRecommendations,
		},
	}

	for _, def := range defs {
		if err := s.registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
