package reservation

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta-soham/goodfoods/pkg/store"
)

// 2026-09-07 is a Monday, 2026-09-12 a Saturday.
const (
	testMonday   = "2026-09-07"
	testSaturday = "2026-09-12"
)

func newTestEngine(t *testing.T, capacity int) (*Engine, *store.Store) {
	t.Helper()

	s := store.New()
	require.NoError(t, s.AddRestaurant(store.Restaurant{
		ID:              "rest_001",
		Name:            "Spice Villa",
		Cuisine:         "North Indian",
		Location:        "Indiranagar",
		SeatingCapacity: capacity,
		OperatingHours: map[string]store.OperatingWindow{
			"monday":   {Open: "11:00", Close: "22:00"},
			"saturday": {Open: "10:00", Close: "23:00"},
		},
		PriceRange: "$$",
		Rating:     4.5,
	}))

	return New(s, DefaultConfig(), zerolog.Nop()), s
}

func TestCheckAvailability(t *testing.T) {
	t.Run("open slot with free capacity", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		avail, err := e.CheckAvailability("rest_001", testMonday, "19:00", 4)
		require.NoError(t, err)
		assert.True(t, avail.Available)
		assert.Equal(t, 40, avail.RemainingCapacity)
	})

	t.Run("closed day reports closed not capacity", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		// The fixture has no tuesday window.
		avail, err := e.CheckAvailability("rest_001", "2026-09-08", "19:00", 4)
		require.NoError(t, err)
		assert.False(t, avail.Available)
		assert.Equal(t, "closed", avail.Reason)
	})

	t.Run("closed hours win over a full house", func(t *testing.T) {
		e, _ := newTestEngine(t, 4)
		_, err := e.Book("rest_001", testMonday, "21:30", 4, "Priya")
		require.NoError(t, err)

		// 23:00 is past close; the prior booking must not flip the
		// reason to capacity.
		avail, err := e.CheckAvailability("rest_001", testMonday, "23:00", 2)
		require.NoError(t, err)
		assert.Equal(t, "closed", avail.Reason)
	})

	t.Run("overlapping bookings share the bucket", func(t *testing.T) {
		e, _ := newTestEngine(t, 4)
		_, err := e.Book("rest_001", testMonday, "19:00", 4, "Priya")
		require.NoError(t, err)

		// 19:15 is within a 90-minute turn of 19:00.
		avail, err := e.CheckAvailability("rest_001", testMonday, "19:15", 2)
		require.NoError(t, err)
		assert.False(t, avail.Available)
		assert.Equal(t, "capacity", avail.Reason)
		assert.Equal(t, 0, avail.RemainingCapacity)
	})

	t.Run("bookings a full bucket apart do not contend", func(t *testing.T) {
		e, _ := newTestEngine(t, 4)
		_, err := e.Book("rest_001", testMonday, "18:00", 4, "Priya")
		require.NoError(t, err)

		avail, err := e.CheckAvailability("rest_001", testMonday, "19:30", 4)
		require.NoError(t, err)
		assert.True(t, avail.Available)
	})

	t.Run("cancelled reservations free their seats", func(t *testing.T) {
		e, _ := newTestEngine(t, 4)
		res, err := e.Book("rest_001", testMonday, "19:00", 4, "Priya")
		require.NoError(t, err)

		_, err = e.Cancel(res.ID)
		require.NoError(t, err)

		avail, err := e.CheckAvailability("rest_001", testMonday, "19:00", 4)
		require.NoError(t, err)
		assert.True(t, avail.Available)
	})

	t.Run("different dates never contend", func(t *testing.T) {
		e, _ := newTestEngine(t, 4)
		_, err := e.Book("rest_001", testMonday, "19:00", 4, "Priya")
		require.NoError(t, err)

		avail, err := e.CheckAvailability("rest_001", testSaturday, "19:00", 4)
		require.NoError(t, err)
		assert.True(t, avail.Available)
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		_, err := e.CheckAvailability("rest_999", testMonday, "19:00", 4)
		assert.ErrorIs(t, err, store.ErrUnknownRestaurant)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		_, err := e.CheckAvailability("rest_001", testMonday, "19:00", 0)
		assert.ErrorIs(t, err, ErrInvalidParty)

		_, err = e.CheckAvailability("rest_001", "09-07-2026", "19:00", 2)
		assert.ErrorIs(t, err, ErrInvalidSlot)

		_, err = e.CheckAvailability("rest_001", testMonday, "7pm", 2)
		assert.ErrorIs(t, err, ErrInvalidSlot)
	})
}

func TestBook(t *testing.T) {
	t.Run("returns a confirmed reservation", func(t *testing.T) {
		e, s := newTestEngine(t, 40)

		res, err := e.Book("rest_001", testMonday, "19:00", 4, "Priya")
		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, store.StatusConfirmed, res.Status)

		stored, ok := s.GetReservation(res.ID)
		require.True(t, ok)
		assert.Equal(t, "Priya", stored.CustomerName)
	})

	t.Run("full bucket returns remaining capacity", func(t *testing.T) {
		e, _ := newTestEngine(t, 4)
		_, err := e.Book("rest_001", testMonday, "19:00", 3, "Priya")
		require.NoError(t, err)

		_, err = e.Book("rest_001", testMonday, "19:30", 2, "Arjun")
		var unavailable *UnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, 1, unavailable.RemainingCapacity)
	})

	t.Run("closed slot returns ClosedError", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		_, err := e.Book("rest_001", testMonday, "23:30", 2, "Priya")
		var closed *ClosedError
		require.ErrorAs(t, err, &closed)
		assert.Equal(t, "monday", closed.Day)
	})

	t.Run("rejects empty customer name", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		_, err := e.Book("rest_001", testMonday, "19:00", 2, "")
		assert.Error(t, err)
	})

	t.Run("concurrent bookings never oversell", func(t *testing.T) {
		e, s := newTestEngine(t, 4)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = e.Book("rest_001", testMonday, "19:00", 3, "Guest")
			}()
		}
		wg.Wait()

		total := 0
		for _, res := range s.ListReservationsFor("rest_001", testMonday) {
			total += res.PartySize
		}
		assert.LessOrEqual(t, total, 4)
		assert.Equal(t, 3, total, "exactly one party of three should fit")
	})
}

func TestCancel(t *testing.T) {
	t.Run("returns a confirmation", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)
		res, err := e.Book("rest_001", testMonday, "19:00", 4, "Priya")
		require.NoError(t, err)

		conf, err := e.Cancel(res.ID)
		require.NoError(t, err)
		assert.Equal(t, res.ID, conf.ReservationID)
		assert.Equal(t, "Spice Villa", conf.RestaurantName)
		assert.Equal(t, testMonday, conf.Date)
		assert.Equal(t, 4, conf.PartySize)
	})

	t.Run("unknown id", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		_, err := e.Cancel("missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("double cancel", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)
		res, err := e.Book("rest_001", testMonday, "19:00", 4, "Priya")
		require.NoError(t, err)

		_, err = e.Cancel(res.ID)
		require.NoError(t, err)

		_, err = e.Cancel(res.ID)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})
}

func TestSuggestAlternates(t *testing.T) {
	t.Run("nearest open slots first", func(t *testing.T) {
		e, _ := newTestEngine(t, 4)
		_, err := e.Book("rest_001", testMonday, "19:00", 4, "Priya")
		require.NoError(t, err)

		// 19:00 and everything within 90 minutes of it is full, so the
		// scan has to go out to the edges of the window.
		got, err := e.SuggestAlternates("rest_001", testMonday, "19:00", 4, 3)
		require.NoError(t, err)
		for _, slot := range got {
			avail, err := e.CheckAvailability("rest_001", slot.Date, slot.Time, 4)
			require.NoError(t, err)
			assert.True(t, avail.Available, "suggested slot %v must be bookable", slot)
		}
	})

	t.Run("earlier side wins at equal distance", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		got, err := e.SuggestAlternates("rest_001", testMonday, "19:00", 2, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, Slot{Date: testMonday, Time: "18:30"}, got[0])
		assert.Equal(t, Slot{Date: testMonday, Time: "19:30"}, got[1])
		assert.Equal(t, Slot{Date: testMonday, Time: "18:00"}, got[2])
	})

	t.Run("skips closed slots", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		// 22:00 is past close on Monday; only earlier offsets qualify.
		got, err := e.SuggestAlternates("rest_001", testMonday, "21:45", 2, 3)
		require.NoError(t, err)
		for _, slot := range got {
			if slot.Date != testMonday {
				continue
			}
			avail, err := e.CheckAvailability("rest_001", slot.Date, slot.Time, 2)
			require.NoError(t, err)
			assert.True(t, avail.Available)
		}
	})

	t.Run("falls back to the next day", func(t *testing.T) {
		s := store.New()
		require.NoError(t, s.AddRestaurant(store.Restaurant{
			ID:              "rest_001",
			Name:            "Spice Villa",
			SeatingCapacity: 4,
			OperatingHours: map[string]store.OperatingWindow{
				"monday":  {Open: "11:00", Close: "22:00"},
				"tuesday": {Open: "11:00", Close: "22:00"},
			},
		}))
		e := New(s, DefaultConfig(), zerolog.Nop())

		// Saturation: the whole Monday window around 19:00 is taken.
		for _, clock := range []string{"17:30", "19:00", "20:30"} {
			_, err := e.Book("rest_001", testMonday, clock, 4, "Priya")
			require.NoError(t, err)
		}

		got, err := e.SuggestAlternates("rest_001", testMonday, "19:00", 4, 3)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, Slot{Date: "2026-09-08", Time: "19:00"}, got[0])
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		e, _ := newTestEngine(t, 4)
		for _, clock := range []string{"11:00", "12:30", "14:00", "15:30", "17:00", "18:30", "20:00", "21:30"} {
			_, err := e.Book("rest_001", testMonday, clock, 4, "Guest")
			require.NoError(t, err)
		}

		got, err := e.SuggestAlternates("rest_001", testMonday, "19:00", 4, 3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		e, _ := newTestEngine(t, 40)

		_, err := e.SuggestAlternates("rest_999", testMonday, "19:00", 2, 3)
		assert.ErrorIs(t, err, store.ErrUnknownRestaurant)
	})
}

func TestClockHelpers(t *testing.T) {
	t.Run("parse and format round trip", func(t *testing.T) {
		minutes, err := parseClock("19:15")
		require.NoError(t, err)
		assert.Equal(t, 19*60+15, minutes)
		assert.Equal(t, "19:15", formatClock(minutes))
	})

	t.Run("weekday", func(t *testing.T) {
		day, err := weekday(testMonday)
		require.NoError(t, err)
		assert.Equal(t, "monday", day)

		day, err = weekday(testSaturday)
		require.NoError(t, err)
		assert.Equal(t, "saturday", day)
	})

	t.Run("next day crosses month boundary", func(t *testing.T) {
		next, err := nextDay("2026-09-30")
		require.NoError(t, err)
		assert.Equal(t, "2026-10-01", next)
	})
}
