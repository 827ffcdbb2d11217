package store

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"
)

// SeedConfig controls the deterministic seed generator.
type SeedConfig struct {
	// PerCuisine is the number of restaurants generated for each cuisine.
	PerCuisine int
	// Seed fixes the PRNG so repeated runs produce the same catalog.
	Seed int64
}

// DefaultSeedConfig matches the demo catalog: 80 restaurants, 8 per cuisine.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{PerCuisine: 8, Seed: 1}
}

var seedCuisines = []string{
	"Italian", "Chinese", "Japanese", "Mexican", "Indian",
	"French", "American", "Thai", "Mediterranean", "Korean",
}

var seedLocations = []string{
	"Downtown", "Midtown", "Uptown", "Westside", "Eastside", "Waterfront",
}

var seedNameParts = map[string][]string{
	"Italian":       {"Bella", "Trattoria", "Osteria", "Ristorante", "La", "Il"},
	"Chinese":       {"Golden", "Dragon", "Jade", "Lotus", "Imperial", "Dynasty"},
	"Japanese":      {"Sakura", "Zen", "Koi", "Hana", "Yuki", "Sushi"},
	"Mexican":       {"El", "La", "Casa", "Cantina", "Taqueria", "Fiesta"},
	"Indian":        {"Taj", "Spice", "Curry", "Masala", "Palace", "Garden"},
	"French":        {"Le", "La", "Bistro", "Brasserie", "Chez", "Maison"},
	"American":      {"The", "Grill", "Tavern", "House", "Kitchen", "Diner"},
	"Thai":          {"Thai", "Siam", "Bangkok", "Orchid", "Basil", "Lemongrass"},
	"Mediterranean": {"Olive", "Aegean", "Cyprus", "Santorini", "Azure", "Coast"},
	"Korean":        {"Seoul", "Kimchi", "BBQ", "Gangnam", "Han", "Arirang"},
}

var seedRomanceSuffixes = []string{"Rosa", "Bella", "Verde", "Luna", "Sol", "Mar"}
var seedPlainSuffixes = []string{"House", "Kitchen", "Restaurant", "Bistro", "Cafe"}
var seedStreets = []string{"Main St", "Oak Ave", "Maple Dr", "Park Blvd", "River Rd", "Lake St"}
var seedCapacities = []int{20, 30, 40, 50, 60, 75, 80, 100, 120, 150, 180, 200}
var seedPriceRanges = []string{"$", "$$", "$$$", "$$$$"}
var seedFeatureTags = []string{"outdoor seating", "private dining", "full bar", "live music", "vegan options"}

// GenerateRestaurants builds a varied, deterministic restaurant catalog.
func GenerateRestaurants(cfg SeedConfig) []Restaurant {
	if cfg.PerCuisine <= 0 {
		cfg.PerCuisine = DefaultSeedConfig().PerCuisine
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	restaurants := make([]Restaurant, 0, len(seedCuisines)*cfg.PerCuisine)
	nextID := 1

	for _, cuisine := range seedCuisines {
		for i := 0; i < cfg.PerCuisine; i++ {
			parts := seedNameParts[cuisine]
			first := parts[rng.Intn(len(parts))]
			second := parts[rng.Intn(len(parts))]
			for second == first {
				second = parts[rng.Intn(len(parts))]
			}
			name := first + " " + second
			switch cuisine {
			case "Italian", "French", "Mexican":
				name += " " + seedRomanceSuffixes[rng.Intn(len(seedRomanceSuffixes))]
			default:
				name += " " + seedPlainSuffixes[rng.Intn(len(seedPlainSuffixes))]
			}

			location := seedLocations[rng.Intn(len(seedLocations))]
			address := fmt.Sprintf("%d %s, %s", 100+rng.Intn(9900), seedStreets[rng.Intn(len(seedStreets))], location)

			hours := map[string]OperatingWindow{
				"monday":    {Open: "11:00", Close: "22:00"},
				"tuesday":   {Open: "11:00", Close: "22:00"},
				"wednesday": {Open: "11:00", Close: "22:00"},
				"thursday":  {Open: "11:00", Close: "22:00"},
				"friday":    {Open: "11:00", Close: "23:00"},
				"saturday":  {Open: "10:00", Close: "23:00"},
				"sunday":    {Open: "10:00", Close: "21:00"},
			}
			// Roughly a third of the catalog opens for dinner only early in
			// the week.
			if rng.Float64() < 0.3 {
				hours["monday"] = OperatingWindow{Open: "17:00", Close: "22:00"}
				hours["tuesday"] = OperatingWindow{Open: "17:00", Close: "22:00"}
			}

			var tags []string
			for _, tag := range seedFeatureTags {
				if rng.Float64() < 0.25 {
					tags = append(tags, tag)
				}
			}

			restaurants = append(restaurants, Restaurant{
				ID:              fmt.Sprintf("rest_%03d", nextID),
				Name:            name,
				Cuisine:         cuisine,
				Location:        location,
				Address:         address,
				SeatingCapacity: seedCapacities[rng.Intn(len(seedCapacities))],
				OperatingHours:  hours,
				PriceRange:      seedPriceRanges[rng.Intn(len(seedPriceRanges))],
				Rating:          float64(35+rng.Intn(16)) / 10, // 3.5 .. 5.0
				Description:     seedDescription(rng, cuisine),
				FeatureTags:     tags,
			})
			nextID++
		}
	}

	return restaurants
}

func seedDescription(rng *rand.Rand, cuisine string) string {
	templates := []string{
		"Authentic %s cuisine with a modern twist.",
		"Family-owned %s restaurant serving traditional dishes.",
		"Upscale %s dining experience with seasonal menu.",
		"Casual %s eatery perfect for any occasion.",
		"Award-winning %s restaurant with exceptional service.",
		"Contemporary %s cuisine in a stylish setting.",
		"Cozy %s spot featuring chef's specialties.",
		"Popular %s restaurant known for fresh ingredients.",
	}
	return fmt.Sprintf(templates[rng.Intn(len(templates))], cuisine)
}

// Seed populates the store with the generated catalog.
func Seed(s *Store, cfg SeedConfig) error {
	restaurants := GenerateRestaurants(cfg)
	for _, r := range restaurants {
		if err := s.AddRestaurant(r); err != nil {
			return fmt.Errorf("seed restaurant %s: %w", r.ID, err)
		}
	}

	log.Info().Int("restaurants", len(restaurants)).Msg("Store seeded")
	return nil
}
