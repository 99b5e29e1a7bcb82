// Command seed fills the directory with randomized demo data: a few
// cities with jittered building coordinates, organizations with phone
// numbers, and a three-level activity taxonomy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/adapters/postgres"
	"github.com/Andreo9078/orgdirectory/internal/core/domain"
	"github.com/Andreo9078/orgdirectory/internal/pkg/config"
	"github.com/Andreo9078/orgdirectory/internal/pkg/logging"
)

type city struct {
	name string
	lat  float64
	lon  float64
}

var cities = []city{
	{"Moscow", 55.7558, 37.6173},
	{"Saint Petersburg", 59.9343, 30.3351},
	{"Novosibirsk", 55.0084, 82.9357},
	{"Kazan", 55.7963, 49.1088},
}

var streets = []string{
	"Lenina", "Tverskaya", "Nevsky", "Bauman", "Krasny Prospekt",
	"Pushkina", "Gagarina", "Mira",
}

var orgNames = []string{
	"Bakery", "Butcher Shop", "Dairy Shop", "Pharmacy", "Garage",
	"Auto Parts", "Flower Stand", "Book Store", "Coffee House",
	"Pet Clinic",
}

// taxonomy is name -> children, three levels deep.
var taxonomy = map[string]map[string][]string{
	"Food": {
		"Meat":  {"Steaks", "Sausages"},
		"Dairy": {"Milk", "Cheese"},
	},
	"Cars": {
		"Parts":   {"Tires", "Batteries"},
		"Service": {"Wash", "Repair"},
	},
	"Health": {
		"Pharmacies": nil,
		"Clinics":    nil,
	},
}

func main() {
	clear := flag.Bool("clear", false, "truncate directory tables before seeding")
	buildingsPerCity := flag.Int("buildings", 5, "buildings per city")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if *clear {
		_, err := db.Pool.Exec(ctx, `
			TRUNCATE organization_activity, phone, organization, activity, building
		`)
		if err != nil {
			log.Fatalf("truncate: %v", err)
		}
		slog.Info("directory tables truncated")
	}

	rng := rand.New(rand.NewSource(*seed))
	activityRepo := postgres.NewActivityRepo(db)
	orgRepo := postgres.NewOrganizationRepo(db)

	roots, leaves := buildTaxonomy()
	for _, root := range roots {
		if err := activityRepo.Create(ctx, root); err != nil {
			log.Fatalf("seed activity %s: %v", root.Name, err)
		}
	}
	slog.Info("activity taxonomy created", "roots", len(roots), "leaves", len(leaves))

	total := 0
	for _, c := range cities {
		for i := 0; i < *buildingsPerCity; i++ {
			b := &domain.Building{
				ID:   uuid.New(),
				Name: fmt.Sprintf("%s, %s %d", c.name, streets[rng.Intn(len(streets))], 1+rng.Intn(99)),
				Location: domain.GeoPoint{
					// Jitter of roughly +-2km around the city center.
					Latitude:  c.lat + (rng.Float64()-0.5)*0.04,
					Longitude: c.lon + (rng.Float64()-0.5)*0.04,
				},
			}

			for j := 0; j <= rng.Intn(3); j++ {
				org := &domain.Organization{
					ID:   uuid.New(),
					Name: fmt.Sprintf("%s (%s)", orgNames[rng.Intn(len(orgNames))], c.name),
				}
				for k := 0; k <= rng.Intn(2); k++ {
					org.AddPhone(domain.Phone{Number: randomPhone(rng)})
				}
				org.AddActivity(leaves[rng.Intn(len(leaves))])
				b.AddOrganization(org)
			}

			for _, org := range b.Organizations {
				if err := orgRepo.Create(ctx, org); err != nil {
					log.Fatalf("seed organization %s: %v", org.Name, err)
				}
				total++
			}
		}
	}

	slog.Info("seeding finished", "cities", len(cities), "organizations", total)
}

// buildTaxonomy constructs the activity trees and returns the roots
// plus every node usable as an organization link target.
func buildTaxonomy() (roots, all []*domain.Activity) {
	for rootName, children := range taxonomy {
		root := &domain.Activity{ID: uuid.New(), Name: rootName, Depth: 1}
		all = append(all, root)
		for childName, grandchildren := range children {
			child := &domain.Activity{ID: uuid.New(), Name: childName}
			if err := root.AddChild(child); err != nil {
				log.Fatalf("taxonomy: %v", err)
			}
			all = append(all, child)
			for _, leafName := range grandchildren {
				leaf := &domain.Activity{ID: uuid.New(), Name: leafName}
				if err := child.AddChild(leaf); err != nil {
					log.Fatalf("taxonomy: %v", err)
				}
				all = append(all, leaf)
			}
		}
		roots = append(roots, root)
	}
	return roots, all
}

func randomPhone(rng *rand.Rand) string {
	return fmt.Sprintf("8-9%02d-%03d-%02d-%02d",
		rng.Intn(100), rng.Intn(1000), rng.Intn(100), rng.Intn(100))
}
