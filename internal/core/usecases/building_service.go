package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
	"github.com/Andreo9078/orgdirectory/internal/core/ports"
)

// BuildingService handles building-related business logic.
type BuildingService struct {
	buildings ports.BuildingRepository
}

// NewBuildingService creates a new BuildingService.
func NewBuildingService(buildings ports.BuildingRepository) *BuildingService {
	return &BuildingService{buildings: buildings}
}

// Get returns a single building with its organizations, or (nil, nil)
// when no building has the id.
func (s *BuildingService) Get(ctx context.Context, id uuid.UUID) (*domain.Building, error) {
	return s.buildings.Get(ctx, id)
}

// List returns buildings, paginated.
func (s *BuildingService) List(ctx context.Context, p ports.Page) ([]*domain.Building, error) {
	p.Offset, p.Limit = clampPage(p.Offset, p.Limit)

	var out []*domain.Building
	for b, err := range s.buildings.GetAll(ctx, p) {
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Create persists a new building.
func (s *BuildingService) Create(ctx context.Context, b *domain.Building) error {
	if err := validateBuilding(b); err != nil {
		return err
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return s.buildings.Create(ctx, b)
}

// Update replaces an existing building's fields.
func (s *BuildingService) Update(ctx context.Context, b *domain.Building) error {
	if err := validateBuilding(b); err != nil {
		return err
	}
	return s.buildings.Update(ctx, b)
}

// Delete removes a building and, by cascade, its organizations.
func (s *BuildingService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.buildings.Delete(ctx, id)
}

func validateBuilding(b *domain.Building) error {
	if b.Name == "" {
		return fmt.Errorf("building name must not be empty")
	}
	loc := b.Location
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %f", loc.Latitude)
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %f", loc.Longitude)
	}
	return nil
}
