// Package usecases holds the application services sitting between the
// HTTP handlers and the repository ports. Services validate and clamp
// inputs, drain the repositories' lazy streams into slices, and pass
// domain errors through untouched.
package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
	"github.com/Andreo9078/orgdirectory/internal/core/ports"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// clampPage normalizes offset/limit to the public pagination window.
func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}

func collectOrgs(seq ports.OrgSeq) ([]*domain.Organization, error) {
	var out []*domain.Organization
	for org, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, nil
}

// OrganizationService handles organization lookup and search logic.
type OrganizationService struct {
	orgs ports.OrganizationRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgs ports.OrganizationRepository) *OrganizationService {
	return &OrganizationService{orgs: orgs}
}

// Get returns a single organization with its full relation graph, or
// (nil, nil) when no organization has the id.
func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	return s.orgs.Get(ctx, id)
}

// List returns organizations matching the filter, paginated.
func (s *OrganizationService) List(ctx context.Context, f ports.OrgFilter) ([]*domain.Organization, error) {
	f.Offset, f.Limit = clampPage(f.Offset, f.Limit)
	return collectOrgs(s.orgs.GetAll(ctx, f))
}

// ListInRadius returns organizations whose building lies within
// radiusMeters geodesic distance of center.
func (s *OrganizationService) ListInRadius(ctx context.Context, center domain.GeoPoint, radiusMeters float64, f ports.OrgFilter) ([]*domain.Organization, error) {
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %f", radiusMeters)
	}
	f.Offset, f.Limit = clampPage(f.Offset, f.Limit)
	return collectOrgs(s.orgs.GetAllInRadius(ctx, center, radiusMeters, f))
}

// ListInBBox returns organizations whose building falls inside the box.
func (s *OrganizationService) ListInBBox(ctx context.Context, box domain.Bounds, f ports.OrgFilter) ([]*domain.Organization, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("south-west corner must not exceed north-east corner")
	}
	f.Offset, f.Limit = clampPage(f.Offset, f.Limit)
	return collectOrgs(s.orgs.GetAllInBBox(ctx, box, f))
}

// ListByActivitySubtree returns organizations linked to the root
// activity or any of its descendants.
func (s *OrganizationService) ListByActivitySubtree(ctx context.Context, rootID uuid.UUID, f ports.OrgFilter) ([]*domain.Organization, error) {
	f.Offset, f.Limit = clampPage(f.Offset, f.Limit)
	return collectOrgs(s.orgs.GetAllByActivitySubtree(ctx, rootID, f))
}

// Create persists a new organization with its relations.
func (s *OrganizationService) Create(ctx context.Context, org *domain.Organization) error {
	if org.Name == "" {
		return fmt.Errorf("organization name must not be empty")
	}
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	return s.orgs.Create(ctx, org)
}

// Update replaces an existing organization's fields and relations.
func (s *OrganizationService) Update(ctx context.Context, org *domain.Organization) error {
	if org.Name == "" {
		return fmt.Errorf("organization name must not be empty")
	}
	return s.orgs.Update(ctx, org)
}

// Delete removes an organization.
func (s *OrganizationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.orgs.Delete(ctx, id)
}
