// Package ports declares the interfaces the core exposes to its
// collaborators: persistence repositories and the response cache.
package ports

import (
	"context"
	"iter"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
)

// OrgSeq is a lazy, single-pass stream of mapped organizations. Each
// element carries either an organization or the error that ended the
// stream. Breaking out of the range releases the underlying row stream.
type OrgSeq = iter.Seq2[*domain.Organization, error]

// BuildingSeq streams mapped buildings.
type BuildingSeq = iter.Seq2[*domain.Building, error]

// ActivitySeq streams mapped activities.
type ActivitySeq = iter.Seq2[*domain.Activity, error]

// OrgFilter enumerates the optional organization query filters.
// Zero values mean "not set"; set fields combine as a conjunction.
// The repository accepts any non-negative offset/limit; clamping to
// the public 1-50 window happens at the HTTP boundary.
type OrgFilter struct {
	Name       string    // case-insensitive substring match
	ActivityID uuid.UUID // direct activity link
	BuildingID uuid.UUID
	Offset     int
	Limit      int // 0 = unlimited
}

// Page is plain offset/limit pagination for secondary listings.
type Page struct {
	Offset int
	Limit  int // 0 = unlimited
}

// OrganizationRepository persists organizations together with the
// relation graph (building, phones, activities) the mapper needs.
//
// Get reports absence as (nil, nil). Create returns
// domain.ErrAlreadyExists for a duplicate id; Update and Delete return
// domain.ErrDoesNotExist for a missing one.
type OrganizationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	GetAll(ctx context.Context, f OrgFilter) OrgSeq

	// GetAllInRadius streams organizations whose building lies within
	// radiusMeters geodesic distance of center.
	GetAllInRadius(ctx context.Context, center domain.GeoPoint, radiusMeters float64, f OrgFilter) OrgSeq

	// GetAllInBBox streams organizations whose building falls inside
	// the axis-aligned box.
	GetAllInBBox(ctx context.Context, box domain.Bounds, f OrgFilter) OrgSeq

	// GetAllByActivitySubtree streams organizations linked to the root
	// activity or to any of its descendants.
	GetAllByActivitySubtree(ctx context.Context, rootID uuid.UUID, f OrgFilter) OrgSeq

	Create(ctx context.Context, org *domain.Organization) error
	Update(ctx context.Context, org *domain.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BuildingRepository persists buildings and their organization lists.
type BuildingRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Building, error)
	GetAll(ctx context.Context, p Page) BuildingSeq
	Create(ctx context.Context, b *domain.Building) error
	Update(ctx context.Context, b *domain.Building) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActivityRepository persists the activity category tree.
type ActivityRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Activity, error)
	GetAll(ctx context.Context, p Page) ActivitySeq
	Create(ctx context.Context, a *domain.Activity) error
	Update(ctx context.Context, a *domain.Activity) error
	Delete(ctx context.Context, id uuid.UUID) error
}
