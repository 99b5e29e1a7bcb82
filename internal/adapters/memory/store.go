// Package memory is an in-process implementation of the repository
// ports backed by maps. It powers unit tests and local development
// without a database; semantics mirror the postgres adapter, with
// geodesic math done in Go instead of PostGIS.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
	"github.com/Andreo9078/orgdirectory/internal/core/ports"
	"github.com/Andreo9078/orgdirectory/internal/pkg/geospatial"
)

// Store holds the shared object graph. It takes ownership of whatever
// is passed to Create/Update and hands out the same pointers on reads,
// so callers must not mutate returned entities concurrently.
type Store struct {
	mu         sync.RWMutex
	orgs       map[uuid.UUID]*domain.Organization
	buildings  map[uuid.UUID]*domain.Building
	activities map[uuid.UUID]*domain.Activity
}

func NewStore() *Store {
	return &Store{
		orgs:       make(map[uuid.UUID]*domain.Organization),
		buildings:  make(map[uuid.UUID]*domain.Building),
		activities: make(map[uuid.UUID]*domain.Activity),
	}
}

// Organizations returns the organization repository view of the store.
func (s *Store) Organizations() ports.OrganizationRepository { return &orgRepo{s} }

// Buildings returns the building repository view of the store.
func (s *Store) Buildings() ports.BuildingRepository { return &buildingRepo{s} }

// Activities returns the activity repository view of the store.
func (s *Store) Activities() ports.ActivityRepository { return &activityRepo{s} }

// indexActivityTree registers a node and all of its descendants.
// Caller holds the write lock.
func (s *Store) indexActivityTree(a *domain.Activity) {
	s.activities[a.ID] = a
	for _, child := range a.Children {
		s.indexActivityTree(child)
	}
}

func matchFilter(org *domain.Organization, f ports.OrgFilter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(org.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.BuildingID != uuid.Nil {
		if org.Building == nil || org.Building.ID != f.BuildingID {
			return false
		}
	}
	if f.ActivityID != uuid.Nil {
		found := false
		for _, a := range org.Activities {
			if a.ID == f.ActivityID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sliceSeq[T any](items []*T) func(yield func(*T, error) bool) {
	return func(yield func(*T, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

type orgRepo struct{ s *Store }

func (r *orgRepo) Get(_ context.Context, id uuid.UUID) (*domain.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.orgs[id], nil
}

// snapshot returns organizations matching f, sorted by name then id,
// with the filter's pagination applied.
func (r *orgRepo) snapshot(f ports.OrgFilter, keep func(*domain.Organization) bool) []*domain.Organization {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Organization
	for _, org := range r.s.orgs {
		if !matchFilter(org, f) {
			continue
		}
		if keep != nil && !keep(org) {
			continue
		}
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return paginate(out, f.Offset, f.Limit)
}

func (r *orgRepo) GetAll(_ context.Context, f ports.OrgFilter) ports.OrgSeq {
	return sliceSeq(r.snapshot(f, nil))
}

func (r *orgRepo) GetAllInRadius(_ context.Context, center domain.GeoPoint, radiusMeters float64, f ports.OrgFilter) ports.OrgSeq {
	return sliceSeq(r.snapshot(f, func(org *domain.Organization) bool {
		if org.Building == nil {
			return false
		}
		loc := org.Building.Location
		return geospatial.WithinRadius(center.Latitude, center.Longitude, loc.Latitude, loc.Longitude, radiusMeters)
	}))
}

func (r *orgRepo) GetAllInBBox(_ context.Context, box domain.Bounds, f ports.OrgFilter) ports.OrgSeq {
	return sliceSeq(r.snapshot(f, func(org *domain.Organization) bool {
		return org.Building != nil && box.Contains(org.Building.Location)
	}))
}

func (r *orgRepo) GetAllByActivitySubtree(_ context.Context, rootID uuid.UUID, f ports.OrgFilter) ports.OrgSeq {
	r.s.mu.RLock()
	wanted := map[uuid.UUID]bool{}
	if root, ok := r.s.activities[rootID]; ok {
		collectSubtree(root, wanted)
	}
	r.s.mu.RUnlock()

	return sliceSeq(r.snapshot(f, func(org *domain.Organization) bool {
		for _, a := range org.Activities {
			if wanted[a.ID] {
				return true
			}
		}
		return false
	}))
}

func collectSubtree(a *domain.Activity, into map[uuid.UUID]bool) {
	if into[a.ID] {
		return
	}
	into[a.ID] = true
	for _, child := range a.Children {
		collectSubtree(child, into)
	}
}

// index registers the organization's related building and activity
// trees the way the postgres adapter upserts them alongside the
// organization row. Caller holds the write lock.
func (r *orgRepo) index(org *domain.Organization) {
	r.s.orgs[org.ID] = org
	if org.Building != nil {
		r.s.buildings[org.Building.ID] = org.Building
	}
	for _, a := range org.Activities {
		root := a
		seen := map[uuid.UUID]bool{root.ID: true}
		for root.Parent != nil && !seen[root.Parent.ID] {
			root = root.Parent
			seen[root.ID] = true
		}
		r.s.indexActivityTree(root)
	}
}

func (r *orgRepo) Create(_ context.Context, org *domain.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[org.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.index(org)
	return nil
}

func (r *orgRepo) Update(_ context.Context, org *domain.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[org.ID]; !ok {
		return domain.ErrDoesNotExist
	}
	r.index(org)
	return nil
}

func (r *orgRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	org, ok := r.s.orgs[id]
	if !ok {
		return domain.ErrDoesNotExist
	}
	delete(r.s.orgs, id)
	if org.Building != nil {
		kept := org.Building.Organizations[:0]
		for _, o := range org.Building.Organizations {
			if o.ID != id {
				kept = append(kept, o)
			}
		}
		org.Building.Organizations = kept
	}
	return nil
}

type buildingRepo struct{ s *Store }

func (r *buildingRepo) Get(_ context.Context, id uuid.UUID) (*domain.Building, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.buildings[id], nil
}

func (r *buildingRepo) GetAll(_ context.Context, p ports.Page) ports.BuildingSeq {
	r.s.mu.RLock()
	out := make([]*domain.Building, 0, len(r.s.buildings))
	for _, b := range r.s.buildings {
		out = append(out, b)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return sliceSeq(paginate(out, p.Offset, p.Limit))
}

func (r *buildingRepo) Create(_ context.Context, b *domain.Building) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.buildings[b.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.buildings[b.ID] = b
	for _, org := range b.Organizations {
		r.s.orgs[org.ID] = org
	}
	return nil
}

func (r *buildingRepo) Update(_ context.Context, b *domain.Building) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.buildings[b.ID]; !ok {
		return domain.ErrDoesNotExist
	}
	r.s.buildings[b.ID] = b
	return nil
}

func (r *buildingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.buildings[id]
	if !ok {
		return domain.ErrDoesNotExist
	}
	delete(r.s.buildings, id)
	// Organizations cascade with their building, matching the schema.
	for _, org := range b.Organizations {
		delete(r.s.orgs, org.ID)
	}
	return nil
}

type activityRepo struct{ s *Store }

func (r *activityRepo) Get(_ context.Context, id uuid.UUID) (*domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.activities[id], nil
}

func (r *activityRepo) GetAll(_ context.Context, p ports.Page) ports.ActivitySeq {
	r.s.mu.RLock()
	out := make([]*domain.Activity, 0, len(r.s.activities))
	for _, a := range r.s.activities {
		out = append(out, a)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return sliceSeq(paginate(out, p.Offset, p.Limit))
}

func (r *activityRepo) Create(_ context.Context, a *domain.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.activities[a.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.indexActivityTree(a)
	return nil
}

func (r *activityRepo) Update(_ context.Context, a *domain.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.activities[a.ID]; !ok {
		return domain.ErrDoesNotExist
	}
	r.s.indexActivityTree(a)
	return nil
}

func (r *activityRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.activities[id]
	if !ok {
		return domain.ErrDoesNotExist
	}
	r.removeTree(a)
	if a.Parent != nil {
		kept := a.Parent.Children[:0]
		for _, c := range a.Parent.Children {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		a.Parent.Children = kept
	}
	return nil
}

// removeTree unregisters a node and its descendants. Caller holds the
// write lock.
func (r *activityRepo) removeTree(a *domain.Activity) {
	delete(r.s.activities, a.ID)
	for _, c := range a.Children {
		r.removeTree(c)
	}
}
