package postgres

import (
	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
)

// Visited caches translated objects by entity id for the lifetime of
// one top-level mapping call. It is shared across the whole call tree
// (all entity kinds), so a relation that loops back, like an
// organization reaching its building reaching the same organization,
// finds the partially built object already registered and the
// recursion terminates. Sharing also guarantees that two edges pointing
// at the same logical entity resolve to the same instance.
type Visited map[uuid.UUID]any

// PhoneMapper translates phone rows. Phones are plain value objects
// with no relations, so no visited bookkeeping is needed.
type PhoneMapper struct{}

func (PhoneMapper) ToDomain(r *PhoneRow) domain.Phone {
	return domain.Phone{Number: r.Number}
}

func (PhoneMapper) FromDomain(p domain.Phone) *PhoneRow {
	return &PhoneRow{ID: uuid.New(), Number: p.Number}
}

// ActivityMapper translates the self-referential activity tree.
type ActivityMapper struct{}

func (m *ActivityMapper) ToDomain(r *ActivityRow, visited Visited) *domain.Activity {
	if visited == nil {
		visited = Visited{}
	}
	if v, ok := visited[r.ID]; ok {
		return v.(*domain.Activity)
	}

	a := &domain.Activity{
		ID:    r.ID,
		Name:  r.Name,
		Depth: r.Depth,
	}
	// Register before recursing so cycles resolve to this instance.
	visited[a.ID] = a

	if r.Parent != nil {
		a.Parent = m.ToDomain(r.Parent, visited)
	}
	for _, child := range r.Children {
		a.Children = append(a.Children, m.ToDomain(child, visited))
	}
	return a
}

func (m *ActivityMapper) FromDomain(a *domain.Activity, visited Visited) *ActivityRow {
	if visited == nil {
		visited = Visited{}
	}
	if v, ok := visited[a.ID]; ok {
		return v.(*ActivityRow)
	}

	row := &ActivityRow{
		ID:    a.ID,
		Name:  a.Name,
		Depth: a.Depth,
	}
	visited[row.ID] = row

	if a.Parent != nil {
		row.Parent = m.FromDomain(a.Parent, visited)
		pid := a.Parent.ID
		row.ParentID = &pid
	}
	for _, child := range a.Children {
		row.Children = append(row.Children, m.FromDomain(child, visited))
	}
	return row
}

// OrganizationMapper translates organization rows together with their
// phones, activities, and owning building. The building mapper field
// is cross-linked by NewMapperSet after both mappers exist.
type OrganizationMapper struct {
	phones     PhoneMapper
	activities *ActivityMapper
	buildings  *BuildingMapper
}

func (m *OrganizationMapper) ToDomain(r *OrganizationRow, visited Visited) *domain.Organization {
	if visited == nil {
		visited = Visited{}
	}
	if v, ok := visited[r.ID]; ok {
		return v.(*domain.Organization)
	}

	org := &domain.Organization{
		ID:   r.ID,
		Name: r.Name,
	}
	visited[org.ID] = org

	for _, p := range r.Phones {
		org.Phones = append(org.Phones, m.phones.ToDomain(p))
	}
	if r.Building != nil {
		org.Building = m.buildings.ToDomain(r.Building, visited)
	}
	for _, a := range r.Activities {
		org.Activities = append(org.Activities, m.activities.ToDomain(a, visited))
	}
	return org
}

func (m *OrganizationMapper) FromDomain(org *domain.Organization, visited Visited) *OrganizationRow {
	if visited == nil {
		visited = Visited{}
	}
	if v, ok := visited[org.ID]; ok {
		return v.(*OrganizationRow)
	}

	row := &OrganizationRow{
		ID:   org.ID,
		Name: org.Name,
	}
	if org.Building != nil {
		row.BuildingID = org.Building.ID
	}
	visited[row.ID] = row

	for _, p := range org.Phones {
		phone := m.phones.FromDomain(p)
		phone.OrganizationID = org.ID
		row.Phones = append(row.Phones, phone)
	}
	if org.Building != nil {
		row.Building = m.buildings.FromDomain(org.Building, visited)
	}
	for _, a := range org.Activities {
		row.Activities = append(row.Activities, m.activities.FromDomain(a, visited))
	}
	return row
}

// BuildingMapper translates building rows and their organization lists.
type BuildingMapper struct {
	orgs *OrganizationMapper
}

func (m *BuildingMapper) ToDomain(r *BuildingRow, visited Visited) *domain.Building {
	if visited == nil {
		visited = Visited{}
	}
	if v, ok := visited[r.ID]; ok {
		return v.(*domain.Building)
	}

	b := &domain.Building{
		ID:   r.ID,
		Name: r.Name,
		// The geography point stores longitude as X and latitude as Y.
		Location: domain.GeoPoint{Latitude: r.Lat, Longitude: r.Lon},
	}
	visited[b.ID] = b

	for _, orgRow := range r.Organizations {
		b.Organizations = append(b.Organizations, m.orgs.ToDomain(orgRow, visited))
	}
	return b
}

func (m *BuildingMapper) FromDomain(b *domain.Building, visited Visited) *BuildingRow {
	if visited == nil {
		visited = Visited{}
	}
	if v, ok := visited[b.ID]; ok {
		return v.(*BuildingRow)
	}

	row := &BuildingRow{
		ID:   b.ID,
		Name: b.Name,
		Lat:  b.Location.Latitude,
		Lon:  b.Location.Longitude,
	}
	visited[row.ID] = row

	for _, org := range b.Organizations {
		row.Organizations = append(row.Organizations, m.orgs.FromDomain(org, visited))
	}
	return row
}

// MapperSet bundles the per-kind mappers with their mutual
// organization<->building dependency already wired. Constructing the
// set in one step keeps the half-initialised intermediate state from
// escaping.
type MapperSet struct {
	Phones        PhoneMapper
	Activities    *ActivityMapper
	Organizations *OrganizationMapper
	Buildings     *BuildingMapper
}

// NewMapperSet builds all mappers and cross-links the organization and
// building mappers.
func NewMapperSet() *MapperSet {
	activities := &ActivityMapper{}
	orgs := &OrganizationMapper{activities: activities}
	buildings := &BuildingMapper{orgs: orgs}
	orgs.buildings = buildings

	return &MapperSet{
		Activities:    activities,
		Organizations: orgs,
		Buildings:     buildings,
	}
}
