package postgres

import "github.com/google/uuid"

// Row records mirror the persisted schema with their relation pointers
// populated by the graph loader. The pointer fields form the same
// cycles as the domain graph (Building<->Organization, Activity
// parent/children), which is what the mapper's visited cache exists to
// handle.

// BuildingRow is a row of the building relation. Lat/Lon carry the
// geography point split into ST_Y/ST_X ordinates.
type BuildingRow struct {
	ID   uuid.UUID
	Name string
	Lat  float64 // ST_Y(location)
	Lon  float64 // ST_X(location)

	Organizations []*OrganizationRow
}

// OrganizationRow is a row of the organization relation.
type OrganizationRow struct {
	ID         uuid.UUID
	Name       string
	BuildingID uuid.UUID

	Building   *BuildingRow
	Phones     []*PhoneRow
	Activities []*ActivityRow
}

// PhoneRow is a row of the phone relation.
type PhoneRow struct {
	ID             uuid.UUID
	Number         string
	OrganizationID uuid.UUID
}

// ActivityRow is a row of the self-referential activity relation.
type ActivityRow struct {
	ID       uuid.UUID
	Name     string
	Depth    int
	ParentID *uuid.UUID

	Parent   *ActivityRow
	Children []*ActivityRow
}
