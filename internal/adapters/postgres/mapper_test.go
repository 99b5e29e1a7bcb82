package postgres_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/adapters/postgres"
	"github.com/Andreo9078/orgdirectory/internal/core/domain"
)

// Row fixtures are hand-wired graphs mirroring what the loader
// produces, including the reference cycles the mapper must survive.

func buildingWithOrgs(t *testing.T, orgNames ...string) (*postgres.BuildingRow, []*postgres.OrganizationRow) {
	t.Helper()
	b := &postgres.BuildingRow{
		ID:   uuid.New(),
		Name: "Lenina 1",
		Lat:  55.7558,
		Lon:  37.6173,
	}
	var orgs []*postgres.OrganizationRow
	for _, name := range orgNames {
		org := &postgres.OrganizationRow{
			ID:         uuid.New(),
			Name:       name,
			BuildingID: b.ID,
			Building:   b,
		}
		b.Organizations = append(b.Organizations, org)
		orgs = append(orgs, org)
	}
	return b, orgs
}

func TestPhoneMapper_RoundTrip(t *testing.T) {
	var m postgres.PhoneMapper

	phone := m.ToDomain(&postgres.PhoneRow{ID: uuid.New(), Number: "2-222-222"})
	if phone.Number != "2-222-222" {
		t.Fatalf("expected number to survive, got %q", phone.Number)
	}

	row := m.FromDomain(phone)
	if row.Number != "2-222-222" {
		t.Errorf("expected number to survive, got %q", row.Number)
	}
	if row.ID == uuid.Nil {
		t.Error("from-domain phone row should get a fresh id")
	}
}

func TestBuildingMapper_CoordinateOrder(t *testing.T) {
	set := postgres.NewMapperSet()

	// Persisted point: X (longitude) 37.62, Y (latitude) 55.75.
	row := &postgres.BuildingRow{ID: uuid.New(), Name: "Tverskaya 7", Lat: 55.75, Lon: 37.62}
	b := set.Buildings.ToDomain(row, nil)

	if b.Location.Latitude != 55.75 {
		t.Errorf("latitude must come from Y: got %f", b.Location.Latitude)
	}
	if b.Location.Longitude != 37.62 {
		t.Errorf("longitude must come from X: got %f", b.Location.Longitude)
	}

	back := set.Buildings.FromDomain(b, nil)
	if back.Lat != 55.75 || back.Lon != 37.62 {
		t.Errorf("round-trip swapped coordinates: lat=%f lon=%f", back.Lat, back.Lon)
	}
}

func TestOrganizationMapper_ToDomain_BuildingCycle(t *testing.T) {
	set := postgres.NewMapperSet()
	b, orgs := buildingWithOrgs(t, "Bakery", "Pharmacy")
	orgs[0].Phones = []*postgres.PhoneRow{
		{ID: uuid.New(), Number: "8-800-555-35-35", OrganizationID: orgs[0].ID},
	}

	org := set.Organizations.ToDomain(orgs[0], nil)

	if org.Building == nil {
		t.Fatal("building reference lost")
	}
	if org.Building.ID != b.ID {
		t.Fatalf("wrong building mapped")
	}
	if len(org.Building.Organizations) != 2 {
		t.Fatalf("expected 2 organizations on building, got %d", len(org.Building.Organizations))
	}

	// The cycle must close on the same instance, not a copy.
	if org.Building.Organizations[0] != org {
		t.Error("building does not point back at the originating organization instance")
	}
	if got := org.Phones; len(got) != 1 || got[0].Number != "8-800-555-35-35" {
		t.Errorf("phones not carried over: %+v", got)
	}
}

func TestMapper_SharedActivityIdentity(t *testing.T) {
	set := postgres.NewMapperSet()
	b, orgs := buildingWithOrgs(t, "Meat Shop", "Dairy Shop")

	shared := &postgres.ActivityRow{ID: uuid.New(), Name: "Food", Depth: 1}
	orgs[0].Activities = []*postgres.ActivityRow{shared}
	orgs[1].Activities = []*postgres.ActivityRow{shared}

	building := set.Buildings.ToDomain(b, nil)

	first := building.Organizations[0].Activities
	second := building.Organizations[1].Activities
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one activity per organization, got %d and %d", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Error("shared activity mapped to two distinct instances")
	}
}

func TestActivityMapper_ToDomain_Tree(t *testing.T) {
	set := postgres.NewMapperSet()

	root := &postgres.ActivityRow{ID: uuid.New(), Name: "Food", Depth: 1}
	childID := uuid.New()
	child := &postgres.ActivityRow{ID: childID, Name: "Meat", Depth: 2, ParentID: &root.ID, Parent: root}
	root.Children = []*postgres.ActivityRow{child}

	a := set.Activities.ToDomain(root, nil)

	if len(a.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(a.Children))
	}
	if a.Children[0].Parent != a {
		t.Error("child's parent is not the originating instance")
	}
	if a.Children[0].Depth != 2 {
		t.Errorf("child depth not carried: %d", a.Children[0].Depth)
	}
}

// An activity that is its own descendant-of-descendant is malformed
// data, but translation must still terminate and close the cycle on
// identical instances.
func TestActivityMapper_ToDomain_AdversarialCycle(t *testing.T) {
	set := postgres.NewMapperSet()

	a := &postgres.ActivityRow{ID: uuid.New(), Name: "A", Depth: 1}
	b := &postgres.ActivityRow{ID: uuid.New(), Name: "B", Depth: 2}
	c := &postgres.ActivityRow{ID: uuid.New(), Name: "C", Depth: 3}

	a.Children = []*postgres.ActivityRow{b}
	b.Parent = a
	b.Children = []*postgres.ActivityRow{c}
	c.Parent = b
	c.Children = []*postgres.ActivityRow{a} // loops back to the top
	a.Parent = c

	mapped := set.Activities.ToDomain(a, nil)

	if mapped.Children[0].Parent != mapped {
		t.Error("children[0].Parent is not the originating object")
	}
	grandchild := mapped.Children[0].Children[0]
	if grandchild.Children[0] != mapped {
		t.Error("cycle does not close on the same instance")
	}
	if mapped.Parent != grandchild {
		t.Error("upward edge does not reuse the mapped grandchild")
	}
}

func TestActivityMapper_FromDomain_Cycle(t *testing.T) {
	set := postgres.NewMapperSet()

	parent := &domain.Activity{ID: uuid.New(), Name: "Cars", Depth: 1}
	child := &domain.Activity{ID: uuid.New(), Name: "Parts", Depth: 2, Parent: parent}
	parent.Children = []*domain.Activity{child}

	row := set.Activities.FromDomain(parent, nil)

	if len(row.Children) != 1 {
		t.Fatalf("expected 1 child row, got %d", len(row.Children))
	}
	if row.Children[0].Parent != row {
		t.Error("child row's parent is not the originating row")
	}
	if row.Children[0].ParentID == nil || *row.Children[0].ParentID != parent.ID {
		t.Error("child row's parent id not set")
	}
}

func TestOrganizationMapper_RoundTrip(t *testing.T) {
	set := postgres.NewMapperSet()

	b, orgs := buildingWithOrgs(t, "Flower Stand")
	src := orgs[0]
	src.Phones = []*postgres.PhoneRow{
		{ID: uuid.New(), Number: "3-333-333", OrganizationID: src.ID},
		{ID: uuid.New(), Number: "8-923-666-13-13", OrganizationID: src.ID},
	}
	src.Activities = []*postgres.ActivityRow{
		{ID: uuid.New(), Name: "Flowers", Depth: 1},
	}

	org := set.Organizations.ToDomain(src, nil)
	back := set.Organizations.FromDomain(org, nil)

	if back.ID != src.ID || back.Name != src.Name {
		t.Errorf("scalar fields lost: %+v", back)
	}
	if back.BuildingID != b.ID {
		t.Errorf("building id lost: %s", back.BuildingID)
	}
	if len(back.Phones) != 2 {
		t.Fatalf("expected 2 phone rows, got %d", len(back.Phones))
	}
	for i, p := range back.Phones {
		if p.Number != src.Phones[i].Number {
			t.Errorf("phone %d number mismatch: %q", i, p.Number)
		}
		if p.OrganizationID != src.ID {
			t.Errorf("phone %d organization id not set", i)
		}
	}
	if len(back.Activities) != 1 || back.Activities[0].ID != src.Activities[0].ID {
		t.Error("activity link ids lost")
	}
	if back.Building == nil || back.Building.ID != b.ID {
		t.Error("building row lost")
	}
	if back.Building.Lat != b.Lat || back.Building.Lon != b.Lon {
		t.Error("building coordinates lost")
	}
}

func TestOrganizationMapper_DomainRoundTrip(t *testing.T) {
	set := postgres.NewMapperSet()

	b := &domain.Building{
		ID:       uuid.New(),
		Name:     "Bluhera 32/1",
		Location: domain.GeoPoint{Latitude: 55.7963, Longitude: 49.1088},
	}
	org := &domain.Organization{ID: uuid.New(), Name: "Dairy Kingdom"}
	b.AddOrganization(org)
	org.AddPhone(domain.Phone{Number: "8-800-555-35-35"})

	food := &domain.Activity{ID: uuid.New(), Name: "Food", Depth: 1}
	meat := &domain.Activity{ID: uuid.New(), Name: "Meat"}
	if err := food.AddChild(meat); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	org.AddActivity(meat)

	again := set.Organizations.ToDomain(set.Organizations.FromDomain(org, nil), nil)

	if again.ID != org.ID || again.Name != org.Name {
		t.Errorf("scalar fields lost: %+v", again)
	}
	if again.Building == nil || again.Building.ID != b.ID || again.Building.Name != b.Name {
		t.Fatalf("building lost: %+v", again.Building)
	}
	if again.Building.Location != b.Location {
		t.Errorf("coordinates lost: %+v", again.Building.Location)
	}
	if len(again.Building.Organizations) != 1 || again.Building.Organizations[0] != again {
		t.Error("rebuilt building does not cycle back to the rebuilt organization")
	}
	if len(again.Phones) != 1 || again.Phones[0].Number != "8-800-555-35-35" {
		t.Errorf("phones lost: %+v", again.Phones)
	}
	if len(again.Activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(again.Activities))
	}
	a := again.Activities[0]
	if a.ID != meat.ID || a.Depth != 2 {
		t.Errorf("activity identity lost: %+v", a)
	}
	if a.Parent == nil || a.Parent.ID != food.ID {
		t.Fatalf("activity parent lost: %+v", a.Parent)
	}
	if len(a.Parent.Children) != 1 || a.Parent.Children[0] != a {
		t.Error("rebuilt parent does not list the rebuilt child")
	}
}

func TestBuildingMapper_FromDomain_Cycle(t *testing.T) {
	set := postgres.NewMapperSet()

	b := &domain.Building{
		ID:       uuid.New(),
		Name:     "Arbat 12",
		Location: domain.GeoPoint{Latitude: 55.75, Longitude: 37.59},
	}
	org := &domain.Organization{ID: uuid.New(), Name: "Cafe"}
	b.AddOrganization(org)

	row := set.Buildings.FromDomain(b, nil)

	if len(row.Organizations) != 1 {
		t.Fatalf("expected 1 organization row, got %d", len(row.Organizations))
	}
	if row.Organizations[0].Building != row {
		t.Error("organization row does not point back at the building row instance")
	}
	if row.Organizations[0].BuildingID != b.ID {
		t.Error("organization row's building id not set")
	}
}
