// Package domain contains the in-memory directory graph: buildings,
// the organizations they house, their phones, and the activity
// category tree. Entities are plain data holders; the only integrity
// rule enforced here is the activity depth limit.
package domain

import "github.com/google/uuid"

// MaxActivityDepth is the deepest level an activity category may occupy.
// Roots sit at depth 1.
const MaxActivityDepth = 3

// Phone is an organization contact number.
type Phone struct {
	Number string `json:"number"`
}

// Building is a physical location housing zero or more organizations.
// Building owns the organization list; each listed organization holds a
// non-owning back-pointer to its building, so the graph is cyclic.
type Building struct {
	ID            uuid.UUID
	Name          string
	Location      GeoPoint
	Organizations []*Organization
}

// AddOrganization appends org and points it back at b. Duplicate
// inserts are not detected; callers must avoid them.
func (b *Building) AddOrganization(org *Organization) {
	b.Organizations = append(b.Organizations, org)
	org.Building = b
}

// Organization is a directory entry located in a building and linked
// to any number of activity categories.
type Organization struct {
	ID         uuid.UUID
	Name       string
	Phones     []Phone
	Building   *Building
	Activities []*Activity
}

// AddPhone appends a contact number.
func (o *Organization) AddPhone(p Phone) {
	o.Phones = append(o.Phones, p)
}

// AddActivity links the organization to an activity category.
// Membership semantics: an already-linked activity is ignored.
func (o *Organization) AddActivity(a *Activity) {
	for _, existing := range o.Activities {
		if existing == a || existing.ID == a.ID {
			return
		}
	}
	o.Activities = append(o.Activities, a)
}

// Activity is a node in the category tree. Depth of a child is always
// parent depth + 1; roots have depth 1.
type Activity struct {
	ID       uuid.UUID
	Name     string
	Depth    int
	Parent   *Activity
	Children []*Activity
}

// AddChild attaches child under a, recomputing its depth. Returns
// ErrMaxDepthExceeded and leaves both nodes untouched when the child
// would land deeper than MaxActivityDepth.
func (a *Activity) AddChild(child *Activity) error {
	if a.Depth+1 > MaxActivityDepth {
		return ErrMaxDepthExceeded
	}

	child.Parent = a
	child.Depth = a.Depth + 1
	a.Children = append(a.Children, child)
	return nil
}
