package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
)

// graphLoader populates the relation graph behind a streamed base row
// so the mapper never has to trigger lookups mid-translation. It keeps
// per-query identity maps per row kind: a building or activity reached
// through two different organizations resolves to the same row
// instance, which is what lets the mapper preserve shared identity.
//
// Every load applies the same relation depth: organization -> building
// -> all organizations of that building -> phones and activities for
// each of them -> the full activity tree (ancestors and descendants)
// of every loaded activity.
type graphLoader struct {
	q Querier

	buildings  map[uuid.UUID]*BuildingRow
	orgs       map[uuid.UUID]*OrganizationRow
	activities map[uuid.UUID]*ActivityRow

	orgsLoaded map[uuid.UUID]bool // building id -> organization list loaded
	relsLoaded map[uuid.UUID]bool // org id -> phones and activities loaded
	treeWired  map[uuid.UUID]bool // activity root id -> subtree wired
}

func newGraphLoader(q Querier) *graphLoader {
	return &graphLoader{
		q:          q,
		buildings:  map[uuid.UUID]*BuildingRow{},
		orgs:       map[uuid.UUID]*OrganizationRow{},
		activities: map[uuid.UUID]*ActivityRow{},
		orgsLoaded: map[uuid.UUID]bool{},
		relsLoaded: map[uuid.UUID]bool{},
		treeWired:  map[uuid.UUID]bool{},
	}
}

// registerOrg dedupes a freshly scanned base row against the identity
// map, returning the canonical instance.
func (l *graphLoader) registerOrg(row *OrganizationRow) *OrganizationRow {
	if existing, ok := l.orgs[row.ID]; ok {
		return existing
	}
	l.orgs[row.ID] = row
	return row
}

func (l *graphLoader) registerActivity(row *ActivityRow) *ActivityRow {
	if existing, ok := l.activities[row.ID]; ok {
		return existing
	}
	l.activities[row.ID] = row
	return row
}

// LoadOrganization attaches the full relation graph to org.
func (l *graphLoader) LoadOrganization(ctx context.Context, org *OrganizationRow) error {
	b, err := l.loadBuilding(ctx, org.BuildingID)
	if err != nil {
		return err
	}
	org.Building = b

	if err := l.loadBuildingOrgs(ctx, b); err != nil {
		return err
	}
	return l.loadOrgRelations(ctx, b.Organizations)
}

// LoadBuilding attaches organizations and their relations to b.
func (l *graphLoader) LoadBuilding(ctx context.Context, b *BuildingRow) error {
	if existing, ok := l.buildings[b.ID]; !ok {
		l.buildings[b.ID] = b
	} else if existing != b {
		*b = *existing
		return nil
	}
	if err := l.loadBuildingOrgs(ctx, b); err != nil {
		return err
	}
	return l.loadOrgRelations(ctx, b.Organizations)
}

// LoadActivity wires the full category tree around a.
func (l *graphLoader) LoadActivity(ctx context.Context, a *ActivityRow) error {
	reg := l.registerActivity(a)
	if reg != a {
		*a = *reg
		return nil
	}
	return l.wireActivityTree(ctx, a)
}

func (l *graphLoader) loadBuilding(ctx context.Context, id uuid.UUID) (*BuildingRow, error) {
	if b, ok := l.buildings[id]; ok {
		return b, nil
	}

	var b BuildingRow
	err := l.q.QueryRow(ctx, `
		SELECT id, name, ST_Y(location::geometry), ST_X(location::geometry)
		FROM building WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Lat, &b.Lon)
	if err != nil {
		return nil, fmt.Errorf("load building %s: %w", id, err)
	}

	l.buildings[b.ID] = &b
	return &b, nil
}

func (l *graphLoader) loadBuildingOrgs(ctx context.Context, b *BuildingRow) error {
	if l.orgsLoaded[b.ID] {
		return nil
	}
	l.orgsLoaded[b.ID] = true

	rows, err := l.q.Query(ctx, `
		SELECT id, name, building_id
		FROM organization WHERE building_id = $1
		ORDER BY name, id
	`, b.ID)
	if err != nil {
		return fmt.Errorf("load building organizations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var org OrganizationRow
		if err := rows.Scan(&org.ID, &org.Name, &org.BuildingID); err != nil {
			return fmt.Errorf("scan organization: %w", err)
		}
		reg := l.registerOrg(&org)
		reg.Building = b
		b.Organizations = append(b.Organizations, reg)
	}
	return rows.Err()
}

// loadOrgRelations batch-loads phones and activities for every listed
// organization that does not have them yet, then wires the activity
// trees.
func (l *graphLoader) loadOrgRelations(ctx context.Context, orgs []*OrganizationRow) error {
	var pending []*OrganizationRow
	for _, org := range orgs {
		if !l.relsLoaded[org.ID] {
			l.relsLoaded[org.ID] = true
			pending = append(pending, org)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(pending))
	for i, org := range pending {
		ids[i] = org.ID
	}

	if err := l.loadPhones(ctx, ids); err != nil {
		return err
	}
	if err := l.loadActivities(ctx, ids); err != nil {
		return err
	}

	for _, org := range pending {
		for _, a := range org.Activities {
			if err := l.wireActivityTree(ctx, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *graphLoader) loadPhones(ctx context.Context, orgIDs []uuid.UUID) error {
	rows, err := l.q.Query(ctx, `
		SELECT id, number, organization_id
		FROM phone WHERE organization_id = ANY($1)
		ORDER BY number, id
	`, orgIDs)
	if err != nil {
		return fmt.Errorf("load phones: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p PhoneRow
		if err := rows.Scan(&p.ID, &p.Number, &p.OrganizationID); err != nil {
			return fmt.Errorf("scan phone: %w", err)
		}
		if org, ok := l.orgs[p.OrganizationID]; ok {
			org.Phones = append(org.Phones, &p)
		}
	}
	return rows.Err()
}

func (l *graphLoader) loadActivities(ctx context.Context, orgIDs []uuid.UUID) error {
	rows, err := l.q.Query(ctx, `
		SELECT a.id, a.name, a.depth, a.parent_id, oa.organization_id
		FROM activity a
		JOIN organization_activity oa ON oa.activity_id = a.id
		WHERE oa.organization_id = ANY($1)
		ORDER BY a.name, a.id
	`, orgIDs)
	if err != nil {
		return fmt.Errorf("load activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a     ActivityRow
			orgID uuid.UUID
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Depth, &a.ParentID, &orgID); err != nil {
			return fmt.Errorf("scan activity: %w", err)
		}
		reg := l.registerActivity(&a)
		if org, ok := l.orgs[orgID]; ok {
			org.Activities = append(org.Activities, reg)
		}
	}
	return rows.Err()
}

// wireActivityTree walks up to the root of the tree containing a and
// loads the whole subtree below that root, wiring Parent/Children
// pointers. Wiring from the root keeps the invariant that a wired root
// implies a fully wired tree.
func (l *graphLoader) wireActivityTree(ctx context.Context, a *ActivityRow) error {
	root, err := l.findRoot(ctx, a)
	if err != nil {
		return err
	}
	if l.treeWired[root.ID] {
		return nil
	}
	l.treeWired[root.ID] = true

	return l.loadSubtree(ctx, root)
}

// findRoot follows parent links upward, fetching missing ancestors.
// The seen guard keeps a malformed parent cycle in stored data from
// looping forever.
func (l *graphLoader) findRoot(ctx context.Context, a *ActivityRow) (*ActivityRow, error) {
	seen := map[uuid.UUID]bool{a.ID: true}
	cur := a
	for cur.ParentID != nil {
		if cur.Parent == nil {
			if p, ok := l.activities[*cur.ParentID]; ok {
				cur.Parent = p
			} else {
				var p ActivityRow
				err := l.q.QueryRow(ctx, `
					SELECT id, name, depth, parent_id FROM activity WHERE id = $1
				`, *cur.ParentID).Scan(&p.ID, &p.Name, &p.Depth, &p.ParentID)
				if err != nil {
					return nil, fmt.Errorf("load parent activity %s: %w", *cur.ParentID, err)
				}
				cur.Parent = l.registerActivity(&p)
			}
		}
		if seen[cur.Parent.ID] {
			break // stored parent cycle; treat current node as root
		}
		seen[cur.Parent.ID] = true
		cur = cur.Parent
	}
	return cur, nil
}

// loadSubtree fetches all descendants of root in one recursive query
// and wires Parent/Children pointers across the whole tree.
func (l *graphLoader) loadSubtree(ctx context.Context, root *ActivityRow) error {
	rows, err := l.q.Query(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id, name, depth, parent_id, 1 AS lvl FROM activity WHERE parent_id = $1
			UNION ALL
			SELECT a.id, a.name, a.depth, a.parent_id, s.lvl + 1
			FROM activity a
			JOIN subtree s ON a.parent_id = s.id
			WHERE s.lvl < $2
		)
		SELECT id, name, depth, parent_id FROM subtree
		ORDER BY depth, name, id
	`, root.ID, domain.MaxActivityDepth)
	if err != nil {
		return fmt.Errorf("load activity subtree: %w", err)
	}
	defer rows.Close()

	var nodes []*ActivityRow
	for rows.Next() {
		var a ActivityRow
		if err := rows.Scan(&a.ID, &a.Name, &a.Depth, &a.ParentID); err != nil {
			return fmt.Errorf("scan activity: %w", err)
		}
		nodes = append(nodes, l.registerActivity(&a))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Depth ordering guarantees parents are wired before their children.
	// A node may already carry its Parent pointer from findRoot's upward
	// walk; its parent's Children list still needs the downward edge.
	for _, node := range nodes {
		if node.ParentID == nil {
			continue
		}
		parent, ok := l.activities[*node.ParentID]
		if !ok {
			continue
		}
		node.Parent = parent
		if !hasChild(parent, node.ID) {
			parent.Children = append(parent.Children, node)
		}
	}
	return nil
}

func hasChild(parent *ActivityRow, id uuid.UUID) bool {
	for _, c := range parent.Children {
		if c.ID == id {
			return true
		}
	}
	return false
}
