package postgres

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeQuerier dispatches canned result sets by SQL fragment so loader
// behavior can be pinned without a database. Fragments must be
// disjoint across the queries a test triggers.
type fakeQuerier struct {
	queryRows map[string][][]any
	rowVals   map[string][]any
}

func (f *fakeQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	for frag, data := range f.queryRows {
		if strings.Contains(sql, frag) {
			return &fakeRows{data: data}, nil
		}
	}
	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	for frag, vals := range f.rowVals {
		if strings.Contains(sql, frag) {
			return fakeRow{vals: vals}
		}
	}
	return fakeRow{err: fmt.Errorf("unexpected query: %s", sql)}
}

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.data)
}
func (r *fakeRows) Scan(dest ...any) error { return scanInto(r.data[r.i-1], dest) }
func (r *fakeRows) Values() ([]any, error) { return r.data[r.i-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.vals, dest)
}

func scanInto(src []any, dest []any) error {
	if len(src) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(src), len(dest))
	}
	for i, v := range src {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case **uuid.UUID:
			if v == nil {
				*d = nil
			} else {
				u := v.(uuid.UUID)
				*d = &u
			}
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *float64:
			*d = v.(float64)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

// An organization linked to a mid-tree activity reaches the root
// through findRoot's upward walk. The subtree pass must still record
// the linked node in its parent's Children, alongside the siblings it
// scans fresh.
func TestGraphLoader_LinkedActivityJoinsParentChildren(t *testing.T) {
	buildingID := uuid.New()
	orgID := uuid.New()
	foodID := uuid.New()
	meatID := uuid.New()
	dairyID := uuid.New()

	q := &fakeQuerier{
		rowVals: map[string][]any{
			"FROM building":          {buildingID, "Market Hall", 55.75, 37.61},
			"FROM activity WHERE id": {foodID, "Food", 1, nil},
		},
		queryRows: map[string][][]any{
			"FROM organization WHERE": {{orgID, "Butcher Shop", buildingID}},
			"FROM phone":              nil,
			"oa.organization_id":      {{meatID, "Meat", 2, foodID, orgID}},
			"WITH RECURSIVE": {
				{dairyID, "Dairy", 2, foodID},
				{meatID, "Meat", 2, foodID},
			},
		},
	}

	loader := newGraphLoader(q)
	org := loader.registerOrg(&OrganizationRow{ID: orgID, Name: "Butcher Shop", BuildingID: buildingID})
	if err := loader.LoadOrganization(context.Background(), org); err != nil {
		t.Fatalf("LoadOrganization: %v", err)
	}

	if len(org.Activities) != 1 {
		t.Fatalf("expected 1 linked activity, got %d", len(org.Activities))
	}
	meat := org.Activities[0]
	if meat.Parent == nil || meat.Parent.ID != foodID {
		t.Fatalf("expected parent Food, got %+v", meat.Parent)
	}

	food := meat.Parent
	if len(food.Children) != 2 {
		t.Fatalf("expected 2 children under root, got %d", len(food.Children))
	}
	var sameInstance, hasSibling bool
	for _, c := range food.Children {
		switch c.ID {
		case meatID:
			sameInstance = c == meat
		case dairyID:
			hasSibling = true
		}
	}
	if !sameInstance {
		t.Fatal("linked activity missing from its parent's children")
	}
	if !hasSibling {
		t.Fatal("sibling activity missing from its parent's children")
	}
}
