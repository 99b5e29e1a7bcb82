package postgres

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/ports"
)

// orgQuery assembles the base organization select with optional joins
// and predicates, numbering placeholders as arguments are added.
type orgQuery struct {
	ctes     []string
	joins    []string
	wheres   []string
	args     []any
	distinct bool
}

func (b *orgQuery) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *orgQuery) join(clause string) {
	b.joins = append(b.joins, clause)
}

func (b *orgQuery) where(predicate string) {
	b.wheres = append(b.wheres, predicate)
}

// applyFilter adds the enumerated optional filters as a conjunction.
func (b *orgQuery) applyFilter(f ports.OrgFilter) {
	if f.Name != "" {
		b.where("o.name ILIKE " + b.arg("%"+f.Name+"%"))
	}
	if f.ActivityID != uuid.Nil {
		b.join("JOIN organization_activity fa ON fa.organization_id = o.id")
		b.where("fa.activity_id = " + b.arg(f.ActivityID))
	}
	if f.BuildingID != uuid.Nil {
		b.where("o.building_id = " + b.arg(f.BuildingID))
	}
}

// joinBuilding makes the building relation available as alias b for
// spatial predicates.
func (b *orgQuery) joinBuilding() {
	b.join("JOIN building b ON b.id = o.building_id")
}

func (b *orgQuery) build(f ports.OrgFilter) (string, []any) {
	var sb strings.Builder

	if len(b.ctes) > 0 {
		sb.WriteString("WITH RECURSIVE ")
		sb.WriteString(strings.Join(b.ctes, ", "))
		sb.WriteString(" ")
	}

	sb.WriteString("SELECT ")
	if b.distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString("o.id, o.name, o.building_id FROM organization o")

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if len(b.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.wheres, " AND "))
	}
	sb.WriteString(" ORDER BY o.name, o.id")

	if f.Offset > 0 {
		sb.WriteString(" OFFSET " + b.arg(f.Offset))
	}
	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + b.arg(f.Limit))
	}

	return sb.String(), b.args
}
