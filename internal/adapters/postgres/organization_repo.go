package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
	"github.com/Andreo9078/orgdirectory/internal/core/ports"
	"github.com/Andreo9078/orgdirectory/internal/pkg/metrics"
)

// OrganizationRepo implements ports.OrganizationRepository with pgx.
type OrganizationRepo struct {
	db      *DB
	mappers *MapperSet
}

// NewOrganizationRepo creates a new OrganizationRepo.
func NewOrganizationRepo(db *DB) *OrganizationRepo {
	return &OrganizationRepo{db: db, mappers: NewMapperSet()}
}

// Get returns the organization with the given id, or (nil, nil) when
// no such row exists.
func (r *OrganizationRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var base OrganizationRow
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, building_id FROM organization WHERE id = $1
	`, id).Scan(&base.ID, &base.Name, &base.BuildingID)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveQuery("organization", "get", nil)
		return nil, nil
	}
	if err != nil {
		metrics.ObserveQuery("organization", "get", err)
		return nil, fmt.Errorf("get organization: %w", err)
	}

	loader := newGraphLoader(r.db.Pool)
	org := loader.registerOrg(&base)
	if err := loader.LoadOrganization(ctx, org); err != nil {
		metrics.ObserveQuery("organization", "get", err)
		return nil, err
	}

	metrics.ObserveQuery("organization", "get", nil)
	return r.mappers.Organizations.ToDomain(org, nil), nil
}

// GetAll streams organizations matching the filter conjunction.
func (r *OrganizationRepo) GetAll(ctx context.Context, f ports.OrgFilter) ports.OrgSeq {
	q := &orgQuery{}
	q.applyFilter(f)
	query, args := q.build(f)
	return r.stream(ctx, "get_all", query, args)
}

// GetAllInRadius streams organizations whose building lies within
// radiusMeters geodesic distance of center. ST_DWithin on geography
// uses great-circle distance, not planar degrees.
func (r *OrganizationRepo) GetAllInRadius(ctx context.Context, center domain.GeoPoint, radiusMeters float64, f ports.OrgFilter) ports.OrgSeq {
	q := &orgQuery{}
	q.joinBuilding()
	q.applyFilter(f)
	q.where(fmt.Sprintf(
		"ST_DWithin(b.location, ST_SetSRID(ST_MakePoint(%s, %s), 4326)::geography, %s)",
		q.arg(center.Longitude), q.arg(center.Latitude), q.arg(radiusMeters),
	))
	query, args := q.build(f)
	return r.stream(ctx, "get_all_in_radius", query, args)
}

// GetAllInBBox streams organizations whose building location falls
// inside the axis-aligned box.
func (r *OrganizationRepo) GetAllInBBox(ctx context.Context, box domain.Bounds, f ports.OrgFilter) ports.OrgSeq {
	q := &orgQuery{}
	q.joinBuilding()
	q.applyFilter(f)
	q.where(fmt.Sprintf(
		"ST_Within(b.location::geometry, ST_MakeEnvelope(%s, %s, %s, %s, 4326))",
		q.arg(box.SouthWest.Longitude), q.arg(box.SouthWest.Latitude),
		q.arg(box.NorthEast.Longitude), q.arg(box.NorthEast.Latitude),
	))
	query, args := q.build(f)
	return r.stream(ctx, "get_all_in_bbox", query, args)
}

// GetAllByActivitySubtree streams organizations linked to the root
// activity or any of its descendants. The recursive walk is bounded by
// the domain depth cap so a malformed parent cycle in stored data
// cannot make the query loop.
func (r *OrganizationRepo) GetAllByActivitySubtree(ctx context.Context, rootID uuid.UUID, f ports.OrgFilter) ports.OrgSeq {
	q := &orgQuery{distinct: true}
	q.ctes = append(q.ctes, fmt.Sprintf(`activity_tree AS (
		SELECT id, 1 AS lvl FROM activity WHERE id = %s
		UNION ALL
		SELECT a.id, t.lvl + 1
		FROM activity a
		JOIN activity_tree t ON a.parent_id = t.id
		WHERE t.lvl < %d
	)`, q.arg(rootID), domain.MaxActivityDepth))
	q.join("JOIN organization_activity oa ON oa.organization_id = o.id")
	q.join("JOIN activity_tree t ON t.id = oa.activity_id")
	q.applyFilter(f)
	query, args := q.build(f)
	return r.stream(ctx, "get_all_by_activity_subtree", query, args)
}

// Create persists a new organization graph. A duplicate id fails with
// domain.ErrAlreadyExists.
func (r *OrganizationRepo) Create(ctx context.Context, org *domain.Organization) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		exists, err := rowExists(ctx, q, "organization", org.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("organization %s: %w", org.ID, domain.ErrAlreadyExists)
		}
		return r.save(ctx, q, org)
	})
	metrics.ObserveQuery("organization", "create", err)
	return err
}

// Update rewrites an existing organization graph. A missing id fails
// with domain.ErrDoesNotExist.
func (r *OrganizationRepo) Update(ctx context.Context, org *domain.Organization) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		exists, err := rowExists(ctx, q, "organization", org.ID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("organization %s: %w", org.ID, domain.ErrDoesNotExist)
		}
		return r.save(ctx, q, org)
	})
	metrics.ObserveQuery("organization", "update", err)
	return err
}

// Delete removes the organization row; phones and join rows go with it
// via the schema's delete cascades.
func (r *OrganizationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM organization WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete organization: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("organization %s: %w", id, domain.ErrDoesNotExist)
		}
		return nil
	})
	metrics.ObserveQuery("organization", "delete", err)
	return err
}

// save flattens the FromDomain row graph into upserts: building, the
// organization itself, replaced phone rows, activity rows, and the
// replaced join-table links.
func (r *OrganizationRepo) save(ctx context.Context, q Querier, org *domain.Organization) error {
	row := r.mappers.Organizations.FromDomain(org, nil)

	if row.Building != nil {
		if err := upsertBuilding(ctx, q, row.Building); err != nil {
			return err
		}
	}

	var buildingID any
	if row.Building != nil {
		buildingID = row.BuildingID
	}
	_, err := q.Exec(ctx, `
		INSERT INTO organization (id, name, building_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, building_id = EXCLUDED.building_id
	`, row.ID, row.Name, buildingID)
	if err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM phone WHERE organization_id = $1`, row.ID); err != nil {
		return fmt.Errorf("clear phones: %w", err)
	}
	for _, p := range row.Phones {
		_, err := q.Exec(ctx, `
			INSERT INTO phone (id, number, organization_id) VALUES ($1, $2, $3)
		`, p.ID, p.Number, p.OrganizationID)
		if err != nil {
			return fmt.Errorf("insert phone: %w", err)
		}
	}

	// Upsert every activity row reachable from the direct links so
	// parent chains exist before the join rows reference them.
	seen := map[uuid.UUID]bool{}
	for _, a := range row.Activities {
		if err := upsertActivityTree(ctx, q, a, seen); err != nil {
			return err
		}
	}

	if _, err := q.Exec(ctx, `DELETE FROM organization_activity WHERE organization_id = $1`, row.ID); err != nil {
		return fmt.Errorf("clear activity links: %w", err)
	}
	for _, a := range row.Activities {
		_, err := q.Exec(ctx, `
			INSERT INTO organization_activity (organization_id, activity_id) VALUES ($1, $2)
		`, row.ID, a.ID)
		if err != nil {
			return fmt.Errorf("insert activity link: %w", err)
		}
	}
	return nil
}

func rowExists(ctx context.Context, q Querier, table string, id uuid.UUID) (bool, error) {
	var one int
	err := q.QueryRow(ctx, `SELECT 1 FROM `+table+` WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return true, nil
}

func upsertBuilding(ctx context.Context, q Querier, b *BuildingRow) error {
	_, err := q.Exec(ctx, `
		INSERT INTO building (id, name, location)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, location = EXCLUDED.location
	`, b.ID, b.Name, b.Lon, b.Lat)
	if err != nil {
		return fmt.Errorf("upsert building: %w", err)
	}
	return nil
}

// upsertActivityTree writes the node and everything reachable through
// its parent/children pointers, parents first so the self-referential
// foreign key is satisfied.
func upsertActivityTree(ctx context.Context, q Querier, a *ActivityRow, seen map[uuid.UUID]bool) error {
	if seen[a.ID] {
		return nil
	}
	seen[a.ID] = true

	if a.Parent != nil {
		if err := upsertActivityTree(ctx, q, a.Parent, seen); err != nil {
			return err
		}
	}

	_, err := q.Exec(ctx, `
		INSERT INTO activity (id, name, depth, parent_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, depth = EXCLUDED.depth, parent_id = EXCLUDED.parent_id
	`, a.ID, a.Name, a.Depth, a.ParentID)
	if err != nil {
		return fmt.Errorf("upsert activity: %w", err)
	}

	for _, child := range a.Children {
		if err := upsertActivityTree(ctx, q, child, seen); err != nil {
			return err
		}
	}
	return nil
}

// stream executes the query lazily: each advance scans one base row,
// loads its relation graph, and maps it. Ending the range closes the
// underlying rows on every path.
func (r *OrganizationRepo) stream(ctx context.Context, op, query string, args []any) ports.OrgSeq {
	return func(yield func(*domain.Organization, error) bool) {
		rows, err := r.db.Pool.Query(ctx, query, args...)
		if err != nil {
			metrics.ObserveQuery("organization", op, err)
			yield(nil, fmt.Errorf("query organizations: %w", err))
			return
		}
		defer rows.Close()

		loader := newGraphLoader(r.db.Pool)
		for rows.Next() {
			var base OrganizationRow
			if err := rows.Scan(&base.ID, &base.Name, &base.BuildingID); err != nil {
				metrics.ObserveQuery("organization", op, err)
				yield(nil, fmt.Errorf("scan organization: %w", err))
				return
			}

			org := loader.registerOrg(&base)
			if err := loader.LoadOrganization(ctx, org); err != nil {
				metrics.ObserveQuery("organization", op, err)
				yield(nil, err)
				return
			}

			mapped := r.mappers.Organizations.ToDomain(org, nil)
			metrics.MappedObjects.WithLabelValues("organization").Inc()
			if !yield(mapped, nil) {
				return
			}
		}

		metrics.ObserveQuery("organization", op, rows.Err())
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("stream organizations: %w", err))
		}
	}
}
