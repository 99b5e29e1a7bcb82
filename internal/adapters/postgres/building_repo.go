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

// BuildingRepo implements ports.BuildingRepository with pgx.
type BuildingRepo struct {
	db      *DB
	mappers *MapperSet
}

// NewBuildingRepo creates a new BuildingRepo.
func NewBuildingRepo(db *DB) *BuildingRepo {
	return &BuildingRepo{db: db, mappers: NewMapperSet()}
}

// Get returns the building with its organizations, or (nil, nil).
func (r *BuildingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Building, error) {
	var base BuildingRow
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, ST_Y(location::geometry), ST_X(location::geometry)
		FROM building WHERE id = $1
	`, id).Scan(&base.ID, &base.Name, &base.Lat, &base.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveQuery("building", "get", nil)
		return nil, nil
	}
	if err != nil {
		metrics.ObserveQuery("building", "get", err)
		return nil, fmt.Errorf("get building: %w", err)
	}

	loader := newGraphLoader(r.db.Pool)
	if err := loader.LoadBuilding(ctx, &base); err != nil {
		metrics.ObserveQuery("building", "get", err)
		return nil, err
	}

	metrics.ObserveQuery("building", "get", nil)
	return r.mappers.Buildings.ToDomain(&base, nil), nil
}

// GetAll streams buildings ordered by name.
func (r *BuildingRepo) GetAll(ctx context.Context, p ports.Page) ports.BuildingSeq {
	return func(yield func(*domain.Building, error) bool) {
		query := `
			SELECT id, name, ST_Y(location::geometry), ST_X(location::geometry)
			FROM building ORDER BY name, id
		`
		var args []any
		if p.Offset > 0 {
			args = append(args, p.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
		if p.Limit > 0 {
			args = append(args, p.Limit)
			query += fmt.Sprintf(" LIMIT $%d", len(args))
		}

		rows, err := r.db.Pool.Query(ctx, query, args...)
		if err != nil {
			metrics.ObserveQuery("building", "get_all", err)
			yield(nil, fmt.Errorf("query buildings: %w", err))
			return
		}
		defer rows.Close()

		loader := newGraphLoader(r.db.Pool)
		for rows.Next() {
			var base BuildingRow
			if err := rows.Scan(&base.ID, &base.Name, &base.Lat, &base.Lon); err != nil {
				metrics.ObserveQuery("building", "get_all", err)
				yield(nil, fmt.Errorf("scan building: %w", err))
				return
			}

			if err := loader.LoadBuilding(ctx, &base); err != nil {
				metrics.ObserveQuery("building", "get_all", err)
				yield(nil, err)
				return
			}

			mapped := r.mappers.Buildings.ToDomain(&base, nil)
			metrics.MappedObjects.WithLabelValues("building").Inc()
			if !yield(mapped, nil) {
				return
			}
		}

		metrics.ObserveQuery("building", "get_all", rows.Err())
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("stream buildings: %w", err))
		}
	}
}

// Create persists a new building. A duplicate id fails with
// domain.ErrAlreadyExists.
func (r *BuildingRepo) Create(ctx context.Context, b *domain.Building) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		exists, err := rowExists(ctx, q, "building", b.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("building %s: %w", b.ID, domain.ErrAlreadyExists)
		}
		return upsertBuilding(ctx, q, r.mappers.Buildings.FromDomain(b, nil))
	})
	metrics.ObserveQuery("building", "create", err)
	return err
}

// Update rewrites an existing building. A missing id fails with
// domain.ErrDoesNotExist.
func (r *BuildingRepo) Update(ctx context.Context, b *domain.Building) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		exists, err := rowExists(ctx, q, "building", b.ID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("building %s: %w", b.ID, domain.ErrDoesNotExist)
		}
		return upsertBuilding(ctx, q, r.mappers.Buildings.FromDomain(b, nil))
	})
	metrics.ObserveQuery("building", "update", err)
	return err
}

// Delete removes the building; its organizations, their phones, and
// their join rows go with it via the delete cascades.
func (r *BuildingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM building WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete building: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("building %s: %w", id, domain.ErrDoesNotExist)
		}
		return nil
	})
	metrics.ObserveQuery("building", "delete", err)
	return err
}
