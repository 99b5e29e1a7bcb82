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

// ActivityRepo implements ports.ActivityRepository with pgx.
type ActivityRepo struct {
	db      *DB
	mappers *MapperSet
}

// NewActivityRepo creates a new ActivityRepo.
func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db, mappers: NewMapperSet()}
}

// Get returns the activity with its tree wired, or (nil, nil).
func (r *ActivityRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var base ActivityRow
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, depth, parent_id FROM activity WHERE id = $1
	`, id).Scan(&base.ID, &base.Name, &base.Depth, &base.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveQuery("activity", "get", nil)
		return nil, nil
	}
	if err != nil {
		metrics.ObserveQuery("activity", "get", err)
		return nil, fmt.Errorf("get activity: %w", err)
	}

	loader := newGraphLoader(r.db.Pool)
	if err := loader.LoadActivity(ctx, &base); err != nil {
		metrics.ObserveQuery("activity", "get", err)
		return nil, err
	}

	metrics.ObserveQuery("activity", "get", nil)
	return r.mappers.Activities.ToDomain(&base, nil), nil
}

// GetAll streams activities ordered by depth then name, so parents
// come out before their children.
func (r *ActivityRepo) GetAll(ctx context.Context, p ports.Page) ports.ActivitySeq {
	return func(yield func(*domain.Activity, error) bool) {
		query := `SELECT id, name, depth, parent_id FROM activity ORDER BY depth, name, id`
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
			metrics.ObserveQuery("activity", "get_all", err)
			yield(nil, fmt.Errorf("query activities: %w", err))
			return
		}
		defer rows.Close()

		loader := newGraphLoader(r.db.Pool)
		for rows.Next() {
			var base ActivityRow
			if err := rows.Scan(&base.ID, &base.Name, &base.Depth, &base.ParentID); err != nil {
				metrics.ObserveQuery("activity", "get_all", err)
				yield(nil, fmt.Errorf("scan activity: %w", err))
				return
			}

			if err := loader.LoadActivity(ctx, &base); err != nil {
				metrics.ObserveQuery("activity", "get_all", err)
				yield(nil, err)
				return
			}

			mapped := r.mappers.Activities.ToDomain(&base, nil)
			metrics.MappedObjects.WithLabelValues("activity").Inc()
			if !yield(mapped, nil) {
				return
			}
		}

		metrics.ObserveQuery("activity", "get_all", rows.Err())
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("stream activities: %w", err))
		}
	}
}

// Create persists a new activity node (with any parents it references).
func (r *ActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		exists, err := rowExists(ctx, q, "activity", a.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("activity %s: %w", a.ID, domain.ErrAlreadyExists)
		}
		row := r.mappers.Activities.FromDomain(a, nil)
		return upsertActivityTree(ctx, q, row, map[uuid.UUID]bool{})
	})
	metrics.ObserveQuery("activity", "create", err)
	return err
}

// Update rewrites an existing activity node and its linked tree rows.
func (r *ActivityRepo) Update(ctx context.Context, a *domain.Activity) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		exists, err := rowExists(ctx, q, "activity", a.ID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("activity %s: %w", a.ID, domain.ErrDoesNotExist)
		}
		row := r.mappers.Activities.FromDomain(a, nil)
		return upsertActivityTree(ctx, q, row, map[uuid.UUID]bool{})
	})
	metrics.ObserveQuery("activity", "update", err)
	return err
}

// Delete removes the activity; descendant activities and join rows go
// with it via the delete cascades.
func (r *ActivityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.RunInTx(ctx, func(q Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM activity WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete activity: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("activity %s: %w", id, domain.ErrDoesNotExist)
		}
		return nil
	})
	metrics.ObserveQuery("activity", "delete", err)
	return err
}
