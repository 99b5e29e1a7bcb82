package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
	"github.com/Andreo9078/orgdirectory/internal/core/ports"
)

// ActivityService handles the activity category tree.
type ActivityService struct {
	activities ports.ActivityRepository
}

// NewActivityService creates a new ActivityService.
func NewActivityService(activities ports.ActivityRepository) *ActivityService {
	return &ActivityService{activities: activities}
}

// Get returns a single activity with its parent chain and children, or
// (nil, nil) when no activity has the id.
func (s *ActivityService) Get(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	return s.activities.Get(ctx, id)
}

// List returns activities ordered by depth, paginated.
func (s *ActivityService) List(ctx context.Context, p ports.Page) ([]*domain.Activity, error) {
	p.Offset, p.Limit = clampPage(p.Offset, p.Limit)

	var out []*domain.Activity
	for a, err := range s.activities.GetAll(ctx, p) {
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CreateRoot persists a new top-level activity.
func (s *ActivityService) CreateRoot(ctx context.Context, name string) (*domain.Activity, error) {
	if name == "" {
		return nil, fmt.Errorf("activity name must not be empty")
	}
	a := &domain.Activity{ID: uuid.New(), Name: name, Depth: 1}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateChild attaches a new activity under the given parent. The tree
// is left untouched when the depth cap would be exceeded; the caller
// sees domain.ErrMaxDepthExceeded.
func (s *ActivityService) CreateChild(ctx context.Context, parentID uuid.UUID, name string) (*domain.Activity, error) {
	if name == "" {
		return nil, fmt.Errorf("activity name must not be empty")
	}
	parent, err := s.activities.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, domain.ErrDoesNotExist
	}

	child := &domain.Activity{ID: uuid.New(), Name: name}
	if err := parent.AddChild(child); err != nil {
		return nil, err
	}
	if err := s.activities.Update(ctx, parent); err != nil {
		return nil, err
	}
	return child, nil
}

// Delete removes an activity and its descendants.
func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.activities.Delete(ctx, id)
}
