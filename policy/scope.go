package policy

import (
	"context"

	"gorm.io/gorm"
)

// ScopeResolver resolves which restaurants a manager currently owns.
// Ownership is read fresh on every call — an admin can reassign a
// restaurant between two requests, so the owned set must never be cached.
type ScopeResolver struct {
	db *gorm.DB
}

func NewScopeResolver(db *gorm.DB) *ScopeResolver {
	return &ScopeResolver{db: db}
}

// RestaurantsOwnedBy returns the IDs of all non-deleted restaurants
// assigned to the given manager. An empty slice is a valid answer: a
// manager with no restaurants simply has an empty scope, not an error.
func (s *ScopeResolver) RestaurantsOwnedBy(ctx context.Context, managerID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Table("restaurants").
		Where("manager_id = ? AND is_deleted = ?", managerID, false).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// IsOwner reports whether the manager owns the given non-deleted restaurant.
func (s *ScopeResolver) IsOwner(ctx context.Context, managerID, restaurantID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table("restaurants").
		Where("id = ? AND manager_id = ? AND is_deleted = ?", restaurantID, managerID, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
