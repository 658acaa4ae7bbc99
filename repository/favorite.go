package repository

import (
	"context"
	"errors"

	"somnia/models"

	"gorm.io/gorm"
)

// ErrFavoriteNotFound is returned when a favorite does not exist or belongs
// to another user. Callers must not distinguish the two cases.
var ErrFavoriteNotFound = errors.New("favorite not found")

// FavoriteRepository defines the interface for favorite data operations
type FavoriteRepository interface {
	Create(ctx context.Context, favorite *models.Favorite) error
	ListByUser(ctx context.Context, userID uint) ([]models.Favorite, error)
	DeleteOwned(ctx context.Context, id, userID uint) error
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	if err := r.db.WithContext(ctx).Create(favorite).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByUser returns the user's favorites, newest first.
func (r *favoriteRepository) ListByUser(ctx context.Context, userID uint) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return favorites, nil
}

// DeleteOwned deletes a favorite only if it belongs to userID.
func (r *favoriteRepository) DeleteOwned(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}
