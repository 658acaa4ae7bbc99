// Package repository defines data-access interfaces over GORM.
package repository

import (
	"context"
	"errors"
	"time"

	"somnia/models"

	"gorm.io/gorm"
)

// ErrInvalidResetToken is returned when a reset token does not match any user
// or has expired. Callers must not distinguish the two cases.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Delete(ctx context.Context, id uint) error
	SetResetToken(ctx context.Context, id uint, token string, expiresAt time.Time) error
	RedeemResetToken(ctx context.Context, token, newHash string) (*models.User, error)
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND email = ?", username, email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateProfile replaces the mutable profile fields of the user row.
// The password hash and reset-token columns are never touched here.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{ID: user.ID}).
		Select("username", "email", "age", "gender", "stress", "dream_theme").
		Updates(user).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{ID: id}).
		Update("password", hash).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the user and its favorites in a single transaction.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// SetResetToken stores a new pending reset token, replacing any prior one.
func (r *userRepository) SetResetToken(ctx context.Context, id uint, token string, expiresAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{ID: id}).
		Updates(map[string]any{
			"reset_token":            token,
			"reset_token_expires_at": expiresAt,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// RedeemResetToken consumes a pending reset token: the password update and
// the token clear happen in one transaction so a replayed token always fails.
func (r *userRepository) RedeemResetToken(ctx context.Context, token, newHash string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("reset_token = ? AND reset_token_expires_at > ?", token, time.Now()).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidResetToken
			}
			return err
		}

		return tx.Model(&user).Updates(map[string]any{
			"password":               newHash,
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return nil, ErrInvalidResetToken
		}
		return nil, models.NewInternalError(err)
	}

	user.Password = newHash
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil
	return &user, nil
}
