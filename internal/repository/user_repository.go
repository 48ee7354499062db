package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "campusafe/internal/errors"
	"campusafe/internal/model"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetOrCreate(ctx context.Context, email string) (*model.User, error) {
	if err := r.insertIfAbsent(r.db.WithContext(ctx), email); err != nil {
		return nil, apperrors.Store("create user", err)
	}
	return r.find(r.db.WithContext(ctx), email)
}

func (r *userRepository) UpdateProfile(ctx context.Context, email string, update model.ProfileUpdate) (*model.User, error) {
	var user *model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.insertIfAbsent(tx, email); err != nil {
			return apperrors.Store("create user", err)
		}

		changes := map[string]interface{}{
			"is_profile_complete": true,
			"updated_at":          time.Now(),
		}
		for col, v := range map[string]*string{
			"name":          update.Name,
			"usn":           update.USN,
			"branch":        update.Branch,
			"course":        update.Course,
			"profile_photo": update.ProfilePhoto,
		} {
			if v != nil {
				changes[col] = *v
			}
		}
		if update.Year != nil {
			changes["year"] = *update.Year
		}
		if err := tx.Model(&model.User{}).Where("email = ?", email).Updates(changes).Error; err != nil {
			return apperrors.Store("update user", err)
		}

		var err error
		user, err = r.find(tx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Increment(ctx context.Context, email string, counter Counter, delta int) error {
	col := "posts_count"
	if counter == ClaimsCounter {
		col = "claims_count"
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).
		UpdateColumn(col, gorm.Expr(col+" + ?", delta))
	if res.Error != nil {
		return apperrors.Store("increment user counter", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// insertIfAbsent relies on the primary key so concurrent first lookups cannot create duplicates.
func (r *userRepository) insertIfAbsent(db *gorm.DB, email string) error {
	now := time.Now()
	user := model.User{Email: email, CreatedAt: now, UpdatedAt: now}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error
}

func (r *userRepository) find(db *gorm.DB, email string) (*model.User, error) {
	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Store("find user", err)
	}
	return &user, nil
}
