package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "campusafe/internal/errors"
	"campusafe/internal/model"
)

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository builds a GORM-backed item repository.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

// Create inserts a new item.
func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return apperrors.Store("create item", err)
	}
	return nil
}

// FindByID finds an item by ID.
func (r *itemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Store("find item", err)
	}
	return &item, nil
}

// FindAll lists items matching filter, newest first.
func (r *itemRepository) FindAll(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	q := r.db.WithContext(ctx).Model(&model.Item{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PostedBy != "" {
		q = q.Where("posted_by = ?", filter.PostedBy)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Query != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Query)) + "%"
		q = q.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(location) LIKE ? ESCAPE '!')", like, like, like)
	}

	items := []model.Item{}
	if err := q.Order("created_at DESC").Order("id").Find(&items).Error; err != nil {
		return nil, apperrors.Store("list items", err)
	}
	return items, nil
}

// UpdateLifecycle performs the conditional transition write.
func (r *itemRepository) UpdateLifecycle(ctx context.Context, item *model.Item, expected model.ItemStatus) error {
	item.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ? AND status = ?", item.ID, expected).
		Updates(map[string]interface{}{
			"status":          item.Status,
			"claimant_name":   item.ClaimantName,
			"claimant_email":  item.ClaimantEmail,
			"claimant_phone":  item.ClaimantPhone,
			"claim_answer1":   item.ClaimAnswer1,
			"claim_answer2":   item.ClaimAnswer2,
			"claim_answer3":   item.ClaimAnswer3,
			"claim_image":     item.ClaimImage,
			"pickup_code":     item.PickupCode,
			"pickup_location": item.PickupLocation,
			"updated_at":      item.UpdatedAt,
		})
	if res.Error != nil {
		return apperrors.Store("update item", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", item.ID).Count(&n).Error; err != nil {
		return apperrors.Store("update item", err)
	}
	if n == 0 {
		return apperrors.ErrItemNotFound
	}
	return fmt.Errorf("%w: item is no longer %q", apperrors.ErrInvalidTransition, expected)
}

// DeleteAll removes every item.
func (r *itemRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Item{})
	if res.Error != nil {
		return 0, apperrors.Store("delete items", res.Error)
	}
	return res.RowsAffected, nil
}

// Ping checks the database connection.
func (r *itemRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return apperrors.Store("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.Store("ping", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
