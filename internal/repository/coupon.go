package repository

import (
	"context"
	"errors"
	"promo-campaign-backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// ErrCouponNotActive is returned when a status transition is attempted on a
// coupon that already left the ACTIVE state.
var ErrCouponNotActive = errors.New("repository: coupon is not active")

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
	Void(ctx context.Context, code string) error
	CountByOwnerType(ctx context.Context, ownerType string) (int64, error)
}

type couponRepoImpl struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepoImpl{
		db: db,
	}
}

func (r *couponRepoImpl) Create(ctx context.Context, coupon *model.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *couponRepoImpl) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&coupon).Error

	if err != nil {
		return nil, err
	}

	return &coupon, nil
}

func (r *couponRepoImpl) Void(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("code = ? AND status = ?", code, model.CouponActive).
		Updates(map[string]interface{}{
			"status":     model.CouponVoid,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish unknown code from an illegal transition.
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Coupon{}).
			Where("code = ?", code).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrCouponNotActive
	}
	return nil
}

func (r *couponRepoImpl) CountByOwnerType(ctx context.Context, ownerType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("owner_type = ?", ownerType).
		Count(&count).Error

	return count, err
}
