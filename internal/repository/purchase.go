package repository

import (
	"context"
	"promo-campaign-backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	FindByID(ctx context.Context, purchaseID string) (*model.Purchase, error)
	UpdateValidation(ctx context.Context, purchaseID, iaStatus string, iaScore int, iaDetail, adminStatus string) error
}

type purchaseRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepoImpl{
		db: db,
	}
}

func (r *purchaseRepoImpl) Create(ctx context.Context, purchase *model.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *purchaseRepoImpl) FindByID(ctx context.Context, purchaseID string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Where("id = ?", purchaseID).
		First(&purchase).Error

	if err != nil {
		return nil, err
	}

	return &purchase, nil
}

// UpdateValidation persists the classifier verdict. adminStatus is only
// written when non-empty so admin review decisions are never clobbered.
func (r *purchaseRepoImpl) UpdateValidation(ctx context.Context, purchaseID, iaStatus string, iaScore int, iaDetail, adminStatus string) error {
	updates := map[string]interface{}{
		"ia_status":  iaStatus,
		"ia_score":   iaScore,
		"ia_detail":  iaDetail,
		"updated_at": time.Now(),
	}
	if adminStatus != "" {
		updates["admin_status"] = adminStatus
	}

	result := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("id = ?", purchaseID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
