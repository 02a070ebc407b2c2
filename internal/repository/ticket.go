package repository

import (
	"context"
	"errors"
	"fmt"
	"promo-campaign-backend/internal/model"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInsufficientTickets = errors.New("repository: not enough unassigned tickets in tier")
	ErrAssignConflict      = errors.New("repository: ticket assignment conflict, retries exhausted")
)

type TierStat struct {
	Tier     string `json:"tier"`
	Total    int64  `json:"total"`
	Assigned int64  `json:"assigned"`
}

type TicketRepository interface {
	CreateBatch(ctx context.Context, tickets []*model.Ticket) error
	FindAssignment(ctx context.Context, purchaseID string) (*model.TicketAssignment, error)
	// AssignTickets draws count unassigned tickets of the given tier and
	// records the assignment, all inside one transaction. assignment must
	// carry the purchase id and the owner snapshot; Codes is filled in.
	AssignTickets(ctx context.Context, assignment *model.TicketAssignment, tier string, count int) ([]string, error)
	TierStats(ctx context.Context) ([]*TierStat, error)
}

type ticketRepoImpl struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepoImpl{
		db: db,
	}
}

func (r *ticketRepoImpl) CreateBatch(ctx context.Context, tickets []*model.Ticket) error {
	return r.db.WithContext(ctx).CreateInBatches(tickets, 500).Error
}

func (r *ticketRepoImpl) FindAssignment(ctx context.Context, purchaseID string) (*model.TicketAssignment, error) {
	var assignment model.TicketAssignment
	err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		First(&assignment).Error

	if err != nil {
		return nil, err
	}

	return &assignment, nil
}

// assignAttempts bounds the compare-and-set retry loop when two draws race
// over the same candidate rows.
const assignAttempts = 3

func (r *ticketRepoImpl) AssignTickets(ctx context.Context, assignment *model.TicketAssignment, tier string, count int) ([]string, error) {
	var codes []string

	for attempt := 0; attempt < assignAttempts; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var candidates []model.Ticket
			if err := tx.Where("tier = ? AND assigned = ?", tier, false).
				Order("id").
				Limit(count).
				Find(&candidates).Error; err != nil {
				return fmt.Errorf("select candidate tickets: %w", err)
			}

			if len(candidates) < count {
				return ErrInsufficientTickets
			}

			ids := make([]uint, len(candidates))
			codes = make([]string, len(candidates))
			for i, t := range candidates {
				ids[i] = t.ID
				codes[i] = t.Code
			}

			now := time.Now()
			result := tx.Model(&model.Ticket{}).
				Where("id IN ? AND assigned = ?", ids, false).
				Updates(map[string]interface{}{
					"assigned":    true,
					"assigned_at": now,
				})
			if result.Error != nil {
				return fmt.Errorf("mark tickets assigned: %w", result.Error)
			}
			// Another draw grabbed some of our candidates between select
			// and update. Roll back and pick a fresh batch.
			if result.RowsAffected != int64(len(ids)) {
				return ErrAssignConflict
			}

			assignment.Codes = strings.Join(codes, ",")
			if err := tx.Create(assignment).Error; err != nil {
				return fmt.Errorf("create ticket assignment: %w", err)
			}

			return nil
		})

		if err == nil {
			return codes, nil
		}
		if !errors.Is(err, ErrAssignConflict) {
			return nil, err
		}
	}

	return nil, ErrAssignConflict
}

func (r *ticketRepoImpl) TierStats(ctx context.Context) ([]*TierStat, error) {
	var stats []*TierStat
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Select("tier, COUNT(*) AS total, SUM(CASE WHEN assigned THEN 1 ELSE 0 END) AS assigned").
		Group("tier").
		Order("tier").
		Scan(&stats).Error

	if err != nil {
		return nil, err
	}

	return stats, nil
}
