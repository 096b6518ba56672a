package repository

import (
	"context"
	"time"

	"bodega/internal/model"

	"gorm.io/gorm"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, withdrawal *model.Withdrawal) error
	CreateItems(ctx context.Context, items []model.WithdrawalItem) error
	FindByIDWithItems(ctx context.Context, id int) (*model.Withdrawal, error)
	List(ctx context.Context, page, limit int) ([]model.Withdrawal, int64, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Withdrawal, error)
}

type withdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(ctx context.Context, withdrawal *model.Withdrawal) error {
	return GetDB(ctx, r.db).Create(withdrawal).Error
}

func (r *withdrawalRepository) CreateItems(ctx context.Context, items []model.WithdrawalItem) error {
	if len(items) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&items).Error
}

func (r *withdrawalRepository) FindByIDWithItems(ctx context.Context, id int) (*model.Withdrawal, error) {
	var withdrawal model.Withdrawal
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Item").
		Preload("Approver").
		Preload("Requester").
		First(&withdrawal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) List(ctx context.Context, page, limit int) ([]model.Withdrawal, int64, error) {
	var withdrawals []model.Withdrawal
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Withdrawal{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Approver").
		Preload("Requester").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&withdrawals).Error; err != nil {
		return nil, 0, err
	}

	return withdrawals, total, nil
}

func (r *withdrawalRepository) ListBetween(ctx context.Context, from, to time.Time) ([]model.Withdrawal, error) {
	var withdrawals []model.Withdrawal
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Approver").
		Preload("Requester").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	return withdrawals, nil
}
