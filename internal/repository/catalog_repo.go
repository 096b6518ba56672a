package repository

import (
	"context"

	"bodega/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CatalogRepository interface {
	Search(ctx context.Context, search string, limit int) ([]model.CatalogItem, error)
	FindByCode(ctx context.Context, code string) (*model.CatalogItem, error)
	FindByCodes(ctx context.Context, codes []string) ([]model.CatalogItem, error)
	DecrementStock(ctx context.Context, code string, qty decimal.Decimal) (bool, error)
	Create(ctx context.Context, item *model.CatalogItem) error
	Update(ctx context.Context, item *model.CatalogItem) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// Search returns in-stock items matching the substring against name or code,
// case-insensitive, brand joined, bounded by limit.
func (r *catalogRepository) Search(ctx context.Context, search string, limit int) ([]model.CatalogItem, error) {
	var items []model.CatalogItem

	db := GetDB(ctx, r.db).Model(&model.CatalogItem{}).
		Preload("Brand").
		Where("available_quantity > 0")
	if search != "" {
		term := "%" + search + "%"
		db = db.Where("name ILIKE ? OR code ILIKE ?", term, term)
	}

	if err := db.Order("name asc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

func (r *catalogRepository) FindByCode(ctx context.Context, code string) (*model.CatalogItem, error) {
	var item model.CatalogItem
	if err := GetDB(ctx, r.db).Preload("Brand").Where("code = ?", code).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) FindByCodes(ctx context.Context, codes []string) ([]model.CatalogItem, error) {
	var items []model.CatalogItem
	if err := GetDB(ctx, r.db).Where("code IN ?", codes).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DecrementStock subtracts qty from an item's available quantity only when
// enough stock remains. Returns false without touching the row otherwise, so
// the caller can abort the surrounding transaction.
func (r *catalogRepository) DecrementStock(ctx context.Context, code string, qty decimal.Decimal) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.CatalogItem{}).
		Where("code = ? AND available_quantity >= ?", code, qty).
		Update("available_quantity", gorm.Expr("available_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *catalogRepository) Create(ctx context.Context, item *model.CatalogItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *catalogRepository) Update(ctx context.Context, item *model.CatalogItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}
