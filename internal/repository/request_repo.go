package repository

import (
	"context"

	"bodega/internal/model"

	"gorm.io/gorm"
)

type RequestTypeRepository interface {
	List(ctx context.Context) ([]model.RequestType, error)
	ResolveByCode(ctx context.Context, code string) (*model.RequestType, error)
	Default(ctx context.Context) (*model.RequestType, error)
	Create(ctx context.Context, rt *model.RequestType) error
}

type requestTypeRepository struct {
	db *gorm.DB
}

func NewRequestTypeRepository(db *gorm.DB) RequestTypeRepository {
	return &requestTypeRepository{db: db}
}

func (r *requestTypeRepository) List(ctx context.Context) ([]model.RequestType, error) {
	var types []model.RequestType
	if err := GetDB(ctx, r.db).Order("code asc").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// ResolveByCode is a best-effort substring lookup against the type catalog
func (r *requestTypeRepository) ResolveByCode(ctx context.Context, code string) (*model.RequestType, error) {
	var rt model.RequestType
	if err := GetDB(ctx, r.db).Where("code ILIKE ?", "%"+code+"%").First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *requestTypeRepository) Default(ctx context.Context) (*model.RequestType, error) {
	var rt model.RequestType
	if err := GetDB(ctx, r.db).Where("code = ?", model.RequestTypeDefault).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *requestTypeRepository) Create(ctx context.Context, rt *model.RequestType) error {
	return GetDB(ctx, r.db).Create(rt).Error
}

type RequestRepository interface {
	Create(ctx context.Context, request *model.Request) error
	FindByID(ctx context.Context, id int) (*model.Request, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *model.Request) error {
	return GetDB(ctx, r.db).Create(request).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id int) (*model.Request, error) {
	var request model.Request
	if err := GetDB(ctx, r.db).Preload("RequestType").First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}
