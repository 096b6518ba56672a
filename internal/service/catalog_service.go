package service

import (
	"context"

	"bodega/internal/model"
	"bodega/internal/repository"

	"github.com/shopspring/decimal"
)

// Page size bounds for catalog search. The bulk-load pages request up to the
// hard cap; interactive search sticks to the default.
const (
	DefaultCatalogLimit = 50
	MaxCatalogLimit     = 1000
)

type CatalogItemResponse struct {
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Brand             string          `json:"brand"`
	ImageURL          *string         `json:"image_url"`
}

type RequestTypeResponse struct {
	ID          int    `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type CatalogService interface {
	Search(ctx context.Context, search string, limit int) ([]CatalogItemResponse, error)
	RequestTypes(ctx context.Context) ([]RequestTypeResponse, error)
}

type catalogService struct {
	catalogRepo     repository.CatalogRepository
	requestTypeRepo repository.RequestTypeRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository, requestTypeRepo repository.RequestTypeRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, requestTypeRepo: requestTypeRepo}
}

// Search returns in-stock catalog entries matching the substring, bounded by
// the page-size cap
func (s *catalogService) Search(ctx context.Context, search string, limit int) ([]CatalogItemResponse, error) {
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	if limit > MaxCatalogLimit {
		limit = MaxCatalogLimit
	}

	items, err := s.catalogRepo.Search(ctx, search, limit)
	if err != nil {
		return nil, err
	}

	res := make([]CatalogItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, mapCatalogItem(&item))
	}
	return res, nil
}

func (s *catalogService) RequestTypes(ctx context.Context) ([]RequestTypeResponse, error) {
	types, err := s.requestTypeRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]RequestTypeResponse, 0, len(types))
	for _, rt := range types {
		res = append(res, RequestTypeResponse{ID: rt.ID, Code: rt.Code, Description: rt.Description})
	}
	return res, nil
}

func mapCatalogItem(item *model.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{
		Code:              item.Code,
		Name:              item.Name,
		Unit:              item.Unit,
		UnitPrice:         item.UnitPrice,
		AvailableQuantity: item.AvailableQuantity,
		Brand:             item.BrandLabel(),
		ImageURL:          item.ImageURL,
	}
}
