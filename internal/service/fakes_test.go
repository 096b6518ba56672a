package service

import (
	"context"
	"time"

	"bodega/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shared in-memory stubs for the repository interfaces. They return canned
// data and record the arguments the services pass down.

type stubCatalogRepo struct {
	items       map[string]*model.CatalogItem
	searchLimit int
}

func (s *stubCatalogRepo) Search(ctx context.Context, search string, limit int) ([]model.CatalogItem, error) {
	s.searchLimit = limit
	res := make([]model.CatalogItem, 0, len(s.items))
	for _, item := range s.items {
		res = append(res, *item)
	}
	return res, nil
}

func (s *stubCatalogRepo) FindByCode(ctx context.Context, code string) (*model.CatalogItem, error) {
	item, ok := s.items[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubCatalogRepo) FindByCodes(ctx context.Context, codes []string) ([]model.CatalogItem, error) {
	res := make([]model.CatalogItem, 0, len(codes))
	for _, code := range codes {
		if item, ok := s.items[code]; ok {
			res = append(res, *item)
		}
	}
	return res, nil
}

func (s *stubCatalogRepo) DecrementStock(ctx context.Context, code string, qty decimal.Decimal) (bool, error) {
	item, ok := s.items[code]
	if !ok || qty.GreaterThan(item.AvailableQuantity) {
		return false, nil
	}
	item.AvailableQuantity = item.AvailableQuantity.Sub(qty)
	return true, nil
}

func (s *stubCatalogRepo) Create(ctx context.Context, item *model.CatalogItem) error { return nil }
func (s *stubCatalogRepo) Update(ctx context.Context, item *model.CatalogItem) error { return nil }

type stubCollaboratorRepo struct {
	collaborators []model.Collaborator
}

func (s *stubCollaboratorRepo) Directory(ctx context.Context) ([]model.Collaborator, error) {
	return s.collaborators, nil
}

func (s *stubCollaboratorRepo) FindByID(ctx context.Context, id int) (*model.Collaborator, error) {
	for i := range s.collaborators {
		if s.collaborators[i].ID == id {
			return &s.collaborators[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCollaboratorRepo) FindByEmail(ctx context.Context, email string) (*model.Collaborator, error) {
	for i := range s.collaborators {
		if s.collaborators[i].Email == email {
			return &s.collaborators[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCollaboratorRepo) Create(ctx context.Context, collaborator *model.Collaborator) error {
	return nil
}

type stubRequestTypeRepo struct {
	types []model.RequestType
}

func (s *stubRequestTypeRepo) List(ctx context.Context) ([]model.RequestType, error) {
	return s.types, nil
}

func (s *stubRequestTypeRepo) ResolveByCode(ctx context.Context, code string) (*model.RequestType, error) {
	for i := range s.types {
		if s.types[i].Code == code {
			return &s.types[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRequestTypeRepo) Default(ctx context.Context) (*model.RequestType, error) {
	for i := range s.types {
		if s.types[i].Code == model.RequestTypeDefault {
			return &s.types[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRequestTypeRepo) Create(ctx context.Context, rt *model.RequestType) error { return nil }

type stubRequestRepo struct {
	created []model.Request
}

func (s *stubRequestRepo) Create(ctx context.Context, request *model.Request) error {
	request.ID = len(s.created) + 1
	s.created = append(s.created, *request)
	return nil
}

func (s *stubRequestRepo) FindByID(ctx context.Context, id int) (*model.Request, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubWithdrawalRepo struct {
	headers []model.Withdrawal
	items   []model.WithdrawalItem
	between []model.Withdrawal
}

func (s *stubWithdrawalRepo) Create(ctx context.Context, w *model.Withdrawal) error {
	w.ID = len(s.headers) + 1
	w.CreatedAt = time.Now()
	s.headers = append(s.headers, *w)
	return nil
}

func (s *stubWithdrawalRepo) CreateItems(ctx context.Context, items []model.WithdrawalItem) error {
	s.items = append(s.items, items...)
	return nil
}

func (s *stubWithdrawalRepo) FindByIDWithItems(ctx context.Context, id int) (*model.Withdrawal, error) {
	for i := range s.headers {
		if s.headers[i].ID == id {
			return &s.headers[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubWithdrawalRepo) List(ctx context.Context, page, limit int) ([]model.Withdrawal, int64, error) {
	return s.headers, int64(len(s.headers)), nil
}

func (s *stubWithdrawalRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Withdrawal, error) {
	return s.between, nil
}

type stubAuditRepo struct {
	entries  []model.AuditLog
	failWith error
}

func (s *stubAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return s.entries, int64(len(s.entries)), nil
}

type stubTxManager struct{}

func (s *stubTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
