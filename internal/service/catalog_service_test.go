package service

import (
	"context"
	"testing"

	"bodega/internal/model"
)

func TestCatalogSearchLimitBounds(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back to default", 0, DefaultCatalogLimit},
		{"negative falls back to default", -5, DefaultCatalogLimit},
		{"above cap clamps to cap", 5000, MaxCatalogLimit},
		{"in range passes through", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &stubCatalogRepo{items: map[string]*model.CatalogItem{}}
			svc := NewCatalogService(catalog, &stubRequestTypeRepo{})

			if _, err := svc.Search(context.Background(), "", tt.limit); err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if catalog.searchLimit != tt.want {
				t.Errorf("Expected limit %d passed to the store, got %d", tt.want, catalog.searchLimit)
			}
		})
	}
}

func TestCatalogSearchMapsBrandLabel(t *testing.T) {
	brand := model.Brand{ID: 1, Name: "TRUPER"}
	catalog := &stubCatalogRepo{items: map[string]*model.CatalogItem{
		"X1": {Code: "X1", Name: "Martillo", Brand: &brand},
	}}
	svc := NewCatalogService(catalog, &stubRequestTypeRepo{})

	res, err := svc.Search(context.Background(), "mar", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res) != 1 || res[0].Brand != "TRUPER" {
		t.Errorf("Expected brand name mapped, got %+v", res)
	}
}

func TestCatalogSearchDefaultsBrandLabel(t *testing.T) {
	catalog := &stubCatalogRepo{items: map[string]*model.CatalogItem{
		"X1": {Code: "X1", Name: "Martillo"},
	}}
	svc := NewCatalogService(catalog, &stubRequestTypeRepo{})

	res, err := svc.Search(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res) != 1 || res[0].Brand != model.DefaultBrandLabel {
		t.Errorf("Expected generic brand label, got %+v", res)
	}
}

func TestRequestTypesList(t *testing.T) {
	types := &stubRequestTypeRepo{types: []model.RequestType{
		{ID: 1, Code: model.RequestTypeOffice, Description: "Oficina"},
		{ID: 2, Code: model.RequestTypeDefault, Description: "General"},
	}}
	svc := NewCatalogService(&stubCatalogRepo{items: map[string]*model.CatalogItem{}}, types)

	res, err := svc.RequestTypes(context.Background())
	if err != nil {
		t.Fatalf("RequestTypes failed: %v", err)
	}
	if len(res) != 2 || res[0].Code != model.RequestTypeOffice {
		t.Errorf("Expected the seeded types mapped through, got %+v", res)
	}
}
