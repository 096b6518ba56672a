package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bodega/internal/model"
	"bodega/internal/service"
	"bodega/internal/withdrawal"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

const testSecret = "test-secret"

// fakeDraftService scripts the service layer so the handler tests exercise
// routing, auth and status mapping in isolation.
type fakeDraftService struct {
	response  *service.DraftResponse
	result    *withdrawal.Result
	err       error
	lastID    string
	lastIndex int
	lastField service.UpdateFieldRequest
}

func (f *fakeDraftService) Create(ctx context.Context, variant, userEmail string) (*service.DraftResponse, error) {
	return f.response, f.err
}

func (f *fakeDraftService) Get(id string) (*service.DraftResponse, error) {
	f.lastID = id
	return f.response, f.err
}

func (f *fakeDraftService) AddRow(id string) (*service.DraftResponse, error) {
	f.lastID = id
	return f.response, f.err
}

func (f *fakeDraftService) ApplyItem(ctx context.Context, id string, rowIndex int, itemCode string) (*service.DraftResponse, error) {
	f.lastID = id
	f.lastIndex = rowIndex
	return f.response, f.err
}

func (f *fakeDraftService) UpdateField(id string, rowIndex int, req service.UpdateFieldRequest) (*service.DraftResponse, error) {
	f.lastID = id
	f.lastIndex = rowIndex
	f.lastField = req
	return f.response, f.err
}

func (f *fakeDraftService) UpdateHeader(id string, req service.UpdateHeaderRequest) (*service.DraftResponse, error) {
	f.lastID = id
	return f.response, f.err
}

func (f *fakeDraftService) RemoveRow(id string, rowIndex int) (*service.DraftResponse, error) {
	f.lastID = id
	f.lastIndex = rowIndex
	return f.response, f.err
}

func (f *fakeDraftService) Submit(ctx context.Context, id, userID string) (*withdrawal.Result, *service.DraftResponse, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.response, f.err
	}
	return f.result, f.response, nil
}

func draftRouter(t *testing.T, svc service.DraftService) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	NewDraftHandler(svc).RegisterRoutes(&router.RouterGroup)
	return router
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "a2f5c0de-9f11-4c8f-8a77-2a2e4b6f9c01",
		"role":  role,
		"email": "mgarcia@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleDraft() *service.DraftResponse {
	return &service.DraftResponse{
		ID:       "d1",
		TypeCode: model.RequestTypeTools,
		Lines:    []withdrawal.Line{{}},
	}
}

func TestDraftRoutesRequireToken(t *testing.T) {
	router := draftRouter(t, &fakeDraftService{response: sampleDraft()})

	rec := doRequest(t, router, http.MethodGet, "/api/drafts/d1", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", rec.Code)
	}
}

func TestDraftRoutesRejectReadOnlyRole(t *testing.T) {
	router := draftRouter(t, &fakeDraftService{response: sampleDraft()})

	rec := doRequest(t, router, http.MethodGet, "/api/drafts/d1", signToken(t, model.RoleReadOnly), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for read-only role, got %d", rec.Code)
	}
}

func TestCreateDraft(t *testing.T) {
	svc := &fakeDraftService{response: sampleDraft()}
	router := draftRouter(t, svc)

	rec := doRequest(t, router, http.MethodPost, "/api/drafts", signToken(t, model.RoleWarehouse),
		map[string]string{"variant": "herramienta"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Status string                `json:"status"`
		Data   service.DraftResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "success" || body.Data.ID != "d1" {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestCreateDraftMissingVariant(t *testing.T) {
	router := draftRouter(t, &fakeDraftService{response: sampleDraft()})

	rec := doRequest(t, router, http.MethodPost, "/api/drafts", signToken(t, model.RoleAdmin),
		map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing variant, got %d", rec.Code)
	}
}

func TestCreateDraftUnknownVariant(t *testing.T) {
	router := draftRouter(t, &fakeDraftService{err: service.ErrUnknownVariant})

	rec := doRequest(t, router, http.MethodPost, "/api/drafts", signToken(t, model.RoleAdmin),
		map[string]string{"variant": "papeleria"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown variant, got %d", rec.Code)
	}
}

func TestGetDraftNotFound(t *testing.T) {
	router := draftRouter(t, &fakeDraftService{err: service.ErrDraftNotFound})

	rec := doRequest(t, router, http.MethodGet, "/api/drafts/missing", signToken(t, model.RoleWarehouse), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestUpdateFieldParsesIndex(t *testing.T) {
	svc := &fakeDraftService{response: sampleDraft()}
	router := draftRouter(t, svc)

	rec := doRequest(t, router, http.MethodPut, "/api/drafts/d1/rows/2", signToken(t, model.RoleWarehouse),
		map[string]string{"field": "quantity", "value": "5"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastIndex != 2 || svc.lastField.Field != "quantity" || svc.lastField.Value != "5" {
		t.Errorf("Expected field edit forwarded, got index=%d req=%+v", svc.lastIndex, svc.lastField)
	}

	rec = doRequest(t, router, http.MethodPut, "/api/drafts/d1/rows/abc", signToken(t, model.RoleWarehouse),
		map[string]string{"field": "quantity", "value": "5"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-numeric index, got %d", rec.Code)
	}
}

func TestSubmitDraft(t *testing.T) {
	svc := &fakeDraftService{
		response: sampleDraft(),
		result:   &withdrawal.Result{WithdrawalID: 7, RequestNumber: "15"},
	}
	router := draftRouter(t, svc)

	rec := doRequest(t, router, http.MethodPost, "/api/drafts/d1/submit", signToken(t, model.RoleWarehouse), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			Result withdrawal.Result `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.Result.WithdrawalID != 7 || body.Data.Result.RequestNumber != "15" {
		t.Errorf("Unexpected result: %s", rec.Body.String())
	}
}

func TestSubmitErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing responsible", withdrawal.ErrMissingResponsible, http.StatusBadRequest},
		{"no valid items", withdrawal.ErrNoValidItems, http.StatusBadRequest},
		{"stock exceeded", &withdrawal.StockExceededError{ItemCode: "X1", Available: decimal.NewFromInt(10)}, http.StatusConflict},
		{"submit in flight", service.ErrSubmitInFlight, http.StatusConflict},
		{"draft not found", service.ErrDraftNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := draftRouter(t, &fakeDraftService{response: sampleDraft(), err: tt.err})

			rec := doRequest(t, router, http.MethodPost, "/api/drafts/d1/submit", signToken(t, model.RoleAdmin), nil)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSubmitErrorCarriesDraftState(t *testing.T) {
	router := draftRouter(t, &fakeDraftService{response: sampleDraft(), err: withdrawal.ErrNoValidItems})

	rec := doRequest(t, router, http.MethodPost, "/api/drafts/d1/submit", signToken(t, model.RoleAdmin), nil)

	var body struct {
		Status string                 `json:"status"`
		Data   *service.DraftResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "error" || body.Data == nil || body.Data.ID != "d1" {
		t.Errorf("Expected the draft attached to the error body, got %s", rec.Body.String())
	}
}
