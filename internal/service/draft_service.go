package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"bodega/internal/model"
	"bodega/internal/repository"
	"bodega/internal/withdrawal"
	ws "bodega/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrDraftNotFound  = errors.New("draft not found")
	ErrUnknownVariant = errors.New("unknown withdrawal form variant")
	ErrSubmitInFlight = errors.New("a submission is already in progress for this draft")
	ErrItemNotFound   = errors.New("catalog item not found")
)

// Idle drafts are evicted after this window; a form left open longer starts over
const draftTTL = 2 * time.Hour

// Websocket payload pushed after a committed withdrawal changes stock
type StockEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// DTOs
type UpdateHeaderRequest struct {
	ApproverID    string `json:"approver_id"`
	RequesterID   string `json:"requester_id"`
	Comments      string `json:"comments"`
	RequestNumber string `json:"request_number"`
}

type UpdateFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type DraftResponse struct {
	ID         string               `json:"id"`
	TypeCode   string               `json:"type_code"`
	Header     withdrawal.Header    `json:"header"`
	Lines      []withdrawal.Line    `json:"lines"`
	Feedback   *withdrawal.Feedback `json:"feedback,omitempty"`
	Submitting bool                 `json:"submitting"`
}

type DraftService interface {
	Create(ctx context.Context, variant, userEmail string) (*DraftResponse, error)
	Get(id string) (*DraftResponse, error)
	AddRow(id string) (*DraftResponse, error)
	ApplyItem(ctx context.Context, id string, rowIndex int, itemCode string) (*DraftResponse, error)
	UpdateField(id string, rowIndex int, req UpdateFieldRequest) (*DraftResponse, error)
	UpdateHeader(id string, req UpdateHeaderRequest) (*DraftResponse, error)
	RemoveRow(id string, rowIndex int) (*DraftResponse, error)
	Submit(ctx context.Context, id, userID string) (*withdrawal.Result, *DraftResponse, error)
}

type draftEntry struct {
	mu         sync.Mutex
	draft      *withdrawal.Draft
	submitter  *withdrawal.Submitter
	submitting bool
	touchedAt  time.Time
}

type draftService struct {
	mu      sync.Mutex
	drafts  map[string]*draftEntry
	configs map[string]withdrawal.Config

	catalogRepo      repository.CatalogRepository
	collaboratorRepo repository.CollaboratorRepository
	requestTypeRepo  repository.RequestTypeRepository
	requestRepo      repository.RequestRepository
	withdrawalRepo   repository.WithdrawalRepository
	auditRepo        repository.AuditRepository
	txManager        repository.TransactionManager
	hub              *ws.Hub
}

func NewDraftService(
	catalogRepo repository.CatalogRepository,
	collaboratorRepo repository.CollaboratorRepository,
	requestTypeRepo repository.RequestTypeRepository,
	requestRepo repository.RequestRepository,
	withdrawalRepo repository.WithdrawalRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) DraftService {
	return &draftService{
		drafts:           make(map[string]*draftEntry),
		configs:          variantConfigs(),
		catalogRepo:      catalogRepo,
		collaboratorRepo: collaboratorRepo,
		requestTypeRepo:  requestTypeRepo,
		requestRepo:      requestRepo,
		withdrawalRepo:   withdrawalRepo,
		auditRepo:        auditRepo,
		txManager:        txManager,
		hub:              hub,
	}
}

// variantConfigs is the single registry replacing the per-page copies of the
// submit logic. Each form variant differs only in these knobs.
func variantConfigs() map[string]withdrawal.Config {
	return map[string]withdrawal.Config{
		"oficina": {
			TypeCode:           model.RequestTypeOffice,
			RequestTypeCode:    "OFICINA",
			DefaultDescription: "Salida de articulos de oficina",
			Destination:        "Oficinas",
		},
		"herramienta": {
			TypeCode:           model.RequestTypeTools,
			RequestTypeCode:    "HERRAMIENTA",
			DefaultDescription: "Salida de herramientas",
			Destination:        "Taller",
		},
		"limpieza": {
			TypeCode:           model.RequestTypeCleaning,
			RequestTypeCode:    "LIMPIEZA",
			DefaultDescription: "Salida de articulos de limpieza",
			Destination:        "Servicios generales",
		},
		"equipo": {
			TypeCode:           model.RequestTypeEquipment,
			RequestTypeCode:    "EQUIPO",
			DefaultDescription: "Salida de equipos y activos",
			Destination:        "Activos",
			RedirectTo:         "/salidas",
		},
		"uniforme": {
			TypeCode:           model.RequestTypeUniforms,
			RequestTypeCode:    "UNIFORME",
			DefaultDescription: "Salida de uniformes",
			Destination:        "Personal",
		},
		"externo": {
			TypeCode:           model.RequestTypeExternal,
			RequestTypeCode:    "CLIENTE",
			DefaultDescription: "Salida a cliente externo",
			Destination:        "Cliente externo",
			RedirectTo:         "/salidas",
		},
		// Unassigned variant: no request record is opened, the request number
		// comes from a deep link or stays pending
		"general": {
			TypeCode: model.RequestTypeDefault,
		},
	}
}

func (s *draftService) Create(ctx context.Context, variant, userEmail string) (*DraftResponse, error) {
	cfg, ok := s.configs[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}

	header := withdrawal.Header{}
	// Resolved identity pre-fills the approver instead of each page
	// re-matching by email on its own
	if userEmail != "" {
		if collaborator, err := s.collaboratorRepo.FindByEmail(ctx, userEmail); err == nil && collaborator.Authorized {
			header.ApproverID = strconv.Itoa(collaborator.ID)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	entry := &draftEntry{
		draft: withdrawal.NewDraft(header),
		submitter: withdrawal.NewSubmitter(
			cfg,
			s.catalogRepo,
			s.requestTypeRepo,
			s.requestRepo,
			s.withdrawalRepo,
			s.auditRepo,
			s.txManager,
		),
		touchedAt: time.Now(),
	}

	// Shape the response before the entry becomes reachable through the map
	id := uuid.NewString()
	resp := s.response(id, entry)

	s.mu.Lock()
	s.pruneLocked()
	s.drafts[id] = entry
	s.mu.Unlock()

	return resp, nil
}

func (s *draftService) Get(id string) (*DraftResponse, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.response(id, entry), nil
}

func (s *draftService) AddRow(id string) (*DraftResponse, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.draft.AddEmptyRow()
	entry.touchedAt = time.Now()
	return s.response(id, entry), nil
}

func (s *draftService) ApplyItem(ctx context.Context, id string, rowIndex int, itemCode string) (*DraftResponse, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	item, err := s.catalogRepo.FindByCode(ctx, itemCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	brand := ""
	if item.Brand != nil {
		brand = item.Brand.Name
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	applyErr := entry.draft.ApplyCatalogItem(rowIndex, withdrawal.CatalogEntry{
		Code:      item.Code,
		Name:      item.Name,
		Unit:      item.Unit,
		UnitPrice: item.UnitPrice,
		Available: item.AvailableQuantity,
		Brand:     brand,
		ImageURL:  item.ImageURL,
	})
	entry.touchedAt = time.Now()
	if applyErr != nil && !errors.Is(applyErr, withdrawal.ErrDuplicateItem) {
		return nil, applyErr
	}
	// Duplicate selection keeps the draft unchanged; the warning feedback
	// rides back on the normal response
	return s.response(id, entry), nil
}

func (s *draftService) UpdateField(id string, rowIndex int, req UpdateFieldRequest) (*DraftResponse, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := entry.draft.UpdateField(rowIndex, req.Field, req.Value); err != nil {
		return nil, err
	}
	entry.touchedAt = time.Now()
	return s.response(id, entry), nil
}

func (s *draftService) UpdateHeader(id string, req UpdateHeaderRequest) (*DraftResponse, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.draft.Header = withdrawal.Header{
		ApproverID:    req.ApproverID,
		RequesterID:   req.RequesterID,
		Comments:      req.Comments,
		RequestNumber: req.RequestNumber,
	}
	entry.touchedAt = time.Now()
	return s.response(id, entry), nil
}

// RemoveRow deletes a row, keeping one empty placeholder when the list would
// otherwise end up empty
func (s *draftService) RemoveRow(id string, rowIndex int) (*DraftResponse, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := entry.draft.RemoveRow(rowIndex); err != nil {
		return nil, err
	}
	if len(entry.draft.Lines) == 0 {
		entry.draft.AddEmptyRow()
	}
	entry.touchedAt = time.Now()
	return s.response(id, entry), nil
}

func (s *draftService) Submit(ctx context.Context, id, userID string) (*withdrawal.Result, *DraftResponse, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	// The commit runs against a private clone so edits arriving mid-submit
	// cannot interleave with the submitter. The clone is written back
	// wholesale when the submit finishes, superseding anything edited while
	// it ran.
	entry.mu.Lock()
	if entry.submitting {
		entry.mu.Unlock()
		return nil, nil, ErrSubmitInFlight
	}
	entry.submitting = true
	working := entry.draft.Clone()
	entry.mu.Unlock()

	codes := committedCodes(working)
	result, err := entry.submitter.Submit(ctx, userID, working)

	entry.mu.Lock()
	entry.draft = working
	entry.submitting = false
	entry.touchedAt = time.Now()
	resp := s.response(id, entry)
	entry.mu.Unlock()

	if err != nil {
		return nil, resp, err
	}

	s.broadcastStockChanges(ctx, codes)

	if result.RedirectTo != "" {
		// The form navigates away; its draft will not be revisited
		s.mu.Lock()
		delete(s.drafts, id)
		s.mu.Unlock()
	}

	return result, resp, nil
}

// committedCodes snapshots the valid item codes before Submit resets the draft
func committedCodes(d *withdrawal.Draft) []string {
	lines := d.ValidLines()
	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		codes = append(codes, line.ItemCode)
	}
	return codes
}

// broadcastStockChanges pushes fresh availability for the touched items so
// open forms can refresh their cached ceilings
func (s *draftService) broadcastStockChanges(ctx context.Context, codes []string) {
	if s.hub == nil || len(codes) == 0 {
		return
	}

	items, err := s.catalogRepo.FindByCodes(ctx, codes)
	if err != nil {
		return
	}
	for _, item := range items {
		payload, marshalErr := json.Marshal(StockEvent{
			Event: "stock_changed",
			Data: map[string]interface{}{
				"item_code":          item.Code,
				"available_quantity": item.AvailableQuantity,
			},
		})
		if marshalErr != nil {
			continue
		}
		s.hub.Broadcast <- payload
	}
}

// lookup resolves a draft ID, sweeping idle entries on every access so the
// store shrinks even when no new drafts are opened
func (s *draftService) lookup(id string) (*draftEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	entry, ok := s.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return entry, nil
}

func (s *draftService) pruneLocked() {
	cutoff := time.Now().Add(-draftTTL)
	for id, entry := range s.drafts {
		entry.mu.Lock()
		idle := entry.touchedAt.Before(cutoff) && !entry.submitting
		entry.mu.Unlock()
		if idle {
			delete(s.drafts, id)
		}
	}
}

func (s *draftService) response(id string, entry *draftEntry) *DraftResponse {
	return &DraftResponse{
		ID:         id,
		TypeCode:   entry.submitter.Config().TypeCode,
		Header:     entry.draft.Header,
		Lines:      entry.draft.Lines,
		Feedback:   entry.draft.Feedback(),
		Submitting: entry.submitting,
	}
}
