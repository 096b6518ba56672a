package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"bodega/internal/model"
	"bodega/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrWithdrawalNotFound = errors.New("withdrawal not found")

type WithdrawalItemResponse struct {
	ItemCode  string          `json:"item_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type WithdrawalResponse struct {
	ID            int                      `json:"id"`
	TypeCode      string                   `json:"type_code"`
	Approver      string                   `json:"approver"`
	Requester     string                   `json:"requester"`
	RequestNumber string                   `json:"request_number"`
	Comments      string                   `json:"comments"`
	CreatedAt     string                   `json:"created_at"`
	Items         []WithdrawalItemResponse `json:"items"`
}

type WithdrawalService interface {
	List(ctx context.Context, page, limit int) ([]WithdrawalResponse, int64, error)
	Get(ctx context.Context, id int) (*WithdrawalResponse, error)
	ExportRows(ctx context.Context, userID string, from, to time.Time) ([]string, [][]string, error)
}

type withdrawalService struct {
	repo      repository.WithdrawalRepository
	auditRepo repository.AuditRepository
}

func NewWithdrawalService(repo repository.WithdrawalRepository, auditRepo repository.AuditRepository) WithdrawalService {
	return &withdrawalService{repo: repo, auditRepo: auditRepo}
}

func (s *withdrawalService) List(ctx context.Context, page, limit int) ([]WithdrawalResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	withdrawals, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]WithdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		res = append(res, mapWithdrawal(&w))
	}
	return res, total, nil
}

func (s *withdrawalService) Get(ctx context.Context, id int) (*WithdrawalResponse, error) {
	w, err := s.repo.FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	res := mapWithdrawal(w)
	return &res, nil
}

// ExportRows shapes the withdrawal history for spreadsheet download, one row
// per line item, and records the export in the audit trail
func (s *withdrawalService) ExportRows(ctx context.Context, userID string, from, to time.Time) ([]string, [][]string, error) {
	withdrawals, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}

	headers := []string{"Folio", "Fecha", "Tipo", "Solicitud", "Aprueba", "Recibe", "Codigo", "Cantidad", "Precio unitario", "Importe"}
	rows := make([][]string, 0, len(withdrawals))
	for _, w := range withdrawals {
		for _, item := range w.Items {
			rows = append(rows, []string{
				strconv.Itoa(w.ID),
				w.CreatedAt.Format("2006-01-02 15:04"),
				w.TypeCode,
				w.RequestNumber,
				collaboratorName(w.Approver),
				collaboratorName(w.Requester),
				item.ItemCode,
				item.Quantity.String(),
				item.UnitPrice.String(),
				item.Quantity.Mul(item.UnitPrice).StringFixed(2),
			})
		}
	}

	var uid *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		uid = &parsed
	}
	// The export still goes out when the trail write fails; only the commit
	// path treats a missing audit entry as fatal
	if logErr := s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionExportHistory,
		EntityName: "withdrawal history",
		Details:    `{"rows": ` + strconv.Itoa(len(rows)) + `}`,
	}); logErr != nil {
		log.Printf("failed to record export audit entry: %v", logErr)
	}

	return headers, rows, nil
}

func mapWithdrawal(w *model.Withdrawal) WithdrawalResponse {
	items := make([]WithdrawalItemResponse, 0, len(w.Items))
	for _, item := range w.Items {
		items = append(items, WithdrawalItemResponse{
			ItemCode:  item.ItemCode,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return WithdrawalResponse{
		ID:            w.ID,
		TypeCode:      w.TypeCode,
		Approver:      collaboratorName(w.Approver),
		Requester:     collaboratorName(w.Requester),
		RequestNumber: w.RequestNumber,
		Comments:      w.Comments,
		CreatedAt:     w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Items:         items,
	}
}

func collaboratorName(c *model.Collaborator) string {
	if c == nil {
		return ""
	}
	return c.DisplayName()
}
