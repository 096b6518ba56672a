package withdrawal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"bodega/internal/model"
	"bodega/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingResponsible signals an empty approver or requester
	ErrMissingResponsible = errors.New("approver and requester are required")
	// ErrNoValidItems signals a draft with no row carrying both an item and a quantity
	ErrNoValidItems = errors.New("at least one item with a quantity is required")
)

// StockExceededError names the offending item and its last known ceiling. It
// is returned both by local pre-submit validation (against the cached
// snapshot) and by the in-transaction stock re-check.
type StockExceededError struct {
	ItemCode  string
	Available decimal.Decimal
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %s available", e.ItemCode, e.Available)
}

// Config parameterizes one page variant of the withdrawal form. The seven
// variants differ only in these fields; the submission logic is shared.
type Config struct {
	// TypeCode is stamped on the withdrawal header (e.g. OFICINA, HERRAMIENTA)
	TypeCode string
	// RequestTypeCode, when set, opens a request record ahead of the header
	// insert; its generated ID becomes the request number. Empty skips the step.
	RequestTypeCode string
	// DefaultDescription goes on the generated request record
	DefaultDescription string
	// Destination goes on the generated request record
	Destination string
	// RedirectTo, when set, tells the client where to navigate after success
	// instead of resetting the form
	RedirectTo string
	// ExtraCommitStep runs inside the commit transaction after the header
	// insert, receiving the new withdrawal ID and the filtered valid lines.
	// Specialized pages use it to write auxiliary tables.
	ExtraCommitStep func(txCtx context.Context, withdrawalID int, items []Line) error
}

// Result reports a committed submission
type Result struct {
	WithdrawalID  int    `json:"withdrawal_id"`
	RequestNumber string `json:"request_number"`
	RedirectTo    string `json:"redirect_to,omitempty"`
}

// Submitter validates a draft and executes the commit sequence: optional
// request creation, header insert, caller extension hook, line-item bulk
// insert, and the stock re-check. The whole sequence runs in one database
// transaction, so a failure at any step leaves no partial records behind.
type Submitter struct {
	cfg          Config
	catalog      repository.CatalogRepository
	requestTypes repository.RequestTypeRepository
	requests     repository.RequestRepository
	withdrawals  repository.WithdrawalRepository
	audit        repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewSubmitter(
	cfg Config,
	catalog repository.CatalogRepository,
	requestTypes repository.RequestTypeRepository,
	requests repository.RequestRepository,
	withdrawals repository.WithdrawalRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
) *Submitter {
	return &Submitter{
		cfg:          cfg,
		catalog:      catalog,
		requestTypes: requestTypes,
		requests:     requests,
		withdrawals:  withdrawals,
		audit:        audit,
		txManager:    txManager,
	}
}

// Config returns the variant configuration this submitter was built with
func (s *Submitter) Config() Config {
	return s.cfg
}

// Validate runs the local pre-submit checks, short-circuiting on the first
// failure. No repository is touched.
func (s *Submitter) Validate(d *Draft) error {
	if d.Header.ApproverID == "" || d.Header.RequesterID == "" {
		return ErrMissingResponsible
	}

	valid := d.ValidLines()
	if len(valid) == 0 {
		return ErrNoValidItems
	}

	for _, line := range valid {
		if line.Quantity.GreaterThan(line.AvailableQuantity) {
			return &StockExceededError{ItemCode: line.ItemCode, Available: line.AvailableQuantity}
		}
	}
	return nil
}

// Submit validates the draft and commits it. On success the draft receives a
// success feedback and, when no redirect is configured, resets to a single
// empty row. On failure the draft receives an error feedback carrying the
// underlying message and is left untouched for correction.
func (s *Submitter) Submit(ctx context.Context, userID string, d *Draft) (*Result, error) {
	if err := s.Validate(d); err != nil {
		d.pushFeedback(err.Error(), SeverityError, FeedbackShortTTL)
		return nil, err
	}

	approverID, err := strconv.Atoi(d.Header.ApproverID)
	if err != nil {
		d.pushFeedback("invalid approver identifier", SeverityError, FeedbackShortTTL)
		return nil, fmt.Errorf("invalid approver id %q: %w", d.Header.ApproverID, err)
	}
	requesterID, err := strconv.Atoi(d.Header.RequesterID)
	if err != nil {
		d.pushFeedback("invalid requester identifier", SeverityError, FeedbackShortTTL)
		return nil, fmt.Errorf("invalid requester id %q: %w", d.Header.RequesterID, err)
	}

	valid := d.ValidLines()
	requestNumber := d.Header.RequestNumber
	var withdrawalID int

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// 1. Optional request creation
		if s.cfg.RequestTypeCode != "" {
			number, reqErr := s.createRequest(txCtx, requesterID)
			if reqErr != nil {
				return reqErr
			}
			requestNumber = number
		} else if requestNumber == "" {
			requestNumber = model.RequestNumberPending
		}

		// 2. Transaction header insert
		w := model.Withdrawal{
			TypeCode:      s.cfg.TypeCode,
			ApproverID:    approverID,
			RequesterID:   requesterID,
			RequestNumber: requestNumber,
			Comments:      d.Header.Comments,
			Finalized:     true,
		}
		if createErr := s.withdrawals.Create(txCtx, &w); createErr != nil {
			return fmt.Errorf("failed to create withdrawal header: %w", createErr)
		}
		withdrawalID = w.ID

		// 3. Caller extension hook
		if s.cfg.ExtraCommitStep != nil {
			if hookErr := s.cfg.ExtraCommitStep(txCtx, w.ID, valid); hookErr != nil {
				return fmt.Errorf("extra commit step failed: %w", hookErr)
			}
		}

		// 4. Line-item bulk insert, original order, price carried through
		items := make([]model.WithdrawalItem, 0, len(valid))
		for _, line := range valid {
			items = append(items, model.WithdrawalItem{
				WithdrawalID: w.ID,
				ItemCode:     line.ItemCode,
				Quantity:     line.Quantity,
				UnitPrice:    line.UnitPrice,
			})
		}
		if itemsErr := s.withdrawals.CreateItems(txCtx, items); itemsErr != nil {
			return fmt.Errorf("failed to create withdrawal items: %w", itemsErr)
		}

		// 5. Stock re-check against server truth; a stale ceiling rolls the
		// whole sequence back
		for _, line := range valid {
			ok, stockErr := s.catalog.DecrementStock(txCtx, line.ItemCode, line.Quantity)
			if stockErr != nil {
				return fmt.Errorf("failed to update stock for %s: %w", line.ItemCode, stockErr)
			}
			if !ok {
				available := decimal.Zero
				if current, findErr := s.catalog.FindByCode(txCtx, line.ItemCode); findErr == nil {
					available = current.AvailableQuantity
				}
				return &StockExceededError{ItemCode: line.ItemCode, Available: available}
			}
		}

		return s.logCommit(txCtx, userID, w.ID, requestNumber, valid)
	})

	if err != nil {
		log.Printf("withdrawal submit failed (type=%s): %v", s.cfg.TypeCode, err)
		d.pushFeedback(submitErrorMessage(err), SeverityError, FeedbackShortTTL)
		return nil, err
	}

	d.pushFeedback("Withdrawal registered successfully", SeveritySuccess, FeedbackLongTTL)
	if s.cfg.RedirectTo == "" {
		d.Reset()
	}

	return &Result{
		WithdrawalID:  withdrawalID,
		RequestNumber: requestNumber,
		RedirectTo:    s.cfg.RedirectTo,
	}, nil
}

// createRequest resolves the configured discriminator to a request type
// (best-effort substring lookup, default type when unresolved) and opens the
// request record whose generated ID becomes the request number.
func (s *Submitter) createRequest(txCtx context.Context, requesterID int) (string, error) {
	rt, err := s.requestTypes.ResolveByCode(txCtx, s.cfg.RequestTypeCode)
	if err != nil {
		rt, err = s.requestTypes.Default(txCtx)
		if err != nil {
			return "", fmt.Errorf("failed to resolve request type %q: %w", s.cfg.RequestTypeCode, err)
		}
	}

	req := model.Request{
		RequestTypeID: rt.ID,
		RequesterID:   requesterID,
		Destination:   s.cfg.Destination,
		Description:   s.cfg.DefaultDescription,
	}
	if err := s.requests.Create(txCtx, &req); err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	return strconv.Itoa(req.ID), nil
}

func (s *Submitter) logCommit(txCtx context.Context, userID string, withdrawalID int, requestNumber string, items []Line) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	names := make([]string, 0, len(items))
	type itemDetail struct {
		ItemCode  string          `json:"item_code"`
		ItemName  string          `json:"item_name"`
		Quantity  decimal.Decimal `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	detailItems := make([]itemDetail, 0, len(items))
	for _, line := range items {
		names = append(names, line.ItemName)
		detailItems = append(detailItems, itemDetail{
			ItemCode:  line.ItemCode,
			ItemName:  line.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	details, _ := json.Marshal(map[string]interface{}{
		"type_code":      s.cfg.TypeCode,
		"request_number": requestNumber,
		"items":          detailItems,
	})
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionCommitWithdrawal,
		EntityID:   strconv.Itoa(withdrawalID),
		EntityName: strings.Join(names, ", "),
		Details:    string(details),
	}
	if err := s.audit.Log(txCtx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// submitErrorMessage prefers the underlying error text, with a generic
// fallback matching what the toast shows when the store gives nothing useful
func submitErrorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Could not register the withdrawal"
	}
	return err.Error()
}
