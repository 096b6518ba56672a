package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bodega/internal/model"
	"bodega/internal/repository"
	"bodega/internal/withdrawal"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func newDraftServiceFixture(t *testing.T) (DraftService, *stubCatalogRepo, *stubWithdrawalRepo) {
	t.Helper()
	return newDraftServiceFixtureWithTx(t, &stubTxManager{})
}

func newDraftServiceFixtureWithTx(t *testing.T, tx repository.TransactionManager) (DraftService, *stubCatalogRepo, *stubWithdrawalRepo) {
	t.Helper()
	brand := model.Brand{ID: 1, Name: "TRUPER"}
	catalog := &stubCatalogRepo{items: map[string]*model.CatalogItem{
		"X1": {
			Code:              "X1",
			Name:              "Destornillador",
			Unit:              "PZA",
			UnitPrice:         mustDecimal(t, "45.00"),
			AvailableQuantity: mustDecimal(t, "10"),
			Brand:             &brand,
		},
		"Y2": {
			Code:              "Y2",
			Name:              "Guantes",
			Unit:              "PAR",
			UnitPrice:         mustDecimal(t, "30.00"),
			AvailableQuantity: mustDecimal(t, "4"),
		},
	}}
	collaborators := &stubCollaboratorRepo{collaborators: []model.Collaborator{
		{ID: 1, Alias: "mgarcia", Email: "mgarcia@example.com", Authorized: true, Employed: true},
		{ID: 2, Alias: "jlopez", Email: "jlopez@example.com", Authorized: false, Employed: true},
	}}
	requestTypes := &stubRequestTypeRepo{types: []model.RequestType{
		{ID: 1, Code: model.RequestTypeTools, Description: "Herramientas"},
		{ID: 9, Code: model.RequestTypeDefault, Description: "General"},
	}}
	withdrawals := &stubWithdrawalRepo{}

	svc := NewDraftService(
		catalog,
		collaborators,
		requestTypes,
		&stubRequestRepo{},
		withdrawals,
		&stubAuditRepo{},
		tx,
		nil,
	)
	return svc, catalog, withdrawals
}

func TestDraftCreateUnknownVariant(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)

	_, err := svc.Create(context.Background(), "papeleria", "")
	if !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("Expected ErrUnknownVariant, got %v", err)
	}
}

func TestDraftCreatePrefillsAuthorizedApprover(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)

	res, err := svc.Create(context.Background(), "herramienta", "mgarcia@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Header.ApproverID != "1" {
		t.Errorf("Expected approver pre-filled with 1, got %q", res.Header.ApproverID)
	}
	if res.TypeCode != model.RequestTypeTools {
		t.Errorf("Expected variant type code, got %q", res.TypeCode)
	}
	if len(res.Lines) != 1 {
		t.Errorf("Expected one empty row, got %d", len(res.Lines))
	}
}

func TestDraftCreateSkipsUnauthorizedApprover(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)

	res, err := svc.Create(context.Background(), "herramienta", "jlopez@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Header.ApproverID != "" {
		t.Errorf("Unauthorized collaborator must not pre-fill, got %q", res.Header.ApproverID)
	}
}

func TestDraftCreateUnknownEmailIsNotFatal(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)

	res, err := svc.Create(context.Background(), "general", "nobody@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Header.ApproverID != "" {
		t.Errorf("Expected empty approver, got %q", res.Header.ApproverID)
	}
}

func TestDraftGetUnknownID(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)

	_, err := svc.Get("missing")
	if !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("Expected ErrDraftNotFound, got %v", err)
	}
}

func TestDraftApplyItemUnknownCode(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)
	res, err := svc.Create(context.Background(), "herramienta", "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.ApplyItem(context.Background(), res.ID, 0, "ZZZ")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestDraftApplyItemMapsBrand(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)
	res, err := svc.Create(context.Background(), "herramienta", "")
	if err != nil {
		t.Fatal(err)
	}

	res, err = svc.ApplyItem(context.Background(), res.ID, 0, "X1")
	if err != nil {
		t.Fatalf("ApplyItem failed: %v", err)
	}
	if res.Lines[0].Brand != "TRUPER" {
		t.Errorf("Expected brand TRUPER, got %q", res.Lines[0].Brand)
	}

	// Items without a brand get the generic label
	if err := addRowAndApply(svc, res.ID, "Y2"); err != nil {
		t.Fatal(err)
	}
	res, err = svc.Get(res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Lines[1].Brand != "GENERICO" {
		t.Errorf("Expected generic brand label, got %q", res.Lines[1].Brand)
	}
}

func addRowAndApply(svc DraftService, id, code string) error {
	res, err := svc.AddRow(id)
	if err != nil {
		return err
	}
	_, err = svc.ApplyItem(context.Background(), id, len(res.Lines)-1, code)
	return err
}

func TestDraftDuplicateSelectionReturnsWarning(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)
	res, err := svc.Create(context.Background(), "herramienta", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ApplyItem(context.Background(), res.ID, 0, "X1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddRow(res.ID); err != nil {
		t.Fatal(err)
	}

	// Same item into the new row: no error, warning feedback, row unchanged
	res, err = svc.ApplyItem(context.Background(), res.ID, 1, "X1")
	if err != nil {
		t.Fatalf("Duplicate selection must not be an API error, got %v", err)
	}
	if res.Feedback == nil || res.Feedback.Severity != withdrawal.SeverityWarning {
		t.Errorf("Expected warning feedback, got %+v", res.Feedback)
	}
	if res.Lines[1].ItemCode != "" {
		t.Errorf("Expected row 1 left empty, got %q", res.Lines[1].ItemCode)
	}
}

func TestDraftRemoveRowKeepsOneEmpty(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)
	res, err := svc.Create(context.Background(), "herramienta", "")
	if err != nil {
		t.Fatal(err)
	}

	res, err = svc.RemoveRow(res.ID, 0)
	if err != nil {
		t.Fatalf("RemoveRow failed: %v", err)
	}
	if len(res.Lines) != 1 || res.Lines[0].ItemCode != "" {
		t.Errorf("Expected a single empty placeholder row, got %+v", res.Lines)
	}
}

func TestDraftSubmitHappyPath(t *testing.T) {
	svc, catalog, withdrawals := newDraftServiceFixture(t)
	res, err := svc.Create(context.Background(), "herramienta", "mgarcia@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateHeader(res.ID, UpdateHeaderRequest{ApproverID: "1", RequesterID: "2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ApplyItem(context.Background(), res.ID, 0, "X1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateField(res.ID, 0, UpdateFieldRequest{Field: "quantity", Value: "5"}); err != nil {
		t.Fatal(err)
	}

	result, draft, err := svc.Submit(context.Background(), res.ID, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.WithdrawalID != 1 {
		t.Errorf("Expected withdrawal 1, got %d", result.WithdrawalID)
	}
	if len(withdrawals.items) != 1 || withdrawals.items[0].ItemCode != "X1" {
		t.Errorf("Expected one persisted line, got %+v", withdrawals.items)
	}
	if !catalog.items["X1"].AvailableQuantity.Equal(mustDecimal(t, "5")) {
		t.Errorf("Expected stock decremented to 5, got %s", catalog.items["X1"].AvailableQuantity)
	}

	// No redirect for this variant: draft resets in place and stays addressable
	if draft.Feedback == nil || draft.Feedback.Severity != withdrawal.SeveritySuccess {
		t.Errorf("Expected success feedback, got %+v", draft.Feedback)
	}
	if _, err := svc.Get(res.ID); err != nil {
		t.Errorf("Draft should survive a non-redirect submit, got %v", err)
	}
}

func TestDraftSubmitRedirectVariantDiscardsDraft(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)
	res, err := svc.Create(context.Background(), "equipo", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateHeader(res.ID, UpdateHeaderRequest{ApproverID: "1", RequesterID: "2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ApplyItem(context.Background(), res.ID, 0, "X1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateField(res.ID, 0, UpdateFieldRequest{Field: "quantity", Value: "1"}); err != nil {
		t.Fatal(err)
	}

	result, _, err := svc.Submit(context.Background(), res.ID, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.RedirectTo != "/salidas" {
		t.Errorf("Expected redirect target, got %q", result.RedirectTo)
	}
	if _, err := svc.Get(res.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("Expected draft discarded after redirect, got %v", err)
	}
}

// gatedTxManager parks the commit between two channel signals so a test can
// interleave other calls while a submit is in flight
type gatedTxManager struct {
	started chan struct{}
	release chan struct{}
}

func newGatedTxManager() *gatedTxManager {
	return &gatedTxManager{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	close(g.started)
	<-g.release
	return fn(ctx)
}

func TestDraftSubmitIsolatedFromConcurrentEdits(t *testing.T) {
	gate := newGatedTxManager()
	svc, _, withdrawals := newDraftServiceFixtureWithTx(t, gate)

	res, err := svc.Create(context.Background(), "herramienta", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateHeader(res.ID, UpdateHeaderRequest{ApproverID: "1", RequesterID: "2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ApplyItem(context.Background(), res.ID, 0, "X1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateField(res.ID, 0, UpdateFieldRequest{Field: "quantity", Value: "5"}); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, _, submitErr := svc.Submit(context.Background(), res.ID, "")
		done <- submitErr
	}()
	<-gate.started

	// Edits landing while the commit is in flight must not reach the
	// submitter, and must not block
	if _, err := svc.UpdateField(res.ID, 0, UpdateFieldRequest{Field: "quantity", Value: "9"}); err != nil {
		t.Fatalf("edit during submit failed: %v", err)
	}

	// A second submit is rejected while the first one runs
	if _, _, err := svc.Submit(context.Background(), res.ID, ""); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("Expected ErrSubmitInFlight, got %v", err)
	}

	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The committed quantity is the pre-edit value
	if len(withdrawals.items) != 1 || !withdrawals.items[0].Quantity.Equal(mustDecimal(t, "5")) {
		t.Errorf("Expected the snapshot quantity 5 committed, got %+v", withdrawals.items)
	}

	// The finished submit supersedes the mid-flight edit: draft is reset
	after, err := svc.Get(res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Lines) != 1 || after.Lines[0].ItemCode != "" {
		t.Errorf("Expected the reset draft after submit, got %+v", after.Lines)
	}
	if after.Submitting {
		t.Error("Expected the in-flight flag cleared")
	}
}

func TestIdleDraftEvictedOnLookup(t *testing.T) {
	svc, _, _ := newDraftServiceFixture(t)
	res, err := svc.Create(context.Background(), "herramienta", "")
	if err != nil {
		t.Fatal(err)
	}

	ds := svc.(*draftService)
	ds.mu.Lock()
	for _, entry := range ds.drafts {
		entry.touchedAt = time.Now().Add(-3 * time.Hour)
	}
	ds.mu.Unlock()

	if _, err := svc.Get(res.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("Expected idle draft evicted, got %v", err)
	}
}

func TestDraftSubmitValidationErrorKeepsDraft(t *testing.T) {
	svc, _, withdrawals := newDraftServiceFixture(t)
	res, err := svc.Create(context.Background(), "herramienta", "")
	if err != nil {
		t.Fatal(err)
	}

	_, draft, err := svc.Submit(context.Background(), res.ID, "")
	if !errors.Is(err, withdrawal.ErrMissingResponsible) {
		t.Fatalf("Expected ErrMissingResponsible, got %v", err)
	}
	if draft == nil || draft.Feedback == nil {
		t.Fatal("Expected the draft response with error feedback alongside the error")
	}
	if len(withdrawals.headers) != 0 {
		t.Errorf("Expected nothing persisted, got %d headers", len(withdrawals.headers))
	}
}
