package withdrawal

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateItem signals a catalog selection already present in another row
	ErrDuplicateItem = errors.New("item is already selected in another row")
	// ErrRowOutOfRange signals a row index outside the current line list
	ErrRowOutOfRange = errors.New("row index out of range")
	// ErrUnknownField signals an UpdateField call for a field that cannot be edited directly
	ErrUnknownField = errors.New("unknown line field")
)

// Brand label applied when a catalog entry carries no brand
const defaultBrandLabel = "GENERICO"

// Line is one row of the in-progress withdrawal list. An empty ItemCode marks
// an unselected placeholder row; those rows are skipped at submit time.
type Line struct {
	ItemCode          string          `json:"item_code"`
	ItemName          string          `json:"item_name"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Brand             string          `json:"brand"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	ImageURL          *string         `json:"image_url"`
}

// Valid reports whether the line participates in submission
func (l Line) Valid() bool {
	return l.ItemCode != "" && l.Quantity.IsPositive()
}

// CatalogEntry is the snapshot copied wholesale into a line when the user
// picks an item. Available becomes the line's stock ceiling and may go stale;
// the commit sequence re-checks it against the store.
type CatalogEntry struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Available decimal.Decimal `json:"available_quantity"`
	Brand     string          `json:"brand"`
	ImageURL  *string         `json:"image_url"`
}

// Header carries the submission metadata alongside the line list
type Header struct {
	ApproverID    string `json:"approver_id"`
	RequesterID   string `json:"requester_id"`
	Comments      string `json:"comments"`
	RequestNumber string `json:"request_number"` // optional; deep-linked or generated at submit
}

// Draft owns the mutable state of one in-progress withdrawal form: the header
// fields plus the ordered line list. It is owned by exactly one form instance
// and never shared or persisted between sessions.
type Draft struct {
	Header   Header `json:"header"`
	Lines    []Line `json:"lines"`
	feedback *Feedback
}

// NewDraft returns a draft holding a single empty placeholder row
func NewDraft(header Header) *Draft {
	return &Draft{
		Header: header,
		Lines:  []Line{emptyLine()},
	}
}

func emptyLine() Line {
	return Line{
		Quantity:          decimal.Zero,
		UnitPrice:         decimal.Zero,
		AvailableQuantity: decimal.Zero,
	}
}

// AddEmptyRow appends an unselected placeholder row. Always succeeds.
func (d *Draft) AddEmptyRow() {
	d.Lines = append(d.Lines, emptyLine())
}

// ApplyCatalogItem replaces the row at rowIndex wholesale with the selected
// catalog entry, resetting quantity to zero so the user re-enters the desired
// amount. Selecting a code already held by another row leaves the draft
// unchanged and surfaces a warning.
func (d *Draft) ApplyCatalogItem(rowIndex int, entry CatalogEntry) error {
	if rowIndex < 0 || rowIndex >= len(d.Lines) {
		return ErrRowOutOfRange
	}

	for i, line := range d.Lines {
		if i != rowIndex && line.ItemCode != "" && line.ItemCode == entry.Code {
			d.pushFeedback(fmt.Sprintf("Item %s is already in the list", entry.Code), SeverityWarning, FeedbackShortTTL)
			return ErrDuplicateItem
		}
	}

	brand := entry.Brand
	if brand == "" {
		brand = defaultBrandLabel
	}

	d.Lines[rowIndex] = Line{
		ItemCode:          entry.Code,
		ItemName:          entry.Name,
		Quantity:          decimal.Zero,
		Unit:              entry.Unit,
		UnitPrice:         entry.UnitPrice,
		Brand:             brand,
		AvailableQuantity: entry.Available,
		ImageURL:          entry.ImageURL,
	}
	return nil
}

// SetQuantity parses and stores a quantity edit. An empty input stores zero,
// negative input clamps silently to zero, and input above the row's stock
// ceiling clamps to the ceiling with an insufficient-stock warning.
func (d *Draft) SetQuantity(rowIndex int, raw string) error {
	if rowIndex < 0 || rowIndex >= len(d.Lines) {
		return ErrRowOutOfRange
	}

	if raw == "" {
		d.Lines[rowIndex].Quantity = decimal.Zero
		return nil
	}

	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", raw, err)
	}

	line := &d.Lines[rowIndex]
	switch {
	case qty.IsNegative():
		line.Quantity = decimal.Zero
	case qty.GreaterThan(line.AvailableQuantity):
		line.Quantity = line.AvailableQuantity
		d.pushFeedback(
			fmt.Sprintf("Insufficient stock for %s: only %s available", line.ItemCode, line.AvailableQuantity),
			SeverityWarning, FeedbackShortTTL,
		)
	default:
		line.Quantity = qty
	}
	return nil
}

// UpdateField is the generic single-field mutation used by direct cell edits.
// Quantity goes through the clamping path; the remaining editable fields are
// plain string assignments.
func (d *Draft) UpdateField(rowIndex int, field, value string) error {
	if field == "quantity" {
		return d.SetQuantity(rowIndex, value)
	}

	if rowIndex < 0 || rowIndex >= len(d.Lines) {
		return ErrRowOutOfRange
	}

	line := &d.Lines[rowIndex]
	switch field {
	case "item_name":
		line.ItemName = value
	case "unit":
		line.Unit = value
	case "brand":
		line.Brand = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// RemoveRow deletes one row. Whether the caller keeps a trailing empty row is
// a call-site policy; the draft itself allows an empty list.
func (d *Draft) RemoveRow(rowIndex int) error {
	if rowIndex < 0 || rowIndex >= len(d.Lines) {
		return ErrRowOutOfRange
	}
	d.Lines = append(d.Lines[:rowIndex], d.Lines[rowIndex+1:]...)
	return nil
}

// Reset clears the draft back to a single empty row, keeping header identity
func (d *Draft) Reset() {
	d.Lines = []Line{emptyLine()}
	d.Header.Comments = ""
	d.Header.RequestNumber = ""
}

// Clone returns an independent copy of the draft, including any pending
// feedback. The submit path works on a clone so edits landing on the original
// cannot interleave with the commit sequence.
func (d *Draft) Clone() *Draft {
	clone := &Draft{
		Header:   d.Header,
		Lines:    make([]Line, len(d.Lines)),
		feedback: d.feedback,
	}
	copy(clone.Lines, d.Lines)
	return clone
}

// ValidLines returns, in original relative order, the rows that participate
// in submission: non-empty item code and positive quantity.
func (d *Draft) ValidLines() []Line {
	valid := make([]Line, 0, len(d.Lines))
	for _, line := range d.Lines {
		if line.Valid() {
			valid = append(valid, line)
		}
	}
	return valid
}

// Feedback returns the current transient message, or nil once it has expired
func (d *Draft) Feedback() *Feedback {
	if d.feedback == nil || d.feedback.Expired() {
		return nil
	}
	return d.feedback
}

func (d *Draft) pushFeedback(message string, severity Severity, ttl time.Duration) {
	d.feedback = newFeedback(message, severity, ttl)
}
