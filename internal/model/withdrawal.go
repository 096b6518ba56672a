package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestNumberPending marks withdrawals committed without an originating
// request record (no discriminator configured and no deep-linked number).
const RequestNumberPending = "S/N"

// Withdrawal is the transaction header for one goods-issue
type Withdrawal struct {
	ID            int              `gorm:"primaryKey;autoIncrement" json:"id"`
	TypeCode      string           `gorm:"type:varchar(50);not null;index" json:"type_code"`
	ApproverID    int              `gorm:"not null;index" json:"approver_id"`
	Approver      *Collaborator    `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	RequesterID   int              `gorm:"not null;index" json:"requester_id"`
	Requester     *Collaborator    `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	RequestNumber string           `gorm:"type:varchar(50);not null" json:"request_number"`
	Comments      string           `gorm:"type:text" json:"comments"`
	Finalized     bool             `gorm:"default:true" json:"finalized"`
	Items         []WithdrawalItem `gorm:"foreignKey:WithdrawalID" json:"items"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`
}

// WithdrawalItem is one line of a committed withdrawal
type WithdrawalItem struct {
	ID           int             `gorm:"primaryKey;autoIncrement" json:"id"`
	WithdrawalID int             `gorm:"not null;index" json:"withdrawal_id"`
	ItemCode     string          `gorm:"type:varchar(50);not null;index" json:"item_code"`
	Item         *CatalogItem    `gorm:"foreignKey:ItemCode;references:Code" json:"-"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
}
