package model

import "time"

// Request-type codes used by the page variants. Each withdrawal form differs
// only in which of these it stamps on the generated request record.
const (
	RequestTypeOffice    = "OFICINA"
	RequestTypeTools     = "HERRAMIENTA"
	RequestTypeCleaning  = "LIMPIEZA"
	RequestTypeEquipment = "EQUIPO"
	RequestTypeUniforms  = "UNIFORME"
	RequestTypeExternal  = "CLIENTE_EXTERNO"
	RequestTypeDefault   = "GENERAL"
)

// RequestType catalogs the kinds of internal requests a withdrawal can open.
// Discriminators are resolved against Code by substring, falling back to the
// default type when nothing matches.
type RequestType struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Request is the header record opened ahead of a withdrawal. Its generated ID
// doubles as the withdrawal's request number.
type Request struct {
	ID            int           `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestTypeID int           `gorm:"not null;index" json:"request_type_id"`
	RequestType   *RequestType  `gorm:"foreignKey:RequestTypeID" json:"request_type,omitempty"`
	RequesterID   int           `gorm:"not null;index" json:"requester_id"`
	Requester     *Collaborator `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Destination   string        `gorm:"type:varchar(255)" json:"destination"`
	Description   string        `gorm:"type:text" json:"description"`
	CreatedAt     time.Time     `json:"created_at"`
}
