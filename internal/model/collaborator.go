package model

import (
	"time"

	"gorm.io/gorm"
)

// Collaborator is a directory entry for people who can approve or receive a
// withdrawal. Authorized collaborators may approve; anyone returned by the
// directory query (authorized OR no longer employed) may receive.
type Collaborator struct {
	ID         int            `gorm:"primaryKey;autoIncrement" json:"id"`
	Alias      string         `gorm:"type:varchar(100);not null" json:"alias"`
	FullName   string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Authorized bool           `gorm:"default:false;index" json:"authorized"`
	Employed   bool           `gorm:"default:true;index" json:"employed"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayName prefers the short alias over the full legal name
func (c *Collaborator) DisplayName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.FullName
}
