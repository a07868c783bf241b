package models

import (
	"time"

	"github.com/google/uuid"
)

// Borrower is the identity a loan is issued against.
type Borrower struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NationalID string    `gorm:"column:national_id;type:text;not null;uniqueIndex" json:"national_id"`
	Name       string    `gorm:"type:text;not null" json:"name"`
	Phone      string    `gorm:"type:text;not null;default:''" json:"phone"`
	Course     string    `gorm:"type:text;not null;default:'none'" json:"course"`
	Email      *string   `gorm:"type:text" json:"email,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
