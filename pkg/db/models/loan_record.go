package models

import (
	"time"

	"github.com/google/uuid"
)

// LoanRecord is one entry in the append-only loan history. Rows are created
// by Borrow and mutated exactly once, when Return stamps ReturnedAt. A nil
// ReturnedAt means the loan is still open.
type LoanRecord struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BorrowerID uuid.UUID  `gorm:"column:borrower_id;type:uuid;not null;index" json:"borrower_id"`
	ItemID     uuid.UUID  `gorm:"column:item_id;type:uuid;not null;index" json:"item_id"`
	Quantity   int        `gorm:"column:quantity;not null;check:quantity > 0" json:"quantity"`
	BorrowedAt time.Time  `gorm:"column:borrowed_at;not null;index" json:"borrowed_at"`
	DueAt      time.Time  `gorm:"column:due_at;not null;index" json:"due_at"`
	ReturnedAt *time.Time `gorm:"column:returned_at;index" json:"returned_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Borrower *Borrower `gorm:"foreignKey:BorrowerID;constraint:OnDelete:CASCADE" json:"-"`
	Item     *Item     `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"-"`
}

// Open reports whether the record has not been returned yet.
func (r LoanRecord) Open() bool {
	return r.ReturnedAt == nil
}
