package models

import (
	"time"

	"github.com/google/uuid"
)

// ActiveLoan caches the total outstanding units per (borrower, item) pair so
// lookups stay O(1). It must equal the quantity sum over the pair's open
// LoanRecords; the lending engine updates it in the same transaction as the
// history append. Rows stay behind at quantity zero after full return.
type ActiveLoan struct {
	BorrowerID uuid.UUID `gorm:"column:borrower_id;type:uuid;primaryKey" json:"borrower_id"`
	ItemID     uuid.UUID `gorm:"column:item_id;type:uuid;primaryKey" json:"item_id"`
	Quantity   int       `gorm:"column:quantity;not null;default:0;check:quantity >= 0" json:"quantity"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Borrower *Borrower `gorm:"foreignKey:BorrowerID;constraint:OnDelete:CASCADE" json:"-"`
	Item     *Item     `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"-"`
}
