package lending

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/toolcrib/toolcrib-backend/pkg/db/models"
)

// ActiveRepository maintains the outstanding-quantity aggregate per
// (borrower, item) pair.
type ActiveRepository interface {
	WithTx(tx *gorm.DB) ActiveRepository
	Add(ctx context.Context, borrowerID, itemID uuid.UUID, quantity int) error
	Subtract(ctx context.Context, borrowerID, itemID uuid.UUID, quantity int) (int64, error)
	Find(ctx context.Context, borrowerID, itemID uuid.UUID) (*models.ActiveLoan, error)
}

type activeRepository struct {
	db *gorm.DB
}

// NewActiveRepository returns an aggregate repository bound to the provided database.
func NewActiveRepository(db *gorm.DB) ActiveRepository {
	return &activeRepository{db: db}
}

func (r *activeRepository) WithTx(tx *gorm.DB) ActiveRepository {
	if tx == nil {
		return r
	}
	return &activeRepository{db: tx}
}

// Add upserts the pair row, summing quantities when the row already exists.
func (r *activeRepository) Add(ctx context.Context, borrowerID, itemID uuid.UUID, quantity int) error {
	row := &models.ActiveLoan{
		BorrowerID: borrowerID,
		ItemID:     itemID,
		Quantity:   quantity,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "borrower_id"}, {Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("active_loans.quantity + excluded.quantity"),
			}),
		}).
		Create(row).Error
}

// Subtract decrements the pair's quantity, guarded so it never drops below
// zero. The matched row count is zero when the aggregate holds less than the
// requested quantity.
func (r *activeRepository) Subtract(ctx context.Context, borrowerID, itemID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ActiveLoan{}).
		Where("borrower_id = ? AND item_id = ? AND quantity >= ?", borrowerID, itemID, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *activeRepository) Find(ctx context.Context, borrowerID, itemID uuid.UUID) (*models.ActiveLoan, error) {
	var row models.ActiveLoan
	err := r.db.WithContext(ctx).
		Where("borrower_id = ? AND item_id = ?", borrowerID, itemID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
