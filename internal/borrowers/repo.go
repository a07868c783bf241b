package borrowers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toolcrib/toolcrib-backend/pkg/db/models"
	pkgerrors "github.com/toolcrib/toolcrib-backend/pkg/errors"
)

// Repository defines persistence operations for borrower identities.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, borrower *models.Borrower) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Borrower, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Borrower, error)
	List(ctx context.Context) ([]models.Borrower, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a borrower repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, borrower *models.Borrower) error {
	return r.db.WithContext(ctx).Create(borrower).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Borrower, error) {
	var borrower models.Borrower
	if err := r.db.WithContext(ctx).First(&borrower, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "borrower not found")
		}
		return nil, err
	}
	return &borrower, nil
}

func (r *repository) FindByNationalID(ctx context.Context, nationalID string) (*models.Borrower, error) {
	var borrower models.Borrower
	if err := r.db.WithContext(ctx).First(&borrower, "national_id = ?", nationalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "borrower not found")
		}
		return nil, err
	}
	return &borrower, nil
}

func (r *repository) List(ctx context.Context) ([]models.Borrower, error) {
	var list []models.Borrower
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
