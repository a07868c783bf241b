package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toolcrib/toolcrib-backend/internal/borrowers"
	"github.com/toolcrib/toolcrib-backend/internal/catalog"
	"github.com/toolcrib/toolcrib-backend/internal/clock"
	"github.com/toolcrib/toolcrib-backend/pkg/db"
	"github.com/toolcrib/toolcrib-backend/pkg/db/models"
	pkgerrors "github.com/toolcrib/toolcrib-backend/pkg/errors"
	"github.com/toolcrib/toolcrib-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Engine runs the two lending state transitions. Each call is one storage
// transaction across the item stock, the loan history, and the active-loan
// aggregate; on any failure none of the three move.
type Engine interface {
	Borrow(ctx context.Context, borrowerID, itemID uuid.UUID, quantity int, dueAt time.Time) (*models.LoanRecord, error)
	Return(ctx context.Context, borrowerID, itemID uuid.UUID) (*models.LoanRecord, error)
}

// EngineParams configure the lending engine.
type EngineParams struct {
	Tx        txRunner
	Items     catalog.Repository
	Borrowers borrowers.Repository
	History   HistoryRepository
	Active    ActiveRepository
	Clock     clock.Clock
	Metrics   *metrics.LendingMetrics
}

type engine struct {
	tx        txRunner
	items     catalog.Repository
	borrowers borrowers.Repository
	history   HistoryRepository
	active    ActiveRepository
	clock     clock.Clock
	metrics   *metrics.LendingMetrics
}

// NewEngine builds the lending engine.
func NewEngine(params EngineParams) (Engine, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("item store required")
	}
	if params.Borrowers == nil {
		return nil, fmt.Errorf("borrower store required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if params.Active == nil {
		return nil, fmt.Errorf("active loan repository required")
	}
	c := params.Clock
	if c == nil {
		c = clock.NewSystem()
	}
	return &engine{
		tx:        params.Tx,
		items:     params.Items,
		borrowers: params.Borrowers,
		history:   params.History,
		active:    params.Active,
		clock:     c,
		metrics:   params.Metrics,
	}, nil
}

// Borrow moves quantity units of an item from available stock onto loan.
func (e *engine) Borrow(ctx context.Context, borrowerID, itemID uuid.UUID, quantity int, dueAt time.Time) (*models.LoanRecord, error) {
	record, err := e.borrow(ctx, borrowerID, itemID, quantity, dueAt)
	e.metrics.ObserveBorrow(resultLabel(err))
	return record, err
}

func (e *engine) borrow(ctx context.Context, borrowerID, itemID uuid.UUID, quantity int, dueAt time.Time) (*models.LoanRecord, error) {
	if borrowerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "borrower id is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if dueAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date is required")
	}

	var record *models.LoanRecord
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		borrowerRepo := e.borrowers.WithTx(tx)
		items := e.items.WithTx(tx)
		history := e.history.WithTx(tx)
		active := e.active.WithTx(tx)

		if _, err := borrowerRepo.FindByID(ctx, borrowerID); err != nil {
			return err
		}

		// Check-and-decrement in one guarded statement so concurrent borrows
		// can never both pass against a stale stock value.
		matched, err := items.AdjustStock(ctx, itemID, -quantity)
		if err != nil {
			return err
		}
		if matched == 0 {
			item, err := items.FindByID(ctx, itemID)
			if err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").
				WithDetails(map[string]any{"available": item.Stock, "requested": quantity})
		}

		now := e.clock.Now()
		record = &models.LoanRecord{
			ID:         uuid.New(),
			BorrowerID: borrowerID,
			ItemID:     itemID,
			Quantity:   quantity,
			BorrowedAt: now,
			DueAt:      dueAt.UTC(),
		}
		if err := history.Append(ctx, record); err != nil {
			return err
		}

		return active.Add(ctx, borrowerID, itemID, quantity)
	})
	if err != nil {
		return nil, translateStorageErr(err)
	}
	return record, nil
}

// Return closes the oldest open loan for the pair and restores the full
// quantity that record borrowed.
func (e *engine) Return(ctx context.Context, borrowerID, itemID uuid.UUID) (*models.LoanRecord, error) {
	record, err := e.doReturn(ctx, borrowerID, itemID)
	e.metrics.ObserveReturn(resultLabel(err))
	return record, err
}

func (e *engine) doReturn(ctx context.Context, borrowerID, itemID uuid.UUID) (*models.LoanRecord, error) {
	if borrowerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "borrower id is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	var record *models.LoanRecord
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items := e.items.WithTx(tx)
		history := e.history.WithTx(tx)
		active := e.active.WithTx(tx)

		open, err := history.FindOldestOpen(ctx, borrowerID, itemID)
		if err != nil {
			return err
		}
		if open == nil {
			return pkgerrors.New(pkgerrors.CodeNoActiveLoan, "no open loan for this borrower and item")
		}

		returnedAt := e.clock.Now()
		closed, err := history.Close(ctx, open.ID, returnedAt)
		if err != nil {
			return err
		}
		if closed == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "loan was returned concurrently")
		}

		matched, err := items.AdjustStock(ctx, open.ItemID, open.Quantity)
		if err != nil {
			return err
		}
		if matched == 0 {
			return pkgerrors.New(pkgerrors.CodeInternal, "item row missing during return")
		}

		matched, err = active.Subtract(ctx, borrowerID, itemID, open.Quantity)
		if err != nil {
			return err
		}
		if matched == 0 {
			return pkgerrors.New(pkgerrors.CodeInternal, "active loan aggregate out of sync")
		}

		open.ReturnedAt = &returnedAt
		record = open
		return nil
	})
	if err != nil {
		return nil, translateStorageErr(err)
	}
	return record, nil
}

// translateStorageErr maps storage-layer serialization aborts to the
// retryable conflict code; typed errors pass through untouched.
func translateStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if db.IsSerializationFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "transaction aborted, retry")
	}
	return err
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return "error"
}
