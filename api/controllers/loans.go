package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/toolcrib/toolcrib-backend/api/responses"
	"github.com/toolcrib/toolcrib-backend/api/validators"
	"github.com/toolcrib/toolcrib-backend/internal/lending"
	"github.com/toolcrib/toolcrib-backend/internal/reports"
	"github.com/toolcrib/toolcrib-backend/pkg/logger"
	"github.com/toolcrib/toolcrib-backend/pkg/pagination"
)

type borrowRequest struct {
	BorrowerID uuid.UUID `json:"borrower_id" validate:"required"`
	ItemID     uuid.UUID `json:"item_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1"`
	DueAt      time.Time `json:"due_at" validate:"required"`
}

type returnRequest struct {
	BorrowerID uuid.UUID `json:"borrower_id" validate:"required"`
	ItemID     uuid.UUID `json:"item_id" validate:"required"`
}

// BorrowItem lends stock to a borrower as one atomic transaction.
func BorrowItem(engine lending.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload borrowRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBorrowerID(ctx, payload.BorrowerID.String())
			ctx = logg.WithItemID(ctx, payload.ItemID.String())
		}

		record, err := engine.Borrow(ctx, payload.BorrowerID, payload.ItemID, payload.Quantity, payload.DueAt)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// ReturnItem closes the oldest open loan record for the borrower and item.
func ReturnItem(engine lending.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload returnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBorrowerID(ctx, payload.BorrowerID.String())
			ctx = logg.WithItemID(ctx, payload.ItemID.String())
		}

		record, err := engine.Return(ctx, payload.BorrowerID, payload.ItemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// LoanHistory returns the full loan log, newest first.
func LoanHistory(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListHistory(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// OverdueLoans returns open loans past their due date as of now.
func OverdueLoans(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.ListOverdue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

