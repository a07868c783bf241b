package controllers

import (
	"net/http"

	"github.com/toolcrib/toolcrib-backend/api/responses"
	"github.com/toolcrib/toolcrib-backend/api/validators"
	"github.com/toolcrib/toolcrib-backend/internal/borrowers"
	"github.com/toolcrib/toolcrib-backend/internal/reports"
	"github.com/toolcrib/toolcrib-backend/pkg/logger"
)

type registerBorrowerRequest struct {
	NationalID string  `json:"national_id" validate:"required,max=50"`
	Name       string  `json:"name" validate:"required,max=200"`
	Phone      string  `json:"phone" validate:"max=50"`
	Course     string  `json:"course" validate:"max=200"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
}

// RegisterBorrower adds a person to the borrower registry.
func RegisterBorrower(svc borrowers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerBorrowerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrower, err := svc.Register(r.Context(), borrowers.RegisterInput{
			NationalID: payload.NationalID,
			Name:       payload.Name,
			Phone:      payload.Phone,
			Course:     payload.Course,
			Email:      payload.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, borrower)
	}
}

// ListBorrowers returns the registry ordered by name.
func ListBorrowers(svc borrowers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetBorrower returns one borrower by id.
func GetBorrower(svc borrowers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "borrowerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrower, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, borrower)
	}
}

// ListBorrowerItems returns every loan record for one borrower, item details included.
func ListBorrowerItems(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "borrowerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListBorrowerItems(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
