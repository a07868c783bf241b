package borrowers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/toolcrib/toolcrib-backend/pkg/db"
	"github.com/toolcrib/toolcrib-backend/pkg/db/models"
	pkgerrors "github.com/toolcrib/toolcrib-backend/pkg/errors"
)

// DefaultCourse is recorded when registration does not name an affiliation.
const DefaultCourse = "none"

// Service exposes borrower registry operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Borrower, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Borrower, error)
	List(ctx context.Context) ([]models.Borrower, error)
}

// RegisterInput captures the fields needed to add a borrower.
type RegisterInput struct {
	NationalID string
	Name       string
	Phone      string
	Course     string
	Email      *string
}

type service struct {
	repo Repository
}

// NewService wires a borrower service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("borrower repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Borrower, error) {
	nationalID := strings.TrimSpace(input.NationalID)
	if nationalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "national id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	course := strings.TrimSpace(input.Course)
	if course == "" {
		course = DefaultCourse
	}

	borrower := &models.Borrower{
		ID:         uuid.New(),
		NationalID: nationalID,
		Name:       name,
		Phone:      strings.TrimSpace(input.Phone),
		Course:     course,
		Email:      input.Email,
	}
	if err := s.repo.Create(ctx, borrower); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "national id already registered")
		}
		return nil, err
	}
	return borrower, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Borrower, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "borrower id is required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Borrower, error) {
	return s.repo.List(ctx)
}
