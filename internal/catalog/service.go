package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/toolcrib/toolcrib-backend/pkg/db"
	"github.com/toolcrib/toolcrib-backend/pkg/db/models"
	pkgerrors "github.com/toolcrib/toolcrib-backend/pkg/errors"
)

// Service exposes catalog operations to the transport layer.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	Restock(ctx context.Context, id uuid.UUID, units int) (*models.Item, error)
}

// CreateItemInput captures the fields needed to register an item.
type CreateItemInput struct {
	Name     string
	Location string
	Stock    int
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock must not be negative")
	}

	item := &models.Item{
		ID:       uuid.New(),
		Name:     name,
		Location: strings.TrimSpace(input.Location),
		Stock:    input.Stock,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "item name already exists")
		}
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.repo.List(ctx)
}

// Restock adds units outside of the lending flow, e.g. newly purchased stock.
func (s *service) Restock(ctx context.Context, id uuid.UUID, units int) (*models.Item, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if units <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock units must be positive")
	}
	matched, err := s.repo.AdjustStock(ctx, id, units)
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return s.repo.FindByID(ctx, id)
}
