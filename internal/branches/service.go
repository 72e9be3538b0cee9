package branches

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
)

// Service exposes branch lookups to the HTTP surface and the pipeline.
type Service interface {
	List(ctx context.Context) ([]models.Branch, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	GetActive(ctx context.Context, id uuid.UUID) (*models.Branch, error)
}

type service struct {
	repo Repository
}

// NewService wires the branch service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("branch repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Branch, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	return branch, nil
}

// GetActive returns the branch only when it can take orders.
func (s *service) GetActive(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	branch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !branch.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeBranchUnavailable, "branch is not accepting orders").
			WithDetails(map[string]any{"branch_id": id.String()})
	}
	return branch, nil
}
