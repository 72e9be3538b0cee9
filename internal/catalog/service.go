package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
)

// CartLine is an unresolved line from a client request.
type CartLine struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

// PricedLine is a cart line with catalog data resolved. UnitPriceCents is the
// base catalog price; branch overrides are applied by the pricing pipeline.
type PricedLine struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	ProductName    string
	Qty            int
	UnitPriceCents int
}

// Service resolves cart lines against the product catalog.
type Service interface {
	ResolveLines(ctx context.Context, lines []CartLine) ([]PricedLine, error)
}

type service struct {
	repo Repository
}

// NewService wires the catalog service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ResolveLines loads products and variants, rejecting unknown or inactive
// references. Variant price deltas are folded into the unit price.
func (s *service) ResolveLines(ctx context.Context, lines []CartLine) ([]PricedLine, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	variantIDs := make([]uuid.UUID, 0)
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		productIDs = append(productIDs, line.ProductID)
		if line.VariantID != nil {
			variantIDs = append(variantIDs, *line.VariantID)
		}
	}

	products, err := s.repo.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productsByID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		productsByID[product.ID] = product
	}

	variants, err := s.repo.FindVariants(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	variantsByID := make(map[uuid.UUID]models.ProductVariant, len(variants))
	for _, variant := range variants {
		variantsByID[variant.ID] = variant
	}

	priced := make([]PricedLine, 0, len(lines))
	for _, line := range lines {
		product, ok := productsByID[line.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		unitPrice := product.PriceCents
		if line.VariantID != nil {
			variant, ok := variantsByID[*line.VariantID]
			if !ok || !variant.IsActive || variant.ProductID != product.ID {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
					WithDetails(map[string]any{"variant_id": line.VariantID.String()})
			}
			unitPrice += variant.PriceDeltaCents
		}
		priced = append(priced, PricedLine{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			ProductName:    product.Name,
			Qty:            line.Qty,
			UnitPriceCents: unitPrice,
		})
	}
	return priced, nil
}
