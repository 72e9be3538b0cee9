package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bakehouse-labs/bakehouse-backend/internal/branches"
	"github.com/bakehouse-labs/bakehouse-backend/internal/catalog"
	"github.com/bakehouse-labs/bakehouse-backend/internal/inventory"
	"github.com/bakehouse-labs/bakehouse-backend/internal/promos"
	"github.com/bakehouse-labs/bakehouse-backend/internal/shipping"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/maps"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/metrics"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/outbox"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/outbox/payloads"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/pagination"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Geocoder resolves a free-form address to coordinates when the client does
// not send them.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*maps.GeocodeResult, error)
}

// OrderingGate answers whether the ordering window is currently open.
type OrderingGate interface {
	IsOpen(ctx context.Context) (bool, error)
}

// stockReader loads inventory rows for branch price overrides.
type stockReader interface {
	Find(ctx context.Context, branchID, productID uuid.UUID, variantID *uuid.UUID) (*models.BranchInventory, error)
}

// Service runs the pricing pipeline: quote, checkout, cancel, history.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*Quote, error)
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) error
	Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID, filters OrderFilters, page pagination.Params) ([]models.Order, error)
	CheckBranchAvailability(ctx context.Context, branchIDs []uuid.UUID, lines []LineInput) ([]BranchAvailability, error)
}

// Deps bundles the collaborators the pipeline composes.
type Deps struct {
	Tx       txRunner
	Repo     Repository
	Catalog  catalog.Service
	Branches branches.Service
	Ledger   inventory.Service
	Stock    stockReader
	Shipping *shipping.Service
	Promos   promos.Service
	Geocoder Geocoder
	Gate     OrderingGate
	Outbox   outboxPublisher
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	TaxBps   int
}

type service struct {
	deps Deps
	now  func() time.Time
}

// NewService validates the dependency set and builds the pipeline service.
// Geocoder, Gate, Metrics and Logger are optional.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if deps.Branches == nil {
		return nil, fmt.Errorf("branch service required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if deps.Stock == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if deps.Shipping == nil {
		return nil, fmt.Errorf("shipping service required")
	}
	if deps.Promos == nil {
		return nil, fmt.Errorf("promo service required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{deps: deps, now: time.Now}, nil
}

// Quote prices a cart without reserving or persisting anything.
func (s *service) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	started := s.now()
	quote, err := s.buildQuote(ctx, input)
	if s.deps.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "rejected"
		}
		s.deps.Metrics.ObserveQuote(outcome, s.now().Sub(started))
	}
	return quote, err
}

// buildQuote runs the read-only pricing steps. Create calls the same code so
// a preview and the committed order can never disagree on a single cent.
func (s *service) buildQuote(ctx context.Context, input QuoteInput) (*Quote, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.checkOrderingWindow(ctx); err != nil {
		return nil, err
	}

	priced, err := s.deps.Catalog.ResolveLines(ctx, toCartLines(input.Lines))
	if err != nil {
		return nil, err
	}

	delivery, address, err := s.resolveDelivery(ctx, input)
	if err != nil {
		return nil, err
	}

	branch, distanceKM, err := s.resolveBranch(ctx, input.BranchID, delivery, input.Lines)
	if err != nil {
		return nil, err
	}

	lines, subtotal, err := s.priceLines(ctx, branch.ID, priced)
	if err != nil {
		return nil, err
	}

	tier := s.deps.Shipping.ZoneFor(distanceKM)
	fee := s.deps.Shipping.ComputeFee(distanceKM, subtotal)
	deliveryFeeOriginal := tier.FeeCents
	deliveryFee := fee.FeeCents

	quote := &Quote{
		BranchID:                 branch.ID,
		Zone:                     fee.Zone,
		DistanceKM:               distanceKM,
		SubtotalCents:            subtotal,
		DeliveryFeeOriginalCents: deliveryFeeOriginal,
		FreeShippingApplied:      fee.FreeShippingApplied,
		EstimatedDeliveryMinutes: fee.ETAMinutes,
		Lines:                    lines,
		deliveryLat:              delivery.Lat,
		deliveryLng:              delivery.Lng,
		deliveryAddress:          address,
	}

	if input.PromoCode != "" {
		eval, err := s.deps.Promos.Validate(ctx, input.PromoCode, promos.OrderContext{
			UserID:                   input.UserID,
			OrderTotalCents:          subtotal,
			DeliveryFeeOriginalCents: deliveryFeeOriginal,
		})
		if err != nil {
			return nil, err
		}
		quote.promoCodeID = &eval.Promo.ID
		quote.DiscountCents = eval.DiscountCents
		// A free-shipping promo waives what is actually left to pay; the
		// threshold may already have zeroed the fee.
		shippingDiscount := eval.ShippingDiscountCents
		if shippingDiscount > deliveryFee {
			shippingDiscount = deliveryFee
		}
		quote.ShippingDiscountCents = shippingDiscount
		deliveryFee -= shippingDiscount
	}

	quote.DeliveryFeeCents = deliveryFee
	quote.TaxCents = taxFor(subtotal-quote.DiscountCents, s.deps.TaxBps)
	total := subtotal + deliveryFee - quote.DiscountCents + quote.TaxCents
	if total < 0 {
		total = 0
	}
	quote.TotalCents = total
	return quote, nil
}

// Create runs the full pipeline in one transaction: price, reserve in stable
// order, persist the order as Reserved, redeem the promo, then flip the row
// to Confirmed and emit the confirmation event. A failed reservation releases
// every hold taken for this request.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.PaymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	quote, err := s.buildQuote(ctx, input.QuoteInput)
	if err != nil {
		s.incOrder("rejected")
		return nil, err
	}

	var order *models.Order
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines := toInventoryLines(input.Lines)
		results, err := s.deps.Ledger.Reserve(ctx, tx, quote.BranchID, lines)
		if err != nil {
			return err
		}
		if failed := firstFailure(results); failed != nil {
			if err := s.releaseGranted(ctx, tx, quote.BranchID, lines, results); err != nil {
				return err
			}
			if s.deps.Metrics != nil {
				s.deps.Metrics.IncRollback()
			}
			return reservationError(*failed)
		}

		now := s.now()
		order = s.orderFromQuote(input, quote, now)
		repo := s.deps.Repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		if quote.promoCodeID != nil {
			discount := quote.DiscountCents + quote.ShippingDiscountCents
			if err := s.deps.Promos.Redeem(ctx, tx, *quote.promoCodeID, input.UserID, order.ID, discount); err != nil {
				return err
			}
		}

		// The row lands Reserved; the confirm flip is the last order write of
		// the transaction.
		err = repo.Update(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusConfirmed,
			"confirmed_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		order.Status = enums.OrderStatusConfirmed
		order.ConfirmedAt = &now

		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: "customer"},
			Data: payloads.OrderConfirmedEvent{
				OrderID:      order.ID,
				UserID:       input.UserID,
				BranchID:     order.BranchID,
				PromoCodeID:  order.PromoCodeID,
				ShippingZone: order.ShippingZone,
				TotalCents:   order.TotalCents,
				ConfirmedAt:  now,
			},
		})
	})
	if err != nil {
		s.incOrder("rejected")
		return nil, err
	}

	s.incOrder("confirmed")
	if s.deps.Logger != nil {
		logCtx := s.deps.Logger.WithOrderID(ctx, order.ID.String())
		s.deps.Logger.Info(logCtx, "order confirmed")
	}
	return order, nil
}

// Cancel releases the order's holds and marks it cancelled. Cancelling an
// already cancelled order is a no-op.
func (s *service) Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status == enums.OrderStatusCancelled {
			return nil
		}
		if order.Status == enums.OrderStatusFulfilled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "fulfilled orders cannot be cancelled")
		}

		if err := s.deps.Ledger.Release(ctx, tx, order.BranchID, itemLines(order.Items)); err != nil {
			return err
		}

		now := s.now()
		err = repo.Update(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusCancelled,
			"payment_status": enums.PaymentStatusVoided,
			"cancelled_at":   now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID, Role: "customer"},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				BranchID:    order.BranchID,
				CancelledAt: now,
				Reason:      reason,
			},
		})
	})
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.deps.Repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, filters OrderFilters, page pagination.Params) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.deps.Repo.ListByUser(ctx, userID, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// CheckBranchAvailability reports per-branch cart feasibility. The status is
// the worst line status for the branch.
func (s *service) CheckBranchAvailability(ctx context.Context, branchIDs []uuid.UUID, lines []LineInput) ([]BranchAvailability, error) {
	if len(branchIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one branch id is required")
	}
	results := make([]BranchAvailability, 0, len(branchIDs))
	for _, branchID := range branchIDs {
		satisfied, availabilities, err := s.deps.Ledger.CheckCart(ctx, branchID, toInventoryLines(lines))
		if err != nil {
			return nil, err
		}
		results = append(results, BranchAvailability{BranchID: branchID, Status: branchStatus(satisfied, availabilities)})
	}
	return results, nil
}

func (s *service) checkOrderingWindow(ctx context.Context) error {
	if s.deps.Gate == nil {
		return nil
	}
	open, err := s.deps.Gate.IsOpen(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ordering window")
	}
	if !open {
		return pkgerrors.New(pkgerrors.CodeValidation, "ordering is currently closed")
	}
	return nil
}

func (s *service) resolveDelivery(ctx context.Context, input QuoteInput) (shipping.Point, string, error) {
	if input.DeliveryLat != nil && input.DeliveryLng != nil {
		if input.DeliveryAddress == "" {
			return shipping.Point{}, "", pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
		}
		return shipping.Point{Lat: *input.DeliveryLat, Lng: *input.DeliveryLng}, input.DeliveryAddress, nil
	}
	if input.DeliveryAddress == "" {
		return shipping.Point{}, "", pkgerrors.New(pkgerrors.CodeValidation, "delivery address or coordinates are required")
	}
	if s.deps.Geocoder == nil {
		return shipping.Point{}, "", pkgerrors.New(pkgerrors.CodeValidation, "delivery coordinates are required")
	}
	result, err := s.deps.Geocoder.Geocode(ctx, input.DeliveryAddress)
	if err != nil {
		return shipping.Point{}, "", err
	}
	point := shipping.Point{Lat: result.Location.Latitude, Lng: result.Location.Longitude}
	return point, result.FormattedAddress, nil
}

// resolveBranch returns the explicit branch after checking it can satisfy the
// cart, or the nearest qualifying branch when none was given.
func (s *service) resolveBranch(ctx context.Context, branchID *uuid.UUID, delivery shipping.Point, lines []LineInput) (*models.Branch, float64, error) {
	invLines := toInventoryLines(lines)

	if branchID != nil {
		branch, err := s.deps.Branches.GetActive(ctx, *branchID)
		if err != nil {
			return nil, 0, err
		}
		satisfied, availabilities, err := s.deps.Ledger.CheckCart(ctx, branch.ID, invLines)
		if err != nil {
			return nil, 0, err
		}
		if !satisfied {
			return nil, 0, cartShortfallError(invLines, availabilities)
		}
		distance := shipping.Distance(delivery, shipping.Point{Lat: branch.Location.Lat, Lng: branch.Location.Lng})
		return branch, distance, nil
	}

	candidates, err := s.deps.Branches.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	best, _, err := s.deps.Shipping.SelectOptimalBranch(ctx, delivery, candidates, invLines, s.deps.Ledger)
	if err != nil {
		return nil, 0, err
	}
	return &best.Branch, best.DistanceKM, nil
}

// priceLines applies branch price overrides on top of catalog prices.
func (s *service) priceLines(ctx context.Context, branchID uuid.UUID, priced []catalog.PricedLine) ([]QuoteLine, int, error) {
	lines := make([]QuoteLine, 0, len(priced))
	subtotal := 0
	for _, line := range priced {
		unitPrice := line.UnitPriceCents
		row, err := s.deps.Stock.Find(ctx, branchID, line.ProductID, line.VariantID)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
		}
		if row != nil && row.PriceOverrideCents != nil {
			unitPrice = *row.PriceOverrideCents
		}
		lineTotal := unitPrice * line.Qty
		subtotal += lineTotal
		lines = append(lines, QuoteLine{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			ProductName:    line.ProductName,
			Qty:            line.Qty,
			UnitPriceCents: unitPrice,
			LineTotalCents: lineTotal,
		})
	}
	return lines, subtotal, nil
}

func (s *service) orderFromQuote(input CreateInput, quote *Quote, now time.Time) *models.Order {
	items := make([]models.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, models.OrderItem{
			ID:             uuid.New(),
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			ProductName:    line.ProductName,
			Quantity:       line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotalCents,
		})
	}
	return &models.Order{
		ID:                       uuid.New(),
		UserID:                   input.UserID,
		BranchID:                 quote.BranchID,
		PromoCodeID:              quote.promoCodeID,
		Status:                   enums.OrderStatusReserved,
		PaymentStatus:            enums.PaymentStatusPending,
		PaymentMethod:            input.PaymentMethod,
		DeliveryAddress:          quote.deliveryAddress,
		DeliveryLocation:         types.GeographyPoint{Lat: quote.deliveryLat, Lng: quote.deliveryLng},
		ShippingZone:             quote.Zone,
		SubtotalCents:            quote.SubtotalCents,
		DeliveryFeeOriginalCents: quote.DeliveryFeeOriginalCents,
		DeliveryFeeCents:         quote.DeliveryFeeCents,
		DiscountCents:            quote.DiscountCents,
		ShippingDiscountCents:    quote.ShippingDiscountCents,
		TaxCents:                 quote.TaxCents,
		TotalCents:               quote.TotalCents,
		EstimatedDeliveryMinutes: quote.EstimatedDeliveryMinutes,
		Items:                    items,
		ReservedAt:               &now,
	}
}

// releaseGranted returns the holds taken before the failing line.
func (s *service) releaseGranted(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, lines []inventory.Line, results []inventory.ReservationResult) error {
	granted := make([]inventory.Line, 0, len(lines))
	for i, result := range results {
		if result.Reserved {
			granted = append(granted, lines[i])
		}
	}
	if len(granted) == 0 {
		return nil
	}
	return s.deps.Ledger.Release(ctx, tx, branchID, granted)
}

func (s *service) incOrder(outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.IncOrder(outcome)
	}
}

// branchStatus folds per-line availabilities into one branch status, keeping
// the worst line.
func branchStatus(satisfied bool, availabilities []inventory.Availability) enums.StockStatus {
	if satisfied {
		for _, avail := range availabilities {
			if avail.Status == enums.StockStatusLowStock {
				return enums.StockStatusLowStock
			}
		}
		return enums.StockStatusAvailable
	}
	for _, avail := range availabilities {
		if avail.Status == enums.StockStatusUnavailable {
			return enums.StockStatusUnavailable
		}
	}
	return enums.StockStatusOutOfStock
}

func firstFailure(results []inventory.ReservationResult) *inventory.ReservationResult {
	for i := range results {
		if !results[i].Reserved {
			return &results[i]
		}
	}
	return nil
}

func reservationError(failed inventory.ReservationResult) error {
	details := map[string]any{"product_id": failed.ProductID.String()}
	if failed.VariantID != nil {
		details["variant_id"] = failed.VariantID.String()
	}
	if failed.Reason == inventory.ReasonNotAvailable {
		return pkgerrors.New(pkgerrors.CodeBranchUnavailable, "item not available at branch").WithDetails(details)
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for item").WithDetails(details)
}

// cartShortfallError surfaces the first failing line of an explicit-branch
// cart check, shaped like the reservation errors.
func cartShortfallError(lines []inventory.Line, availabilities []inventory.Availability) error {
	for i, avail := range availabilities {
		if avail.Status == enums.StockStatusUnavailable {
			return reservationError(inventory.ReservationResult{
				ProductID: avail.ProductID,
				VariantID: avail.VariantID,
				Reason:    inventory.ReasonNotAvailable,
			})
		}
		if i < len(lines) && avail.AvailableQty < lines[i].Qty {
			return reservationError(inventory.ReservationResult{
				ProductID: avail.ProductID,
				VariantID: avail.VariantID,
				Reason:    inventory.ReasonInsufficientStock,
			})
		}
	}
	return pkgerrors.New(pkgerrors.CodeBranchUnavailable, "branch cannot satisfy cart")
}

func taxFor(taxableCents, taxBps int) int {
	if taxBps <= 0 || taxableCents <= 0 {
		return 0
	}
	tax := decimal.NewFromInt(int64(taxableCents)).
		Mul(decimal.NewFromInt(int64(taxBps))).
		Div(decimal.NewFromInt(10000)).
		Round(0)
	return int(tax.IntPart())
}

func toCartLines(lines []LineInput) []catalog.CartLine {
	out := make([]catalog.CartLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, catalog.CartLine{ProductID: line.ProductID, VariantID: line.VariantID, Qty: line.Qty})
	}
	return out
}

func toInventoryLines(lines []LineInput) []inventory.Line {
	out := make([]inventory.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, inventory.Line{ProductID: line.ProductID, VariantID: line.VariantID, Qty: line.Qty})
	}
	return out
}

func itemLines(items []models.OrderItem) []inventory.Line {
	out := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		out = append(out, inventory.Line{ProductID: item.ProductID, VariantID: item.VariantID, Qty: item.Quantity})
	}
	return out
}
