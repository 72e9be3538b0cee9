package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bakehouse-labs/bakehouse-backend/internal/catalog"
	"github.com/bakehouse-labs/bakehouse-backend/internal/inventory"
	"github.com/bakehouse-labs/bakehouse-backend/internal/promos"
	"github.com/bakehouse-labs/bakehouse-backend/internal/shipping"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/config"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/outbox"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/pagination"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/types"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubCatalog struct {
	products map[uuid.UUID]catalog.PricedLine
}

func (s *stubCatalog) ResolveLines(_ context.Context, lines []catalog.CartLine) ([]catalog.PricedLine, error) {
	priced := make([]catalog.PricedLine, 0, len(lines))
	for _, line := range lines {
		template, ok := s.products[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		template.VariantID = line.VariantID
		template.Qty = line.Qty
		priced = append(priced, template)
	}
	return priced, nil
}

type stubBranchDir struct {
	byID map[uuid.UUID]*models.Branch
}

func (s *stubBranchDir) List(_ context.Context) ([]models.Branch, error) {
	out := make([]models.Branch, 0, len(s.byID))
	for _, branch := range s.byID {
		out = append(out, *branch)
	}
	return out, nil
}

func (s *stubBranchDir) Get(_ context.Context, id uuid.UUID) (*models.Branch, error) {
	branch, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	return branch, nil
}

func (s *stubBranchDir) GetActive(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	branch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !branch.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeBranchUnavailable, "branch is not available")
	}
	return branch, nil
}

func (s *stubBranchDir) IsActive(_ context.Context, id uuid.UUID) (bool, error) {
	branch, ok := s.byID[id]
	return ok && branch.IsActive, nil
}

type stubGate struct {
	open bool
}

func (s *stubGate) IsOpen(_ context.Context) (bool, error) {
	return s.open, nil
}

// repoTrace collects order writes across transaction rebinds of the
// tracing repository.
type repoTrace struct {
	createdStatuses []enums.OrderStatus
	updates         []map[string]any
}

type tracingOrderRepo struct {
	Repository
	trace *repoTrace
}

func (r *tracingOrderRepo) WithTx(tx *gorm.DB) Repository {
	return &tracingOrderRepo{Repository: r.Repository.WithTx(tx), trace: r.trace}
}

func (r *tracingOrderRepo) Create(ctx context.Context, order *models.Order) error {
	r.trace.createdStatuses = append(r.trace.createdStatuses, order.Status)
	return r.Repository.Create(ctx, order)
}

func (r *tracingOrderRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	r.trace.updates = append(r.trace.updates, updates)
	return r.Repository.Update(ctx, id, updates)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	r.events = append(r.events, event)
	return nil
}

func newOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	ddls := []string{`
CREATE TABLE IF NOT EXISTS branch_inventories (
  id TEXT PRIMARY KEY,
  branch_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  reserved_qty INTEGER NOT NULL DEFAULT 0,
  min_stock_level INTEGER NOT NULL DEFAULT 0,
  price_override_cents INTEGER,
  is_available INTEGER NOT NULL DEFAULT 1,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS promo_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  description TEXT,
  discount_type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL,
  min_order_amount_cents INTEGER,
  max_discount_amount_cents INTEGER,
  usage_limit INTEGER,
  user_usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS promo_code_usages (
  id TEXT PRIMARY KEY,
  promo_code_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL UNIQUE,
  discount_amount_cents INTEGER NOT NULL,
  used_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  branch_id TEXT NOT NULL,
  promo_code_id TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  delivery_address TEXT NOT NULL,
  delivery_location TEXT NOT NULL,
  shipping_zone TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  delivery_fee_original_cents INTEGER NOT NULL,
  delivery_fee_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  shipping_discount_cents INTEGER NOT NULL DEFAULT 0,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  estimated_delivery_minutes INTEGER NOT NULL DEFAULT 0,
  reserved_at DATETIME,
  confirmed_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  line_total_cents INTEGER NOT NULL,
  created_at DATETIME
);`}
	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

type pipelineFixture struct {
	svc      Service
	db       *gorm.DB
	outbox   *recordingOutbox
	gate     *stubGate
	trace    *repoTrace
	branchID uuid.UUID
	userID   uuid.UUID
	productA uuid.UUID
	productB uuid.UUID
}

func shippingTiers() []shipping.Tier {
	return shipping.TiersFromConfig(config.ShippingConfig{
		UrbanMaxKM:                  5,
		MetroMaxKM:                  15,
		RegionalMaxKM:               30,
		IntercityMaxKM:              60,
		UrbanFeeCents:               1500,
		MetroFeeCents:               2500,
		RegionalFeeCents:            4000,
		IntercityFeeCents:           6000,
		RemoteFeeCents:              9000,
		UrbanFreeThresholdCents:     3500,
		MetroFreeThresholdCents:     5000,
		RegionalFreeThresholdCents:  8000,
		IntercityFreeThresholdCents: 12000,
		RemoteFreeThresholdCents:    0,
		UrbanETAMinutes:             45,
		MetroETAMinutes:             90,
		RegionalETAMinutes:          180,
		IntercityETAMinutes:         360,
		RemoteETAMinutes:            1440,
	})
}

// newPipeline wires a full pipeline against an in-memory database: a branch
// at the delivery point, product A priced 1000, product B priced 500.
func newPipeline(t *testing.T, db *gorm.DB) *pipelineFixture {
	t.Helper()

	branchID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()

	dir := &stubBranchDir{byID: map[uuid.UUID]*models.Branch{
		branchID: {
			ID:       branchID,
			Name:     "Centro",
			Slug:     "centro",
			Address:  "main street 1",
			Location: types.GeographyPoint{Lat: 19.4326, Lng: -99.1332},
			IsActive: true,
		},
	}}

	invRepo := inventory.NewRepository(db)
	ledger, err := inventory.NewService(invRepo, dir, 5)
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	promoSvc, err := promos.NewService(promos.NewRepository(db))
	if err != nil {
		t.Fatalf("promo service: %v", err)
	}
	shipSvc, err := shipping.NewService(shippingTiers())
	if err != nil {
		t.Fatalf("shipping service: %v", err)
	}

	cat := &stubCatalog{products: map[uuid.UUID]catalog.PricedLine{
		productA: {ProductID: productA, ProductName: "sourdough loaf", UnitPriceCents: 1000},
		productB: {ProductID: productB, ProductName: "croissant box", UnitPriceCents: 500},
	}}

	box := &recordingOutbox{}
	gate := &stubGate{open: true}
	trace := &repoTrace{}
	svc, err := NewService(Deps{
		Tx:       &testTxRunner{db: db},
		Repo:     &tracingOrderRepo{Repository: NewRepository(db), trace: trace},
		Catalog:  cat,
		Branches: dir,
		Ledger:   ledger,
		Stock:    invRepo,
		Shipping: shipSvc,
		Promos:   promoSvc,
		Gate:     gate,
		Outbox:   box,
	})
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}

	return &pipelineFixture{
		svc:      svc,
		db:       db,
		outbox:   box,
		gate:     gate,
		trace:    trace,
		branchID: branchID,
		userID:   uuid.New(),
		productA: productA,
		productB: productB,
	}
}

func (f *pipelineFixture) seedStock(t *testing.T, productID uuid.UUID, stock int, override *int) {
	t.Helper()
	row := models.BranchInventory{
		ID:                 uuid.New(),
		BranchID:           f.branchID,
		ProductID:          productID,
		StockQty:           stock,
		PriceOverrideCents: override,
		IsAvailable:        true,
	}
	if err := f.db.Create(&row).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
}

func (f *pipelineFixture) reservedQty(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var row models.BranchInventory
	err := f.db.Where("branch_id = ? AND product_id = ?", f.branchID, productID).First(&row).Error
	if err != nil {
		t.Fatalf("load inventory row: %v", err)
	}
	return row.ReservedQty
}

func (f *pipelineFixture) quoteInput() QuoteInput {
	lat, lng := 19.4326, -99.1332
	return QuoteInput{
		UserID:          f.userID,
		Lines:           []LineInput{{ProductID: f.productA, Qty: 2}},
		DeliveryAddress: "reforma 100, cdmx",
		DeliveryLat:     &lat,
		DeliveryLng:     &lng,
		BranchID:        &f.branchID,
	}
}

func TestQuoteAndCreatePriceParity(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)
	ctx := context.Background()

	quote, err := f.svc.Quote(ctx, f.quoteInput())
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.SubtotalCents != 2000 {
		t.Fatalf("expected subtotal 2000, got %d", quote.SubtotalCents)
	}
	// Urban zone, subtotal below the 3500 free threshold.
	if quote.Zone != enums.ShippingZoneUrban || quote.DeliveryFeeCents != 1500 {
		t.Fatalf("expected urban fee 1500, got %s %d", quote.Zone, quote.DeliveryFeeCents)
	}
	if quote.TotalCents != 3500 {
		t.Fatalf("expected total 3500, got %d", quote.TotalCents)
	}

	order, err := f.svc.Create(ctx, CreateInput{QuoteInput: f.quoteInput(), PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.SubtotalCents != quote.SubtotalCents ||
		order.DeliveryFeeCents != quote.DeliveryFeeCents ||
		order.DeliveryFeeOriginalCents != quote.DeliveryFeeOriginalCents ||
		order.DiscountCents != quote.DiscountCents ||
		order.TaxCents != quote.TaxCents ||
		order.TotalCents != quote.TotalCents {
		t.Fatalf("order pricing diverged from quote: %+v vs %+v", order, quote)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", order.Status)
	}
	if f.reservedQty(t, f.productA) != 2 {
		t.Fatalf("expected 2 units reserved, got %d", f.reservedQty(t, f.productA))
	}

	stored, err := f.svc.Get(ctx, order.ID, f.userID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(stored.Items) != 1 || stored.Items[0].LineTotalCents != 2000 {
		t.Fatalf("unexpected stored items: %+v", stored.Items)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderConfirmed {
		t.Fatalf("expected one order.confirmed event, got %+v", f.outbox.events)
	}
}

func TestCreatePersistsReservedThenConfirms(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, CreateInput{QuoteInput: f.quoteInput(), PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(f.trace.createdStatuses) != 1 || f.trace.createdStatuses[0] != enums.OrderStatusReserved {
		t.Fatalf("expected the order row inserted as reserved, got %v", f.trace.createdStatuses)
	}
	if len(f.trace.updates) != 1 {
		t.Fatalf("expected a single confirm update, got %d", len(f.trace.updates))
	}
	if f.trace.updates[0]["status"] != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirm flip, got %v", f.trace.updates[0])
	}

	if order.Status != enums.OrderStatusConfirmed || order.ReservedAt == nil || order.ConfirmedAt == nil {
		t.Fatalf("unexpected returned order state: %s reserved_at=%v confirmed_at=%v",
			order.Status, order.ReservedAt, order.ConfirmedAt)
	}

	stored, err := f.svc.Get(ctx, order.ID, f.userID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Status != enums.OrderStatusConfirmed || stored.ConfirmedAt == nil {
		t.Fatalf("expected confirmed row after commit, got %s confirmed_at=%v", stored.Status, stored.ConfirmedAt)
	}
}

func TestCreateRollsBackPartialReservation(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)
	f.seedStock(t, f.productB, 1, nil)
	ctx := context.Background()

	input := f.quoteInput()
	input.Lines = []LineInput{
		{ProductID: f.productA, Qty: 2},
		{ProductID: f.productB, Qty: 3},
	}

	_, err := f.svc.Create(ctx, CreateInput{QuoteInput: input, PaymentMethod: "cash"})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	details, ok := domainErr.Details().(map[string]any)
	if !ok || details["product_id"] != f.productB.String() {
		t.Fatalf("expected failing product in details, got %v", domainErr.Details())
	}

	if got := f.reservedQty(t, f.productA); got != 0 {
		t.Fatalf("expected product A hold released, reserved=%d", got)
	}
	if got := f.reservedQty(t, f.productB); got != 0 {
		t.Fatalf("expected product B untouched, reserved=%d", got)
	}

	var count int64
	if err := f.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted orders, got %d", count)
	}
	if len(f.outbox.events) != 0 {
		t.Fatalf("expected no events on failed checkout, got %+v", f.outbox.events)
	}
}

func TestCreateRedeemsPromoAtomically(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)
	ctx := context.Background()

	limit := 1
	promo := models.PromoCode{
		ID:            uuid.New(),
		Code:          "bake10",
		DiscountType:  enums.PromoDiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		UsageLimit:    &limit,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}
	if err := f.db.Create(&promo).Error; err != nil {
		t.Fatalf("seed promo: %v", err)
	}

	input := f.quoteInput()
	input.PromoCode = "bake10"
	order, err := f.svc.Create(ctx, CreateInput{QuoteInput: input, PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("create with promo: %v", err)
	}
	// 10% of 2000.
	if order.DiscountCents != 200 || order.TotalCents != 3300 {
		t.Fatalf("expected discount 200 total 3300, got %d %d", order.DiscountCents, order.TotalCents)
	}

	var usageCount int64
	if err := f.db.Model(&models.PromoCodeUsage{}).Where("promo_code_id = ?", promo.ID).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usages: %v", err)
	}
	if usageCount != 1 {
		t.Fatalf("expected one usage row, got %d", usageCount)
	}

	second := f.quoteInput()
	second.UserID = uuid.New()
	second.PromoCode = "bake10"
	_, err = f.svc.Create(ctx, CreateInput{QuoteInput: second, PaymentMethod: "cash"})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodePromoInvalid {
		t.Fatalf("expected PROMO_INVALID after limit, got %v", err)
	}
}

func TestCancelReleasesHolds(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, CreateInput{QuoteInput: f.quoteInput(), PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.reservedQty(t, f.productA) != 2 {
		t.Fatalf("expected hold of 2 before cancel")
	}

	if err := f.svc.Cancel(ctx, order.ID, f.userID, "changed my mind"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := f.reservedQty(t, f.productA); got != 0 {
		t.Fatalf("expected holds released, reserved=%d", got)
	}

	cancelled, err := f.svc.Get(ctx, order.ID, f.userID)
	if err != nil {
		t.Fatalf("get cancelled order: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled || cancelled.PaymentStatus != enums.PaymentStatusVoided {
		t.Fatalf("unexpected cancelled state: %s %s", cancelled.Status, cancelled.PaymentStatus)
	}

	// Cancelling twice is a no-op and must not double-release.
	if err := f.svc.Cancel(ctx, order.ID, f.userID, ""); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got := f.reservedQty(t, f.productA); got != 0 {
		t.Fatalf("second cancel changed holds, reserved=%d", got)
	}

	last := f.outbox.events[len(f.outbox.events)-1]
	if last.EventType != enums.EventOrderCancelled {
		t.Fatalf("expected order.cancelled event, got %s", last.EventType)
	}
}

func TestQuoteRejectedWhileOrderingClosed(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)
	f.gate.open = false

	_, err := f.svc.Quote(context.Background(), f.quoteInput())
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR while closed, got %v", err)
	}
}

func TestQuoteFreeShippingPromo(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)
	ctx := context.Background()

	promo := models.PromoCode{
		ID:            uuid.New(),
		Code:          "freeride",
		DiscountType:  enums.PromoDiscountFreeShipping,
		DiscountValue: decimal.Zero,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}
	if err := f.db.Create(&promo).Error; err != nil {
		t.Fatalf("seed promo: %v", err)
	}

	input := f.quoteInput()
	input.PromoCode = "freeride"
	quote, err := f.svc.Quote(ctx, input)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.ShippingDiscountCents != 1500 || quote.DeliveryFeeCents != 0 {
		t.Fatalf("expected shipping fully waived, got discount %d fee %d", quote.ShippingDiscountCents, quote.DeliveryFeeCents)
	}
	if quote.DiscountCents != 0 {
		t.Fatalf("free shipping must not discount the subtotal, got %d", quote.DiscountCents)
	}
	if quote.TotalCents != 2000 {
		t.Fatalf("expected total 2000, got %d", quote.TotalCents)
	}
}

func TestQuoteAppliesBranchPriceOverride(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	override := 1200
	f.seedStock(t, f.productA, 10, &override)

	quote, err := f.svc.Quote(context.Background(), f.quoteInput())
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.SubtotalCents != 2400 {
		t.Fatalf("expected override subtotal 2400, got %d", quote.SubtotalCents)
	}
	if quote.Lines[0].UnitPriceCents != 1200 {
		t.Fatalf("expected override unit price 1200, got %d", quote.Lines[0].UnitPriceCents)
	}
}

func TestCheckBranchAvailability(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)

	results, err := f.svc.CheckBranchAvailability(context.Background(),
		[]uuid.UUID{f.branchID},
		[]LineInput{{ProductID: f.productA, Qty: 2}, {ProductID: f.productB, Qty: 1}})
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	if len(results) != 1 || results[0].Status != enums.StockStatusUnavailable {
		t.Fatalf("expected unavailable branch (product B has no row), got %+v", results)
	}

	f.seedStock(t, f.productB, 20, nil)
	results, err = f.svc.CheckBranchAvailability(context.Background(),
		[]uuid.UUID{f.branchID},
		[]LineInput{{ProductID: f.productA, Qty: 2}, {ProductID: f.productB, Qty: 1}})
	if err != nil {
		t.Fatalf("check availability: %v", err)
	}
	if results[0].Status != enums.StockStatusAvailable {
		t.Fatalf("expected available branch, got %+v", results)
	}
}

func TestGetHidesOtherUsersOrders(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 10, nil)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, CreateInput{QuoteInput: f.quoteInput(), PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Get(ctx, order.ID, uuid.New())
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for foreign order, got %v", err)
	}
}

func TestListPaginatesUserOrders(t *testing.T) {
	t.Parallel()

	f := newPipeline(t, newOrdersTestDB(t))
	f.seedStock(t, f.productA, 50, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Create(ctx, CreateInput{QuoteInput: f.quoteInput(), PaymentMethod: "cash"}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := f.svc.List(ctx, f.userID, OrderFilters{}, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 orders on first page, got %d", len(page))
	}

	rest, err := f.svc.List(ctx, f.userID, OrderFilters{}, pagination.Params{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 order on second page, got %d", len(rest))
	}
}
