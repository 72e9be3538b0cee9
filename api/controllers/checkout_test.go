package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/api/middleware"
	"github.com/bakehouse-labs/bakehouse-backend/internal/orders"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/db/models"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/pagination"
)

type stubOrdersService struct {
	quote        *orders.Quote
	order        *models.Order
	list         []models.Order
	availability []orders.BranchAvailability
	err          error

	lastCreate orders.CreateInput
	cancelled  []uuid.UUID
}

func (s *stubOrdersService) Quote(ctx context.Context, input orders.QuoteInput) (*orders.Quote, error) {
	return s.quote, s.err
}

func (s *stubOrdersService) Create(ctx context.Context, input orders.CreateInput) (*models.Order, error) {
	s.lastCreate = input
	return s.order, s.err
}

func (s *stubOrdersService) Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) error {
	s.cancelled = append(s.cancelled, orderID)
	return s.err
}

func (s *stubOrdersService) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) List(ctx context.Context, userID uuid.UUID, filters orders.OrderFilters, page pagination.Params) ([]models.Order, error) {
	return s.list, s.err
}

func (s *stubOrdersService) CheckBranchAvailability(ctx context.Context, branchIDs []uuid.UUID, lines []orders.LineInput) ([]orders.BranchAvailability, error) {
	return s.availability, s.err
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	branchID := uuid.New()
	productID := uuid.New()
	now := time.Now().UTC()

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		BranchID:      branchID,
		Status:        enums.OrderStatusConfirmed,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: "card",
		ShippingZone:  enums.ShippingZoneUrban,
		SubtotalCents: 2000,
		TotalCents:    3500,
		Items: []models.OrderItem{
			{
				ID:             uuid.New(),
				ProductID:      productID,
				ProductName:    "Concha",
				Quantity:       2,
				UnitPriceCents: 1000,
				LineTotalCents: 2000,
			},
		},
		ReservedAt:  &now,
		ConfirmedAt: &now,
	}

	svc := &stubOrdersService{order: order}
	handler := Checkout(svc, nil)

	body := `{"lines":[{"product_id":"` + productID.String() + `","qty":2}],"delivery_address":"Calle 1","payment_method":"card"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body, userID))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderID != order.ID {
		t.Fatalf("unexpected order id: %s", envelope.Data.OrderID)
	}
	if envelope.Data.TotalCents != 3500 {
		t.Fatalf("unexpected total: %d", envelope.Data.TotalCents)
	}
	if svc.lastCreate.PaymentMethod != "card" {
		t.Fatalf("payment method not forwarded: %q", svc.lastCreate.PaymentMethod)
	}
	if len(svc.lastCreate.Lines) != 1 || svc.lastCreate.Lines[0].Qty != 2 {
		t.Fatalf("lines not forwarded: %+v", svc.lastCreate.Lines)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	svc := &stubOrdersService{
		err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"product_id": productID.String()}),
	}
	handler := Checkout(svc, nil)

	body := `{"lines":[{"product_id":"` + productID.String() + `","qty":99}],"delivery_address":"Calle 1","payment_method":"card"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body, uuid.New()))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code: %s", envelope.Error.Code)
	}
	if envelope.Error.Details["product_id"] != productID.String() {
		t.Fatalf("expected offending product in details, got %v", envelope.Error.Details)
	}
}

func TestCheckoutRejectsMissingPaymentMethod(t *testing.T) {
	t.Parallel()

	handler := Checkout(&stubOrdersService{}, nil)

	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","qty":1}],"delivery_address":"Calle 1"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "payment_method") {
		t.Fatalf("expected payment_method in details: %s", resp.Body.String())
	}
}

func TestCheckoutRequiresAuth(t *testing.T) {
	t.Parallel()

	handler := Checkout(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
