package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/bakehouse-labs/bakehouse-backend/internal/orders"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/enums"
)

func TestQuoteSuccess(t *testing.T) {
	t.Parallel()

	branchID := uuid.New()
	productID := uuid.New()
	quote := &orders.Quote{
		BranchID:                 branchID,
		Zone:                     enums.ShippingZoneUrban,
		DistanceKM:               2.4,
		SubtotalCents:            2000,
		DeliveryFeeOriginalCents: 1500,
		DeliveryFeeCents:         1500,
		TaxCents:                 0,
		TotalCents:               3500,
		EstimatedDeliveryMinutes: 45,
		Lines: []orders.QuoteLine{
			{ProductID: productID, ProductName: "Concha", Qty: 2, UnitPriceCents: 1000, LineTotalCents: 2000},
		},
	}

	handler := Quote(&stubOrdersService{quote: quote}, nil)

	body := `{"lines":[{"product_id":"` + productID.String() + `","qty":2}],"delivery_address":"Calle 1"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/pricing/quote", body, uuid.New()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orders.Quote `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.BranchID != branchID {
		t.Fatalf("unexpected branch: %s", envelope.Data.BranchID)
	}
	if envelope.Data.TotalCents != 3500 {
		t.Fatalf("unexpected total: %d", envelope.Data.TotalCents)
	}
	if len(envelope.Data.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(envelope.Data.Lines))
	}
}

func TestQuoteRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	handler := Quote(&stubOrdersService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/pricing/quote", `{"lines":[]}`, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestQuoteRejectsUnknownField(t *testing.T) {
	t.Parallel()

	handler := Quote(&stubOrdersService{}, nil)

	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","qty":1,"unit_price_cents":1}],"delivery_address":"x"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/pricing/quote", body, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("client-supplied prices must be rejected, got %d", resp.Code)
	}
}
