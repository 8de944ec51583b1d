package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/kvota/internal/calc"
	"github.com/dukerupert/kvota/internal/domain"
	"github.com/dukerupert/kvota/internal/service"
	"github.com/dukerupert/kvota/internal/settings"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultOrg = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// fakeCalculator records the params it receives.
type fakeCalculator struct {
	params service.CalculateParams
	result *calc.QuoteCalculation
	err    error
}

func (f *fakeCalculator) Calculate(ctx context.Context, params service.CalculateParams) (*calc.QuoteCalculation, error) {
	f.params = params
	return f.result, f.err
}

const exwBody = `{
  "quote": {
    "currency_of_quote": "USD",
    "seller_company": "MASTER BEARING LLC",
    "offer_sale_type": "supply",
    "offer_incoterms": "EXW",
    "currency_of_base_price": "USD",
    "supplier_country": "OTHER",
    "markup": "20"
  },
  "items": [{"sku": "BRG-6205", "quantity": 10, "base_price_vat": "100", "weight_in_kg": "1"}]
}`

func postCalculate(h *QuoteHandler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.Calculate(rec, req)
	return rec
}

func TestQuoteHandler_Calculate(t *testing.T) {
	admin := domain.AdminSettings{ForexRiskRate: decimal.NewFromInt(3), LoanInterestDaily: decimal.RequireFromString("0.069")}
	svc := service.NewQuoteService(calc.New(), settings.NewStatic(admin), nil, nil)
	h := NewQuoteHandler(svc, defaultOrg)

	rec := postCalculate(h, exwBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		QuoteCurrency string `json:"quote_currency"`
		SellerRegion  string `json:"seller_region"`
		Items         []struct {
			SKU   string                     `json:"sku"`
			Cells map[string]decimal.Decimal `json:"cells"`
		} `json:"items"`
		Totals map[string]decimal.Decimal `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "USD", got.QuoteCurrency)
	assert.Equal(t, "RU", got.SellerRegion)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "BRG-6205", got.Items[0].SKU)
	assert.Equal(t, "120", got.Items[0].Cells["AJ16"].String())
	assert.Equal(t, "1200", got.Totals["AK13"].String())
	assert.Equal(t, "1440", got.Totals["AL13"].String())
}

func TestQuoteHandler_DefaultOrganization(t *testing.T) {
	fake := &fakeCalculator{err: domain.UnknownKey("seller_company", "MASTER BEARING LLC")}
	h := NewQuoteHandler(fake, defaultOrg)

	rec := postCalculate(h, exwBody)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, defaultOrg, fake.params.OrganizationID)
	assert.Len(t, fake.params.Items, 1)
}

func TestQuoteHandler_ExplicitOrganization(t *testing.T) {
	org := uuid.New()
	fake := &fakeCalculator{err: domain.NotFound("settings.snapshot", "admin settings", org.String())}
	h := NewQuoteHandler(fake, defaultOrg)

	body := strings.Replace(exwBody, `"quote"`, `"organization_id": "`+org.String()+`", "quote"`, 1)
	rec := postCalculate(h, body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, org, fake.params.OrganizationID)
}

func TestQuoteHandler_Calculate_Rejections(t *testing.T) {
	admin := domain.AdminSettings{LoanInterestDaily: decimal.RequireFromString("0.069")}
	svc := service.NewQuoteService(calc.New(), settings.NewStatic(admin), nil, nil)
	h := NewQuoteHandler(svc, defaultOrg)

	t.Run("malformed json", func(t *testing.T) {
		rec := postCalculate(h, `{"quote": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.EINVALID, decodeError(t, rec).Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := postCalculate(h, `{"quote": {}, "items": [], "discount": 5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad organization id", func(t *testing.T) {
		rec := postCalculate(h, `{"organization_id": "acme", "quote": {}, "items": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid organization_id", decodeError(t, rec).Message)
	})

	t.Run("every violation reported", func(t *testing.T) {
		body := strings.Replace(exwBody, `"quantity": 10`, `"quantity": 0`, 1)
		body = strings.Replace(body, `"markup": "20"`, `"markup": "-1"`, 1)

		rec := postCalculate(h, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		detail := decodeError(t, rec)
		assert.Equal(t, domain.EINVALID, detail.Code)
		require.Len(t, detail.Violations, 2)
		fields := []string{detail.Violations[0].Field, detail.Violations[1].Field}
		assert.ElementsMatch(t, []string{"quantity", "markup"}, fields)
	})

	t.Run("unknown seller", func(t *testing.T) {
		body := strings.Replace(exwBody, "MASTER BEARING LLC", "ACME HOLDINGS", 1)
		rec := postCalculate(h, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, domain.EUNKNOWNKEY, decodeError(t, rec).Code)
	})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
