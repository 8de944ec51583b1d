package calc

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/dukerupert/kvota/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nd(s string) decimal.NullDecimal { return decimal.NewNullDecimal(d(s)) }

func intPtr(n int) *int { return &n }

func testSettings() domain.AdminSettings {
	return domain.AdminSettings{
		ForexRiskRate:     d("3"),
		FinCommissionRate: decimal.Zero,
		LoanInterestDaily: d("0.069"),
	}
}

// exwDefaults is a domestic-currency EXW supply quote with no financing gap.
func exwDefaults() domain.QuoteDefaults {
	return domain.QuoteDefaults{
		QuoteCurrency:       "USD",
		SellerCompany:       "MASTER BEARING LLC",
		SaleType:            "supply",
		Incoterms:           "EXW",
		CurrencyOfBasePrice: "USD",
		SupplierCountry:     "OTHER",
		Markup:              nd("20"),
	}
}

func ddpDefaults() domain.QuoteDefaults {
	q := exwDefaults()
	q.Incoterms = "DDP"
	q.CurrencyOfBasePrice = "EUR"
	q.SupplierCountry = "TR"
	q.ExchangeRate = nd("0.92")
	q.ImportTariff = nd("5")
	q.AdvanceToSupplier = nd("100")
	q.DeliveryDays = intPtr(45)
	q.PaymentTerms = domain.PaymentTerms{
		ClientAdvance:    domain.PaymentMilestone{Percent: d("30"), DayOffset: 10},
		FinalPaymentDays: 30,
	}
	q.Logistics = domain.LogisticsCosts{SupplierToHub: d("800"), HubToCustoms: d("300"), CustomsToClient: d("150")}
	q.Brokerage = domain.BrokerageCosts{Customs: d("200"), Documentation: d("50")}
	q.DMFee = domain.DecisionMakerFee{Type: domain.DMFeePercent, Value: d("2")}
	return q
}

func ddpItems(n int) []domain.LineItemInput {
	items := make([]domain.LineItemInput, n)
	for i := range items {
		items[i] = domain.LineItemInput{
			SKU:        fmt.Sprintf("SKU-%03d", i),
			Quantity:   1 + i%7,
			GrossPrice: d("120").Add(decimal.NewFromInt(int64(i * 13))),
			WeightKg:   d("0.75"),
		}
	}
	items[0].ExcisePerKg = nd("4")
	return items
}

func TestCalculate_EXWGolden(t *testing.T) {
	items := []domain.LineItemInput{{SKU: "BRG-6205", Quantity: 10, GrossPrice: d("100"), WeightKg: d("1")}}

	res, err := Calculate(items, exwDefaults(), testSettings())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	c := res.Items[0].Cells
	assertDecimal(t, "100", c.Get(CellPurchaseNoVAT), "N16")
	assertDecimal(t, "1000", c.Get(CellPurchaseTotal), "S16")
	assertDecimal(t, "1", c.Get(CellDistributionBase), "BD16")
	assertDecimal(t, "0", c.Get(CellLogisticsTotal), "X16")
	assertDecimal(t, "110", c.Get(CellInternalUnitPrice), "AX16")
	assertDecimal(t, "0", c.Get(CellCustomsFee), "Y16")
	assertDecimal(t, "1000", c.Get(CellSupplierPayment), "BG16")
	assertDecimal(t, "1200", c.Get(CellRevenueEstimate), "BF16")
	assertDecimal(t, "0", c.Get(CellFinancingShare), "BA16")
	assertDecimal(t, "1000", c.Get(CellCOGS), "AB16")
	assertDecimal(t, "200", c.Get(CellProfit), "AF16")
	assertDecimal(t, "0", c.Get(CellForexReserve), "AH16")
	assertDecimal(t, "120", c.Get(CellSalesUnitNoVAT), "AJ16")
	assertDecimal(t, "1200", c.Get(CellSalesTotalNoVAT), "AK16")
	assertDecimal(t, "1440", c.Get(CellSalesTotalWithVAT), "AL16")
	assertDecimal(t, "240", c.Get(CellSalesVAT), "AM16")
	assertDecimal(t, "144", c.Get(CellSalesUnitWithVAT), "AN16")
	assertDecimal(t, "0", c.Get(CellImportVAT), "AO16")
	assertDecimal(t, "240", c.Get(CellVATPayable), "AP16")
	assertDecimal(t, "0", c.Get(CellTransitCommission), "AQ16")

	assertDecimal(t, "1200", res.Subtotal(), "AK13")
	assertDecimal(t, "1440", res.TotalWithVAT(), "AL13")
	assertDecimal(t, "0", res.TotalFinancingCost(), "BJ11")
	assert.Equal(t, domain.RegionRU, res.SellerRegion)
	assert.Equal(t, "USD", res.QuoteCurrency)
}

func TestCalculate_MixedMarkupOverrides(t *testing.T) {
	q := exwDefaults()
	q.Markup = nd("15")
	items := []domain.LineItemInput{
		{SKU: "A", Quantity: 1, GrossPrice: d("100")},
		{SKU: "B", Quantity: 1, GrossPrice: d("100"), Markup: nd("25")},
		{SKU: "C", Quantity: 1, GrossPrice: d("100")},
	}

	res, err := Calculate(items, q, testSettings())
	require.NoError(t, err)

	want := []string{"15", "25", "15"}
	for i, item := range res.Items {
		cogs := item.Cells.Get(CellCOGS)
		assertDecimal(t, cogs.Mul(d(want[i]).Shift(-2)).String(), item.Cells.Get(CellProfit), fmt.Sprintf("item %d profit", i))
	}
}

func TestCalculate_DDP(t *testing.T) {
	res, err := Calculate(ddpItems(5), ddpDefaults(), testSettings())
	require.NoError(t, err)

	totals := res.Totals
	assert.True(t, totals.Get(CellTotalFinancing).IsPositive(), "supplier is paid before the client settles")
	assert.True(t, totals.Get(CellQuoteCustomsTotal).IsPositive())
	assert.True(t, totals.Get(CellQuoteExciseTotal).IsPositive())

	// Two-stage supplier interest never exceeds the single-stage figure.
	assert.True(t, totals.Get(CellStage2Principal).LessThan(totals.Get(CellStage1FutureValue)))

	var bases, finShares, logistics decimal.Decimal
	for _, item := range res.Items {
		c := item.Cells
		bases = bases.Add(c.Get(CellDistributionBase))
		finShares = finShares.Add(c.Get(CellFinancingShare))
		logistics = logistics.Add(c.Get(CellLogisticsTotal))

		assert.True(t, c.Get(CellImportVAT).IsPositive(), item.SKU)
		assert.True(t, c.Get(CellForexReserve).IsPositive(), "EUR purchase in a USD quote carries forex reserve")
		assert.True(t, c.Get(CellVATPayable).Equal(c.Get(CellSalesVAT).Sub(c.Get(CellImportVAT))))
		assert.True(t, c.Get(CellSalesTotalNoVAT).Equal(c.Get(CellSalesUnitNoVAT).Mul(decimal.NewFromInt(int64(item.Quantity)))))
	}

	tolerance := d("0.000001")
	assert.True(t, bases.Sub(one).Abs().LessThan(tolerance), "bases sum %s", bases)
	assert.True(t, finShares.Sub(totals.Get(CellTotalFinancing)).Abs().LessThan(tolerance), "financing shares %s", finShares)
	assertDecimal(t, "1500", logistics.Round(6), "logistics plus brokerage fully distributed")
}

func TestCalculate_TransitCommission(t *testing.T) {
	q := ddpDefaults()
	q.SaleType = "transit"

	res, err := Calculate(ddpItems(3), q, testSettings())
	require.NoError(t, err)

	for _, item := range res.Items {
		c := item.Cells
		assertDecimal(t, c.Get(CellPurchaseTotal).Add(c.Get(CellLogisticsTotal)).String(), c.Get(CellMarkupBase), "AC16")
		want := c.Get(CellProfit).Add(c.Get(CellFinancingShare)).Add(c.Get(CellCreditInterestShare))
		assertDecimal(t, want.String(), c.Get(CellTransitCommission), "AQ16")
	}
	assert.True(t, res.TotalTransitCommission().IsPositive())
}

func TestCalculate_ExportHasNoVATOrDuties(t *testing.T) {
	q := ddpDefaults()
	q.SaleType = "export"

	res, err := Calculate(ddpItems(2), q, testSettings())
	require.NoError(t, err)

	for _, item := range res.Items {
		c := item.Cells
		assertDecimal(t, "0", c.Get(CellCustomsFee), "Y16")
		assertDecimal(t, "0", c.Get(CellSalesVAT), "AM16")
		assertDecimal(t, "0", c.Get(CellImportVAT), "AO16")
		assertDecimal(t, c.Get(CellSalesTotalNoVAT).String(), c.Get(CellSalesTotalWithVAT), "AL16")
	}
}

func TestCalculate_ValidationErrorsCollected(t *testing.T) {
	q := ddpDefaults()
	q.Markup = decimal.NullDecimal{}
	q.Logistics = domain.LogisticsCosts{}
	q.Brokerage = domain.BrokerageCosts{}

	items := []domain.LineItemInput{{SKU: "A", Quantity: 1, GrossPrice: d("100")}}

	res, err := Calculate(items, q, testSettings())
	require.Error(t, err)
	assert.Nil(t, res)

	errs := domain.GetValidationErrors(err)
	require.Len(t, errs, 2)
	assert.ElementsMatch(t, []string{"markup", "logistics"}, errs.Fields())
}

func TestCalculate_UnknownSellerCompany(t *testing.T) {
	q := exwDefaults()
	q.SellerCompany = "ACME GMBH"

	_, err := Calculate([]domain.LineItemInput{{Quantity: 1, GrossPrice: d("10")}}, q, testSettings())

	var le *domain.LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "seller_company", le.Field)
	assert.Equal(t, domain.QuoteLevel, le.Item)
}

func TestCalculate_UnknownSupplierCountryReportsLowestIndex(t *testing.T) {
	items := []domain.LineItemInput{
		{Quantity: 1, GrossPrice: d("10")},
		{Quantity: 1, GrossPrice: d("10"), SupplierCountry: "MARS"},
		{Quantity: 1, GrossPrice: d("10")},
		{Quantity: 1, GrossPrice: d("10"), SupplierCountry: "VENUS"},
	}

	_, err := New(WithWorkers(4)).Calculate(context.Background(), items, exwDefaults(), testSettings())

	var le *domain.LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1, le.Item)
	assert.Equal(t, "MARS", le.Value)
}

func TestCalculate_Idempotent(t *testing.T) {
	items := ddpItems(4)
	q := ddpDefaults()

	first, err := Calculate(items, q, testSettings())
	require.NoError(t, err)
	second, err := Calculate(items, q, testSettings())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	assert.False(t, items[1].Markup.Valid, "input items are not modified")
}

func TestCalculate_ParallelMatchesSequential(t *testing.T) {
	items := ddpItems(60)
	q := ddpDefaults()

	seq, err := New().Calculate(context.Background(), items, q, testSettings())
	require.NoError(t, err)
	par, err := New(WithWorkers(8)).Calculate(context.Background(), items, q, testSettings())
	require.NoError(t, err)

	a, _ := json.Marshal(seq)
	b, _ := json.Marshal(par)
	assert.JSONEq(t, string(a), string(b))
}

func TestCalculate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithWorkers(2)).Calculate(ctx, ddpItems(3), ddpDefaults(), testSettings())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculate_LongestTimelineFinishesQuickly(t *testing.T) {
	q := ddpDefaults()
	q.DeliveryDays = intPtr(validation.MaxDays)
	q.PaymentTerms.FinalPaymentDays = validation.MaxDays

	start := time.Now()
	res, err := Calculate(ddpItems(5), q, testSettings())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 2*validation.MaxDays, res.Timeline.SettlementDay)
	assert.True(t, res.TotalFinancingCost().IsPositive())
	assert.Less(t, elapsed, 2*time.Second)
}

func TestCalculate_DayCountBeyondLimitRejected(t *testing.T) {
	q := ddpDefaults()
	items := ddpItems(2)
	items[1].DeliveryDays = intPtr(1000000)

	start := time.Now()
	_, err := Calculate(items, q, testSettings())

	require.True(t, domain.IsValidationError(err), "%v", err)
	errs := domain.GetValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "delivery_time", errs[0].Field)
	assert.Equal(t, 1, errs[0].Item)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCalculate_ZeroOverridesKept(t *testing.T) {
	q := ddpDefaults()
	items := []domain.LineItemInput{{
		SKU:               "A",
		Quantity:          2,
		GrossPrice:        d("100"),
		Markup:            nd("0"),
		AdvanceToSupplier: nd("0"),
		ImportTariff:      nd("0"),
	}}

	res, err := Calculate(items, q, testSettings())
	require.NoError(t, err)

	c := res.Items[0].Cells
	assertDecimal(t, "0", c.Get(CellProfit), "AF16")
	assertDecimal(t, "0", c.Get(CellSupplierPayment), "BG16")
	assertDecimal(t, "0", c.Get(CellCustomsFee), "Y16")
}
