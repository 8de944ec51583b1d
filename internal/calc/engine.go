// Package calc reproduces the quotation cost-to-price workbook: per-item
// purchase, distributed logistics and financing, COGS, sale price, VAT and
// transit commission, plus the quote-level aggregates.
package calc

import (
	"context"
	"errors"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/dukerupert/kvota/internal/financing"
	"github.com/dukerupert/kvota/internal/lookup"
	"github.com/dukerupert/kvota/internal/resolve"
	"github.com/dukerupert/kvota/internal/validation"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ItemResult is the calculated breakdown of one line item.
type ItemResult struct {
	Index    int          `json:"index"`
	SKU      string       `json:"sku,omitempty"`
	Brand    string       `json:"brand,omitempty"`
	Name     string       `json:"name,omitempty"`
	Quantity int          `json:"quantity"`
	Cells    *PhaseResult `json:"cells"`
}

// QuoteCalculation is the full result of one calculation.
type QuoteCalculation struct {
	QuoteCurrency string              `json:"quote_currency"`
	SaleType      domain.SaleType     `json:"sale_type"`
	Incoterms     domain.Incoterms    `json:"incoterms"`
	SellerRegion  domain.SellerRegion `json:"seller_region"`
	Timeline      financing.Timeline  `json:"timeline"`
	Items         []ItemResult        `json:"items"`
	Totals        *PhaseResult        `json:"totals"`
}

// Subtotal is the quote total without VAT, rounded.
func (qc *QuoteCalculation) Subtotal() decimal.Decimal {
	return qc.Totals.Rounded(CellQuoteSubtotal)
}

// TotalWithVAT is the quote total including sales VAT, rounded.
func (qc *QuoteCalculation) TotalWithVAT() decimal.Decimal {
	return qc.Totals.Rounded(CellQuoteTotalWithVAT)
}

// TotalFinancingCost is supplier plus operational financing, rounded.
func (qc *QuoteCalculation) TotalFinancingCost() decimal.Decimal {
	return qc.Totals.Rounded(CellTotalFinancing)
}

// TotalTransitCommission sums the per-item transit commission, rounded.
func (qc *QuoteCalculation) TotalTransitCommission() decimal.Decimal {
	return qc.Totals.Rounded(CellQuoteTransitComm)
}

// Engine runs quote calculations. It holds no state between calls and is
// safe for concurrent use.
type Engine struct {
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the goroutines used for the per-item first pass.
// Values below 1 mean sequential.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

// Calculate is New().Calculate with a background context.
func Calculate(items []domain.LineItemInput, defaults domain.QuoteDefaults, settings domain.AdminSettings) (*QuoteCalculation, error) {
	return New().Calculate(context.Background(), items, defaults, settings)
}

// itemState carries one item through both passes.
type itemState struct {
	item      resolve.LineItem
	originVAT decimal.Decimal
	intMarkup decimal.Decimal
	cells     *PhaseResult

	purchase  Purchase
	internal  Internal
	logistics Logistics
	revenue   Revenue
}

// Calculate resolves, validates and prices a quote. It returns
// domain.ValidationErrors when any input rule fails and a
// *domain.LookupError when an input is missing from a closed table; in both
// cases no partial result is returned.
func (e *Engine) Calculate(ctx context.Context, items []domain.LineItemInput, defaults domain.QuoteDefaults, settings domain.AdminSettings) (*QuoteCalculation, error) {
	quote, resolved := resolve.ResolveAll(items, defaults, settings)

	if errs := validation.ValidateAll(quote, resolved); len(errs) > 0 {
		return nil, errs
	}

	region, err := lookup.SellerRegion(quote.SellerCompany)
	if err != nil {
		return nil, err
	}
	destVAT, err := lookup.DestinationVAT(region)
	if err != nil {
		return nil, err
	}
	duties := DutiesApply(quote.SaleType, quote.Incoterms)

	states := make([]*itemState, len(resolved))
	if err := e.firstPass(ctx, resolved, region, duties, states); err != nil {
		return nil, err
	}

	// Barrier: every item-local value is known from here on.
	totals := newPhaseResult()
	aggregate(quote, states, totals)

	var deliveryDay int
	for _, st := range states {
		deliveryDay = max(deliveryDay, st.item.DeliveryDays)
	}
	timeline := financing.NewTimeline(quote.PaymentTerms, deliveryDay)

	purchaseTotal := totals.Get(CellQuotePurchaseTotal)
	supplierPayment := totals.Get(CellSupplierPaymentTotal)
	fin := financing.Calculate(financing.Input{
		SupplierPayment: supplierPayment,
		ClientAdvance:   totals.Get(CellClientAdvance),
		OperationalCosts: totals.Get(CellQuoteLogisticsTotal).
			Add(totals.Get(CellQuoteCustomsTotal)).
			Add(totals.Get(CellQuoteExciseTotal)).
			Add(purchaseTotal.Sub(supplierPayment)),
		Receivable:   totals.Get(CellRevenueEstimateTotal).Sub(totals.Get(CellPreDeliveryPayments)),
		DailyRatePct: quote.LoanInterestDaily,
		Timeline:     timeline,
	})

	totals.set(CellStage1FutureValue, fin.Supplier.Stage1FV)
	totals.set(CellStage2Principal, fin.Supplier.Stage2Principal)
	totals.set(CellStage2FutureValue, fin.Supplier.Stage2FV)
	totals.set(CellSupplierInterest, fin.Supplier.Interest)
	totals.set(CellOperationalCosts, fin.Operational.Principal)
	totals.set(CellOperationalInterest, fin.Operational.Interest)
	totals.set(CellTotalFinancing, fin.TotalFinancing())
	totals.set(CellReceivable, fin.Credit.Principal)
	totals.set(CellCreditInterest, fin.Credit.Interest)

	bases := make([]decimal.Decimal, len(states))
	for i, st := range states {
		bases[i] = st.cells.Get(CellDistributionBase)
	}
	finShares := Distribute(fin.TotalFinancing(), bases)
	creditShares := Distribute(fin.Credit.Interest, bases)

	for i, st := range states {
		secondPass(st, quote, destVAT, duties, finShares[i], creditShares[i])
	}
	summarize(states, totals)

	out := &QuoteCalculation{
		QuoteCurrency: quote.QuoteCurrency,
		SaleType:      quote.SaleType,
		Incoterms:     quote.Incoterms,
		SellerRegion:  region,
		Timeline:      timeline,
		Items:         make([]ItemResult, len(states)),
		Totals:        totals,
	}
	for i, st := range states {
		out.Items[i] = ItemResult{
			Index:    st.item.Index,
			SKU:      st.item.SKU,
			Brand:    st.item.Brand,
			Name:     st.item.Name,
			Quantity: st.item.Quantity,
			Cells:    st.cells,
		}
	}
	return out, nil
}

// firstPass runs the item-local phases (1 and 4). Items are independent, so
// they may run concurrently; results land in states by index. When several
// items fail a lookup, the lowest index is reported.
func (e *Engine) firstPass(ctx context.Context, items []resolve.LineItem, region domain.SellerRegion, duties bool, states []*itemState) error {
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			st, err := localPhases(items[i], region, duties)
			if err != nil {
				errs[i] = err
				return nil
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return firstError(errs)
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func localPhases(item resolve.LineItem, region domain.SellerRegion, duties bool) (*itemState, error) {
	originVAT, err := lookup.OriginVAT(item.SupplierCountry, region)
	if err != nil {
		return nil, itemLookupError(err, item.Index)
	}
	intMarkup, err := lookup.InternalMarkup(item.SupplierCountry, region)
	if err != nil {
		return nil, itemLookupError(err, item.Index)
	}

	st := &itemState{
		item:      item,
		originVAT: originVAT,
		intMarkup: intMarkup,
		cells:     newPhaseResult(),
	}

	// Phase 1: purchase price.
	st.purchase = PurchasePrice(item.GrossPrice, originVAT, item.SupplierDiscount, item.ExchangeRate, item.Quantity)
	st.cells.set(CellPurchaseNoVAT, st.purchase.NoVAT)
	st.cells.set(CellSupplierDiscount, st.purchase.Discount)
	st.cells.set(CellPurchaseDiscounted, st.purchase.Discounted)
	st.cells.set(CellPurchaseUnitQuote, st.purchase.UnitQuote)
	st.cells.set(CellPurchaseTotal, st.purchase.Total)

	// Phase 4: internal pricing and duties.
	st.internal = InternalPricing(st.purchase.UnitQuote, intMarkup, item.ImportTariff, item.ExcisePerKg, item.WeightKg, item.Quantity, duties)
	st.cells.set(CellInternalUnitPrice, st.internal.UnitPrice)
	st.cells.set(CellInternalTotal, st.internal.Total)
	st.cells.set(CellCustomsFee, st.internal.CustomsFee)
	st.cells.set(CellExcise, st.internal.Excise)
	st.cells.set(CellImportVATBase, st.internal.ImportVATBase)

	return st, nil
}

func itemLookupError(err error, index int) error {
	var le *domain.LookupError
	if errors.As(err, &le) {
		le.Item = index
	}
	return err
}

// aggregate runs the quote-wide phases 2, 3, 5 and 6.
func aggregate(quote *resolve.Quote, states []*itemState, totals *PhaseResult) {
	purchases := make([]decimal.Decimal, len(states))
	for i, st := range states {
		purchases[i] = st.purchase.Total
	}
	totals.set(CellQuotePurchaseTotal, Sum(purchases))

	bases := DistributionBases(purchases)

	var logisticsTotal, customsTotal, exciseTotal, supplierTotal, revenueTotal decimal.Decimal
	for i, st := range states {
		st.cells.set(CellDistributionBase, bases[i])

		// Phase 3: logistics distribution.
		st.logistics = LogisticsShare(quote.Logistics, quote.Brokerage, bases[i])
		st.cells.set(CellLogisticsFirstLeg, st.logistics.FirstLeg)
		st.cells.set(CellLogisticsSecondLeg, st.logistics.SecondLeg)
		st.cells.set(CellLogisticsThirdLeg, st.logistics.ThirdLeg)
		st.cells.set(CellBrokerage, st.logistics.Brokerage)
		st.cells.set(CellLogisticsTotal, st.logistics.Total)

		// Phase 5: supplier payment sizing.
		payment := SupplierPayment(st.purchase.Total, st.item.AdvanceToSupplier)
		st.cells.set(CellSupplierPayment, payment)

		// Phase 6: revenue estimation.
		st.revenue = RevenueEstimate(st.purchase.Total, st.logistics.Total, st.internal.CustomsFee, st.internal.Excise, st.item.Markup.Decimal)
		st.cells.set(CellPreFinancingCost, st.revenue.CostBase)
		st.cells.set(CellRevenueEstimate, st.revenue.Estimate)

		logisticsTotal = logisticsTotal.Add(st.logistics.Total)
		customsTotal = customsTotal.Add(st.internal.CustomsFee)
		exciseTotal = exciseTotal.Add(st.internal.Excise)
		supplierTotal = supplierTotal.Add(payment)
		revenueTotal = revenueTotal.Add(st.revenue.Estimate)
	}

	terms := quote.PaymentTerms
	totals.set(CellQuoteLogisticsTotal, logisticsTotal)
	totals.set(CellQuoteCustomsTotal, customsTotal)
	totals.set(CellQuoteExciseTotal, exciseTotal)
	totals.set(CellSupplierPaymentTotal, supplierTotal)
	totals.set(CellRevenueEstimateTotal, revenueTotal)
	totals.set(CellClientAdvance, revenueTotal.Mul(pct(terms.ClientAdvance.Percent)))
	totals.set(CellPreDeliveryPayments, revenueTotal.Mul(pct(terms.PreDeliveryPercent())))
}

// secondPass runs the aggregate-dependent phases 9 to 13 for one item.
func secondPass(st *itemState, quote *resolve.Quote, destVAT decimal.Decimal, duties bool, finShare, creditShare decimal.Decimal) {
	item := st.item

	// Phase 9: distributed financing.
	st.cells.set(CellFinancingShare, finShare)
	st.cells.set(CellCreditInterestShare, creditShare)

	// Phase 10: COGS.
	cogs := CostOfGoodsSold(st.purchase.Total, st.logistics.Total, st.internal.CustomsFee, st.internal.Excise, finShare, creditShare, item.Quantity)
	st.cells.set(CellCOGS, cogs.Total)
	st.cells.set(CellCOGSUnit, cogs.Unit)

	// Phase 11: sales price.
	sales := SalesPrice(SalesInput{
		SaleType:        quote.SaleType,
		COGS:            cogs.Total,
		PurchaseTotal:   st.purchase.Total,
		Logistics:       st.logistics.Total,
		MarkupPct:       item.Markup.Decimal,
		DMFee:           quote.DMFee,
		Base:            st.cells.Get(CellDistributionBase),
		ForeignPurchase: item.CurrencyOfBasePrice != quote.QuoteCurrency,
		ForexRiskPct:    quote.ForexRiskRate,
		CommissionPct:   quote.FinCommissionRate,
		Quantity:        item.Quantity,
	})
	st.cells.set(CellMarkupBase, sales.MarkupBase)
	st.cells.set(CellProfit, sales.Profit)
	st.cells.set(CellDMFee, sales.DMFee)
	st.cells.set(CellForexReserve, sales.ForexReserve)
	st.cells.set(CellAgentCommission, sales.AgentCommission)
	st.cells.set(CellSalesUnitNoVAT, sales.UnitNoVAT)
	st.cells.set(CellSalesTotalNoVAT, sales.TotalNoVAT)

	// Phase 12: VAT.
	vat := ComputeVAT(sales.UnitNoVAT, sales.TotalNoVAT, SalesVATRate(quote.SaleType, destVAT), st.internal.ImportVATBase, destVAT, duties)
	st.cells.set(CellSalesTotalWithVAT, vat.TotalWithVAT)
	st.cells.set(CellSalesVAT, vat.SalesVAT)
	st.cells.set(CellSalesUnitWithVAT, vat.UnitWithVAT)
	st.cells.set(CellImportVAT, vat.ImportVAT)
	st.cells.set(CellVATPayable, vat.Payable)

	// Phase 13: transit commission.
	st.cells.set(CellTransitCommission, TransitCommission(quote.SaleType, sales.Profit, finShare, creditShare))
}

var summaryCells = []struct {
	item, quote Cell
}{
	{CellCOGS, CellQuoteCOGS},
	{CellProfit, CellQuoteProfit},
	{CellSalesTotalNoVAT, CellQuoteSubtotal},
	{CellSalesTotalWithVAT, CellQuoteTotalWithVAT},
	{CellSalesVAT, CellQuoteSalesVAT},
	{CellImportVAT, CellQuoteImportVAT},
	{CellVATPayable, CellQuoteVATPayable},
	{CellTransitCommission, CellQuoteTransitComm},
}

func summarize(states []*itemState, totals *PhaseResult) {
	for _, sc := range summaryCells {
		sum := decimal.Zero
		for _, st := range states {
			sum = sum.Add(st.cells.Get(sc.item))
		}
		totals.set(sc.quote, sum)
	}
}
