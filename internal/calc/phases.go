package calc

import (
	"fmt"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/shopspring/decimal"
)

// Each phase is a pure function of values already known when it runs.
// Percent arguments are in percent units. Division by zero yields zero.

// Purchase is the phase 1 output.
type Purchase struct {
	NoVAT      decimal.Decimal // N16
	Discount   decimal.Decimal // Q16
	Discounted decimal.Decimal // P16
	UnitQuote  decimal.Decimal // R16
	Total      decimal.Decimal // S16
}

// PurchasePrice strips origin VAT from the gross unit price, applies the
// supplier discount and converts to quote currency. exchangeRate is units of
// purchase currency per unit of quote currency; a zero rate yields zero.
func PurchasePrice(gross, originVATPct, discountPct, exchangeRate decimal.Decimal, qty int) Purchase {
	noVAT := safeDiv(gross, one.Add(pct(originVATPct)))
	discount := noVAT.Mul(pct(discountPct))
	discounted := noVAT.Sub(discount)
	unit := safeDiv(discounted, exchangeRate)
	return Purchase{
		NoVAT:      noVAT,
		Discount:   discount,
		Discounted: discounted,
		UnitQuote:  unit,
		Total:      unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// Logistics is the phase 3 output.
type Logistics struct {
	FirstLeg  decimal.Decimal // T16
	SecondLeg decimal.Decimal // U16
	ThirdLeg  decimal.Decimal // V16
	Brokerage decimal.Decimal // W16
	Total     decimal.Decimal // X16
}

// LogisticsShare allocates the quote logistics legs and brokerage to an item
// by its distribution base.
func LogisticsShare(legs domain.LogisticsCosts, brokerage domain.BrokerageCosts, base decimal.Decimal) Logistics {
	l := Logistics{
		FirstLeg:  legs.SupplierToHub.Mul(base),
		SecondLeg: legs.HubToCustoms.Mul(base),
		ThirdLeg:  legs.CustomsToClient.Mul(base),
		Brokerage: brokerage.Total().Mul(base),
	}
	l.Total = l.FirstLeg.Add(l.SecondLeg).Add(l.ThirdLeg).Add(l.Brokerage)
	return l
}

// DutiesApply reports whether the seller bears import customs duty, excise
// and import VAT: only under DDP and only when the goods are imported.
func DutiesApply(saleType domain.SaleType, incoterms domain.Incoterms) bool {
	switch saleType {
	case domain.SaleTypeExport:
		return false
	case domain.SaleTypeSupply, domain.SaleTypeTransit, domain.SaleTypeFinancialTransit:
		return incoterms == domain.IncotermsDDP
	}
	panic(fmt.Sprintf("calc: unhandled sale type %q", saleType))
}

// Internal is the phase 4 output.
type Internal struct {
	UnitPrice     decimal.Decimal // AX16
	Total         decimal.Decimal // AY16
	CustomsFee    decimal.Decimal // Y16
	Excise        decimal.Decimal // Z16
	ImportVATBase decimal.Decimal // AZ16
}

// InternalPricing computes the intra-group resale amount and the duties
// levied on it. Excise is charged per kilogram shipped.
func InternalPricing(unitQuote, internalMarkupPct, tariffPct, excisePerKg, weightKg decimal.Decimal, qty int, duties bool) Internal {
	q := decimal.NewFromInt(int64(qty))
	unit := unitQuote.Mul(one.Add(pct(internalMarkupPct)))
	in := Internal{
		UnitPrice:  unit,
		Total:      unit.Mul(q),
		CustomsFee: decimal.Zero,
		Excise:     decimal.Zero,
	}
	if duties {
		in.CustomsFee = in.Total.Mul(pct(tariffPct))
		in.Excise = excisePerKg.Mul(weightKg).Mul(q)
	}
	in.ImportVATBase = in.Total.Add(in.CustomsFee).Add(in.Excise)
	return in
}

// SupplierPayment is the phase 5 amount paid to the supplier up front.
func SupplierPayment(purchaseTotal, advancePct decimal.Decimal) decimal.Decimal {
	return purchaseTotal.Mul(pct(advancePct))
}

// Revenue is the phase 6 output.
type Revenue struct {
	CostBase decimal.Decimal // BE16
	Estimate decimal.Decimal // BF16
}

// RevenueEstimate marks up the pre-financing cost of an item. It sizes the
// client payments that offset financing, so it cannot depend on financing.
func RevenueEstimate(purchaseTotal, logistics, customs, excise, markupPct decimal.Decimal) Revenue {
	base := purchaseTotal.Add(logistics).Add(customs).Add(excise)
	return Revenue{CostBase: base, Estimate: base.Mul(one.Add(pct(markupPct)))}
}

// COGS is the phase 10 output.
type COGS struct {
	Total decimal.Decimal // AB16
	Unit  decimal.Decimal // AA16
}

// CostOfGoodsSold sums every cost component of an item.
func CostOfGoodsSold(purchaseTotal, logistics, customs, excise, financing, credit decimal.Decimal, qty int) COGS {
	total := purchaseTotal.Add(logistics).Add(customs).Add(excise).Add(financing).Add(credit)
	return COGS{Total: total, Unit: safeDiv(total, decimal.NewFromInt(int64(qty)))}
}

// MarkupBase selects the amount markup applies to. Supply and export deals
// mark up full COGS; transit deals mark up only purchase and logistics.
func MarkupBase(saleType domain.SaleType, cogs, purchaseTotal, logistics decimal.Decimal) decimal.Decimal {
	switch saleType {
	case domain.SaleTypeSupply, domain.SaleTypeExport:
		return cogs
	case domain.SaleTypeTransit, domain.SaleTypeFinancialTransit:
		return purchaseTotal.Add(logistics)
	}
	panic(fmt.Sprintf("calc: unhandled sale type %q", saleType))
}

// SalesInput gathers the phase 11 inputs.
type SalesInput struct {
	SaleType        domain.SaleType
	COGS            decimal.Decimal
	PurchaseTotal   decimal.Decimal
	Logistics       decimal.Decimal
	MarkupPct       decimal.Decimal
	DMFee           domain.DecisionMakerFee
	Base            decimal.Decimal // distribution base
	ForeignPurchase bool
	ForexRiskPct    decimal.Decimal
	CommissionPct   decimal.Decimal
	Quantity        int
}

// Sales is the phase 11 output.
type Sales struct {
	MarkupBase      decimal.Decimal // AC16
	Profit          decimal.Decimal // AF16
	DMFee           decimal.Decimal // AG16
	ForexReserve    decimal.Decimal // AH16
	AgentCommission decimal.Decimal // AI16
	UnitNoVAT       decimal.Decimal // AJ16
	TotalNoVAT      decimal.Decimal // AK16
}

// SalesPrice builds the sale price from COGS. The unit price is the first
// rounded value in the pipeline; the line total derives from it.
func SalesPrice(in SalesInput) Sales {
	s := Sales{MarkupBase: MarkupBase(in.SaleType, in.COGS, in.PurchaseTotal, in.Logistics)}
	s.Profit = s.MarkupBase.Mul(pct(in.MarkupPct))

	switch in.DMFee.Type {
	case domain.DMFeeFixed:
		s.DMFee = in.DMFee.Value.Mul(in.Base)
	case domain.DMFeePercent:
		s.DMFee = in.COGS.Add(s.Profit).Mul(pct(in.DMFee.Value))
	default:
		panic(fmt.Sprintf("calc: unhandled decision-maker fee type %q", in.DMFee.Type))
	}

	s.ForexReserve = decimal.Zero
	if in.ForeignPurchase {
		s.ForexReserve = in.PurchaseTotal.Mul(pct(in.ForexRiskPct))
	}

	beforeCommission := in.COGS.Add(s.Profit).Add(s.DMFee).Add(s.ForexReserve)
	s.AgentCommission = beforeCommission.Mul(pct(in.CommissionPct))

	q := decimal.NewFromInt(int64(in.Quantity))
	s.UnitNoVAT = safeDiv(beforeCommission.Add(s.AgentCommission), q).Round(moneyScale)
	s.TotalNoVAT = s.UnitNoVAT.Mul(q)
	return s
}

// SalesVATRate is the VAT charged to the client: none on export.
func SalesVATRate(saleType domain.SaleType, destinationVATPct decimal.Decimal) decimal.Decimal {
	switch saleType {
	case domain.SaleTypeExport:
		return decimal.Zero
	case domain.SaleTypeSupply, domain.SaleTypeTransit, domain.SaleTypeFinancialTransit:
		return destinationVATPct
	}
	panic(fmt.Sprintf("calc: unhandled sale type %q", saleType))
}

// VAT is the phase 12 output.
type VAT struct {
	TotalWithVAT decimal.Decimal // AL16
	SalesVAT     decimal.Decimal // AM16
	UnitWithVAT  decimal.Decimal // AN16
	ImportVAT    decimal.Decimal // AO16
	Payable      decimal.Decimal // AP16, negative when receivable
}

// ComputeVAT nets sales VAT against import VAT paid at customs.
func ComputeVAT(unitNoVAT, totalNoVAT, salesVATPct, importVATBase, destinationVATPct decimal.Decimal, duties bool) VAT {
	rate := one.Add(pct(salesVATPct))
	v := VAT{
		TotalWithVAT: totalNoVAT.Mul(rate),
		UnitWithVAT:  unitNoVAT.Mul(rate),
		ImportVAT:    decimal.Zero,
	}
	v.SalesVAT = v.TotalWithVAT.Sub(totalNoVAT)
	if duties {
		v.ImportVAT = importVATBase.Mul(pct(destinationVATPct))
	}
	v.Payable = v.SalesVAT.Sub(v.ImportVAT)
	return v
}

// TransitCommission is earned only on transit deals: profit plus the
// financing and credit-interest components passed through to the client.
func TransitCommission(saleType domain.SaleType, profit, financing, credit decimal.Decimal) decimal.Decimal {
	switch saleType {
	case domain.SaleTypeTransit:
		return profit.Add(financing).Add(credit)
	case domain.SaleTypeSupply, domain.SaleTypeFinancialTransit, domain.SaleTypeExport:
		return decimal.Zero
	}
	panic(fmt.Sprintf("calc: unhandled sale type %q", saleType))
}
