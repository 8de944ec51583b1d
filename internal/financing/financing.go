// Package financing sizes the interest cost of bridging cash-flow gaps in a
// quote: paying the supplier before the client pays, carrying operational
// costs until settlement, and selling on credit after delivery.
//
// Interest compounds daily: FV = principal x (1 + dailyRate)^days. A
// non-positive principal or a non-positive number of days accrues nothing.
package financing

import (
	"github.com/dukerupert/kvota/internal/domain"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Growth returns (1 + dailyRatePct/100)^days. days <= 0 yields 1.
func Growth(dailyRatePct decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return one
	}
	return one.Add(dailyRatePct.Shift(-2)).Pow(decimal.NewFromInt(int64(days)))
}

// FutureValue compounds principal daily over days.
func FutureValue(principal, dailyRatePct decimal.Decimal, days int) decimal.Decimal {
	return principal.Mul(Growth(dailyRatePct, days))
}

// Interest is the accrued amount FV - principal, zero for non-positive
// principal or days.
func Interest(principal, dailyRatePct decimal.Decimal, days int) decimal.Decimal {
	if !principal.IsPositive() || days <= 0 {
		return decimal.Zero
	}
	return FutureValue(principal, dailyRatePct, days).Sub(principal)
}

// Timeline holds the day offsets (from order date) that bound each
// financing period.
type Timeline struct {
	AdvanceDay    int `json:"advance_day"`    // client advance arrives
	DeliveryDay   int `json:"delivery_day"`   // goods delivered, operational costs incurred
	SettlementDay int `json:"settlement_day"` // final client payment
}

// NewTimeline derives the timeline from the payment terms and the quote
// delivery day. The advance day never lies beyond settlement.
func NewTimeline(terms domain.PaymentTerms, deliveryDay int) Timeline {
	if deliveryDay < 0 {
		deliveryDay = 0
	}
	settlement := deliveryDay + max(terms.FinalPaymentDays, 0)
	advance := min(max(terms.ClientAdvance.DayOffset, 0), settlement)
	return Timeline{
		AdvanceDay:    advance,
		DeliveryDay:   deliveryDay,
		SettlementDay: settlement,
	}
}

// SupplierFinancing is the two-stage supplier payment calculation.
type SupplierFinancing struct {
	Principal       decimal.Decimal // paid to the supplier on day 0
	Stage1FV        decimal.Decimal // principal compounded to the advance day
	Stage2Principal decimal.Decimal // stage 1 FV less the client advance
	Stage2FV        decimal.Decimal // remaining balance compounded to settlement
	Interest        decimal.Decimal // interest accrued over both stages
}

// Supplier finances payment from day 0 to settlement, splitting the period
// at the client advance: the advance reduces the principal that keeps
// accruing in stage 2.
func Supplier(payment, clientAdvance, dailyRatePct decimal.Decimal, tl Timeline) SupplierFinancing {
	sf := SupplierFinancing{
		Principal:       payment,
		Stage1FV:        payment,
		Stage2Principal: decimal.Zero,
		Stage2FV:        decimal.Zero,
		Interest:        decimal.Zero,
	}
	if !payment.IsPositive() {
		return sf
	}

	interest1 := Interest(payment, dailyRatePct, tl.AdvanceDay)
	sf.Stage1FV = payment.Add(interest1)

	sf.Stage2Principal = sf.Stage1FV.Sub(clientAdvance)
	interest2 := Interest(sf.Stage2Principal, dailyRatePct, tl.SettlementDay-tl.AdvanceDay)
	if sf.Stage2Principal.IsPositive() {
		sf.Stage2FV = sf.Stage2Principal.Add(interest2)
	}

	sf.Interest = interest1.Add(interest2)
	return sf
}

// NaiveSupplierInterest is the single-stage legacy formula: the full payment
// compounded over the whole period, ignoring the advance. Kept for audits
// against the old workbook.
func NaiveSupplierInterest(payment, dailyRatePct decimal.Decimal, tl Timeline) decimal.Decimal {
	return Interest(payment, dailyRatePct, tl.SettlementDay)
}

// Stage is a single-period financing calculation.
type Stage struct {
	Principal decimal.Decimal
	Days      int
	FV        decimal.Decimal
	Interest  decimal.Decimal
}

func single(principal, dailyRatePct decimal.Decimal, days int) Stage {
	interest := Interest(principal, dailyRatePct, days)
	return Stage{
		Principal: principal,
		Days:      max(days, 0),
		FV:        principal.Add(interest),
		Interest:  interest,
	}
}

// Operational finances costs incurred on delivery until settlement.
func Operational(costs, dailyRatePct decimal.Decimal, tl Timeline) Stage {
	return single(costs, dailyRatePct, tl.SettlementDay-tl.DeliveryDay)
}

// CreditSales sizes interest on the client's receivable (revenue not yet
// collected at delivery) until final payment.
func CreditSales(receivable, dailyRatePct decimal.Decimal, tl Timeline) Stage {
	return single(receivable, dailyRatePct, tl.SettlementDay-tl.DeliveryDay)
}

// Input is everything the quote-level financing step needs.
type Input struct {
	SupplierPayment  decimal.Decimal
	ClientAdvance    decimal.Decimal
	OperationalCosts decimal.Decimal
	Receivable       decimal.Decimal
	DailyRatePct     decimal.Decimal
	Timeline         Timeline
}

// Result holds the three financing scenarios of a quote.
type Result struct {
	Supplier    SupplierFinancing
	Operational Stage
	Credit      Stage
}

// TotalFinancing is supplier plus operational interest. Credit-sales
// interest is distributed separately.
func (r Result) TotalFinancing() decimal.Decimal {
	return r.Supplier.Interest.Add(r.Operational.Interest)
}

// Calculate runs all three scenarios.
func Calculate(in Input) Result {
	return Result{
		Supplier:    Supplier(in.SupplierPayment, in.ClientAdvance, in.DailyRatePct, in.Timeline),
		Operational: Operational(in.OperationalCosts, in.DailyRatePct, in.Timeline),
		Credit:      CreditSales(in.Receivable, in.DailyRatePct, in.Timeline),
	}
}
