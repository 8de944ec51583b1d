package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Percent values throughout the quote model are expressed in percent units:
// decimal 5 means 5%.

// LineItemInput is one row of an uploaded quotation. Dual-level fields are
// optional and override the matching QuoteDefaults value when present. A
// numeric override is present when Valid is set, so a literal zero is kept.
type LineItemInput struct {
	SKU      string
	Brand    string
	Name     string
	Quantity int

	// GrossPrice is the supplier unit price including origin-country VAT,
	// in CurrencyOfBasePrice.
	GrossPrice decimal.Decimal
	WeightKg   decimal.Decimal

	CurrencyOfBasePrice string
	SupplierCountry     string
	CustomsCode         string
	ImportTariff        decimal.NullDecimal
	ExcisePerKg         decimal.NullDecimal
	Markup              decimal.NullDecimal
	ExchangeRate        decimal.NullDecimal
	SupplierDiscount    decimal.NullDecimal
	AdvanceToSupplier   decimal.NullDecimal
	DeliveryDays        *int
}

// PaymentMilestone is a client payment due DayOffset days after the order.
type PaymentMilestone struct {
	Percent   decimal.Decimal
	DayOffset int
}

// PaymentTerms is the client payment schedule. The four pre-delivery
// milestones carry their own percent; whatever remains is paid
// FinalPaymentDays after delivery.
type PaymentTerms struct {
	ClientAdvance     PaymentMilestone
	OnLoading         PaymentMilestone
	OnArrival         PaymentMilestone
	OnCustomsClearing PaymentMilestone
	FinalPaymentDays  int
}

// PreDeliveryPercent is the share of revenue collected before delivery.
func (p PaymentTerms) PreDeliveryPercent() decimal.Decimal {
	return p.ClientAdvance.Percent.
		Add(p.OnLoading.Percent).
		Add(p.OnArrival.Percent).
		Add(p.OnCustomsClearing.Percent)
}

// LogisticsCosts are the three quote-level transport legs, in quote currency.
type LogisticsCosts struct {
	SupplierToHub   decimal.Decimal
	HubToCustoms    decimal.Decimal
	CustomsToClient decimal.Decimal
}

// Total sums the three legs.
func (l LogisticsCosts) Total() decimal.Decimal {
	return l.SupplierToHub.Add(l.HubToCustoms).Add(l.CustomsToClient)
}

// AnyPositive reports whether at least one leg is strictly positive.
func (l LogisticsCosts) AnyPositive() bool {
	return l.SupplierToHub.IsPositive() || l.HubToCustoms.IsPositive() || l.CustomsToClient.IsPositive()
}

// BrokerageCosts are the five customs and brokerage charges, in quote currency.
type BrokerageCosts struct {
	Hub           decimal.Decimal
	Customs       decimal.Decimal
	Warehousing   decimal.Decimal
	Documentation decimal.Decimal
	Extra         decimal.Decimal
}

// Total sums all brokerage charges.
func (b BrokerageCosts) Total() decimal.Decimal {
	return b.Hub.Add(b.Customs).Add(b.Warehousing).Add(b.Documentation).Add(b.Extra)
}

// DecisionMakerFee is the fee paid to the client-side decision maker.
type DecisionMakerFee struct {
	Type  DMFeeType
	Value decimal.Decimal
}

// QuoteDefaults are the quote-wide values entered when the quote is created.
type QuoteDefaults struct {
	QuoteCurrency string
	SellerCompany string
	SaleType      string
	Incoterms     string
	PaymentTerms  PaymentTerms
	Logistics     LogisticsCosts
	Brokerage     BrokerageCosts
	DMFee         DecisionMakerFee

	// Product-level defaults, overridable per item.
	CurrencyOfBasePrice string
	SupplierCountry     string
	ImportTariff        decimal.NullDecimal
	ExcisePerKg         decimal.NullDecimal
	Markup              decimal.NullDecimal
	ExchangeRate        decimal.NullDecimal
	SupplierDiscount    decimal.NullDecimal
	AdvanceToSupplier   decimal.NullDecimal
	DeliveryDays        *int
}

// AdminSettings is an organization-wide snapshot. It is fetched once per
// calculation and never mutated while the calculation runs.
type AdminSettings struct {
	OrganizationID uuid.UUID
	EffectiveFrom  time.Time

	ForexRiskRate     decimal.Decimal // percent of purchase total
	FinCommissionRate decimal.Decimal // percent, financial agent commission
	LoanInterestDaily decimal.Decimal // percent per day

	// Organization defaults below the quote level.
	DefaultMarkup       decimal.NullDecimal
	DefaultDeliveryDays *int
}
