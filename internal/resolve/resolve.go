// Package resolve merges item overrides, quote defaults, organization
// defaults and hardcoded fallbacks into one fully materialized record per
// line item. Resolution never fails; validation happens afterwards.
package resolve

import (
	"strings"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/shopspring/decimal"
)

// Fallbacks used when no level supplies a value.
const (
	DefaultCurrency        = "USD"
	DefaultSupplierCountry = domain.CountryOther
	DefaultSaleType        = domain.SaleTypeSupply
	DefaultDeliveryDays    = 0
)

var (
	DefaultExchangeRate      = decimal.NewFromInt(1)
	DefaultAdvanceToSupplier = decimal.NewFromInt(100)
)

// Quote holds the quote-wide resolved values shared by every line item.
type Quote struct {
	QuoteCurrency string
	SellerCompany string
	SaleType      domain.SaleType
	Incoterms     domain.Incoterms
	PaymentTerms  domain.PaymentTerms
	Logistics     domain.LogisticsCosts
	Brokerage     domain.BrokerageCosts
	DMFee         domain.DecisionMakerFee

	// Admin-only values; never sourced from item or quote input.
	ForexRiskRate     decimal.Decimal
	FinCommissionRate decimal.Decimal
	LoanInterestDaily decimal.Decimal
}

// LineItem is the immutable input record of the calculation pipeline.
type LineItem struct {
	Index int
	SKU   string
	Brand string
	Name  string

	// Product-only fields.
	Quantity   int
	GrossPrice decimal.Decimal
	WeightKg   decimal.Decimal

	CurrencyOfBasePrice string
	SupplierCountry     domain.SupplierCountry
	CustomsCode         string
	ImportTariff        decimal.Decimal
	ExcisePerKg         decimal.Decimal
	Markup              decimal.NullDecimal // no fallback; required
	ExchangeRate        decimal.Decimal
	SupplierDiscount    decimal.Decimal
	AdvanceToSupplier   decimal.Decimal
	DeliveryDays        int

	Quote *Quote
}

// First returns the first candidate for which present reports true, or
// fallback when none is present. Candidates are ordered from the most
// specific level to the least specific.
func First[T any](present func(T) bool, fallback T, candidates ...T) T {
	for _, c := range candidates {
		if present(c) {
			return c
		}
	}
	return fallback
}

func stringPresent(s string) bool { return strings.TrimSpace(s) != "" }

func decimalPresent(d decimal.NullDecimal) bool { return d.Valid }

func intPresent(p *int) bool { return p != nil }

// String resolves a text field: present means non-blank.
func String(fallback string, levels ...string) string {
	return strings.TrimSpace(First(stringPresent, fallback, levels...))
}

// Decimal resolves a numeric field: present means not null, so an explicit
// zero wins over every lower level.
func Decimal(fallback decimal.Decimal, levels ...decimal.NullDecimal) decimal.Decimal {
	return First(decimalPresent, decimal.NewNullDecimal(fallback), levels...).Decimal
}

// NullDecimal resolves a numeric field that has no fallback.
func NullDecimal(levels ...decimal.NullDecimal) decimal.NullDecimal {
	return First(decimalPresent, decimal.NullDecimal{}, levels...)
}

// Int resolves an integer field: present means not nil.
func Int(fallback int, levels ...*int) int {
	v := First(intPresent, &fallback, levels...)
	return *v
}

// ResolveQuote materializes the quote-wide values. settings must be the
// snapshot fetched for this calculation.
func ResolveQuote(q domain.QuoteDefaults, settings domain.AdminSettings) *Quote {
	dmType := q.DMFee.Type
	if dmType == "" {
		dmType = domain.DMFeeFixed
	}

	saleType := domain.ParseSaleType(q.SaleType)
	if saleType == "" {
		saleType = DefaultSaleType
	}

	return &Quote{
		QuoteCurrency: strings.ToUpper(String(DefaultCurrency, q.QuoteCurrency)),
		SellerCompany: String("", q.SellerCompany),
		SaleType:      saleType,
		Incoterms:     domain.ParseIncoterms(q.Incoterms),
		PaymentTerms:  q.PaymentTerms,
		Logistics:     q.Logistics,
		Brokerage:     q.Brokerage,
		DMFee:         domain.DecisionMakerFee{Type: dmType, Value: q.DMFee.Value},

		ForexRiskRate:     settings.ForexRiskRate,
		FinCommissionRate: settings.FinCommissionRate,
		LoanInterestDaily: settings.LoanInterestDaily,
	}
}

// Resolve materializes one line item against an already resolved quote.
// Precedence per field: item > quote > organization > fallback.
func Resolve(index int, item domain.LineItemInput, q domain.QuoteDefaults, settings domain.AdminSettings, quote *Quote) LineItem {
	return LineItem{
		Index: index,
		SKU:   strings.TrimSpace(item.SKU),
		Brand: strings.TrimSpace(item.Brand),
		Name:  strings.TrimSpace(item.Name),

		Quantity:   item.Quantity,
		GrossPrice: item.GrossPrice,
		WeightKg:   item.WeightKg,

		CurrencyOfBasePrice: strings.ToUpper(String(DefaultCurrency, item.CurrencyOfBasePrice, q.CurrencyOfBasePrice)),
		SupplierCountry:     domain.ParseSupplierCountry(String(string(DefaultSupplierCountry), item.SupplierCountry, q.SupplierCountry)),
		CustomsCode:         String("", item.CustomsCode),
		ImportTariff:        Decimal(decimal.Zero, item.ImportTariff, q.ImportTariff),
		ExcisePerKg:         Decimal(decimal.Zero, item.ExcisePerKg, q.ExcisePerKg),
		Markup:              NullDecimal(item.Markup, q.Markup, settings.DefaultMarkup),
		ExchangeRate:        Decimal(DefaultExchangeRate, item.ExchangeRate, q.ExchangeRate),
		SupplierDiscount:    Decimal(decimal.Zero, item.SupplierDiscount, q.SupplierDiscount),
		AdvanceToSupplier:   Decimal(DefaultAdvanceToSupplier, item.AdvanceToSupplier, q.AdvanceToSupplier),
		DeliveryDays:        Int(DefaultDeliveryDays, item.DeliveryDays, q.DeliveryDays, settings.DefaultDeliveryDays),

		Quote: quote,
	}
}

// ResolveAll resolves the quote and every line item in input order.
func ResolveAll(items []domain.LineItemInput, q domain.QuoteDefaults, settings domain.AdminSettings) (*Quote, []LineItem) {
	quote := ResolveQuote(q, settings)
	resolved := make([]LineItem, len(items))
	for i, item := range items {
		resolved[i] = Resolve(i, item, q, settings, quote)
	}
	return quote, resolved
}
