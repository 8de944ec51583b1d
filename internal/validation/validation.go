// Package validation checks resolved quote input against required-field,
// numeric-domain and business rules. Every violation is collected; nothing
// short-circuits.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/dukerupert/kvota/internal/resolve"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Decimals reach the rules as their exact string form and are compared
	// with the dec_* tags below, never through float64.
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return f.Name
	})

	mustRegister(v, "incoterms", func(fl validator.FieldLevel) bool {
		return domain.Incoterms(fl.Field().String()).Valid()
	})
	mustRegister(v, "sale_type", func(fl validator.FieldLevel) bool {
		return domain.SaleType(fl.Field().String()).Valid()
	})
	mustRegister(v, "dm_fee_type", func(fl validator.FieldLevel) bool {
		return domain.DMFeeType(fl.Field().String()).Valid()
	})
	mustRegister(v, "dec_gt", decimalBound(func(c int) bool { return c > 0 }))
	mustRegister(v, "dec_gte", decimalBound(func(c int) bool { return c >= 0 }))
	mustRegister(v, "dec_lte", decimalBound(func(c int) bool { return c <= 0 }))
	return v
}

// decimalBound compares the field against the tag parameter exactly. ok
// receives the result of field.Cmp(param).
func decimalBound(ok func(int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			panic(fmt.Sprintf("validation: bad %s parameter %q", fl.GetTag(), fl.Param()))
		}
		return ok(value.Cmp(bound))
	}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func decimalValue(v reflect.Value) interface{} {
	switch d := v.Interface().(type) {
	case decimal.Decimal:
		return d.String()
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		// "0" is non-empty, so "required" accepts an explicit zero.
		return d.Decimal.String()
	}
	return nil
}

// MaxDays bounds every day offset and delivery time (ten years). The
// financing step compounds daily to full precision, so its cost grows with
// the day count.
const MaxDays = 3650

type quoteRules struct {
	QuoteCurrency string           `field:"quote_currency" validate:"required,iso4217"`
	SellerCompany string           `field:"seller_company" validate:"required"`
	SaleType      domain.SaleType  `field:"sale_type" validate:"sale_type"`
	Incoterms     domain.Incoterms `field:"offer_incoterms" validate:"required,incoterms"`

	AdvanceFromClient    decimal.Decimal `field:"advance_from_client" validate:"dec_gte=0,dec_lte=100"`
	TimeToAdvance        int             `field:"time_to_advance" validate:"gte=0,lte=3650"`
	AdvanceOnLoading     decimal.Decimal `field:"advance_on_loading" validate:"dec_gte=0,dec_lte=100"`
	TimeToAdvanceLoading int             `field:"time_to_advance_loading" validate:"gte=0,lte=3650"`
	AdvanceOnArrival     decimal.Decimal `field:"advance_on_arrival" validate:"dec_gte=0,dec_lte=100"`
	TimeToAdvanceArrival int             `field:"time_to_advance_arrival" validate:"gte=0,lte=3650"`
	AdvanceOnCustoms     decimal.Decimal `field:"advance_on_customs_clearance" validate:"dec_gte=0,dec_lte=100"`
	TimeToAdvanceCustoms int             `field:"time_to_advance_customs_clearance" validate:"gte=0,lte=3650"`
	FinalPaymentDays     int             `field:"time_to_final_payment" validate:"gte=0,lte=3650"`

	LogisticsSupplierHub   decimal.Decimal `field:"logistics_supplier_hub" validate:"dec_gte=0"`
	LogisticsHubCustoms    decimal.Decimal `field:"logistics_hub_customs" validate:"dec_gte=0"`
	LogisticsCustomsClient decimal.Decimal `field:"logistics_customs_client" validate:"dec_gte=0"`
	BrokerageHub           decimal.Decimal `field:"brokerage_hub" validate:"dec_gte=0"`
	BrokerageCustoms       decimal.Decimal `field:"brokerage_customs" validate:"dec_gte=0"`
	Warehousing            decimal.Decimal `field:"warehousing_at_customs" validate:"dec_gte=0"`
	Documentation          decimal.Decimal `field:"customs_documentation" validate:"dec_gte=0"`
	BrokerageExtra         decimal.Decimal `field:"brokerage_extra" validate:"dec_gte=0"`

	DMFeeType  domain.DMFeeType `field:"dm_fee_type" validate:"dm_fee_type"`
	DMFeeValue decimal.Decimal  `field:"dm_fee_value" validate:"dec_gte=0"`

	ForexRiskRate     decimal.Decimal `field:"rate_forex_risk" validate:"dec_gte=0,dec_lte=100"`
	FinCommissionRate decimal.Decimal `field:"rate_fin_comm" validate:"dec_gte=0,dec_lte=100"`
	LoanInterestDaily decimal.Decimal `field:"rate_loan_interest_daily" validate:"dec_gte=0,dec_lte=100"`
}

type itemRules struct {
	Quantity            int                 `field:"quantity" validate:"gt=0"`
	GrossPrice          decimal.Decimal     `field:"base_price_vat" validate:"dec_gt=0"`
	WeightKg            decimal.Decimal     `field:"weight_in_kg" validate:"dec_gte=0"`
	CurrencyOfBasePrice string              `field:"currency_of_base_price" validate:"required,iso4217"`
	// Markup has no upper bound: it is applied to cost, so 100 doubles it
	// and resellers routinely quote higher on low-cost parts.
	Markup              decimal.NullDecimal `field:"markup" validate:"required,dec_gte=0"`
	ExchangeRate        decimal.Decimal     `field:"exchange_rate" validate:"dec_gt=0"`
	SupplierDiscount    decimal.Decimal     `field:"supplier_discount" validate:"dec_gte=0,dec_lte=100"`
	ImportTariff        decimal.Decimal     `field:"import_tariff" validate:"dec_gte=0,dec_lte=100"`
	ExcisePerKg         decimal.Decimal     `field:"excise_tax" validate:"dec_gte=0"`
	AdvanceToSupplier   decimal.Decimal     `field:"advance_to_supplier" validate:"dec_gte=0,dec_lte=100"`
	DeliveryDays        int                 `field:"delivery_time" validate:"gte=0,lte=3650"`
}

func quoteRulesFor(q *resolve.Quote) quoteRules {
	pt := q.PaymentTerms
	return quoteRules{
		QuoteCurrency: q.QuoteCurrency,
		SellerCompany: q.SellerCompany,
		SaleType:      q.SaleType,
		Incoterms:     q.Incoterms,

		AdvanceFromClient:    pt.ClientAdvance.Percent,
		TimeToAdvance:        pt.ClientAdvance.DayOffset,
		AdvanceOnLoading:     pt.OnLoading.Percent,
		TimeToAdvanceLoading: pt.OnLoading.DayOffset,
		AdvanceOnArrival:     pt.OnArrival.Percent,
		TimeToAdvanceArrival: pt.OnArrival.DayOffset,
		AdvanceOnCustoms:     pt.OnCustomsClearing.Percent,
		TimeToAdvanceCustoms: pt.OnCustomsClearing.DayOffset,
		FinalPaymentDays:     pt.FinalPaymentDays,

		LogisticsSupplierHub:   q.Logistics.SupplierToHub,
		LogisticsHubCustoms:    q.Logistics.HubToCustoms,
		LogisticsCustomsClient: q.Logistics.CustomsToClient,
		BrokerageHub:           q.Brokerage.Hub,
		BrokerageCustoms:       q.Brokerage.Customs,
		Warehousing:            q.Brokerage.Warehousing,
		Documentation:          q.Brokerage.Documentation,
		BrokerageExtra:         q.Brokerage.Extra,

		DMFeeType:  q.DMFee.Type,
		DMFeeValue: q.DMFee.Value,

		ForexRiskRate:     q.ForexRiskRate,
		FinCommissionRate: q.FinCommissionRate,
		LoanInterestDaily: q.LoanInterestDaily,
	}
}

func itemRulesFor(item resolve.LineItem) itemRules {
	return itemRules{
		Quantity:            item.Quantity,
		GrossPrice:          item.GrossPrice,
		WeightKg:            item.WeightKg,
		CurrencyOfBasePrice: item.CurrencyOfBasePrice,
		Markup:              item.Markup,
		ExchangeRate:        item.ExchangeRate,
		SupplierDiscount:    item.SupplierDiscount,
		ImportTariff:        item.ImportTariff,
		ExcisePerKg:         item.ExcisePerKg,
		AdvanceToSupplier:   item.AdvanceToSupplier,
		DeliveryDays:        item.DeliveryDays,
	}
}

var hundred = decimal.NewFromInt(100)

// ValidateQuote checks the quote-wide values once. Violations carry
// domain.QuoteLevel as their item index.
func ValidateQuote(q *resolve.Quote) domain.ValidationErrors {
	errs := structErrors(quoteRulesFor(q), domain.QuoteLevel, "")

	// Non-EXW terms mean the seller pays for transport.
	if q.Incoterms != "" && q.Incoterms != domain.IncotermsEXW && !q.Logistics.AnyPositive() {
		errs = append(errs, domain.FieldError{
			Item:    domain.QuoteLevel,
			Field:   "logistics",
			Message: fmt.Sprintf("incoterms %s require at least one logistics cost greater than 0", q.Incoterms),
		})
	}

	if q.PaymentTerms.PreDeliveryPercent().GreaterThan(hundred) {
		errs = append(errs, domain.FieldError{
			Item:    domain.QuoteLevel,
			Field:   "payment_terms",
			Message: "client payments before delivery must not exceed 100%",
		})
	}

	if q.DMFee.Type == domain.DMFeePercent && q.DMFee.Value.GreaterThan(hundred) {
		errs = append(errs, domain.FieldError{
			Item:    domain.QuoteLevel,
			Field:   "dm_fee_value",
			Message: "must be at most 100 when the fee is a percentage",
		})
	}

	return errs
}

// ValidateItem checks the item-level values of one resolved line item.
func ValidateItem(item resolve.LineItem) domain.ValidationErrors {
	return structErrors(itemRulesFor(item), item.Index, item.SKU)
}

// Validate checks one resolved line item, including the quote it belongs to.
func Validate(item resolve.LineItem) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if item.Quote != nil {
		errs = append(errs, ValidateQuote(item.Quote)...)
	}
	return append(errs, ValidateItem(item)...)
}

// ValidateAll checks a whole quote: quote-level rules once, then every item.
func ValidateAll(q *resolve.Quote, items []resolve.LineItem) domain.ValidationErrors {
	errs := ValidateQuote(q)
	if len(items) == 0 {
		errs = append(errs, domain.FieldError{
			Item:    domain.QuoteLevel,
			Field:   "items",
			Message: "quote must contain at least one line item",
		})
	}
	for _, item := range items {
		errs = append(errs, ValidateItem(item)...)
	}
	return errs
}

func structErrors(s interface{}, index int, sku string) domain.ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.ValidationErrors{{Item: index, SKU: sku, Field: "input", Message: err.Error()}}
	}

	errs := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, domain.FieldError{
			Item:    index,
			SKU:     sku,
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt", "dec_gt":
		return "must be greater than " + fe.Param()
	case "gte", "dec_gte":
		return "must be at least " + fe.Param()
	case "lte", "dec_lte":
		return "must be at most " + fe.Param()
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "incoterms":
		return "must be one of " + joinIncoterms()
	case "sale_type":
		return fmt.Sprintf("unknown sale type %q", fe.Value())
	case "dm_fee_type":
		return fmt.Sprintf("unknown decision-maker fee type %q", fe.Value())
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func joinIncoterms() string {
	names := make([]string, len(domain.AllIncoterms))
	for i, t := range domain.AllIncoterms {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
