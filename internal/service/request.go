package service

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateRequest is the JSON form of a calculation request. Optional
// numeric fields use decimal.NullDecimal so an explicit 0 is kept apart
// from an absent or null value.
type CalculateRequest struct {
	OrganizationID string        `json:"organization_id"`
	CreatedAt      *time.Time    `json:"created_at,omitempty"`
	Quote          QuoteRequest  `json:"quote"`
	Items          []ItemRequest `json:"items"`
}

type MilestoneRequest struct {
	Percent decimal.Decimal `json:"percent"`
	Days    int             `json:"days"`
}

type PaymentTermsRequest struct {
	ClientAdvance     MilestoneRequest `json:"advance_from_client"`
	OnLoading         MilestoneRequest `json:"advance_on_loading"`
	OnArrival         MilestoneRequest `json:"advance_on_going_to_country_destination"`
	OnCustomsClearing MilestoneRequest `json:"advance_on_customs_clearance"`
	FinalPaymentDays  int              `json:"time_to_advance_on_receiving"`
}

type LogisticsRequest struct {
	SupplierToHub   decimal.Decimal `json:"logistics_supplier_hub"`
	HubToCustoms    decimal.Decimal `json:"logistics_hub_customs"`
	CustomsToClient decimal.Decimal `json:"logistics_customs_client"`
}

type BrokerageRequest struct {
	Hub           decimal.Decimal `json:"brokerage_hub"`
	Customs       decimal.Decimal `json:"brokerage_customs"`
	Warehousing   decimal.Decimal `json:"warehousing_at_customs"`
	Documentation decimal.Decimal `json:"customs_documentation"`
	Extra         decimal.Decimal `json:"brokerage_extra"`
}

// QuoteRequest carries the quote-wide defaults.
type QuoteRequest struct {
	QuoteCurrency string              `json:"currency_of_quote"`
	SellerCompany string              `json:"seller_company"`
	SaleType      string              `json:"offer_sale_type"`
	Incoterms     string              `json:"offer_incoterms"`
	PaymentTerms  PaymentTermsRequest `json:"payment_terms"`
	Logistics     LogisticsRequest    `json:"logistics"`
	Brokerage     BrokerageRequest    `json:"brokerage"`
	DMFeeType     string              `json:"dm_fee_type"`
	DMFeeValue    decimal.Decimal     `json:"dm_fee_value"`

	CurrencyOfBasePrice string              `json:"currency_of_base_price,omitempty"`
	SupplierCountry     string              `json:"supplier_country,omitempty"`
	ImportTariff        decimal.NullDecimal `json:"import_tariff"`
	ExcisePerKg         decimal.NullDecimal `json:"excise_tax"`
	Markup              decimal.NullDecimal `json:"markup"`
	ExchangeRate        decimal.NullDecimal `json:"exchange_rate"`
	SupplierDiscount    decimal.NullDecimal `json:"supplier_discount"`
	AdvanceToSupplier   decimal.NullDecimal `json:"advance_to_supplier"`
	DeliveryDays        *int                `json:"delivery_time,omitempty"`
}

// ItemRequest is one product row.
type ItemRequest struct {
	SKU        string          `json:"sku,omitempty"`
	Brand      string          `json:"brand,omitempty"`
	Name       string          `json:"name,omitempty"`
	Quantity   int             `json:"quantity"`
	GrossPrice decimal.Decimal `json:"base_price_vat"`
	WeightKg   decimal.Decimal `json:"weight_in_kg"`

	CurrencyOfBasePrice string              `json:"currency_of_base_price,omitempty"`
	SupplierCountry     string              `json:"supplier_country,omitempty"`
	CustomsCode         string              `json:"customs_code,omitempty"`
	ImportTariff        decimal.NullDecimal `json:"import_tariff"`
	ExcisePerKg         decimal.NullDecimal `json:"excise_tax"`
	Markup              decimal.NullDecimal `json:"markup"`
	ExchangeRate        decimal.NullDecimal `json:"exchange_rate"`
	SupplierDiscount    decimal.NullDecimal `json:"supplier_discount"`
	AdvanceToSupplier   decimal.NullDecimal `json:"advance_to_supplier"`
	DeliveryDays        *int                `json:"delivery_time,omitempty"`
}

// DecodeRequest reads one CalculateRequest from r. Unknown fields are
// rejected so a misspelled override is not silently ignored.
func DecodeRequest(r io.Reader) (*CalculateRequest, error) {
	const op = "quote.decode"

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var req CalculateRequest
	if err := dec.Decode(&req); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "malformed calculation request")
	}
	return &req, nil
}

// Params converts the request into service parameters.
func (r *CalculateRequest) Params() (CalculateParams, error) {
	const op = "quote.params"

	var orgID uuid.UUID
	if r.OrganizationID != "" {
		id, err := uuid.Parse(r.OrganizationID)
		if err != nil {
			return CalculateParams{}, domain.WrapError(err, domain.EINVALID, op, "invalid organization_id")
		}
		orgID = id
	}

	params := CalculateParams{
		OrganizationID: orgID,
		Items:          make([]domain.LineItemInput, len(r.Items)),
		Defaults:       r.Quote.toDomain(),
	}
	if r.CreatedAt != nil {
		params.CreatedAt = *r.CreatedAt
	}
	for i, item := range r.Items {
		params.Items[i] = item.toDomain()
	}
	return params, nil
}

func (m MilestoneRequest) toDomain() domain.PaymentMilestone {
	return domain.PaymentMilestone{Percent: m.Percent, DayOffset: m.Days}
}

func (q QuoteRequest) toDomain() domain.QuoteDefaults {
	return domain.QuoteDefaults{
		QuoteCurrency: q.QuoteCurrency,
		SellerCompany: q.SellerCompany,
		SaleType:      q.SaleType,
		Incoterms:     q.Incoterms,
		PaymentTerms: domain.PaymentTerms{
			ClientAdvance:     q.PaymentTerms.ClientAdvance.toDomain(),
			OnLoading:         q.PaymentTerms.OnLoading.toDomain(),
			OnArrival:         q.PaymentTerms.OnArrival.toDomain(),
			OnCustomsClearing: q.PaymentTerms.OnCustomsClearing.toDomain(),
			FinalPaymentDays:  q.PaymentTerms.FinalPaymentDays,
		},
		Logistics: domain.LogisticsCosts{
			SupplierToHub:   q.Logistics.SupplierToHub,
			HubToCustoms:    q.Logistics.HubToCustoms,
			CustomsToClient: q.Logistics.CustomsToClient,
		},
		Brokerage: domain.BrokerageCosts{
			Hub:           q.Brokerage.Hub,
			Customs:       q.Brokerage.Customs,
			Warehousing:   q.Brokerage.Warehousing,
			Documentation: q.Brokerage.Documentation,
			Extra:         q.Brokerage.Extra,
		},
		DMFee: domain.DecisionMakerFee{
			Type:  domain.DMFeeType(q.DMFeeType),
			Value: q.DMFeeValue,
		},
		CurrencyOfBasePrice: q.CurrencyOfBasePrice,
		SupplierCountry:     q.SupplierCountry,
		ImportTariff:        q.ImportTariff,
		ExcisePerKg:         q.ExcisePerKg,
		Markup:              q.Markup,
		ExchangeRate:        q.ExchangeRate,
		SupplierDiscount:    q.SupplierDiscount,
		AdvanceToSupplier:   q.AdvanceToSupplier,
		DeliveryDays:        q.DeliveryDays,
	}
}

func (i ItemRequest) toDomain() domain.LineItemInput {
	return domain.LineItemInput{
		SKU:                 i.SKU,
		Brand:               i.Brand,
		Name:                i.Name,
		Quantity:            i.Quantity,
		GrossPrice:          i.GrossPrice,
		WeightKg:            i.WeightKg,
		CurrencyOfBasePrice: i.CurrencyOfBasePrice,
		SupplierCountry:     i.SupplierCountry,
		CustomsCode:         i.CustomsCode,
		ImportTariff:        i.ImportTariff,
		ExcisePerKg:         i.ExcisePerKg,
		Markup:              i.Markup,
		ExchangeRate:        i.ExchangeRate,
		SupplierDiscount:    i.SupplierDiscount,
		AdvanceToSupplier:   i.AdvanceToSupplier,
		DeliveryDays:        i.DeliveryDays,
	}
}
