// Package lookup holds the closed tables that derive seller region, VAT rates
// and internal markup from quote inputs. Every function is pure; a key missing
// from a table is reported as a *domain.LookupError.
package lookup

import (
	"slices"
	"strings"

	"github.com/dukerupert/kvota/internal/domain"
	"github.com/shopspring/decimal"
)

var sellerRegions = map[string]domain.SellerRegion{
	"MASTER BEARING LLC":             domain.RegionRU,
	"CMTO1 LLC":                      domain.RegionRU,
	"RAD RESURS LLC":                 domain.RegionRU,
	"TEXCEL OTOMOTIV TIC. LTD. STI.": domain.RegionTR,
	"GESTUS DIS TICARET LTD. STI.":   domain.RegionTR,
	"UPDOOR LIMITED":                 domain.RegionCN,
}

// Origin-country VAT, percent.
var originVAT = map[domain.SupplierCountry]decimal.Decimal{
	domain.CountryTurkey:         decimal.NewFromInt(20),
	domain.CountryTurkeyFreeZone: decimal.Zero,
	domain.CountryRussia:         decimal.NewFromInt(20),
	domain.CountryChina:          decimal.NewFromInt(13),
	domain.CountryLithuania:      decimal.NewFromInt(21),
	domain.CountryLatvia:         decimal.NewFromInt(21),
	domain.CountryBulgaria:       decimal.NewFromInt(20),
	domain.CountryPoland:         decimal.NewFromInt(23),
	domain.CountryEUCrossBorder:  decimal.Zero,
	domain.CountryUAE:            decimal.NewFromInt(5),
	domain.CountryOther:          decimal.Zero,
}

// Destination (sales) VAT by seller region, percent.
var destinationVAT = map[domain.SellerRegion]decimal.Decimal{
	domain.RegionRU: decimal.NewFromInt(20),
	domain.RegionTR: decimal.NewFromInt(20),
	domain.RegionCN: decimal.NewFromInt(13),
}

// Internal markup between the purchasing and the selling entity, percent.
var internalMarkup = map[domain.SupplierCountry]map[domain.SellerRegion]decimal.Decimal{
	domain.CountryTurkey:         {domain.RegionRU: decimal.NewFromInt(10), domain.RegionTR: decimal.Zero, domain.RegionCN: decimal.NewFromInt(10)},
	domain.CountryTurkeyFreeZone: {domain.RegionRU: decimal.NewFromInt(10), domain.RegionTR: decimal.Zero, domain.RegionCN: decimal.NewFromInt(10)},
	domain.CountryRussia:         {domain.RegionRU: decimal.Zero, domain.RegionTR: decimal.Zero, domain.RegionCN: decimal.Zero},
	domain.CountryChina:          {domain.RegionRU: decimal.NewFromInt(10), domain.RegionTR: decimal.Zero, domain.RegionCN: decimal.Zero},
	domain.CountryLithuania:      {domain.RegionRU: decimal.NewFromInt(13), domain.RegionTR: decimal.NewFromInt(3), domain.RegionCN: decimal.NewFromInt(3)},
	domain.CountryLatvia:         {domain.RegionRU: decimal.NewFromInt(13), domain.RegionTR: decimal.NewFromInt(3), domain.RegionCN: decimal.NewFromInt(3)},
	domain.CountryBulgaria:       {domain.RegionRU: decimal.NewFromInt(13), domain.RegionTR: decimal.NewFromInt(3), domain.RegionCN: decimal.NewFromInt(3)},
	domain.CountryPoland:         {domain.RegionRU: decimal.NewFromInt(13), domain.RegionTR: decimal.NewFromInt(3), domain.RegionCN: decimal.NewFromInt(3)},
	domain.CountryEUCrossBorder:  {domain.RegionRU: decimal.NewFromInt(13), domain.RegionTR: decimal.NewFromInt(3), domain.RegionCN: decimal.NewFromInt(3)},
	domain.CountryUAE:            {domain.RegionRU: decimal.NewFromInt(11), domain.RegionTR: decimal.NewFromInt(1), domain.RegionCN: decimal.NewFromInt(1)},
	domain.CountryOther:          {domain.RegionRU: decimal.NewFromInt(10), domain.RegionTR: decimal.Zero, domain.RegionCN: decimal.Zero},
}

func normalizeCompany(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// SellerRegion returns the region of the selling legal entity.
func SellerRegion(company string) (domain.SellerRegion, error) {
	region, ok := sellerRegions[normalizeCompany(company)]
	if !ok {
		return "", domain.UnknownKey("seller_company", company)
	}
	return region, nil
}

// SellerCompanies returns the known seller company names, sorted.
func SellerCompanies() []string {
	names := make([]string, 0, len(sellerRegions))
	for name := range sellerRegions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// OriginVAT returns the VAT rate (percent) embedded in a supplier's gross
// price. An EU member supplier invoicing a TR-region seller ships as an EU
// export, so no VAT is embedded.
func OriginVAT(country domain.SupplierCountry, region domain.SellerRegion) (decimal.Decimal, error) {
	rate, ok := originVAT[country]
	if !ok {
		return decimal.Zero, domain.UnknownKey("supplier_country", string(country))
	}
	if country.IsEUMember() && region == domain.RegionTR {
		return decimal.Zero, nil
	}
	return rate, nil
}

// DestinationVAT returns the sales VAT rate (percent) of the seller region.
func DestinationVAT(region domain.SellerRegion) (decimal.Decimal, error) {
	rate, ok := destinationVAT[region]
	if !ok {
		return decimal.Zero, domain.UnknownKey("seller_region", string(region))
	}
	return rate, nil
}

// InternalMarkup returns the intra-group markup (percent) applied when goods
// from country are resold through a seller in region.
func InternalMarkup(country domain.SupplierCountry, region domain.SellerRegion) (decimal.Decimal, error) {
	byRegion, ok := internalMarkup[country]
	if !ok {
		return decimal.Zero, domain.UnknownKey("supplier_country", string(country))
	}
	rate, ok := byRegion[region]
	if !ok {
		return decimal.Zero, domain.UnknownKey("seller_region", string(region))
	}
	return rate, nil
}
