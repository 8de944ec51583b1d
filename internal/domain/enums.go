package domain

import "strings"

// SaleType is the deal structure of a quote.
type SaleType string

const (
	SaleTypeSupply           SaleType = "supply"
	SaleTypeTransit          SaleType = "transit"
	SaleTypeFinancialTransit SaleType = "financial_transit"
	SaleTypeExport           SaleType = "export"
)

// SaleTypes lists every sale type, in display order.
var SaleTypes = []SaleType{SaleTypeSupply, SaleTypeTransit, SaleTypeFinancialTransit, SaleTypeExport}

// Valid reports whether s is a known sale type.
func (s SaleType) Valid() bool {
	switch s {
	case SaleTypeSupply, SaleTypeTransit, SaleTypeFinancialTransit, SaleTypeExport:
		return true
	}
	return false
}

// ParseSaleType normalizes user input ("Financial-Transit" -> financial_transit).
// Unknown values are returned as-is and fail Valid.
func ParseSaleType(s string) SaleType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return SaleType(s)
}

// Incoterms is an international delivery term.
type Incoterms string

const (
	IncotermsEXW Incoterms = "EXW"
	IncotermsFCA Incoterms = "FCA"
	IncotermsFAS Incoterms = "FAS"
	IncotermsFOB Incoterms = "FOB"
	IncotermsCFR Incoterms = "CFR"
	IncotermsCIF Incoterms = "CIF"
	IncotermsCPT Incoterms = "CPT"
	IncotermsCIP Incoterms = "CIP"
	IncotermsDAP Incoterms = "DAP"
	IncotermsDPU Incoterms = "DPU"
	IncotermsDDP Incoterms = "DDP"
)

// AllIncoterms lists every supported term.
var AllIncoterms = []Incoterms{
	IncotermsEXW, IncotermsFCA, IncotermsFAS, IncotermsFOB, IncotermsCFR, IncotermsCIF,
	IncotermsCPT, IncotermsCIP, IncotermsDAP, IncotermsDPU, IncotermsDDP,
}

// Valid reports whether i is a known term.
func (i Incoterms) Valid() bool {
	switch i {
	case IncotermsEXW, IncotermsFCA, IncotermsFAS, IncotermsFOB, IncotermsCFR, IncotermsCIF,
		IncotermsCPT, IncotermsCIP, IncotermsDAP, IncotermsDPU, IncotermsDDP:
		return true
	}
	return false
}

// ParseIncoterms upper-cases and trims s.
func ParseIncoterms(s string) Incoterms {
	return Incoterms(strings.ToUpper(strings.TrimSpace(s)))
}

// SellerRegion is the jurisdiction of the selling legal entity.
type SellerRegion string

const (
	RegionRU SellerRegion = "RU"
	RegionTR SellerRegion = "TR"
	RegionCN SellerRegion = "CN"
)

// SupplierCountry is the origin of the goods for VAT and markup purposes.
type SupplierCountry string

const (
	CountryTurkey         SupplierCountry = "TR"
	CountryTurkeyFreeZone SupplierCountry = "TR_FREE_ZONE"
	CountryRussia         SupplierCountry = "RU"
	CountryChina          SupplierCountry = "CN"
	CountryLithuania      SupplierCountry = "LT"
	CountryLatvia         SupplierCountry = "LV"
	CountryBulgaria       SupplierCountry = "BG"
	CountryPoland         SupplierCountry = "PL"
	CountryEUCrossBorder  SupplierCountry = "EU_CROSS_BORDER"
	CountryUAE            SupplierCountry = "AE"
	CountryOther          SupplierCountry = "OTHER"
)

// IsEUMember reports whether the country is an EU member state.
func (c SupplierCountry) IsEUMember() bool {
	switch c {
	case CountryLithuania, CountryLatvia, CountryBulgaria, CountryPoland:
		return true
	}
	return false
}

// ParseSupplierCountry upper-cases and trims s.
func ParseSupplierCountry(s string) SupplierCountry {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return SupplierCountry(s)
}

// DMFeeType selects how the decision-maker fee is computed.
type DMFeeType string

const (
	DMFeeFixed   DMFeeType = "fixed"
	DMFeePercent DMFeeType = "percent"
)

// Valid reports whether t is a known fee type.
func (t DMFeeType) Valid() bool {
	switch t {
	case DMFeeFixed, DMFeePercent:
		return true
	}
	return false
}
