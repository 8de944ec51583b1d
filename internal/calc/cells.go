package calc

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cell names a calculated value after the spreadsheet cell it reproduces,
// so every output can be audited against the reference workbook. Row 16
// cells are per line item; row 13 and columns BH..BL are quote-level.
type Cell string

// Per-item cells, in pipeline order.
const (
	CellPurchaseNoVAT       Cell = "N16"  // unit price without origin VAT, purchase currency
	CellSupplierDiscount    Cell = "Q16"  // unit discount amount
	CellPurchaseDiscounted  Cell = "P16"  // unit price after supplier discount
	CellPurchaseUnitQuote   Cell = "R16"  // unit purchase price, quote currency
	CellPurchaseTotal       Cell = "S16"  // line purchase price, quote currency
	CellDistributionBase    Cell = "BD16" // share of quote purchase total
	CellLogisticsFirstLeg   Cell = "T16"
	CellLogisticsSecondLeg  Cell = "U16"
	CellLogisticsThirdLeg   Cell = "V16"
	CellBrokerage           Cell = "W16"
	CellLogisticsTotal      Cell = "X16"
	CellInternalUnitPrice   Cell = "AX16"
	CellInternalTotal       Cell = "AY16"
	CellCustomsFee          Cell = "Y16"
	CellExcise              Cell = "Z16"
	CellImportVATBase       Cell = "AZ16"
	CellSupplierPayment     Cell = "BG16"
	CellPreFinancingCost    Cell = "BE16"
	CellRevenueEstimate     Cell = "BF16"
	CellFinancingShare      Cell = "BA16"
	CellCreditInterestShare Cell = "BB16"
	CellCOGS                Cell = "AB16"
	CellCOGSUnit            Cell = "AA16"
	CellMarkupBase          Cell = "AC16"
	CellProfit              Cell = "AF16"
	CellDMFee               Cell = "AG16"
	CellForexReserve        Cell = "AH16"
	CellAgentCommission     Cell = "AI16"
	CellSalesUnitNoVAT      Cell = "AJ16"
	CellSalesTotalNoVAT     Cell = "AK16"
	CellSalesTotalWithVAT   Cell = "AL16"
	CellSalesVAT            Cell = "AM16"
	CellSalesUnitWithVAT    Cell = "AN16"
	CellImportVAT           Cell = "AO16"
	CellVATPayable          Cell = "AP16"
	CellTransitCommission   Cell = "AQ16"
)

// Quote-level cells.
const (
	CellQuotePurchaseTotal   Cell = "S13"
	CellQuoteLogisticsTotal  Cell = "X13"
	CellQuoteCustomsTotal    Cell = "Y13"
	CellQuoteExciseTotal     Cell = "Z13"
	CellRevenueEstimateTotal Cell = "BH2"
	CellClientAdvance        Cell = "BH3"
	CellPreDeliveryPayments  Cell = "BH4"
	CellSupplierPaymentTotal Cell = "BH6"
	CellStage1FutureValue    Cell = "BH7"
	CellStage2Principal      Cell = "BH8"
	CellStage2FutureValue    Cell = "BH9"
	CellSupplierInterest     Cell = "BJ7"
	CellOperationalCosts     Cell = "BH10"
	CellOperationalInterest  Cell = "BJ10"
	CellTotalFinancing       Cell = "BJ11"
	CellReceivable           Cell = "BL3"
	CellCreditInterest       Cell = "BL5"
	CellQuoteCOGS            Cell = "AB13"
	CellQuoteProfit          Cell = "AF13"
	CellQuoteSubtotal        Cell = "AK13"
	CellQuoteTotalWithVAT    Cell = "AL13"
	CellQuoteSalesVAT        Cell = "AM13"
	CellQuoteImportVAT       Cell = "AO13"
	CellQuoteVATPayable      Cell = "AP13"
	CellQuoteTransitComm     Cell = "AQ13"
)

// Output scale per cell. Ratios keep more places than money.
const (
	moneyScale = 2
	ratioScale = 8
)

func (c Cell) scale() int32 {
	if c == CellDistributionBase {
		return ratioScale
	}
	return moneyScale
}

// PhaseResult is the append-only set of named values produced for one line
// item or for the quote. A cell is written exactly once.
type PhaseResult struct {
	values map[Cell]decimal.Decimal
	order  []Cell
}

func newPhaseResult() *PhaseResult {
	return &PhaseResult{values: make(map[Cell]decimal.Decimal, 40)}
}

// set records a value. Writing a cell twice is a pipeline bug.
func (r *PhaseResult) set(c Cell, v decimal.Decimal) {
	if _, ok := r.values[c]; ok {
		panic(fmt.Sprintf("calc: cell %s written twice", c))
	}
	r.values[c] = v
	r.order = append(r.order, c)
}

// Get returns the unrounded value of c, or zero if it was never written.
func (r *PhaseResult) Get(c Cell) decimal.Decimal {
	return r.values[c]
}

// Has reports whether c was written.
func (r *PhaseResult) Has(c Cell) bool {
	_, ok := r.values[c]
	return ok
}

// Rounded returns c rounded to its output scale.
func (r *PhaseResult) Rounded(c Cell) decimal.Decimal {
	return r.values[c].Round(c.scale())
}

// Cells lists written cells in the order they were computed.
func (r *PhaseResult) Cells() []Cell {
	out := make([]Cell, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of written cells.
func (r *PhaseResult) Len() int {
	return len(r.order)
}

// Output returns every cell rounded to its output scale.
func (r *PhaseResult) Output() map[Cell]decimal.Decimal {
	out := make(map[Cell]decimal.Decimal, len(r.values))
	for c := range r.values {
		out[c] = r.Rounded(c)
	}
	return out
}

// MarshalJSON renders the rounded outputs keyed by cell name.
func (r *PhaseResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Output())
}
