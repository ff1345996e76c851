// Package dutytax computes Indonesian import duties and taxes (BM, PPN, PPh)
// per goods line and aggregates them. All functions are pure and operate on
// decimals at full precision; only each line's final tax total is rounded to
// the local currency's minor unit.
package dutytax

import (
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	// PPh withholding tiers keyed by import-license (API) possession.
	pphRateAPIHolder    = decimal.NewFromFloat(0.025)
	pphRateNonAPIHolder = decimal.NewFromFloat(0.075)
)

// idrMinorUnits is the minor-unit precision of the local currency. Duties
// and taxes are always assessed in IDR.
const idrMinorUnits = 0

// PPhRate returns the withholding tier for the importer. License holders use
// the lower tier.
func PPhRate(holdsAPI bool) decimal.Decimal {
	if holdsAPI {
		return pphRateAPIHolder
	}
	return pphRateNonAPIHolder
}

// ProportionalShare distributes a header-level amount to one item according
// to its share of the total goods value: (itemValue / totalValue) * header.
// A zero total yields a zero share.
func ProportionalShare(headerAmount, itemValue, totalValue decimal.Decimal) decimal.Decimal {
	if totalValue.IsZero() {
		return decimal.Zero
	}
	return itemValue.Mul(headerAmount).Div(totalValue)
}

// Assessment holds the computed duty/tax amounts for one goods line.
// Component amounts are full precision; TotalTax is rounded to the minor
// unit of IDR.
type Assessment struct {
	CIFIDr   decimal.Decimal
	BM       decimal.Decimal
	PPN      decimal.Decimal
	PPh      decimal.Decimal
	TotalTax decimal.Decimal
}

// AssessLine computes BM, PPN, and PPh for a single line given its dutiable
// value in IDR and the applicable rates:
//
//	BM  = cifIDR * bmRate
//	PPN = (cifIDR + BM) * ppnRate
//	PPh = (cifIDR + BM) * pphRate
func AssessLine(cifIDR, bmRate, ppnRate, pphRate decimal.Decimal) Assessment {
	bm := cifIDR.Mul(bmRate)
	base := cifIDR.Add(bm)
	ppn := base.Mul(ppnRate)
	pph := base.Mul(pphRate)
	total := bm.Add(ppn).Add(pph).Round(idrMinorUnits)
	return Assessment{CIFIDr: cifIDR, BM: bm, PPN: ppn, PPh: pph, TotalTax: total}
}

// Totals aggregates per-line assessments. Header totals are the exact sum of
// line totals; nothing is recomputed independently at header level.
type Totals struct {
	TotalBM  decimal.Decimal
	TotalPPN decimal.Decimal
	TotalPPh decimal.Decimal
	TotalTax decimal.Decimal
}

// AssessDeclaration computes duties and taxes for every item of an import
// declaration and returns the items with amounts filled in, plus the exact
// header aggregation. Header freight and insurance are distributed to each
// line proportionally to its share of the total goods value, and the
// resulting per-line CIF is converted to IDR with the header exchange rate.
//
// Export declarations carry no import duties; callers must not invoke this
// for PEB documents.
func AssessDeclaration(decl *domain.Declaration, items []domain.DeclarationItem) ([]domain.DeclarationItem, Totals) {
	totalValue := decimal.Zero
	for _, item := range items {
		totalValue = totalValue.Add(item.LineValue)
	}

	pphRate := PPhRate(decl.HoldsAPI())

	assessed := make([]domain.DeclarationItem, len(items))
	totals := Totals{
		TotalBM:  decimal.Zero,
		TotalPPN: decimal.Zero,
		TotalPPh: decimal.Zero,
		TotalTax: decimal.Zero,
	}

	for i, item := range items {
		freightShare := ProportionalShare(decl.FreightValue, item.LineValue, totalValue)
		insuranceShare := ProportionalShare(decl.InsuranceValue, item.LineValue, totalValue)
		cif := item.LineValue.Add(freightShare).Add(insuranceShare)
		cifIDR := cif.Mul(decl.ExchangeRate)

		result := AssessLine(cifIDR, item.BMRate, item.PPNRate, pphRate)

		item.PPhRate = pphRate
		item.BMAmount = result.BM
		item.PPNAmount = result.PPN
		item.PPhAmount = result.PPh
		item.TotalTax = result.TotalTax
		assessed[i] = item

		totals.TotalBM = totals.TotalBM.Add(result.BM)
		totals.TotalPPN = totals.TotalPPN.Add(result.PPN)
		totals.TotalPPh = totals.TotalPPh.Add(result.PPh)
		totals.TotalTax = totals.TotalTax.Add(result.TotalTax)
	}

	return assessed, totals
}
