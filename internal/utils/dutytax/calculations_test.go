package dutytax_test

import (
	"testing"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/utils/dutytax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessLine_NonAPIHolderScenario(t *testing.T) {
	// CIF(IDR)=100,000,000, bm=5%, ppn=11%, pph=7.5% (non-API tier).
	cif := decimal.NewFromInt(100_000_000)
	result := dutytax.AssessLine(
		cif,
		decimal.NewFromFloat(0.05),
		decimal.NewFromFloat(0.11),
		dutytax.PPhRate(false),
	)

	assert.True(t, result.BM.Equal(decimal.NewFromInt(5_000_000)), "BM = %s", result.BM)
	assert.True(t, result.PPN.Equal(decimal.NewFromInt(11_550_000)), "PPN = %s", result.PPN)
	assert.True(t, result.PPh.Equal(decimal.NewFromInt(7_875_000)), "PPh = %s", result.PPh)
	assert.True(t, result.TotalTax.Equal(decimal.NewFromInt(24_425_000)), "total = %s", result.TotalTax)
}

func TestPPhRate_Tiers(t *testing.T) {
	assert.True(t, dutytax.PPhRate(true).Equal(decimal.NewFromFloat(0.025)))
	assert.True(t, dutytax.PPhRate(false).Equal(decimal.NewFromFloat(0.075)))
}

func TestProportionalShare(t *testing.T) {
	// header freight=1,000; item A fob=3,000, item B fob=7,000, total=10,000.
	header := decimal.NewFromInt(1000)
	total := decimal.NewFromInt(10000)

	shareA := dutytax.ProportionalShare(header, decimal.NewFromInt(3000), total)
	shareB := dutytax.ProportionalShare(header, decimal.NewFromInt(7000), total)

	assert.True(t, shareA.Equal(decimal.NewFromInt(300)), "share A = %s", shareA)
	assert.True(t, shareB.Equal(decimal.NewFromInt(700)), "share B = %s", shareB)
}

func TestProportionalShare_ZeroTotal(t *testing.T) {
	share := dutytax.ProportionalShare(decimal.NewFromInt(1000), decimal.Zero, decimal.Zero)
	assert.True(t, share.IsZero())
}

func TestAssessDeclaration_HeaderTotalsAreExactItemSums(t *testing.T) {
	decl := &domain.Declaration{
		DocumentType:   domain.DocTypePIB,
		CurrencyCode:   "USD",
		ExchangeRate:   decimal.NewFromInt(15000),
		FreightValue:   decimal.NewFromInt(1000),
		InsuranceValue: decimal.NewFromInt(200),
		APINumber:      "API-123",
	}
	items := []domain.DeclarationItem{
		{
			LineNumber: 1,
			LineValue:  decimal.NewFromInt(3000),
			BMRate:     decimal.NewFromFloat(0.05),
			PPNRate:    decimal.NewFromFloat(0.11),
		},
		{
			LineNumber: 2,
			LineValue:  decimal.NewFromInt(7000),
			BMRate:     decimal.NewFromFloat(0.10),
			PPNRate:    decimal.NewFromFloat(0.11),
		},
	}

	assessed, totals := dutytax.AssessDeclaration(decl, items)
	require.Len(t, assessed, 2)

	sumBM, sumPPN, sumPPh, sumTotal := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range assessed {
		// API holder tier applied to every line.
		assert.True(t, item.PPhRate.Equal(decimal.NewFromFloat(0.025)))
		sumBM = sumBM.Add(item.BMAmount)
		sumPPN = sumPPN.Add(item.PPNAmount)
		sumPPh = sumPPh.Add(item.PPhAmount)
		sumTotal = sumTotal.Add(item.TotalTax)
	}

	assert.True(t, totals.TotalBM.Equal(sumBM))
	assert.True(t, totals.TotalPPN.Equal(sumPPN))
	assert.True(t, totals.TotalPPh.Equal(sumPPh))
	assert.True(t, totals.TotalTax.Equal(sumTotal))
}

func TestAssessDeclaration_ProportionalCIFFeedsLineAssessment(t *testing.T) {
	// One line owning 30% of the goods value receives 30% of freight and
	// insurance before conversion: CIF = 3000 + 300 + 60 = 3360; at rate
	// 10,000 that is 33,600,000 IDR dutiable value.
	decl := &domain.Declaration{
		DocumentType:   domain.DocTypePIB,
		ExchangeRate:   decimal.NewFromInt(10000),
		FreightValue:   decimal.NewFromInt(1000),
		InsuranceValue: decimal.NewFromInt(200),
	}
	items := []domain.DeclarationItem{
		{LineNumber: 1, LineValue: decimal.NewFromInt(3000), BMRate: decimal.Zero, PPNRate: decimal.Zero},
		{LineNumber: 2, LineValue: decimal.NewFromInt(7000), BMRate: decimal.Zero, PPNRate: decimal.Zero},
	}

	assessed, _ := dutytax.AssessDeclaration(decl, items)
	require.Len(t, assessed, 2)

	// pph (non-holder) on 33,600,000 = 2,520,000
	assert.True(t, assessed[0].PPhAmount.Equal(decimal.NewFromInt(2_520_000)),
		"line 1 PPh = %s", assessed[0].PPhAmount)
}

func TestAssessLine_RoundsOnlyTheLineTotal(t *testing.T) {
	// 1,000,001 * 0.05 = 50,000.05: components keep the fraction, the line
	// total is rounded to whole rupiah.
	cif := decimal.NewFromInt(1_000_001)
	result := dutytax.AssessLine(cif, decimal.NewFromFloat(0.05), decimal.Zero, decimal.Zero)

	assert.True(t, result.BM.Equal(decimal.NewFromFloat(50_000.05)))
	assert.True(t, result.TotalTax.Equal(decimal.NewFromInt(50_000)))
}
