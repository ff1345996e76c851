package compliance_test

import (
	"testing"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/utils/compliance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidate_TransportModeRules(t *testing.T) {
	one := decimal.NewFromInt(1)

	tests := []struct {
		name       string
		mode       domain.TransportMode
		term       domain.Incoterm
		wantErrors int
	}{
		{name: "FOB by sea is accepted", mode: domain.TransportSea, term: domain.IncotermFOB, wantErrors: 0},
		{name: "FOB by air is rejected", mode: domain.TransportAir, term: domain.IncotermFOB, wantErrors: 1},
		{name: "CFR by land is rejected", mode: domain.TransportLand, term: domain.IncotermCFR, wantErrors: 1},
		{name: "FAS by rail is rejected", mode: domain.TransportRail, term: domain.IncotermFAS, wantErrors: 1},
		{name: "EXW by air is accepted", mode: domain.TransportAir, term: domain.IncotermEXW, wantErrors: 0},
		{name: "CPT by land is accepted", mode: domain.TransportLand, term: domain.IncotermCPT, wantErrors: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := compliance.Validate(tt.mode, tt.term, one, one)
			assert.Len(t, violations, tt.wantErrors)
		})
	}
}

func TestValidate_ViolationNamesModeAndTerm(t *testing.T) {
	violations := compliance.Validate(domain.TransportAir, domain.IncotermFOB, decimal.Zero, decimal.Zero)
	if assert.Len(t, violations, 1) {
		assert.Contains(t, violations[0].Message, "FOB")
		assert.Contains(t, violations[0].Message, "AIR")
	}
}

func TestValidate_CIFRequiresFreightAndInsurance(t *testing.T) {
	violations := compliance.Validate(domain.TransportSea, domain.IncotermCIF, decimal.Zero, decimal.Zero)
	assert.Len(t, violations, 2)

	fields := []string{violations[0].Field, violations[1].Field}
	assert.Contains(t, fields, "freightValue")
	assert.Contains(t, fields, "insuranceValue")

	// CIP has the same ancillary-value requirement regardless of mode.
	violations = compliance.Validate(domain.TransportAir, domain.IncotermCIP, decimal.NewFromInt(100), decimal.Zero)
	if assert.Len(t, violations, 1) {
		assert.Equal(t, "insuranceValue", violations[0].Field)
	}

	violations = compliance.Validate(domain.TransportSea, domain.IncotermCIF, decimal.NewFromInt(100), decimal.NewFromInt(50))
	assert.Empty(t, violations)
}

func TestAllowedIncoterms(t *testing.T) {
	sea := compliance.AllowedIncoterms(domain.TransportSea)
	assert.Contains(t, sea, domain.IncotermFOB)
	assert.Contains(t, sea, domain.IncotermCIF)
	assert.Len(t, sea, 10)

	air := compliance.AllowedIncoterms(domain.TransportAir)
	assert.NotContains(t, air, domain.IncotermFOB)
	assert.NotContains(t, air, domain.IncotermCFR)
	assert.NotContains(t, air, domain.IncotermCIF)
	assert.NotContains(t, air, domain.IncotermFAS)
	assert.Contains(t, air, domain.IncotermCIP)
	assert.Len(t, air, 6)
}

func TestValidate_IsReferentiallyTransparent(t *testing.T) {
	freight := decimal.NewFromInt(10)
	first := compliance.Validate(domain.TransportAir, domain.IncotermCIF, freight, decimal.Zero)
	second := compliance.Validate(domain.TransportAir, domain.IncotermCIF, freight, decimal.Zero)
	assert.Equal(t, first, second)
}
