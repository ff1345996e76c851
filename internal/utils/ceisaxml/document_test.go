package ceisaxml_test

import (
	"strings"
	"testing"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/utils/ceisaxml"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeclaration() (*domain.Declaration, []domain.DeclarationItem) {
	decl := &domain.Declaration{
		DeclarationID: "decl-1",
		DocumentType:  domain.DocTypePIB,
		TaxpayerID:    "01.234.567.8-901.000",
		OfficeCode:    "040300",
		CurrencyCode:  "USD",
		ExchangeRate:  decimal.NewFromInt(15000),
		TotalValue:    decimal.NewFromInt(10000),
		TransportMode: domain.TransportSea,
		Incoterm:      domain.IncotermCIF,
	}
	items := []domain.DeclarationItem{
		{LineNumber: 2, HSCode: "8471.30.20", Description: "Laptop", Quantity: decimal.NewFromInt(10), Unit: "PCE"},
		{LineNumber: 1, HSCode: "8517.12.00", Description: "Handphone", Quantity: decimal.NewFromInt(50), Unit: "PCE"},
	}
	return decl, items
}

func TestGenerate_HashRoundTrip(t *testing.T) {
	decl, items := sampleDeclaration()

	payload, hash, err := ceisaxml.Generate(decl, items)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	require.Len(t, hash, 64)

	// Recomputing the hash from the stored payload yields the identical hash.
	assert.Equal(t, hash, ceisaxml.Hash(payload))
	assert.NoError(t, ceisaxml.Verify(payload, hash))
}

func TestGenerate_IsDeterministic(t *testing.T) {
	decl, items := sampleDeclaration()

	first, firstHash, err := ceisaxml.Generate(decl, items)
	require.NoError(t, err)

	// Item order in the input must not influence the canonical form.
	reversed := []domain.DeclarationItem{items[1], items[0]}
	second, secondHash, err := ceisaxml.Generate(decl, reversed)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstHash, secondHash)
}

func TestVerify_DetectsTampering(t *testing.T) {
	decl, items := sampleDeclaration()

	payload, hash, err := ceisaxml.Generate(decl, items)
	require.NoError(t, err)

	tampered := payload + " "
	err = ceisaxml.Verify(tampered, hash)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)
}

func TestGenerate_ItemsOrderedByLineNumber(t *testing.T) {
	decl, items := sampleDeclaration()

	payload, _, err := ceisaxml.Generate(decl, items)
	require.NoError(t, err)

	// Line 1 (Handphone) must precede line 2 (Laptop) in the payload.
	posLine1 := strings.Index(payload, "Handphone")
	posLine2 := strings.Index(payload, "Laptop")
	require.GreaterOrEqual(t, posLine1, 0)
	require.GreaterOrEqual(t, posLine2, 0)
	assert.Less(t, posLine1, posLine2)
}
