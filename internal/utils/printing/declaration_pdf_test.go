package printing

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

func TestTruncateDescription(t *testing.T) {
	short := "Portable computers"
	assert.Equal(t, short, truncateDescription(short))

	exact := strings.Repeat("x", 32)
	assert.Equal(t, exact, truncateDescription(exact))

	long := strings.Repeat("x", 40)
	got := truncateDescription(long)
	assert.Equal(t, strings.Repeat("x", 29)+"...", got)
}

func TestTruncateDescription_RuneBoundary(t *testing.T) {
	multibyte := strings.Repeat("é", 40)

	got := truncateDescription(multibyte)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 29)+"...", got)
}

func TestDeclarationPDF_LongMultibyteDescription(t *testing.T) {
	decl := &domain.Declaration{
		DocumentType:  domain.DocTypePIB,
		TaxpayerID:    "011234567891000",
		OfficeCode:    "040300",
		Status:        domain.StatusDraft,
		TransportMode: domain.TransportSea,
		Incoterm:      domain.IncotermCIF,
		CurrencyCode:  "USD",
		ExchangeRate:  decimal.NewFromInt(15500),
	}
	items := []domain.DeclarationItem{{
		LineNumber:  1,
		HSCode:      "8471.30.10",
		Description: strings.Repeat("é", 40),
		Quantity:    decimal.NewFromInt(10),
		Unit:        "PCE",
		LineValue:   decimal.NewFromInt(5000),
	}}

	out, err := DeclarationPDF(decl, items)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
