package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DeclarationItem is one goods line owned exclusively by a Declaration.
type DeclarationItem struct {
	ItemID        string `json:"itemID"` // Primary key (UUID)
	DeclarationID string `json:"declarationID"`
	LineNumber    int    `json:"lineNumber"`

	HSCode          string          `json:"hsCode"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"` // e.g. PCE, KGM
	NetWeight       decimal.Decimal `json:"netWeight"`
	GrossWeight     decimal.Decimal `json:"grossWeight"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	LineValue       decimal.Decimal `json:"lineValue"` // quantity * unit price, header currency
	CountryOfOrigin string          `json:"countryOfOrigin"`

	// Duty/tax rates and computed amounts. Rates are fractions (0.05 = 5%).
	BMRate    decimal.Decimal `json:"bmRate"`
	PPNRate   decimal.Decimal `json:"ppnRate"`
	PPhRate   decimal.Decimal `json:"pphRate"`
	BMAmount  decimal.Decimal `json:"bmAmount"`
	PPNAmount decimal.Decimal `json:"ppnAmount"`
	PPhAmount decimal.Decimal `json:"pphAmount"`
	TotalTax  decimal.Decimal `json:"totalTax"`

	AuditFields
}

// Validate enforces the goods-line invariants: gross weight must cover net
// weight and no quantity, weight, or value may be negative.
func (i *DeclarationItem) Validate() error {
	if i.HSCode == "" {
		return fmt.Errorf("hs code is required for line %d", i.LineNumber)
	}
	if i.Quantity.IsNegative() {
		return fmt.Errorf("quantity must not be negative for line %d", i.LineNumber)
	}
	if i.NetWeight.IsNegative() || i.GrossWeight.IsNegative() {
		return fmt.Errorf("weights must not be negative for line %d", i.LineNumber)
	}
	if i.GrossWeight.LessThan(i.NetWeight) {
		return fmt.Errorf("gross weight %s is less than net weight %s for line %d",
			i.GrossWeight.String(), i.NetWeight.String(), i.LineNumber)
	}
	if i.UnitPrice.IsNegative() || i.LineValue.IsNegative() {
		return fmt.Errorf("monetary values must not be negative for line %d", i.LineNumber)
	}
	return nil
}
