package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupportingDocument is one attached document reference, stored as part of
// the declaration row's JSONB column.
type SupportingDocument struct {
	Category     string    `json:"category"`
	DocumentNo   string    `json:"documentNo"`
	DocumentDate time.Time `json:"documentDate"`
}

// Declaration is the database representation of a customs declaration header.
type Declaration struct {
	DeclarationID  string `json:"declarationID"` // Primary key (UUID)
	DocumentType   string `json:"documentType"`
	NomorAju       string `json:"nomorAju"`
	RegistrationNo string `json:"registrationNo"`
	TaxpayerID     string `json:"taxpayerID"`

	CurrencyCode   string          `json:"currencyCode"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	FreightValue   decimal.Decimal `json:"freightValue"`
	InsuranceValue decimal.Decimal `json:"insuranceValue"`
	TotalBM        decimal.Decimal `json:"totalBM"`
	TotalPPN       decimal.Decimal `json:"totalPPN"`
	TotalPPh       decimal.Decimal `json:"totalPPh"`
	TotalTax       decimal.Decimal `json:"totalTax"`

	TransportMode string `json:"transportMode"`
	Incoterm      string `json:"incoterm"`
	OfficeCode    string `json:"officeCode"`
	APINumber     string `json:"apiNumber"`

	Status string `json:"status"`

	GeneratedXML string     `json:"-"`
	DocumentHash string     `json:"documentHash"`
	LockedAt     *time.Time `json:"lockedAt"`
	LockedBy     string     `json:"lockedBy"`

	SupportingDocuments []SupportingDocument `json:"supportingDocuments"`

	AuditFields
}

// DeclarationItem is the database representation of one goods line.
type DeclarationItem struct {
	ItemID          string          `json:"itemID"` // Primary key (UUID)
	DeclarationID   string          `json:"declarationID"`
	LineNumber      int             `json:"lineNumber"`
	HSCode          string          `json:"hsCode"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	NetWeight       decimal.Decimal `json:"netWeight"`
	GrossWeight     decimal.Decimal `json:"grossWeight"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	LineValue       decimal.Decimal `json:"lineValue"`
	CountryOfOrigin string          `json:"countryOfOrigin"`
	BMRate          decimal.Decimal `json:"bmRate"`
	PPNRate         decimal.Decimal `json:"ppnRate"`
	PPhRate         decimal.Decimal `json:"pphRate"`
	BMAmount        decimal.Decimal `json:"bmAmount"`
	PPNAmount       decimal.Decimal `json:"ppnAmount"`
	PPhAmount       decimal.Decimal `json:"pphAmount"`
	TotalTax        decimal.Decimal `json:"totalTax"`
	AuditFields
}
