package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType distinguishes export (PEB) from import (PIB) declarations.
type DocumentType string

const (
	DocTypePEB DocumentType = "PEB" // Pemberitahuan Ekspor Barang
	DocTypePIB DocumentType = "PIB" // Pemberitahuan Impor Barang
)

// TransportMode is the mode of transport declared on the document.
type TransportMode string

const (
	TransportSea   TransportMode = "SEA"
	TransportAir   TransportMode = "AIR"
	TransportLand  TransportMode = "LAND"
	TransportRail  TransportMode = "RAIL"
	TransportOther TransportMode = "OTHER"
)

// Incoterm is the standardized trade term declared on the document.
type Incoterm string

const (
	IncotermFOB Incoterm = "FOB"
	IncotermCFR Incoterm = "CFR"
	IncotermCIF Incoterm = "CIF"
	IncotermFAS Incoterm = "FAS"
	IncotermEXW Incoterm = "EXW"
	IncotermFCA Incoterm = "FCA"
	IncotermCPT Incoterm = "CPT"
	IncotermCIP Incoterm = "CIP"
	IncotermDAP Incoterm = "DAP"
	IncotermDDP Incoterm = "DDP"
)

// DeclarationStatus is the lifecycle state of a declaration.
type DeclarationStatus string

const (
	StatusDraft           DeclarationStatus = "DRAFT"
	StatusSubmitted       DeclarationStatus = "SUBMITTED"
	StatusUnderReview     DeclarationStatus = "UNDER_REVIEW"
	StatusApproved        DeclarationStatus = "APPROVED"
	StatusRejected        DeclarationStatus = "REJECTED"
	StatusLocked          DeclarationStatus = "LOCKED"
	StatusSentToGateway   DeclarationStatus = "SENT_TO_GATEWAY"
	StatusGatewayAccepted DeclarationStatus = "GATEWAY_ACCEPTED"
	StatusGatewayRejected DeclarationStatus = "GATEWAY_REJECTED"
)

// allowedTransitions is the closed transition table for the declaration
// lifecycle. A status missing from the map has no outgoing transitions.
var allowedTransitions = map[DeclarationStatus][]DeclarationStatus{
	StatusDraft:           {StatusSubmitted, StatusLocked},
	StatusSubmitted:       {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview:     {StatusApproved, StatusRejected},
	StatusApproved:        {StatusSentToGateway, StatusDraft},
	StatusRejected:        {StatusSubmitted, StatusLocked},
	StatusLocked:          {StatusDraft},
	StatusSentToGateway:   {StatusGatewayAccepted, StatusGatewayRejected},
	StatusGatewayAccepted: {StatusDraft},
	StatusGatewayRejected: {StatusSubmitted, StatusDraft},
}

// lockedStatuses is the set of statuses in which field edits are rejected
// with an immutability error. Status transitions remain possible per the
// transition table.
var lockedStatuses = map[DeclarationStatus]bool{
	StatusSubmitted:       true,
	StatusApproved:        true,
	StatusLocked:          true,
	StatusSentToGateway:   true,
	StatusGatewayAccepted: true,
}

// CanTransition reports whether moving from to next is a legal lifecycle step.
func CanTransition(from, next DeclarationStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == next {
			return true
		}
	}
	return false
}

// IsLockedStatus reports whether field edits are forbidden in the given status.
func IsLockedStatus(s DeclarationStatus) bool {
	return lockedStatuses[s]
}

// SupportingDocumentCategory classifies a supporting document attached to a declaration.
type SupportingDocumentCategory string

const (
	DocCategoryInvoice      SupportingDocumentCategory = "INVOICE"
	DocCategoryPackingList  SupportingDocumentCategory = "PACKING_LIST"
	DocCategoryAirwayBill   SupportingDocumentCategory = "AIRWAY_BILL"
	DocCategoryBillOfLading SupportingDocumentCategory = "BILL_OF_LADING"
	DocCategoryOther        SupportingDocumentCategory = "OTHER"
)

// SupportingDocument is a reference to an ancillary document (invoice,
// packing list, transport document) backing a declaration.
type SupportingDocument struct {
	Category     SupportingDocumentCategory `json:"category"`
	DocumentNo   string                     `json:"documentNo"`
	DocumentDate time.Time                  `json:"documentDate"`
}

// RequiredDocumentCategories returns the supporting-document categories a
// declaration must carry before it may be submitted, given its transport mode.
func RequiredDocumentCategories(mode TransportMode) []SupportingDocumentCategory {
	required := []SupportingDocumentCategory{DocCategoryInvoice, DocCategoryPackingList}
	switch mode {
	case TransportAir:
		required = append(required, DocCategoryAirwayBill)
	case TransportSea:
		required = append(required, DocCategoryBillOfLading)
	}
	return required
}

// Declaration is one customs submission (PEB or PIB) with its financial
// header and classification. Items are loaded separately unless noted.
type Declaration struct {
	DeclarationID  string       `json:"declarationID"` // Primary key (UUID)
	DocumentType   DocumentType `json:"documentType"`
	NomorAju       string       `json:"nomorAju"`       // Gateway submission number, empty until accepted
	RegistrationNo string       `json:"registrationNo"` // Gateway registration number, empty until registered
	TaxpayerID     string       `json:"taxpayerID"`     // NPWP of the declaring company

	// Financial header. TotalValue is FOB for PEB, CIF for PIB.
	CurrencyCode   string          `json:"currencyCode"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"` // to IDR
	TotalValue     decimal.Decimal `json:"totalValue"`
	FreightValue   decimal.Decimal `json:"freightValue"`
	InsuranceValue decimal.Decimal `json:"insuranceValue"`
	TotalBM        decimal.Decimal `json:"totalBM"`
	TotalPPN       decimal.Decimal `json:"totalPPN"`
	TotalPPh       decimal.Decimal `json:"totalPPh"`
	TotalTax       decimal.Decimal `json:"totalTax"`

	// Classification.
	TransportMode TransportMode `json:"transportMode"`
	Incoterm      Incoterm      `json:"incoterm"`
	OfficeCode    string        `json:"officeCode"` // customs office (kantor pabean)

	// APINumber is the importer license number. Non-empty means the lower
	// PPh withholding tier applies.
	APINumber string `json:"apiNumber"`

	Status DeclarationStatus `json:"status"`

	// Integrity fields, empty until submission.
	GeneratedXML string     `json:"-"`
	DocumentHash string     `json:"documentHash"`
	LockedAt     *time.Time `json:"lockedAt"`
	LockedBy     string     `json:"lockedBy"`

	SupportingDocuments []SupportingDocument `json:"supportingDocuments"`
	Items               []DeclarationItem    `json:"items,omitempty"`

	AuditFields
}

// Editable reports whether field edits are currently allowed.
func (d *Declaration) Editable() bool {
	return !IsLockedStatus(d.Status)
}

// HoldsAPI reports whether the importer holds a valid import license,
// selecting the lower PPh withholding tier.
func (d *Declaration) HoldsAPI() bool {
	return d.APINumber != ""
}

// HasDocumentCategory reports whether a supporting document of the given
// category is attached.
func (d *Declaration) HasDocumentCategory(cat SupportingDocumentCategory) bool {
	for _, doc := range d.SupportingDocuments {
		if doc.Category == cat {
			return true
		}
	}
	return false
}

// MissingDocumentCategories returns the required categories not yet attached.
func (d *Declaration) MissingDocumentCategories() []SupportingDocumentCategory {
	var missing []SupportingDocumentCategory
	for _, cat := range RequiredDocumentCategories(d.TransportMode) {
		if !d.HasDocumentCategory(cat) {
			missing = append(missing, cat)
		}
	}
	return missing
}
