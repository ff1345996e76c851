package dto

import (
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateDeclarationRequest creates a new DRAFT declaration.
type CreateDeclarationRequest struct {
	DocumentType   domain.DocumentType  `json:"documentType" binding:"required,oneof=PEB PIB"`
	TaxpayerID     string               `json:"taxpayerID" binding:"required"`
	CurrencyCode   string               `json:"currencyCode" binding:"required,len=3"`
	ExchangeRate   decimal.Decimal      `json:"exchangeRate" binding:"required"`
	FreightValue   decimal.Decimal      `json:"freightValue"`
	InsuranceValue decimal.Decimal      `json:"insuranceValue"`
	TransportMode  domain.TransportMode `json:"transportMode" binding:"required,oneof=SEA AIR LAND RAIL OTHER"`
	Incoterm       domain.Incoterm      `json:"incoterm" binding:"required,incoterm"`
	OfficeCode     string               `json:"officeCode" binding:"required"`
	APINumber      string               `json:"apiNumber"`
}

// UpdateDeclarationRequest edits header fields on an editable declaration.
// Nil means "leave unchanged".
type UpdateDeclarationRequest struct {
	CurrencyCode   *string               `json:"currencyCode" binding:"omitempty,len=3"`
	ExchangeRate   *decimal.Decimal      `json:"exchangeRate"`
	FreightValue   *decimal.Decimal      `json:"freightValue"`
	InsuranceValue *decimal.Decimal      `json:"insuranceValue"`
	TransportMode  *domain.TransportMode `json:"transportMode" binding:"omitempty,oneof=SEA AIR LAND RAIL OTHER"`
	Incoterm       *domain.Incoterm      `json:"incoterm" binding:"omitempty,incoterm"`
	OfficeCode     *string               `json:"officeCode"`
	APINumber      *string               `json:"apiNumber"`
}

// ItemRequest creates or replaces one goods line.
type ItemRequest struct {
	HSCode          string          `json:"hsCode" binding:"required"`
	Description     string          `json:"description" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Unit            string          `json:"unit" binding:"required"`
	NetWeight       decimal.Decimal `json:"netWeight"`
	GrossWeight     decimal.Decimal `json:"grossWeight"`
	UnitPrice       decimal.Decimal `json:"unitPrice" binding:"required"`
	CountryOfOrigin string          `json:"countryOfOrigin" binding:"required,len=2"`
	BMRate          decimal.Decimal `json:"bmRate"`
	PPNRate         decimal.Decimal `json:"ppnRate"`
}

// AttachDocumentRequest attaches one supporting document.
type AttachDocumentRequest struct {
	Category     domain.SupportingDocumentCategory `json:"category" binding:"required,oneof=INVOICE PACKING_LIST AIRWAY_BILL BILL_OF_LADING OTHER"`
	DocumentNo   string                            `json:"documentNo" binding:"required"`
	DocumentDate time.Time                         `json:"documentDate" binding:"required"`
}

// RejectRequest carries the supervisor's rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListDeclarationsParams narrows and paginates a declaration listing.
type ListDeclarationsParams struct {
	DocumentType *domain.DocumentType
	Status       *domain.DeclarationStatus
	Limit        int
	NextToken    *string
}

// DeclarationResponse is the API view of a declaration header.
type DeclarationResponse struct {
	DeclarationID  string            `json:"declarationID"`
	DocumentType   string            `json:"documentType"`
	NomorAju       string            `json:"nomorAju,omitempty"`
	RegistrationNo string            `json:"registrationNo,omitempty"`
	TaxpayerID     string            `json:"taxpayerID"`
	CurrencyCode   string            `json:"currencyCode"`
	ExchangeRate   decimal.Decimal   `json:"exchangeRate"`
	TotalValue     decimal.Decimal   `json:"totalValue"`
	FreightValue   decimal.Decimal   `json:"freightValue"`
	InsuranceValue decimal.Decimal   `json:"insuranceValue"`
	TotalBM        decimal.Decimal   `json:"totalBM"`
	TotalPPN       decimal.Decimal   `json:"totalPPN"`
	TotalPPh       decimal.Decimal   `json:"totalPPh"`
	TotalTax       decimal.Decimal   `json:"totalTax"`
	TransportMode  string            `json:"transportMode"`
	Incoterm       string            `json:"incoterm"`
	OfficeCode     string            `json:"officeCode"`
	Status         string            `json:"status"`
	DocumentHash   string            `json:"documentHash,omitempty"`
	LockedAt       *time.Time        `json:"lockedAt,omitempty"`
	LockedBy       string            `json:"lockedBy,omitempty"`
	Items          []ItemResponse    `json:"items,omitempty"`
	Documents      []DocumentSummary `json:"supportingDocuments,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	CreatedBy      string            `json:"createdBy"`
}

// ItemResponse is the API view of one goods line.
type ItemResponse struct {
	ItemID          string          `json:"itemID"`
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
	BMAmount        decimal.Decimal `json:"bmAmount"`
	PPNAmount       decimal.Decimal `json:"ppnAmount"`
	PPhAmount       decimal.Decimal `json:"pphAmount"`
	TotalTax        decimal.Decimal `json:"totalTax"`
}

// DocumentSummary is the API view of a supporting document.
type DocumentSummary struct {
	Category     string    `json:"category"`
	DocumentNo   string    `json:"documentNo"`
	DocumentDate time.Time `json:"documentDate"`
}

// ListDeclarationsResponse is a paginated declaration listing.
type ListDeclarationsResponse struct {
	Declarations []DeclarationResponse `json:"declarations"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// AllowedIncotermsResponse lists the trade terms legal for a transport mode.
type AllowedIncotermsResponse struct {
	TransportMode string   `json:"transportMode"`
	Incoterms     []string `json:"incoterms"`
}

// ToItemResponse converts a domain item to its API view.
func ToItemResponse(item *domain.DeclarationItem) ItemResponse {
	return ItemResponse{
		ItemID:          item.ItemID,
		LineNumber:      item.LineNumber,
		HSCode:          item.HSCode,
		Description:     item.Description,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		NetWeight:       item.NetWeight,
		GrossWeight:     item.GrossWeight,
		UnitPrice:       item.UnitPrice,
		LineValue:       item.LineValue,
		CountryOfOrigin: item.CountryOfOrigin,
		BMAmount:        item.BMAmount,
		PPNAmount:       item.PPNAmount,
		PPhAmount:       item.PPhAmount,
		TotalTax:        item.TotalTax,
	}
}

// ToDeclarationResponse converts a domain declaration to its API view.
func ToDeclarationResponse(decl *domain.Declaration) DeclarationResponse {
	resp := DeclarationResponse{
		DeclarationID:  decl.DeclarationID,
		DocumentType:   string(decl.DocumentType),
		NomorAju:       decl.NomorAju,
		RegistrationNo: decl.RegistrationNo,
		TaxpayerID:     decl.TaxpayerID,
		CurrencyCode:   decl.CurrencyCode,
		ExchangeRate:   decl.ExchangeRate,
		TotalValue:     decl.TotalValue,
		FreightValue:   decl.FreightValue,
		InsuranceValue: decl.InsuranceValue,
		TotalBM:        decl.TotalBM,
		TotalPPN:       decl.TotalPPN,
		TotalPPh:       decl.TotalPPh,
		TotalTax:       decl.TotalTax,
		TransportMode:  string(decl.TransportMode),
		Incoterm:       string(decl.Incoterm),
		OfficeCode:     decl.OfficeCode,
		Status:         string(decl.Status),
		DocumentHash:   decl.DocumentHash,
		LockedAt:       decl.LockedAt,
		LockedBy:       decl.LockedBy,
		CreatedAt:      decl.CreatedAt,
		CreatedBy:      decl.CreatedBy,
	}
	for i := range decl.Items {
		resp.Items = append(resp.Items, ToItemResponse(&decl.Items[i]))
	}
	for _, doc := range decl.SupportingDocuments {
		resp.Documents = append(resp.Documents, DocumentSummary{
			Category:     string(doc.Category),
			DocumentNo:   doc.DocumentNo,
			DocumentDate: doc.DocumentDate,
		})
	}
	return resp
}
