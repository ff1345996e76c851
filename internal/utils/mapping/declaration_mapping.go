package mapping

import (
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/models"
)

// ToModelDeclaration converts a domain Declaration to a model Declaration.
func ToModelDeclaration(d domain.Declaration) models.Declaration {
	docs := make([]models.SupportingDocument, len(d.SupportingDocuments))
	for i, doc := range d.SupportingDocuments {
		docs[i] = models.SupportingDocument{
			Category:     string(doc.Category),
			DocumentNo:   doc.DocumentNo,
			DocumentDate: doc.DocumentDate,
		}
	}
	return models.Declaration{
		DeclarationID:       d.DeclarationID,
		DocumentType:        string(d.DocumentType),
		NomorAju:            d.NomorAju,
		RegistrationNo:      d.RegistrationNo,
		TaxpayerID:          d.TaxpayerID,
		CurrencyCode:        d.CurrencyCode,
		ExchangeRate:        d.ExchangeRate,
		TotalValue:          d.TotalValue,
		FreightValue:        d.FreightValue,
		InsuranceValue:      d.InsuranceValue,
		TotalBM:             d.TotalBM,
		TotalPPN:            d.TotalPPN,
		TotalPPh:            d.TotalPPh,
		TotalTax:            d.TotalTax,
		TransportMode:       string(d.TransportMode),
		Incoterm:            string(d.Incoterm),
		OfficeCode:          d.OfficeCode,
		APINumber:           d.APINumber,
		Status:              string(d.Status),
		GeneratedXML:        d.GeneratedXML,
		DocumentHash:        d.DocumentHash,
		LockedAt:            d.LockedAt,
		LockedBy:            d.LockedBy,
		SupportingDocuments: docs,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainDeclaration converts a model Declaration to a domain Declaration.
func ToDomainDeclaration(m models.Declaration) domain.Declaration {
	docs := make([]domain.SupportingDocument, len(m.SupportingDocuments))
	for i, doc := range m.SupportingDocuments {
		docs[i] = domain.SupportingDocument{
			Category:     domain.SupportingDocumentCategory(doc.Category),
			DocumentNo:   doc.DocumentNo,
			DocumentDate: doc.DocumentDate,
		}
	}
	return domain.Declaration{
		DeclarationID:       m.DeclarationID,
		DocumentType:        domain.DocumentType(m.DocumentType),
		NomorAju:            m.NomorAju,
		RegistrationNo:      m.RegistrationNo,
		TaxpayerID:          m.TaxpayerID,
		CurrencyCode:        m.CurrencyCode,
		ExchangeRate:        m.ExchangeRate,
		TotalValue:          m.TotalValue,
		FreightValue:        m.FreightValue,
		InsuranceValue:      m.InsuranceValue,
		TotalBM:             m.TotalBM,
		TotalPPN:            m.TotalPPN,
		TotalPPh:            m.TotalPPh,
		TotalTax:            m.TotalTax,
		TransportMode:       domain.TransportMode(m.TransportMode),
		Incoterm:            domain.Incoterm(m.Incoterm),
		OfficeCode:          m.OfficeCode,
		APINumber:           m.APINumber,
		Status:              domain.DeclarationStatus(m.Status),
		GeneratedXML:        m.GeneratedXML,
		DocumentHash:        m.DocumentHash,
		LockedAt:            m.LockedAt,
		LockedBy:            m.LockedBy,
		SupportingDocuments: docs,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelItem converts a domain DeclarationItem to a model DeclarationItem.
func ToModelItem(d domain.DeclarationItem) models.DeclarationItem {
	return models.DeclarationItem{
		ItemID:          d.ItemID,
		DeclarationID:   d.DeclarationID,
		LineNumber:      d.LineNumber,
		HSCode:          d.HSCode,
		Description:     d.Description,
		Quantity:        d.Quantity,
		Unit:            d.Unit,
		NetWeight:       d.NetWeight,
		GrossWeight:     d.GrossWeight,
		UnitPrice:       d.UnitPrice,
		LineValue:       d.LineValue,
		CountryOfOrigin: d.CountryOfOrigin,
		BMRate:          d.BMRate,
		PPNRate:         d.PPNRate,
		PPhRate:         d.PPhRate,
		BMAmount:        d.BMAmount,
		PPNAmount:       d.PPNAmount,
		PPhAmount:       d.PPhAmount,
		TotalTax:        d.TotalTax,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainItem converts a model DeclarationItem to a domain DeclarationItem.
func ToDomainItem(m models.DeclarationItem) domain.DeclarationItem {
	return domain.DeclarationItem{
		ItemID:          m.ItemID,
		DeclarationID:   m.DeclarationID,
		LineNumber:      m.LineNumber,
		HSCode:          m.HSCode,
		Description:     m.Description,
		Quantity:        m.Quantity,
		Unit:            m.Unit,
		NetWeight:       m.NetWeight,
		GrossWeight:     m.GrossWeight,
		UnitPrice:       m.UnitPrice,
		LineValue:       m.LineValue,
		CountryOfOrigin: m.CountryOfOrigin,
		BMRate:          m.BMRate,
		PPNRate:         m.PPNRate,
		PPhRate:         m.PPhRate,
		BMAmount:        m.BMAmount,
		PPNAmount:       m.PPNAmount,
		PPhAmount:       m.PPhAmount,
		TotalTax:        m.TotalTax,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainItemSlice converts a slice of model items to domain items.
func ToDomainItemSlice(ms []models.DeclarationItem) []domain.DeclarationItem {
	ds := make([]domain.DeclarationItem, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainItem(m)
	}
	return ds
}
