// Package ceisaxml produces the canonical XML serialization of a declaration
// graph and its SHA-256 tamper-evidence hash. The serialization is
// deterministic: element order is fixed by the struct layout and items are
// ordered by line number, so re-hashing stored XML always reproduces the
// recorded hash.
package ceisaxml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

type documentXML struct {
	XMLName      xml.Name  `xml:"PemberitahuanPabean"`
	DocumentType string    `xml:"jenisDokumen"`
	NomorAju     string    `xml:"nomorAju,omitempty"`
	TaxpayerID   string    `xml:"npwp"`
	OfficeCode   string    `xml:"kodeKantor"`
	Header       headerXML `xml:"header"`
	Items        []itemXML `xml:"barang"`
}

type headerXML struct {
	CurrencyCode   string `xml:"kodeValuta"`
	ExchangeRate   string `xml:"ndpbm"`
	TotalValue     string `xml:"nilaiBarang"`
	FreightValue   string `xml:"freight"`
	InsuranceValue string `xml:"asuransi"`
	TransportMode  string `xml:"modaTransportasi"`
	Incoterm       string `xml:"kodeIncoterm"`
	TotalBM        string `xml:"totalBM"`
	TotalPPN       string `xml:"totalPPN"`
	TotalPPh       string `xml:"totalPPh"`
	TotalTax       string `xml:"totalPungutan"`
}

type itemXML struct {
	LineNumber      int    `xml:"seriBarang"`
	HSCode          string `xml:"posTarif"`
	Description     string `xml:"uraian"`
	Quantity        string `xml:"jumlahSatuan"`
	Unit            string `xml:"kodeSatuan"`
	NetWeight       string `xml:"beratBersih"`
	GrossWeight     string `xml:"beratKotor"`
	UnitPrice       string `xml:"hargaSatuan"`
	LineValue       string `xml:"nilaiBarang"`
	CountryOfOrigin string `xml:"negaraAsal"`
	BMAmount        string `xml:"bm"`
	PPNAmount       string `xml:"ppn"`
	PPhAmount       string `xml:"pph"`
	TotalTax        string `xml:"totalPungutan"`
}

// Generate serializes the declaration graph to canonical XML and returns the
// payload together with its SHA-256 hash (lowercase hex).
func Generate(decl *domain.Declaration, items []domain.DeclarationItem) (string, string, error) {
	ordered := make([]domain.DeclarationItem, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].LineNumber < ordered[j].LineNumber
	})

	doc := documentXML{
		DocumentType: string(decl.DocumentType),
		NomorAju:     decl.NomorAju,
		TaxpayerID:   decl.TaxpayerID,
		OfficeCode:   decl.OfficeCode,
		Header: headerXML{
			CurrencyCode:   decl.CurrencyCode,
			ExchangeRate:   decl.ExchangeRate.String(),
			TotalValue:     decl.TotalValue.String(),
			FreightValue:   decl.FreightValue.String(),
			InsuranceValue: decl.InsuranceValue.String(),
			TransportMode:  string(decl.TransportMode),
			Incoterm:       string(decl.Incoterm),
			TotalBM:        decl.TotalBM.String(),
			TotalPPN:       decl.TotalPPN.String(),
			TotalPPh:       decl.TotalPPh.String(),
			TotalTax:       decl.TotalTax.String(),
		},
	}

	doc.Items = make([]itemXML, len(ordered))
	for i, item := range ordered {
		doc.Items[i] = itemXML{
			LineNumber:      item.LineNumber,
			HSCode:          item.HSCode,
			Description:     item.Description,
			Quantity:        item.Quantity.String(),
			Unit:            item.Unit,
			NetWeight:       item.NetWeight.String(),
			GrossWeight:     item.GrossWeight.String(),
			UnitPrice:       item.UnitPrice.String(),
			LineValue:       item.LineValue.String(),
			CountryOfOrigin: item.CountryOfOrigin,
			BMAmount:        item.BMAmount.String(),
			PPNAmount:       item.PPNAmount.String(),
			PPhAmount:       item.PPhAmount.String(),
			TotalTax:        item.TotalTax.String(),
		}
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal declaration XML: %w", err)
	}

	payload := xmlHeader + string(body)
	return payload, Hash(payload), nil
}

// Hash returns the SHA-256 hash of an XML payload as lowercase hex.
func Hash(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the hash of a stored payload and compares it with the
// recorded hash. A mismatch is a fatal integrity violation.
func Verify(payload, recordedHash string) error {
	if Hash(payload) != recordedHash {
		return fmt.Errorf("%w: stored XML does not match recorded hash", apperrors.ErrIntegrity)
	}
	return nil
}
