// Package printing renders printable declaration summaries.
package printing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// DeclarationPDF renders a one-page summary of a declaration: header,
// goods lines, duty/tax totals, and the document hash when submitted.
func DeclarationPDF(decl *domain.Declaration, items []domain.DeclarationItem) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	title := "Pemberitahuan Impor Barang (PIB)"
	if decl.DocumentType == domain.DocTypePEB {
		title = "Pemberitahuan Ekspor Barang (PEB)"
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Dicetak: %s", time.Now().Format("02-Jan-2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Data Pemberitahuan", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Nomor Aju: %s", orDash(decl.NomorAju)), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("NPWP: %s", decl.TaxpayerID), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Kantor: %s", decl.OfficeCode), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Status: %s", decl.Status), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Moda: %s / %s", decl.TransportMode, decl.Incoterm), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Valuta: %s @ %s", decl.CurrencyCode, decl.ExchangeRate.String()), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Rincian Barang", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(12, 7, "No", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "HS Code", "1", 0, "C", true, 0, "")
	pdf.CellFormat(68, 7, "Uraian", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Jumlah", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Nilai", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Pungutan", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range items {
		desc := truncateDescription(item.Description)
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", item.LineNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, item.HSCode, "1", 0, "C", false, 0, "")
		pdf.CellFormat(68, 6, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%s %s", item.Quantity.String(), item.Unit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, item.LineValue.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, item.TotalTax.String(), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Rekapitulasi Pungutan", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Bea Masuk: %s", decl.TotalBM.Round(0).String()), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("PPN: %s", decl.TotalPPN.Round(0).String()), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("PPh: %s", decl.TotalPPh.Round(0).String()), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Total: %s", decl.TotalTax.String()), "RB", 1, "L", false, 0, "")

	if decl.DocumentHash != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(190, 5, fmt.Sprintf("SHA-256: %s", decl.DocumentHash), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render declaration PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// truncateDescription caps a goods description at 32 characters so it fits
// the Uraian column, cutting on a rune boundary.
func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= 32 {
		return s
	}
	return string(runes[:29]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
