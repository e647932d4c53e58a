// Package xlsxexport renders an extracted invoice as an Excel workbook for
// customs analysts who post-process extractions in spreadsheets.
package xlsxexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"plinvoice/internal/domain"
)

const (
	invoiceSheet   = "Invoice"
	lineItemsSheet = "Line Items"
)

// headerRows defines the field rows of the Invoice sheet, in display order.
var headerRows = []struct {
	label string
	value func(r *domain.InvoiceRecord) any
}{
	{"Invoice Number", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.InvoiceNumber) }},
	{"Date", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.Date) }},
	{"Exporter Name", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.ExporterName) }},
	{"Exporter Address", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.ExporterAddress) }},
	{"Exporter Tax ID", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.ExporterTaxID) }},
	{"Importer Name", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.ImporterName) }},
	{"Importer Address", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.ImporterAddress) }},
	{"Importer Tax ID", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.ImporterTaxID) }},
	{"Currency", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.Currency) }},
	{"Grand Total", func(r *domain.InvoiceRecord) any { return r.GrandTotal }},
	{"Incoterm", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.Incoterm) }},
	{"Country of Origin", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.CountryOfOrigin) }},
	{"Country of Acquisition", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.CountryOfAcquisition) }},
	{"Country of Provenance", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.CountryOfProvenance) }},
	{"Port of Loading", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.PortOfLoading) }},
	{"Port of Discharge", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.PortOfDischarge) }},
	{"Total Net Weight", func(r *domain.InvoiceRecord) any { return r.TotalNetWeight }},
	{"Total Gross Weight", func(r *domain.InvoiceRecord) any { return r.TotalGrossWeight }},
	{"Total Packages", func(r *domain.InvoiceRecord) any { return r.TotalPackages }},
	{"Volume Type", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.VolumeType) }},
	{"Payment Terms", func(r *domain.InvoiceRecord) any { return strOrEmpty(r.PaymentTerms) }},
	{"Freight Value", func(r *domain.InvoiceRecord) any { return r.FreightValue }},
	{"Insurance Value", func(r *domain.InvoiceRecord) any { return r.InsuranceValue }},
	{"Other Charges", func(r *domain.InvoiceRecord) any { return r.OtherChargesValue }},
}

// lineItemColumns is the Line Items sheet header row.
var lineItemColumns = []string{
	"Description",
	"Part Number",
	"Quantity",
	"Unit",
	"Unit Price",
	"Total",
	"Net Weight",
	"Unit Net Weight",
	"Weight Unit",
	"Manufacturer Ref",
	"NCM",
}

// Write renders the invoice record as a two-sheet workbook and writes it to w.
func Write(w io.Writer, record *domain.InvoiceRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return fmt.Errorf("creating line items sheet: %w", err)
	}

	if err := writeInvoiceSheet(f, record); err != nil {
		return err
	}
	if err := writeLineItemsSheet(f, record.LineItems); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeInvoiceSheet(f *excelize.File, record *domain.InvoiceRecord) error {
	for i, row := range headerRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("invoice sheet row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(invoiceSheet, cell, &[]any{row.label, row.value(record)}); err != nil {
			return fmt.Errorf("invoice sheet row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeLineItemsSheet(f *excelize.File, items []domain.LineItem) error {
	header := make([]any, len(lineItemColumns))
	for i, c := range lineItemColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(lineItemsSheet, "A1", &header); err != nil {
		return fmt.Errorf("line items header: %w", err)
	}

	for i := range items {
		it := &items[i]
		row := []any{
			it.Description,
			strOrEmpty(it.PartNumber),
			it.Quantity,
			it.UnitMeasure,
			it.UnitPrice,
			it.Total,
			it.NetWeight,
			it.UnitNetWeight,
			it.WeightUnit,
			strOrEmpty(it.ManufacturerRef),
			strOrEmpty(it.NCM),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("line items row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(lineItemsSheet, cell, &row); err != nil {
			return fmt.Errorf("line items row %d: %w", i+1, err)
		}
	}
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
