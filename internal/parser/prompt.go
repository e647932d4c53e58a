package parser

import "fmt"

// FileContext returns the system-context part that precedes the document
// bytes in every generation request.
func FileContext(fileName string) string {
	return fmt.Sprintf("[SYSTEM: FILE CONTEXT] Filename: %s", fileName)
}

// metadataPrompt asks for header, entity, logistics, and financial scalars
// only. Line items are deliberately excluded to keep the response inside the
// model's output token budget.
const metadataPrompt = `You are an expert Customs Data Analyst.
EXTRACT global metadata from the Invoice.

SCOPE: Header, Entities, Logistics, Financials.
IGNORE: Line Items (return empty list).

OUTPUT JSON matching this structure (use null if missing):
{
  "invoiceNumber": "string",
  "date": "YYYY-MM-DD",
  "exporterName": "string",
  "importerName": "string",
  "currency": "USD",
  "grandTotal": 0.00,
  "incoterm": "string",
  "exporterAddress": "string",
  "exporterTaxId": "string",
  "importerAddress": "string",
  "importerTaxId": "string",
  "countryOfOrigin": "string",
  "countryOfAcquisition": "string",
  "countryOfProvenance": "string",
  "portOfLoading": "string",
  "portOfDischarge": "string",
  "totalNetWeight": 0.0,
  "totalGrossWeight": 0.0,
  "totalPackages": 0,
  "volumeType": "string",
  "paymentTerms": "string",
  "freightValue": 0.0,
  "insuranceValue": 0.0,
  "otherChargesValue": 0.0
}`

// lineItemsPrompt asks for the product table as a minified positional matrix.
// Column order is load-bearing: NormalizeRows maps it back to named fields.
const lineItemsPrompt = `EXTRACT the LINE ITEMS table.
RETURN A MINIFIED JSON ARRAY OF ARRAYS.

Columns:
0. Description (String)
1. Buyer Part Number (String/null)
2. Quantity (Number)
3. Unit (String)
4. Unit Price (Number)
5. Total Value (Number)
6. Net Weight (Number)
7. Manufacturer Part Number (String/null)
8. NCM (String/null)

Example:
[
  ["Widget A", "SKU123", 10, "PCS", 5.00, 50.00, 1.0, "MREF", "8517.13.00"]
]`
