package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LineItem is one normalized product line of a commercial invoice.
// After normalization every field is present: absent strings stay nil,
// absent numbers are zero.
type LineItem struct {
	Description     string  `json:"description"`
	PartNumber      *string `json:"partNumber"`
	Quantity        float64 `json:"quantity"`
	UnitMeasure     string  `json:"unitMeasure"`
	UnitPrice       float64 `json:"unitPrice"`
	Total           float64 `json:"total"`
	NetWeight       float64 `json:"netWeight"`
	ManufacturerRef *string `json:"manufacturerRef"`
	NCM             *string `json:"ncm"`

	// Not extracted by the model; filled during normalization.
	ProductCode             *string `json:"productCode"`
	TaxClassificationDetail *string `json:"taxClassificationDetail"`
	UnitNetWeight           float64 `json:"unitNetWeight"`
	WeightUnit              string  `json:"weightUnit"`
}

// InvoiceRecord is the merged extraction result for one document.
// Numeric fields are always concrete numbers, never null; LineItems is
// always a slice, possibly empty.
type InvoiceRecord struct {
	InvoiceNumber *string `json:"invoiceNumber"`
	Date          *string `json:"date"`
	ExporterName  *string `json:"exporterName"`
	ImporterName  *string `json:"importerName"`
	Currency      *string `json:"currency"`
	GrandTotal    float64 `json:"grandTotal"`
	Incoterm      *string `json:"incoterm"`

	ExporterAddress      *string `json:"exporterAddress"`
	ExporterTaxID        *string `json:"exporterTaxId"`
	ImporterAddress      *string `json:"importerAddress"`
	ImporterTaxID        *string `json:"importerTaxId"`
	CountryOfOrigin      *string `json:"countryOfOrigin"`
	CountryOfAcquisition *string `json:"countryOfAcquisition"`
	CountryOfProvenance  *string `json:"countryOfProvenance"`
	PortOfLoading        *string `json:"portOfLoading"`
	PortOfDischarge      *string `json:"portOfDischarge"`
	TotalNetWeight       float64 `json:"totalNetWeight"`
	TotalGrossWeight     float64 `json:"totalGrossWeight"`
	TotalPackages        int     `json:"totalPackages"`
	VolumeType           *string `json:"volumeType"`
	PaymentTerms         *string `json:"paymentTerms"`
	FreightValue         float64 `json:"freightValue"`
	InsuranceValue       float64 `json:"insuranceValue"`
	OtherChargesValue    float64 `json:"otherChargesValue"`

	LineItems []LineItem `json:"lineItems"`
}

// Extraction stores one extraction run: the uploaded source file, its
// archived location, and the resulting invoice record (or failure).
type Extraction struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	FileName    string           `db:"file_name" json:"file_name"`
	ContentType string           `db:"content_type" json:"content_type"`
	FileSize    int64            `db:"file_size" json:"file_size"`
	S3Bucket    string           `db:"s3_bucket" json:"s3_bucket"`
	S3Key       string           `db:"s3_key" json:"s3_key"`
	Status      ExtractionStatus `db:"status" json:"status"`
	Invoice     json.RawMessage  `db:"invoice" json:"invoice,omitempty"`
	Error       string           `db:"error" json:"error,omitempty"`
	ModelUsed   string           `db:"model_used" json:"model_used"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}
