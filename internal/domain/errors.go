package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrMissingAPIKey       = errors.New("api key is required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrExtractionFailed    = errors.New("invoice extraction failed")
	ErrNoInvoiceData       = errors.New("extraction has no completed invoice")
)
