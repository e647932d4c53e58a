package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/google/uuid"

	"plinvoice/internal/config"
	"plinvoice/internal/domain"
	"plinvoice/internal/parser"
	"plinvoice/internal/port"
	"plinvoice/internal/xlsxexport"
)

// ExtractionRequest carries one uploaded document plus the caller's upstream
// API key.
type ExtractionRequest struct {
	FileName    string
	ContentType string
	Content     []byte
	APIKey      string
}

// ExtractionService coordinates document archival, the extraction pipeline,
// and persistence of results.
type ExtractionService interface {
	Extract(ctx context.Context, req ExtractionRequest) (*domain.Extraction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error)
	List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SourceFileURL(ctx context.Context, id uuid.UUID) (string, error)
	ExportXLSX(ctx context.Context, id uuid.UUID, w io.Writer) (string, error)
}

type extractionService struct {
	repo      port.ExtractionRepository
	storage   port.ObjectStorage
	extractor *parser.Extractor
	model     string
	s3cfg     *config.S3Config
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(
	repo port.ExtractionRepository,
	storage port.ObjectStorage,
	extractor *parser.Extractor,
	model string,
	s3cfg *config.S3Config,
) ExtractionService {
	return &extractionService{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		model:     model,
		s3cfg:     s3cfg,
	}
}

func (s *extractionService) Extract(ctx context.Context, req ExtractionRequest) (*domain.Extraction, error) {
	if req.APIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	if _, ok := domain.AllowedContentTypes[req.ContentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if int64(len(req.Content)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	id := uuid.New()
	fileName := filepath.Base(req.FileName)
	if fileName == "." || fileName == "/" || fileName == "" {
		fileName = "uploaded_file"
	}
	key := fmt.Sprintf("extractions/%s/%s", id, fileName)

	// The source document is archived before any upstream call so a failed
	// extraction can still be replayed against the original bytes.
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(req.Content),
		ContentType: req.ContentType,
		Size:        int64(len(req.Content)),
	})
	if err != nil {
		log.Printf("service.ExtractionService: upload failed for %s: %v", fileName, err)
		return nil, domain.ErrUploadFailed
	}

	extraction := &domain.Extraction{
		ID:          id,
		FileName:    fileName,
		ContentType: req.ContentType,
		FileSize:    int64(len(req.Content)),
		S3Bucket:    s.s3cfg.Bucket,
		S3Key:       key,
		Status:      domain.ExtractionStatusProcessing,
		ModelUsed:   s.model,
	}
	if err := s.repo.Create(ctx, extraction); err != nil {
		return nil, fmt.Errorf("creating extraction record: %w", err)
	}

	record, err := s.extractor.Extract(ctx, parser.ExtractInput{
		FileBytes:   req.Content,
		FileName:    fileName,
		ContentType: req.ContentType,
		APIKey:      req.APIKey,
	})
	if err != nil {
		extraction.Status = domain.ExtractionStatusFailed
		extraction.Error = err.Error()
		if uerr := s.repo.Update(ctx, extraction); uerr != nil {
			log.Printf("service.ExtractionService: recording failure for %s: %v", id, uerr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	invoiceJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding invoice record: %w", err)
	}

	extraction.Status = domain.ExtractionStatusCompleted
	extraction.Invoice = invoiceJSON
	if err := s.repo.Update(ctx, extraction); err != nil {
		return nil, fmt.Errorf("storing extraction result: %w", err)
	}
	return extraction, nil
}

func (s *extractionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *extractionService) List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *extractionService) Delete(ctx context.Context, id uuid.UUID) error {
	extraction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, extraction.S3Bucket, extraction.S3Key); err != nil {
		// The DB row still goes away even if the object removal fails.
		log.Printf("service.ExtractionService: deleting object %s: %v", extraction.S3Key, err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *extractionService) SourceFileURL(ctx context.Context, id uuid.UUID) (string, error) {
	extraction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, extraction.S3Bucket, extraction.S3Key, s.s3cfg.PresignExpiry)
}

func (s *extractionService) ExportXLSX(ctx context.Context, id uuid.UUID, w io.Writer) (string, error) {
	extraction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if extraction.Status != domain.ExtractionStatusCompleted || len(extraction.Invoice) == 0 {
		return "", domain.ErrNoInvoiceData
	}

	var record domain.InvoiceRecord
	if err := json.Unmarshal(extraction.Invoice, &record); err != nil {
		return "", fmt.Errorf("decoding stored invoice: %w", err)
	}
	if err := xlsxexport.Write(w, &record); err != nil {
		return "", fmt.Errorf("exporting invoice: %w", err)
	}
	return fmt.Sprintf("invoice_%s.xlsx", extraction.ID), nil
}
