package document

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/erp/muhasebe/internal/domain/document"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseRequest carries OCR text and, optionally, the scanned document itself
type ParseRequest struct {
	Text        string `json:"text" binding:"required"`
	Document    []byte `json:"document,omitempty"`
	FileName    string `json:"file_name,omitempty" binding:"max=255"`
	ContentType string `json:"content_type,omitempty" binding:"max=100"`
}

// IntakeService extracts invoice fields from OCR text and archives the raw
// document when one is supplied
type IntakeService struct {
	parser  *document.Parser
	archive document.Archive
	logger  *zap.Logger
	now     func() time.Time
}

// NewIntakeService creates a new IntakeService. archive may be nil, in which
// case supplied documents are not kept.
func NewIntakeService(parser *document.Parser, archive document.Archive, logger *zap.Logger) *IntakeService {
	return &IntakeService{
		parser:  parser,
		archive: archive,
		logger:  logger,
		now:     time.Now,
	}
}

// Parse extracts fields from the request text
func (s *IntakeService) Parse(ctx context.Context, req ParseRequest) (*document.ParsedInvoice, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, shared.NewInvalidInput("document text cannot be empty")
	}
	parsed := s.parser.Parse(req.Text)

	if len(req.Document) > 0 {
		if s.archive == nil {
			s.logger.Warn("Document archive is not configured, raw document dropped",
				zap.String("invoice_number", parsed.InvoiceNumber))
		} else {
			key, err := s.archive.Put(ctx, s.archiveKey(req.FileName), contentType(req.ContentType), req.Document)
			if err != nil {
				return nil, fmt.Errorf("archive document: %w", err)
			}
			parsed.ArchiveKey = key
		}
	}

	s.logger.Info("Document parsed",
		zap.String("invoice_number", parsed.InvoiceNumber),
		zap.Float64("confidence", parsed.Confidence),
		zap.Bool("archived", parsed.ArchiveKey != ""),
	)
	return &parsed, nil
}

// archiveKey lays documents out by month: documents/2024/11/<uuid>.pdf
func (s *IntakeService) archiveKey(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".bin"
	}
	return path.Join("documents", s.now().Format("2006/01"), uuid.New().String()+ext)
}

func contentType(ct string) string {
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
