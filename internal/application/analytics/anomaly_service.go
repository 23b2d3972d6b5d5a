package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MinTrainingSamples is the smallest invoice set the outlier model is fitted on
const MinTrainingSamples = 10

// AnomalyService runs the rule, model and duplicate checks and manages the
// resulting findings
type AnomalyService struct {
	ledgerRepo     accounting.LedgerRepository
	invoiceRepo    accounting.InvoiceRepository
	findingRepo    analytics.FindingRepository
	detector       analytics.RuleDetector
	scorer         analytics.OutlierScorer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewAnomalyService creates a new AnomalyService. scorer may be nil, in which
// case model scans report ESTIMATOR_UNAVAILABLE.
func NewAnomalyService(
	ledgerRepo accounting.LedgerRepository,
	invoiceRepo accounting.InvoiceRepository,
	findingRepo analytics.FindingRepository,
	detector analytics.RuleDetector,
	scorer analytics.OutlierScorer,
	logger *zap.Logger,
) *AnomalyService {
	return &AnomalyService{
		ledgerRepo:  ledgerRepo,
		invoiceRepo: invoiceRepo,
		findingRepo: findingRepo,
		detector:    detector,
		scorer:      scorer,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *AnomalyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AnomalyService) publish(ctx context.Context, findings ...*analytics.AnomalyFinding) {
	var events []shared.DomainEvent
	for _, f := range findings {
		events = append(events, f.GetDomainEvents()...)
		f.ClearDomainEvents()
	}
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish anomaly events", zap.Error(err))
	}
}

// RuleScan flags ledger entries above the suspicious threshold. An entry
// with an unresolved finding of the same kind is not flagged again.
func (s *AnomalyService) RuleScan(ctx context.Context, req ScanRequest) (*RuleScanResponse, error) {
	entries, err := s.loadEntries(ctx, req)
	if err != nil {
		return nil, err
	}
	records := make([]analytics.TransactionRecord, len(entries))
	for i := range entries {
		records[i] = analytics.TransactionRecord{ID: entries[i].ID, Debit: entries[i].Debit, Credit: entries[i].Credit}
	}
	hits := s.detector.Scan(records)

	at := s.now()
	created := make([]*analytics.AnomalyFinding, 0, len(hits))
	for _, hit := range hits {
		exists, err := s.findingRepo.ExistsOpenForEntity(ctx, analytics.EntityTypeTransaction, hit.TransactionID, analytics.AnomalyTypeSuspiciousAmount)
		if err != nil {
			return nil, fmt.Errorf("check existing finding: %w", err)
		}
		if exists {
			continue
		}
		id := hit.TransactionID
		f, err := analytics.NewAnomalyFinding(analytics.AnomalyTypeSuspiciousAmount, hit.Severity, hit.Score,
			analytics.EntityTypeTransaction, &id, hit.Description, nil, at)
		if err != nil {
			return nil, err
		}
		created = append(created, f)
	}
	if len(created) > 0 {
		if err := s.findingRepo.SaveBatch(ctx, created); err != nil {
			return nil, fmt.Errorf("save findings: %w", err)
		}
	}

	s.logger.Info("Rule anomaly scan finished",
		zap.Int("scanned", len(records)),
		zap.Int("flagged", len(hits)),
		zap.Int("created", len(created)),
	)
	s.publish(ctx, created...)

	resp := &RuleScanResponse{
		Scanned:  len(records),
		Flagged:  len(hits),
		Created:  len(created),
		Findings: make([]FindingResponse, len(created)),
	}
	for i, f := range created {
		resp.Findings[i] = ToFindingResponse(f)
	}
	return resp, nil
}

// TrainModel fits the outlier scorer on invoice features
func (s *AnomalyService) TrainModel(ctx context.Context, req ScanRequest) (*TrainResponse, error) {
	if s.scorer == nil {
		return nil, shared.NewEstimatorUnavailable("no outlier model is configured")
	}
	invoices, err := s.loadInvoices(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(invoices) < MinTrainingSamples {
		return nil, shared.NewInvalidInput("at least %d invoices are needed to train, got %d", MinTrainingSamples, len(invoices))
	}
	if err := s.scorer.Fit(analytics.BuildFeatures(toDocumentRecords(invoices))); err != nil {
		return nil, fmt.Errorf("fit outlier model: %w", err)
	}
	s.logger.Info("Outlier model trained", zap.Int("samples", len(invoices)))
	return &TrainResponse{Model: ModelFitted, TrainingSamples: len(invoices), TrainedAt: s.now()}, nil
}

// ModelScan scores invoices with the trained outlier model, stores the score
// on each invoice and records a finding for every outlier
func (s *AnomalyService) ModelScan(ctx context.Context, req ScanRequest) (*ModelScanResponse, error) {
	if s.scorer == nil || !s.scorer.Trained() {
		return nil, shared.ErrEstimatorUnavailable
	}
	invoices, err := s.loadInvoices(ctx, req)
	if err != nil {
		return nil, err
	}
	results, err := analytics.DetectWithModel(s.scorer, toDocumentRecords(invoices))
	if err != nil {
		return nil, err
	}

	at := s.now()
	anomalies := 0
	created := make([]*analytics.AnomalyFinding, 0)
	for _, r := range results {
		inv := &invoices[r.Index]
		inv.MarkAnomaly(r.Score, r.IsAnomaly)
		if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
			return nil, err
		}
		if !r.IsAnomaly {
			continue
		}
		anomalies++

		exists, err := s.findingRepo.ExistsOpenForEntity(ctx, analytics.EntityTypeInvoice, inv.ID, analytics.AnomalyTypeUnusualPattern)
		if err != nil {
			return nil, fmt.Errorf("check existing finding: %w", err)
		}
		if exists {
			continue
		}
		id := inv.ID
		f, err := analytics.NewAnomalyFinding(analytics.AnomalyTypeUnusualPattern, r.Severity, r.Score,
			analytics.EntityTypeInvoice, &id, fmt.Sprintf("Olağandışı fatura: %s", inv.Number), r.Reasons, at)
		if err != nil {
			return nil, err
		}
		created = append(created, f)
	}
	if len(created) > 0 {
		if err := s.findingRepo.SaveBatch(ctx, created); err != nil {
			return nil, fmt.Errorf("save findings: %w", err)
		}
	}

	s.logger.Info("Model anomaly scan finished",
		zap.Int("scanned", len(results)),
		zap.Int("anomalies", anomalies),
	)
	s.publish(ctx, created...)
	return &ModelScanResponse{Scanned: len(results), Anomalies: anomalies, Results: results}, nil
}

// Duplicates reports exact and near duplicate invoices. Nothing is stored.
func (s *AnomalyService) Duplicates(ctx context.Context, req ScanRequest) ([]analytics.DuplicateGroup, error) {
	invoices, err := s.loadInvoices(ctx, req)
	if err != nil {
		return nil, err
	}
	return analytics.DetectDuplicates(toDocumentRecords(invoices)), nil
}

// ListFindings returns a page of findings
func (s *AnomalyService) ListFindings(ctx context.Context, f FindingListFilter) ([]FindingResponse, int64, error) {
	filter := analytics.FindingFilter{Filter: shared.DefaultFilter(), IsResolved: f.IsResolved}
	filter.OrderBy = "detection_date"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.Severity != "" {
		sev := analytics.Severity(f.Severity)
		if !sev.IsValid() {
			return nil, 0, shared.NewInvalidInput("invalid severity %q", f.Severity)
		}
		filter.Severity = &sev
	}

	findings, total, err := s.findingRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]FindingResponse, len(findings))
	for i := range findings {
		out[i] = ToFindingResponse(&findings[i])
	}
	return out, total, nil
}

// Resolve closes a finding
func (s *AnomalyService) Resolve(ctx context.Context, id uuid.UUID, req ResolveRequest) (*FindingResponse, error) {
	f, err := s.findingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := f.Resolve(req.ResolutionNotes, req.ResolvedBy, s.now()); err != nil {
		return nil, err
	}
	if err := s.findingRepo.SaveWithLock(ctx, f); err != nil {
		return nil, err
	}
	s.publish(ctx, f)

	resp := ToFindingResponse(f)
	return &resp, nil
}

func (s *AnomalyService) loadEntries(ctx context.Context, req ScanRequest) ([]accounting.LedgerEntry, error) {
	end := s.now()
	if req.EndDate != nil {
		end = *req.EndDate
	}
	var (
		entries []accounting.LedgerEntry
		err     error
	)
	if req.StartDate != nil {
		if end.Before(*req.StartDate) {
			return nil, shared.NewInvalidInput("end date cannot be before start date")
		}
		entries, err = s.ledgerRepo.FindBetween(ctx, *req.StartDate, end)
	} else {
		entries, err = s.ledgerRepo.FindUpTo(ctx, end)
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return entries, nil
}

func (s *AnomalyService) loadInvoices(ctx context.Context, req ScanRequest) ([]accounting.Invoice, error) {
	end := s.now()
	if req.EndDate != nil {
		end = *req.EndDate
	}
	start := time.Time{}
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if end.Before(start) {
		return nil, shared.NewInvalidInput("end date cannot be before start date")
	}
	invoices, err := s.invoiceRepo.FindBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	return invoices, nil
}

var hundred = decimal.NewFromInt(100)

// toDocumentRecords maps invoices to the estimator view. The VAT rate is
// the common line rate, or the effective header rate for flat invoices;
// mixed-rate invoices leave it unset.
func toDocumentRecords(invoices []accounting.Invoice) []analytics.DocumentRecord {
	records := make([]analytics.DocumentRecord, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		records[i] = analytics.DocumentRecord{
			ID:        inv.ID,
			Number:    inv.Number,
			Date:      inv.InvoiceDate,
			Total:     inv.TotalAmount,
			PartnerID: inv.PartnerID,
			VATRate:   invoiceVATRate(inv),
		}
	}
	return records
}

func invoiceVATRate(inv *accounting.Invoice) *float64 {
	if len(inv.Lines) > 0 {
		rate := inv.Lines[0].VATRate
		for _, l := range inv.Lines[1:] {
			if !l.VATRate.Equal(rate) {
				return nil
			}
		}
		f := rate.InexactFloat64()
		return &f
	}
	if !inv.Subtotal.IsPositive() {
		return nil
	}
	f := inv.VATAmount.Mul(hundred).Div(inv.Subtotal).Round(0).InexactFloat64()
	return &f
}
