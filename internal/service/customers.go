package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/analytics"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/port"
)

var custTracer = otel.Tracer("service/customers")

// CustomerService rebuilds per-customer lifetime metrics from the
// transaction history and layers the churn-risk score on top.
type CustomerService struct {
	txStore   port.TransactionStore
	custStore port.CustomerStore
	commStore port.CommunicationLogStore
	scorer    *analytics.RiskScorer
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewCustomerService creates a new customer service.
func NewCustomerService(
	txStore port.TransactionStore,
	custStore port.CustomerStore,
	commStore port.CommunicationLogStore,
	scorer *analytics.RiskScorer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		txStore:   txStore,
		custStore: custStore,
		commStore: commStore,
		scorer:    scorer,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetCustomerMetrics computes lifetime metrics and churn risk for one
// customer. The transaction history and the master record are fetched
// concurrently; a missing master record only means no RFM segment.
func (s *CustomerService) GetCustomerMetrics(ctx context.Context, document string) (*domain.CustomerMetrics, error) {
	ctx, span := custTracer.Start(ctx, "CustomerService.GetCustomerMetrics")
	defer span.End()
	span.SetAttributes(attribute.String("customer.document", document))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("customer_metrics", time.Since(start)) }()

	document = analytics.NormalizeDocument(document)
	if document == "" {
		return nil, &domain.ErrValidation{Field: "document", Message: "required"}
	}

	var (
		txs      []domain.Transaction
		customer *domain.Customer
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.txStore.ListTransactionsByDocument(gCtx, document)
		if err != nil {
			s.logger.Error("failed to fetch customer transactions",
				zap.String("document", document),
				zap.Error(err),
			)
			s.metrics.IncrExternalError("supabase")
			return err
		}
		txs = t
		return nil
	})

	g.Go(func() error {
		c, err := s.custStore.GetCustomer(gCtx, document)
		if err != nil {
			var notFound *domain.ErrNotFound
			if errors.As(err, &notFound) {
				return nil // segment stays empty
			}
			s.logger.Warn("failed to fetch customer record",
				zap.String("document", document),
				zap.Error(err),
			)
			return nil // metrics still work without the master record
		}
		customer = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(txs) == 0 && customer == nil {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: document}
	}

	metrics := analytics.ComputeCustomerLifetimeMetrics(txs, document, time.Now().UTC())
	if customer != nil {
		metrics.Segment = customer.Segment
	}

	metrics.RiskScore = s.scorer.Score(float64(metrics.DaysSinceLast), metrics.Segment)
	level := analytics.LevelFromScore(metrics.RiskScore)
	metrics.RiskLevel = &level

	return &metrics, nil
}

// ListCommunications returns a page of outreach records for one customer.
func (s *CustomerService) ListCommunications(ctx context.Context, document string, page, pageSize int) ([]domain.CommunicationLog, error) {
	ctx, span := custTracer.Start(ctx, "CustomerService.ListCommunications")
	defer span.End()

	document = analytics.NormalizeDocument(document)
	if document == "" {
		return nil, &domain.ErrValidation{Field: "document", Message: "required"}
	}

	return s.commStore.ListCommunications(ctx, document, page, pageSize)
}

// RecordCommunication logs one outreach event.
func (s *CustomerService) RecordCommunication(ctx context.Context, log *domain.CommunicationLog) (*domain.CommunicationLog, error) {
	ctx, span := custTracer.Start(ctx, "CustomerService.RecordCommunication")
	defer span.End()

	log.Document = analytics.NormalizeDocument(log.Document)
	if log.Document == "" {
		return nil, &domain.ErrValidation{Field: "document", Message: "required"}
	}
	if log.Channel == "" {
		return nil, &domain.ErrValidation{Field: "channel", Message: "required"}
	}
	if log.Message == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "required"}
	}
	if log.SentAt.IsZero() {
		log.SentAt = time.Now().UTC()
	}

	return s.commStore.CreateCommunication(ctx, log)
}
