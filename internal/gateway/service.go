// Package gateway is the application service behind the HTTP API and CLI:
// it runs generations against the active provider and journals them.
package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/epoch/internal/journal"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/platform/otel"
	"github.com/nulzo/epoch/internal/store"
	"github.com/nulzo/epoch/internal/store/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ErrJournalDisabled is returned by journal queries when no database is configured.
var ErrJournalDisabled = errors.New("generation journal is disabled")

// ProviderSource hands out the process-wide provider.
type ProviderSource interface {
	Provider(ctx context.Context) (llm.Provider, error)
}

// Result is a successful generation.
type Result struct {
	ID       string
	Provider string
	Model    string
	Latency  time.Duration
	Output   json.RawMessage
}

type Service interface {
	Generate(ctx context.Context, req *llm.GenerateRequest) (*Result, error)
	ActiveProvider(ctx context.Context) (llm.Provider, error)
	GetGeneration(ctx context.Context, id string) (*model.Generation, error)
	RecentGenerations(ctx context.Context, limit int) ([]model.Generation, error)
	Stats(ctx context.Context) ([]model.GenerationStats, error)
}

type service struct {
	logger   *zap.Logger
	source   ProviderSource
	repo     store.Repository
	ingestor journal.Ingestor
	timeout  time.Duration
}

// NewService wires the service. repo may be nil when the journal is disabled,
// in which case ingestor should be journal.Discard.
func NewService(logger *zap.Logger, source ProviderSource, repo store.Repository, ingestor journal.Ingestor, timeout time.Duration) Service {
	if ingestor == nil {
		ingestor = journal.Discard{}
	}
	return &service{
		logger:   logger,
		source:   source,
		repo:     repo,
		ingestor: ingestor,
		timeout:  timeout,
	}
}

func (s *service) ActiveProvider(ctx context.Context) (llm.Provider, error) {
	return s.source.Provider(ctx)
}

func (s *service) Generate(ctx context.Context, req *llm.GenerateRequest) (*Result, error) {
	provider, err := s.source.Provider(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("epoch/gateway").Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", string(provider.ID())),
		attribute.String("llm.model", provider.Model()),
		attribute.Bool("llm.schema", req.ResponseSchema != nil),
	)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	id := uuid.NewString()
	start := time.Now()
	out, err := provider.GenerateJSON(ctx, req)
	latency := time.Since(start)

	record := &model.Generation{
		ID:          id,
		Provider:    string(provider.ID()),
		Model:       provider.Model(),
		HasSystem:   req.SystemInstruction != "",
		HasSchema:   req.ResponseSchema != nil,
		MIMEType:    req.MIMEType(),
		PromptChars: len(req.Prompt),
		LatencyMs:   latency.Milliseconds(),
		CreatedAt:   start.UTC(),
	}

	fields := []zap.Field{
		zap.String("id", id),
		zap.String("provider", record.Provider),
		zap.String("model", record.Model),
		zap.Duration("latency", latency),
	}

	if err != nil {
		record.Status = model.StatusFailed
		record.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}

		var genErr *llm.GenerationError
		if errors.As(err, &genErr) {
			record.ErrorKind = sql.NullString{String: string(genErr.Kind), Valid: true}
			if genErr.StatusCode != 0 {
				record.HTTPStatus = sql.NullInt64{Int64: int64(genErr.StatusCode), Valid: true}
			}
			fields = append(fields, zap.String("kind", string(genErr.Kind)))
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.logger.Warn("Generation failed", append(fields, zap.Error(err))...)
		s.ingestor.Record(record)
		return nil, err
	}

	record.Status = model.StatusSucceeded
	record.Output = sql.NullString{String: string(out), Valid: true}
	s.ingestor.Record(record)

	s.logger.Info("Generation completed", fields...)

	return &Result{
		ID:       id,
		Provider: record.Provider,
		Model:    record.Model,
		Latency:  latency,
		Output:   out,
	}, nil
}

func (s *service) GetGeneration(ctx context.Context, id string) (*model.Generation, error) {
	if s.repo == nil {
		return nil, ErrJournalDisabled
	}
	return s.repo.Generations().GetByID(ctx, id)
}

// RecentGenerations clamps limit to [1, 100] and defaults to 20.
func (s *service) RecentGenerations(ctx context.Context, limit int) ([]model.Generation, error) {
	if s.repo == nil {
		return nil, ErrJournalDisabled
	}
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return s.repo.Generations().Recent(ctx, limit)
}

func (s *service) Stats(ctx context.Context) ([]model.GenerationStats, error) {
	if s.repo == nil {
		return nil, ErrJournalDisabled
	}
	return s.repo.Generations().Stats(ctx)
}
