package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
	"github.com/shekarbharathi/bank-fdic-v1/internal/observability"
	"github.com/shekarbharathi/bank-fdic-v1/internal/respond"
	"github.com/shekarbharathi/bank-fdic-v1/internal/sqlguard"
)

// Service runs the full question-to-answer pipeline: prompt assembly,
// generation, extraction, validation, execution, and formatting.
// Validation failure stops the pipeline before any SQL reaches the database.
type Service struct {
	provider  Provider
	prompts   *Assembler
	validator *sqlguard.Validator
	store     bankdata.Store
	logger    *slog.Logger
}

// Answer is the result of one pipeline run. Rows carry dollar values
// already rescaled from thousands.
type Answer struct {
	Response      string
	SQL           string
	Rows          []bankdata.Row
	ExecutionTime time.Duration
}

func NewService(provider Provider, prompts *Assembler, validator *sqlguard.Validator, store bankdata.Store, logger *slog.Logger) *Service {
	return &Service{
		provider:  provider,
		prompts:   prompts,
		validator: validator,
		store:     store,
		logger:    logger,
	}
}

func (s *Service) ProviderName() string { return s.provider.Name() }

func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	start := time.Now()
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("question is empty")
	}

	sql, err := s.GenerateSQL(ctx, question)
	if err != nil {
		return Answer{}, err
	}

	rows, err := s.store.RunReadOnlyQuery(ctx, sql)
	if err != nil {
		var queryErr *bankdata.QueryError
		timedOut := errors.As(err, &queryErr) && queryErr.Timeout
		observability.IncrementQueryFailure(timedOut)
		s.logger.WarnContext(ctx, "query execution failed",
			slog.String("sql", sql),
			slog.Bool("timeout", timedOut),
			slog.Any("error", err),
		)
		return Answer{}, err
	}
	if len(rows) == 0 {
		observability.IncrementEmptyResult()
	}

	rows = respond.Enrich(rows)
	rows = respond.Rescale(rows)

	elapsed := time.Since(start)
	observability.ObservePipeline(s.provider.Name(), elapsed)
	s.logger.InfoContext(ctx, "question answered",
		slog.String("provider", s.provider.Name()),
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", elapsed),
	)
	return Answer{
		Response:      respond.Format(question, rows),
		SQL:           sql,
		Rows:          rows,
		ExecutionTime: elapsed,
	}, nil
}

// GenerateSQL produces a validated query without executing it.
func (s *Service) GenerateSQL(ctx context.Context, question string) (string, error) {
	prompt, err := s.prompts.Assemble(ctx, question)
	if err != nil {
		return "", err
	}

	raw, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		observability.IncrementGenerationFailure(s.provider.Name())
		s.logger.ErrorContext(ctx, "SQL generation failed",
			slog.String("provider", s.provider.Name()),
			slog.Any("error", err),
		)
		return "", err
	}

	sql := sqlguard.Sanitize(sqlguard.Extract(raw))
	if verdict := s.validator.Validate(sql); !verdict.OK {
		observability.IncrementValidationRejection()
		s.logger.WarnContext(ctx, "generated SQL rejected",
			slog.String("reason", verdict.Reason),
			slog.String("sql", sql),
		)
		return "", &bankdata.ValidationError{Reason: verdict.Reason}
	}

	s.logger.InfoContext(ctx, "generated SQL",
		slog.String("provider", s.provider.Name()),
		slog.String("sql", sql),
	)
	return sql, nil
}
