package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shekarbharathi/bank-fdic-v1/internal/observability"
)

const (
	institutionFields = "CERT,NAME,CITY,STALP,STNAME,ZIP,ASSET,DEP,DEPDOM,BKCLASS,CHARTER,DATEUPDT,ACTIVE,FED_RSSD"
	financialFields   = "CERT,REPDTE,ASSET,DEP,DEPDOM,EQTOT,ROA,ROAPTX,NETINC,NIMY,LNLSNET,ELNATR"
	failureFields     = "CERT,NAME,CITY,STALP,FAILDATE,QBFDEP,QBFASSET,COST"

	// First financial backfill covers two years of quarterly filings.
	firstRunLookback = 730 * 24 * time.Hour
)

var ErrRunInProgress = errors.New("ingest run already in progress")

// Status reports the most recent ingest run.
type Status struct {
	Running      bool      `json:"running"`
	LastRun      time.Time `json:"last_run,omitzero"`
	LastError    string    `json:"last_error,omitempty"`
	Institutions int       `json:"institutions"`
	Financials   int       `json:"financials"`
	Failures     int       `json:"failures"`
	Duration     string    `json:"duration,omitempty"`
}

// Service orchestrates one ingest run: incremental fetch, relational
// upserts, optional raw-page archival, and watermark persistence.
type Service struct {
	client    *Client
	loader    *Loader
	archiver  *Archiver
	statePath string
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	status Status
}

func NewService(client *Client, loader *Loader, archiver *Archiver, statePath string, logger *slog.Logger) *Service {
	return &Service{
		client:    client,
		loader:    loader,
		archiver:  archiver,
		statePath: statePath,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run executes a full ingest pass. Only one run may be active at a time.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.status.Running = true
	s.mu.Unlock()

	start := s.now()
	err := s.run(ctx, start)

	s.mu.Lock()
	s.status.Running = false
	s.status.LastRun = start
	s.status.Duration = s.now().Sub(start).Round(time.Millisecond).String()
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
	s.mu.Unlock()

	observability.ObserveIngestRun(err == nil, s.now().Sub(start))
	return err
}

func (s *Service) run(ctx context.Context, start time.Time) error {
	state, err := LoadState(s.statePath)
	if err != nil {
		return err
	}

	institutions, maxDateUpdt, err := s.ingestInstitutions(ctx, state, start)
	if err != nil {
		return fmt.Errorf("ingest institutions: %w", err)
	}
	financials, maxRepDte, err := s.ingestFinancials(ctx, state, start)
	if err != nil {
		return fmt.Errorf("ingest financials: %w", err)
	}
	failures, err := s.ingestFailures(ctx, start)
	if err != nil {
		return fmt.Errorf("ingest failures: %w", err)
	}

	if maxDateUpdt != "" {
		state.LastInstitutionUpdate = maxDateUpdt
	}
	if maxRepDte != "" {
		state.LastFinancialUpdate = maxRepDte
	}
	state.LastRun = start.UTC().Format(time.RFC3339)
	if err := SaveState(s.statePath, state); err != nil {
		return err
	}
	if s.archiver != nil {
		if err := s.archiver.ArchiveState(ctx, start, state); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.status.Institutions = institutions
	s.status.Financials = financials
	s.status.Failures = failures
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ingest run complete",
		slog.Int("institutions", institutions),
		slog.Int("financials", financials),
		slog.Int("failures", failures),
		slog.Duration("elapsed", s.now().Sub(start)),
	)
	return nil
}

func (s *Service) ingestInstitutions(ctx context.Context, state State, start time.Time) (int, string, error) {
	filters := "ACTIVE:1"
	if state.LastInstitutionUpdate != "" {
		filters = fmt.Sprintf("DATEUPDT:[%s TO *]", state.LastInstitutionUpdate)
	}

	maxDate := ""
	total := 0
	_, err := s.client.FetchAll(ctx, "institutions", filters, institutionFields, func(page int, records []Record) error {
		if s.archiver != nil {
			if err := s.archiver.ArchivePage(ctx, "institutions", start, page, records); err != nil {
				return err
			}
		}
		count, err := s.loader.UpsertInstitutions(ctx, records)
		if err != nil {
			return err
		}
		total += count
		observability.AddIngestRecords("institutions", count)
		for _, rec := range records {
			if d := rec.FieldString("DATEUPDT"); d > maxDate {
				maxDate = d
			}
		}
		return nil
	})
	return total, maxDate, err
}

func (s *Service) ingestFinancials(ctx context.Context, state State, start time.Time) (int, string, error) {
	from := state.LastFinancialUpdate
	if from == "" {
		from = start.Add(-firstRunLookback).UTC().Format("2006-01-02")
	}
	filters := fmt.Sprintf("REPDTE:[%s TO %s]", from, start.UTC().Format("2006-01-02"))

	maxDate := ""
	total := 0
	_, err := s.client.FetchAll(ctx, "financials", filters, financialFields, func(page int, records []Record) error {
		if s.archiver != nil {
			if err := s.archiver.ArchivePage(ctx, "financials", start, page, records); err != nil {
				return err
			}
		}
		count, err := s.loader.UpsertFinancials(ctx, records)
		if err != nil {
			return err
		}
		total += count
		observability.AddIngestRecords("financials", count)
		for _, rec := range records {
			if d := rec.FieldString("REPDTE"); d > maxDate {
				maxDate = d
			}
		}
		return nil
	})
	return total, maxDate, err
}

func (s *Service) ingestFailures(ctx context.Context, start time.Time) (int, error) {
	total := 0
	_, err := s.client.FetchAll(ctx, "failures", "", failureFields, func(page int, records []Record) error {
		if s.archiver != nil {
			if err := s.archiver.ArchivePage(ctx, "failures", start, page, records); err != nil {
				return err
			}
		}
		count, err := s.loader.UpsertFailures(ctx, records)
		if err != nil {
			return err
		}
		total += count
		observability.AddIngestRecords("failures", count)
		return nil
	})
	return total, err
}
