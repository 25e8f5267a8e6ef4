package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/roster/internal/httpretry"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/sheets"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// SheetSource is the upstream the service reads from. *sheets.Client
// implements it.
type SheetSource interface {
	Configured() bool
	Range() string
	FetchSheet(ctx context.Context, forceRefresh bool) (*sheets.RawSheet, error)
	FetchValues(ctx context.Context, rangeA1 string, forceRefresh bool) ([][]string, error)
	Metadata(ctx context.Context) (*sheets.Metadata, error)
}

// FetchObserver receives one call per completed fetch.
type FetchObserver interface {
	ObserveFetch(source, reason string, records int, d time.Duration)
}

// FallbackReason says why sample data was served instead of live records.
type FallbackReason string

const (
	ReasonNone          FallbackReason = ""
	ReasonNotConfigured FallbackReason = "not-configured"
	ReasonBusy          FallbackReason = "busy"
	ReasonTransport     FallbackReason = "transport"
	ReasonUpstreamHTTP  FallbackReason = "upstream-http"
	ReasonNoData        FallbackReason = "no-data"
	ReasonNoValidRows   FallbackReason = "no-valid-rows"
	ReasonUnknown       FallbackReason = "error"
)

// Data source labels.
const (
	SourceLive   = "live"
	SourceSample = "sample"
)

var (
	// ErrNoValidRows means every data row was skipped by the mapper.
	ErrNoValidRows = errors.New("no valid rows in sheet")

	// ErrRecordNotFound is returned by FindRecord.
	ErrRecordNotFound = errors.New("record not found")
)

// Outcome is the result of one fetch. Records is never empty: when Fallback
// is set it holds the sample records and Err the cause.
type Outcome struct {
	FetchID  string
	Records  []Record
	Fallback FallbackReason
	Err      error
	Skipped  map[SkipReason]int
}

// Live reports whether the records came from the sheet.
func (o Outcome) Live() bool {
	return o.Fallback == ReasonNone
}

// Source returns SourceLive or SourceSample.
func (o Outcome) Source() string {
	if o.Live() {
		return SourceLive
	}
	return SourceSample
}

func fallback(reason FallbackReason, err error) Outcome {
	return Outcome{Fallback: reason, Err: err}
}

// Service is the single entry point for reading records. It owns the id
// registry and settings store and is safe for concurrent use.
type Service struct {
	sheets   SheetSource
	ids      *IDRegistry
	settings *SettingsStore
	mapper   *Mapper
	limiter  *FetchLimiter
	observer FetchObserver
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithObserver reports fetch outcomes to obs.
func WithObserver(obs FetchObserver) ServiceOption {
	return func(s *Service) { s.observer = obs }
}

// WithLimiter bounds concurrent upstream fetches.
func WithLimiter(l *FetchLimiter) ServiceOption {
	return func(s *Service) { s.limiter = l }
}

// NewService wires a Service around src. A nil registry or store gets a
// fresh default one.
func NewService(src SheetSource, ids *IDRegistry, settings *SettingsStore, opts ...ServiceOption) *Service {
	if ids == nil {
		ids = NewIDRegistry()
	}
	if settings == nil {
		settings = NewSettingsStore(DefaultDisplaySettings())
	}
	s := &Service{
		sheets:   src,
		ids:      ids,
		settings: settings,
		mapper:   NewMapper(ids),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewFetchLimiter(DefaultMaxConcurrentFetches, DefaultFetchWait)
	}
	return s
}

// IDs returns the id registry.
func (s *Service) IDs() *IDRegistry { return s.ids }

// Settings returns the display settings store.
func (s *Service) Settings() *SettingsStore { return s.settings }

// Limiter returns the fetch limiter.
func (s *Service) Limiter() *FetchLimiter { return s.limiter }

// FetchRecords returns the current records. It never fails: any problem
// upstream yields the sample records.
func (s *Service) FetchRecords(ctx context.Context, forceRefresh bool) []Record {
	return s.FetchRecordsWithOutcome(ctx, forceRefresh).Records
}

// FetchRecordsWithOutcome is FetchRecords plus the reason for any fallback.
func (s *Service) FetchRecordsWithOutcome(ctx context.Context, forceRefresh bool) Outcome {
	start := time.Now()
	fetchID := uuid.NewString()
	logger := logging.WithFields(ctx, "fetch_id", fetchID, "force_refresh", forceRefresh)

	out := s.ingest(ctx, forceRefresh)
	out.FetchID = fetchID

	if out.Live() {
		logger.Info("fetched live records",
			"records", len(out.Records),
			"skipped", out.Skipped,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		out.Records = SampleRecords()
		var reason string
		if out.Err != nil {
			reason = out.Err.Error()
			logger.Debug("fallback error detail", "error", out.Err)
		}
		logger.Warn("serving sample records",
			"reason", out.Fallback,
			"error", reason,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if s.observer != nil {
		s.observer.ObserveFetch(out.Source(), string(out.Fallback), len(out.Records), time.Since(start))
	}
	return out
}

// ingest runs fetch and map. A non-live Outcome carries no records.
func (s *Service) ingest(ctx context.Context, forceRefresh bool) Outcome {
	if s.sheets == nil || !s.sheets.Configured() {
		return fallback(ReasonNotConfigured, sheets.ErrNotConfigured)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return fallback(ReasonBusy, err)
	}
	defer s.limiter.Release()

	sheet, err := s.sheets.FetchSheet(ctx, forceRefresh)
	if err != nil {
		return fallback(classify(err), err)
	}

	res := s.mapper.MapAll(sheet.Headers, sheet.Rows, s.settings.Get().IDColumn)
	if len(res.Records) == 0 {
		return Outcome{
			Fallback: ReasonNoValidRows,
			Err:      errors.Wrapf(ErrNoValidRows, "%d rows skipped", res.SkippedTotal()),
			Skipped:  res.Skipped,
		}
	}
	return Outcome{Records: res.Records, Skipped: res.Skipped}
}

// classify maps a sheet fetch error to a fallback reason.
func classify(err error) FallbackReason {
	var herr *sheets.HTTPError
	var terr *httpretry.TransportError
	switch {
	case errors.Is(err, sheets.ErrNotConfigured):
		return ReasonNotConfigured
	case errors.As(err, &herr):
		return ReasonUpstreamHTTP
	case errors.As(err, &terr):
		return ReasonTransport
	case sheets.IsDataShape(err):
		return ReasonNoData
	}
	return ReasonUnknown
}

// FindRecord returns the current record with the given id.
func (s *Service) FindRecord(ctx context.Context, id string) (Record, error) {
	for _, rec := range s.FetchRecords(ctx, false) {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, errors.Wrapf(ErrRecordNotFound, "id %q", id)
}

// ViewRecords filters records for the viewer role stored in ctx.
func (s *Service) ViewRecords(ctx context.Context, records []Record) []Record {
	return s.settings.Get().FilterAll(RoleFromContext(ctx), records)
}
