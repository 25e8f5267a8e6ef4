package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/sheets"
	"golang.org/x/sync/errgroup"
)

const (
	previewChars    = 4
	sampleRowsPerSheet = 3
	maxSheetChecks       = 4
)

// ConfigStatus reports which upstream settings are present, with secrets
// reduced to their first and last four characters.
type ConfigStatus struct {
	HasAPIKey      bool   `json:"hasApiKey"`
	HasSheetID     bool   `json:"hasSheetId"`
	APIKeyPreview  string `json:"apiKeyPreview"`
	SheetIDPreview string `json:"sheetIdPreview"`
	BaseURL        string `json:"baseUrl"`
}

// NewConfigStatus summarizes cfg for display.
func NewConfigStatus(cfg config.SheetsConfig) ConfigStatus {
	base := cfg.PublicBaseURL
	if base == "" {
		base = "Not set"
	}
	return ConfigStatus{
		HasAPIKey:      cfg.APIKey != "",
		HasSheetID:     cfg.SheetID != "",
		APIKeyPreview:  config.Preview(cfg.APIKey, previewChars),
		SheetIDPreview: config.Preview(cfg.SheetID, previewChars),
		BaseURL:        base,
	}
}

// SourceStatus describes where the current records come from.
type SourceStatus struct {
	Source      string             `json:"source"`
	Reason      FallbackReason     `json:"reason,omitempty"`
	Error       string             `json:"error,omitempty"`
	RecordCount int                `json:"recordCount"`
	FetchID     string             `json:"fetchId"`
	Skipped     map[SkipReason]int `json:"skipped,omitempty"`
}

// SourceStatus runs one fetch and reports its outcome.
func (s *Service) SourceStatus(ctx context.Context) SourceStatus {
	out := s.FetchRecordsWithOutcome(ctx, false)
	st := SourceStatus{
		Source:      out.Source(),
		Reason:      out.Fallback,
		RecordCount: len(out.Records),
		FetchID:     out.FetchID,
		Skipped:     out.Skipped,
	}
	if out.Err != nil {
		st.Error = MapError(out.Err).Message
	}
	return st
}

// Sheet check statuses.
const (
	CheckPassed = "PASSED"
	CheckFailed = "FAILED"
)

// SheetCheck is the result of reading one sheet of the spreadsheet.
type SheetCheck struct {
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	TotalRows  int        `json:"totalRows"`
	Headers    []string   `json:"headers"`
	SampleData [][]string `json:"sampleData"`
}

// ConnectionReport is the result of TestConnection.
type ConnectionReport struct {
	Success          bool         `json:"success"`
	Message          string       `json:"message,omitempty"`
	Error            string       `json:"error,omitempty"`
	Step             string       `json:"step,omitempty"`
	SpreadsheetTitle string       `json:"spreadsheetTitle,omitempty"`
	Sheets           []SheetCheck `json:"sheets,omitempty"`
	Source           SourceStatus `json:"source"`
}

// Connection test steps.
const (
	StepConfiguration = "Configuration"
	StepConnectivity  = "Basic API connectivity"
	StepEnumeration   = "Sheet enumeration"
	StepDataFetch     = "Data fetch"
)

// TestConnection checks the upstream end to end: metadata, sheet list, a
// read of every sheet, and finally whether live ingestion currently falls
// back to sample data.
func (s *Service) TestConnection(ctx context.Context) ConnectionReport {
	report := s.runConnectionSteps(ctx)
	report.Source = s.SourceStatus(ctx)
	return report
}

// runConnectionSteps stops at the first failing step.
func (s *Service) runConnectionSteps(ctx context.Context) ConnectionReport {
	logger := logging.FromContext(ctx)
	var report ConnectionReport

	if s.sheets == nil || !s.sheets.Configured() {
		report.Error = "Missing sheet id or api key"
		report.Step = StepConfiguration
		return report
	}

	md, err := s.sheets.Metadata(ctx)
	if err != nil {
		logger.Warn("connection test failed", "step", StepConnectivity, "error", err.Error())
		report.Error = MapError(err).Message
		report.Step = StepConnectivity
		return report
	}
	report.SpreadsheetTitle = md.Title

	if len(md.Sheets) == 0 {
		report.Error = "No sheets found in the spreadsheet"
		report.Step = StepEnumeration
		return report
	}

	report.Sheets = s.checkSheets(ctx, md)

	failed := 0
	for _, p := range report.Sheets {
		if p.Status == CheckFailed {
			failed++
		}
	}
	if failed > 0 {
		report.Error = fmt.Sprintf("%d of %d sheets could not be read", failed, len(report.Sheets))
		report.Step = StepDataFetch
		return report
	}

	report.Success = true
	report.Message = "All tests passed successfully!"
	return report
}

// checkSheets reads every sheet with bounded parallelism. Failures are
// recorded per sheet and never abort the others.
func (s *Service) checkSheets(ctx context.Context, md *sheets.Metadata) []SheetCheck {
	checks := make([]SheetCheck, len(md.Sheets))

	var g errgroup.Group
	g.SetLimit(maxSheetChecks)
	for i, name := range md.Sheets {
		g.Go(func() error {
			checks[i] = s.checkSheet(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	return checks
}

func (s *Service) checkSheet(ctx context.Context, name string) SheetCheck {
	p := SheetCheck{Name: name, Headers: []string{}, SampleData: [][]string{}}

	values, err := s.sheets.FetchValues(ctx, name, false)
	if err != nil {
		p.Status = CheckFailed
		p.Error = MapError(err).Message
		return p
	}

	p.Status = CheckPassed
	p.TotalRows = len(values)
	if len(values) > 0 {
		p.Headers = values[0]
		p.SampleData = values[:min(len(values), sampleRowsPerSheet)]
	}
	return p
}
