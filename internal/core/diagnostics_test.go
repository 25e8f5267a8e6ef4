package core

import (
	"context"
	"testing"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStatus(t *testing.T) {
	st := NewConfigStatus(config.SheetsConfig{
		SheetID: "1AbCdEfGhIjKlMnOp",
		APIKey:  "AIzaSyExample1234",
	})

	assert.True(t, st.HasAPIKey)
	assert.True(t, st.HasSheetID)
	assert.Equal(t, "AIza...1234", st.APIKeyPreview)
	assert.Equal(t, "1AbC...MnOp", st.SheetIDPreview)
	assert.Equal(t, "Not set", st.BaseURL)

	empty := NewConfigStatus(config.SheetsConfig{PublicBaseURL: "https://roster.example.com"})
	assert.False(t, empty.HasAPIKey)
	assert.Empty(t, empty.APIKeyPreview)
	assert.Equal(t, "https://roster.example.com", empty.BaseURL)
}

func TestTestConnection_AllSheetsPass(t *testing.T) {
	src := liveSource()
	src.metadata = &sheets.Metadata{Title: "Staff", Sheets: []string{"Sheet1", "Archive"}}
	src.values = map[string][][]string{
		"Sheet1":  {{"Name"}, {"Ann"}, {"Bob"}, {"Cy"}, {"Dee"}},
		"Archive": {},
	}
	svc := NewService(src, nil, nil)

	report := svc.TestConnection(context.Background())

	require.True(t, report.Success, report.Error)
	assert.Equal(t, "Staff", report.SpreadsheetTitle)
	require.Len(t, report.Sheets, 2)

	first := report.Sheets[0]
	assert.Equal(t, "Sheet1", first.Name)
	assert.Equal(t, CheckPassed, first.Status)
	assert.Equal(t, 5, first.TotalRows)
	assert.Equal(t, []string{"Name"}, first.Headers)
	assert.Len(t, first.SampleData, 3)

	assert.Equal(t, "Archive", report.Sheets[1].Name)
	assert.Equal(t, 0, report.Sheets[1].TotalRows)
	assert.Equal(t, SourceLive, report.Source.Source)
}

func TestTestConnection_SheetCheckFails(t *testing.T) {
	src := liveSource()
	src.metadata = &sheets.Metadata{Title: "Staff", Sheets: []string{"Sheet1", "Locked"}}
	src.values = map[string][][]string{"Sheet1": {{"Name"}}}
	src.valueErrs = map[string]error{"Locked": &sheets.HTTPError{StatusCode: 403}}
	svc := NewService(src, nil, nil)

	report := svc.TestConnection(context.Background())

	assert.False(t, report.Success)
	assert.Equal(t, StepDataFetch, report.Step)
	assert.Equal(t, CheckPassed, report.Sheets[0].Status)
	assert.Equal(t, CheckFailed, report.Sheets[1].Status)
	assert.Equal(t, "The spreadsheet denied access", report.Sheets[1].Error)
}

func TestTestConnection_Steps(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
		step string
	}{
		{"not configured", &fakeSource{}, StepConfiguration},
		{"metadata fails", &fakeSource{configured: true, mdErr: &sheets.HTTPError{StatusCode: 404}}, StepConnectivity},
		{"no sheets", &fakeSource{configured: true, metadata: &sheets.Metadata{Title: "Empty"}}, StepEnumeration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.src.err = sheets.ErrNoValues
			svc := NewService(tt.src, nil, nil)

			report := svc.TestConnection(context.Background())

			assert.False(t, report.Success)
			assert.Equal(t, tt.step, report.Step)
			assert.NotEmpty(t, report.Error)
			assert.Equal(t, SourceSample, report.Source.Source)
		})
	}
}

func TestSourceStatus(t *testing.T) {
	svc := NewService(&fakeSource{}, nil, nil)

	st := svc.SourceStatus(context.Background())

	assert.Equal(t, SourceSample, st.Source)
	assert.Equal(t, ReasonNotConfigured, st.Reason)
	assert.Equal(t, 5, st.RecordCount)
	assert.Equal(t, "The spreadsheet connection is not configured", st.Error)
}
