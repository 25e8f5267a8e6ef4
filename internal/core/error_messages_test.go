package core

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/JonMunkholm/roster/internal/httpretry"
	"github.com/JonMunkholm/roster/internal/sheets"
	crdb "github.com/cockroachdb/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"nil error returns empty", nil, "", 0},
		{
			"visibleColumns type",
			&ValidationError{Field: "visibleColumns", Code: "VAL001", Message: "visibleColumns must be an array"},
			"VAL001", http.StatusBadRequest,
		},
		{
			"wrapped validation error",
			crdb.Wrap(&ValidationError{Field: "idColumn", Code: "VAL002", Message: "idColumn must be a string"}, "update"),
			"VAL002", http.StatusBadRequest,
		},
		{"record not found", crdb.Wrapf(ErrRecordNotFound, "id %q", "X"), "REC001", http.StatusNotFound},
		{"not configured", sheets.ErrNotConfigured, "CFG001", http.StatusServiceUnavailable},
		{"forbidden sheet", &sheets.HTTPError{StatusCode: 403, Body: "denied"}, "UPS002", http.StatusBadGateway},
		{"missing sheet", &sheets.HTTPError{StatusCode: 404}, "UPS003", http.StatusBadGateway},
		{"server error", &sheets.HTTPError{StatusCode: 500}, "UPS001", http.StatusBadGateway},
		{
			"timed out attempts",
			&httpretry.TransportError{URL: "u", Attempts: 3, Err: context.DeadlineExceeded},
			"UPS004", http.StatusGatewayTimeout,
		},
		{
			"refused connection",
			&httpretry.TransportError{URL: "u", Attempts: 3, Err: errors.New("dial tcp: connection refused")},
			"UPS005", http.StatusBadGateway,
		},
		{"empty range", sheets.ErrNoValues, "DATA002", http.StatusUnprocessableEntity},
		{"no header", sheets.ErrNoHeaders, "DATA003", http.StatusUnprocessableEntity},
		{"busy", ErrTooManyFetches, "BUSY001", http.StatusServiceUnavailable},
		{"cancelled", context.Canceled, "REQ001", http.StatusRequestTimeout},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001", http.StatusTooManyRequests},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000", http.StatusInternalServerError},
		{"case insensitive matching", errors.New("RECORD NOT FOUND"), "REC001", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("MapError() status = %d, want %d", got.Status, tt.wantStatus)
			}
		})
	}
}

func TestMapError_ValidationKeepsMessage(t *testing.T) {
	got := MapError(&ValidationError{Code: "VAL001", Message: "visibleColumns must be an array"})

	if got.Message != "visibleColumns must be an array" {
		t.Errorf("Message = %q", got.Message)
	}
}
