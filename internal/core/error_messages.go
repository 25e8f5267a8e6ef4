package core

// error_messages.go maps technical errors to messages shown to API callers.
//
// Codes by category:
//
//	VAL001-VAL004  settings payload validation (400)
//	VAL005         settings payload too large (413)
//	REC001         record not found (404)
//	CFG001         upstream not configured
//	UPS001-UPS005  upstream HTTP and transport failures
//	DATA001-DATA004 unusable sheet contents
//	BUSY001        fetch slots exhausted
//	REQ001-REQ002  request cancelled or timed out
//	RATE001        inbound rate limit (429)
//	AUTH001        missing or invalid API key
//	ERR000         anything else; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// UserMessage is what an API caller sees for an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
	Status  int    // HTTP status when the error ends a request
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Lookup
	{
		pattern: "record not found",
		msg: UserMessage{
			Message: "No record with this id exists",
			Action:  "Check the id or refresh the list",
			Code:    "REC001",
			Status:  http.StatusNotFound,
		},
	},

	// Upstream configuration and responses
	{
		pattern: "not configured",
		msg: UserMessage{
			Message: "The spreadsheet connection is not configured",
			Action:  "Set GOOGLE_SHEET_ID and GOOGLE_SHEETS_API_KEY",
			Code:    "CFG001",
			Status:  http.StatusServiceUnavailable,
		},
	},
	{
		pattern: "upstream returned http 403",
		msg: UserMessage{
			Message: "The spreadsheet denied access",
			Action:  "Share the sheet publicly or check the API key restrictions",
			Code:    "UPS002",
			Status:  http.StatusBadGateway,
		},
	},
	{
		pattern: "upstream returned http 404",
		msg: UserMessage{
			Message: "The spreadsheet or range was not found",
			Action:  "Check GOOGLE_SHEET_ID and SHEETS_RANGE",
			Code:    "UPS003",
			Status:  http.StatusBadGateway,
		},
	},
	{
		pattern: "upstream returned http",
		msg: UserMessage{
			Message: "The spreadsheet service returned an error",
			Action:  "Please try again later",
			Code:    "UPS001",
			Status:  http.StatusBadGateway,
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The spreadsheet service did not respond in time",
			Action:  "Please try again later",
			Code:    "UPS004",
			Status:  http.StatusGatewayTimeout,
		},
	},
	{
		pattern: "transport failure",
		msg: UserMessage{
			Message: "Unable to reach the spreadsheet service",
			Action:  "Check network connectivity and try again",
			Code:    "UPS005",
			Status:  http.StatusBadGateway,
		},
	},

	// Sheet contents
	{
		pattern: "malformed values payload",
		msg: UserMessage{
			Message: "The spreadsheet response could not be read",
			Action:  "Check SHEETS_BASE_URL points at the Sheets API",
			Code:    "DATA001",
			Status:  http.StatusBadGateway,
		},
	},
	{
		pattern: "no values in range",
		msg: UserMessage{
			Message: "The sheet range is empty",
			Action:  "Add a header row and data rows, or widen SHEETS_RANGE",
			Code:    "DATA002",
			Status:  http.StatusUnprocessableEntity,
		},
	},
	{
		pattern: "missing header row",
		msg: UserMessage{
			Message: "The first row of the sheet is empty",
			Action:  "Put column headers in the first row",
			Code:    "DATA003",
			Status:  http.StatusUnprocessableEntity,
		},
	},
	{
		pattern: "no data rows",
		msg: UserMessage{
			Message: "The sheet has headers but no data rows",
			Action:  "Add at least one data row",
			Code:    "DATA004",
			Status:  http.StatusUnprocessableEntity,
		},
	},
	{
		pattern: "no valid rows",
		msg: UserMessage{
			Message: "No row in the sheet produced a record",
			Action:  "Check the id column setting and that rows carry data",
			Code:    "DATA004",
			Status:  http.StatusUnprocessableEntity,
		},
	},

	// Capacity and request lifecycle
	{
		pattern: "too many concurrent fetches",
		msg: UserMessage{
			Message: "The service is busy reading the spreadsheet",
			Action:  "Please wait a moment and try again",
			Code:    "BUSY001",
			Status:  http.StatusServiceUnavailable,
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
			Status:  http.StatusRequestTimeout,
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again later",
			Code:    "REQ002",
			Status:  http.StatusGatewayTimeout,
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
			Status:  http.StatusTooManyRequests,
		},
	},
	{
		pattern: "api key",
		msg: UserMessage{
			Message: "A valid API key is required",
			Action:  "Send the key in the X-API-Key header",
			Code:    "AUTH001",
			Status:  http.StatusUnauthorized,
		},
	},
}

// defaultMessage is ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts a technical error to a UserMessage. Validation errors
// keep their own message; everything else is matched against the pattern
// table, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return UserMessage{
			Message: verr.Message,
			Action:  "Fix the request body and try again",
			Code:    verr.Code,
			Status:  http.StatusBadRequest,
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
