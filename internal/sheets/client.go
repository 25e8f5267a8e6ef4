// Package sheets reads cell values from the Google Sheets v4 values API.
//
// The client only speaks the read-only, key-authenticated subset of the API:
// one bounded A1 range of the first sheet, plus spreadsheet metadata for
// connection diagnostics. All requests go through httpretry.
package sheets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/httpretry"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

const userAgent = "roster/1.0"

// maxErrorBody bounds the upstream error text kept in HTTPError.
const maxErrorBody = 512

var (
	// ErrNotConfigured means the sheet id or api key is missing.
	ErrNotConfigured = errors.New("sheets: sheet id or api key not configured")

	// ErrMalformed means the upstream body was not the expected JSON shape.
	ErrMalformed = errors.New("sheets: malformed values payload")

	// ErrNoValues means the response carried no rows at all.
	ErrNoValues = errors.New("sheets: no values in range")

	// ErrNoHeaders means the first row is empty.
	ErrNoHeaders = errors.New("sheets: missing header row")

	// ErrNoDataRows means only the header row is present.
	ErrNoDataRows = errors.New("sheets: no data rows")
)

// IsDataShape reports whether err describes an unusable payload rather than
// a transport or HTTP failure.
func IsDataShape(err error) bool {
	return errors.IsAny(err, ErrMalformed, ErrNoValues, ErrNoHeaders, ErrNoDataRows)
}

// HTTPError is a well-formed, non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sheets: upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}

// RawSheet is the header row plus the data rows of one fetched range.
type RawSheet struct {
	Headers []string
	Rows    [][]string
}

// NewRawSheet splits decoded values into headers and rows, rejecting
// payloads without a usable header row or without data rows.
func NewRawSheet(values [][]string) (*RawSheet, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	if len(values[0]) == 0 {
		return nil, ErrNoHeaders
	}
	if len(values) < 2 {
		return nil, ErrNoDataRows
	}
	return &RawSheet{Headers: values[0], Rows: values[1:]}, nil
}

// Metadata describes a spreadsheet document.
type Metadata struct {
	Title  string
	Sheets []string
}

// Client fetches values for one configured spreadsheet.
type Client struct {
	http    *httpretry.Client
	baseURL string
	sheetID string
	apiKey  string
	rng     string
}

// NewClient creates a Client for the spreadsheet described by cfg.
func NewClient(hc *httpretry.Client, cfg config.SheetsConfig) *Client {
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		sheetID: cfg.SheetID,
		apiKey:  cfg.APIKey,
		rng:     cfg.Range,
	}
}

// Configured reports whether both the sheet id and the api key are set.
func (c *Client) Configured() bool {
	return c.sheetID != "" && c.apiKey != ""
}

// Range returns the default A1 range.
func (c *Client) Range() string {
	return c.rng
}

// FetchSheet fetches the default range and splits it into headers and rows.
func (c *Client) FetchSheet(ctx context.Context, forceRefresh bool) (*RawSheet, error) {
	values, err := c.FetchValues(ctx, c.rng, forceRefresh)
	if err != nil {
		return nil, err
	}
	return NewRawSheet(values)
}

// FetchValues fetches the raw cell grid of an A1 range, unformatted.
// A forced refresh asks for formatted date strings instead of serial numbers.
func (c *Client) FetchValues(ctx context.Context, rangeA1 string, forceRefresh bool) ([][]string, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	dateRender := "SERIAL_NUMBER"
	if forceRefresh {
		dateRender = "FORMATTED_STRING"
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("majorDimension", "ROWS")
	q.Set("valueRenderOption", "UNFORMATTED_VALUE")
	q.Set("dateTimeRenderOption", dateRender)

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?%s",
		c.baseURL, url.PathEscape(c.sheetID), url.PathEscape(rangeA1), q.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return DecodeValues(body)
}

// Metadata fetches the spreadsheet title and its sheet names.
func (c *Client) Metadata(ctx context.Context) (*Metadata, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s?%s", c.baseURL, url.PathEscape(c.sheetID), q.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.Wrap(ErrMalformed, "metadata")
	}

	md := &Metadata{Title: gjson.GetBytes(body, "properties.title").String()}
	for _, t := range gjson.GetBytes(body, "sheets.#.properties.title").Array() {
		md.Sheets = append(md.Sheets, t.String())
	}
	return md, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	resp, err := c.http.Do(ctx, endpoint,
		httpretry.WithMethod(http.MethodGet),
		httpretry.WithHeader("Accept", "application/json"),
		httpretry.WithHeader("User-Agent", userAgent),
	)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		text := string(resp.Body)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(text)}
	}
	return resp.Body, nil
}

// DecodeValues extracts the "values" grid from a values API response.
// Numbers and booleans are rendered to their JSON text, nulls become "".
// A missing "values" field decodes to an empty grid.
func DecodeValues(body []byte) ([][]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformed
	}

	values := gjson.GetBytes(body, "values")
	if !values.Exists() {
		return nil, nil
	}
	if !values.IsArray() {
		return nil, errors.Wrap(ErrMalformed, "values is not an array")
	}

	var grid [][]string
	var shapeErr error
	values.ForEach(func(_, row gjson.Result) bool {
		if !row.IsArray() {
			shapeErr = errors.Wrap(ErrMalformed, "row is not an array")
			return false
		}
		cells := make([]string, 0, len(row.Array()))
		row.ForEach(func(_, cell gjson.Result) bool {
			cells = append(cells, cellText(cell))
			return true
		})
		grid = append(grid, cells)
		return true
	})
	if shapeErr != nil {
		return nil, shapeErr
	}
	return grid, nil
}

func cellText(cell gjson.Result) string {
	if cell.Type == gjson.Null {
		return ""
	}
	return cell.String()
}
