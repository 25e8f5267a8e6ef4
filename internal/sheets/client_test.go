package sheets

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/httpretry"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://sheets.test"

func newTestClient(t *testing.T, cfg config.SheetsConfig) *Client {
	t.Helper()
	hc := &http.Client{}
	gock.InterceptClient(hc)
	t.Cleanup(func() {
		gock.RestoreClient(hc)
		gock.Off()
	})

	rc := httpretry.New(hc, httpretry.Defaults{Retries: 1, RetryDelay: time.Millisecond, Timeout: time.Second})
	return NewClient(rc, cfg)
}

func configured() config.SheetsConfig {
	return config.SheetsConfig{SheetID: "sheet-1", APIKey: "k-123", BaseURL: testBase, Range: "A1:Z1000"}
}

func TestFetchSheet_DecodesValues(t *testing.T) {
	c := newTestClient(t, configured())

	gock.New(testBase).
		Get("/v4/spreadsheets/sheet-1/values/A1:Z1000").
		MatchParam("key", "k-123").
		MatchParam("majorDimension", "ROWS").
		MatchParam("valueRenderOption", "UNFORMATTED_VALUE").
		MatchParam("dateTimeRenderOption", "SERIAL_NUMBER").
		MatchHeader("Cache-Control", "no-store").
		Reply(http.StatusOK).
		BodyString(`{"range":"Sheet1!A1:Z1000","values":[["Name","Email","Age"],["Ann","a@x.com",41],["Bob",null,true]]}`)

	sheet, err := c.FetchSheet(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email", "Age"}, sheet.Headers)
	assert.Equal(t, [][]string{{"Ann", "a@x.com", "41"}, {"Bob", "", "true"}}, sheet.Rows)
	assert.True(t, gock.IsDone())
}

func TestFetchSheet_ForceRefreshUsesFormattedDates(t *testing.T) {
	c := newTestClient(t, configured())

	gock.New(testBase).
		Get("/v4/spreadsheets/sheet-1/values/A1:Z1000").
		MatchParam("dateTimeRenderOption", "FORMATTED_STRING").
		Reply(http.StatusOK).
		JSON(map[string]any{"values": [][]string{{"Name"}, {"Ann"}}})

	_, err := c.FetchSheet(context.Background(), true)

	require.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestFetchSheet_HTTPErrorNotRetried(t *testing.T) {
	c := newTestClient(t, configured())

	gock.New(testBase).
		Get("/v4/spreadsheets/sheet-1/values/A1:Z1000").
		Times(1).
		Reply(http.StatusForbidden).
		BodyString(`{"error":{"code":403,"message":"The caller does not have permission"}}`)

	_, err := c.FetchSheet(context.Background(), false)

	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusForbidden, herr.StatusCode)
	assert.Contains(t, herr.Body, "permission")
	assert.False(t, IsDataShape(err))
	assert.True(t, gock.IsDone())
}

func TestFetchSheet_TransportErrorRetried(t *testing.T) {
	c := newTestClient(t, configured())

	gock.New(testBase).
		Get("/v4/spreadsheets/sheet-1/values/A1:Z1000").
		Times(2).
		ReplyError(errors.New("connection reset by peer"))

	_, err := c.FetchSheet(context.Background(), false)

	var terr *httpretry.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 2, terr.Attempts)
	assert.True(t, gock.IsDone())
}

func TestFetchSheet_DataShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"missing values", `{"range":"Sheet1!A1:Z1000"}`, ErrNoValues},
		{"empty values", `{"values":[]}`, ErrNoValues},
		{"empty header row", `{"values":[[],["Ann"]]}`, ErrNoHeaders},
		{"headers only", `{"values":[["Name","Email"]]}`, ErrNoDataRows},
		{"not json", `<html>oops</html>`, ErrMalformed},
		{"values not array", `{"values":"nope"}`, ErrMalformed},
		{"row not array", `{"values":[["Name"],"Ann"]}`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, configured())
			gock.New(testBase).
				Get("/v4/spreadsheets/sheet-1/values/A1:Z1000").
				Reply(http.StatusOK).
				BodyString(tt.body)

			_, err := c.FetchSheet(context.Background(), false)

			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsDataShape(err))
		})
	}
}

func TestFetchSheet_NotConfigured(t *testing.T) {
	cfg := configured()
	cfg.APIKey = ""
	c := newTestClient(t, cfg)

	_, err := c.FetchSheet(context.Background(), false)

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, c.Configured())
}

func TestMetadata(t *testing.T) {
	c := newTestClient(t, configured())

	gock.New(testBase).
		Get("/v4/spreadsheets/sheet-1").
		MatchParam("key", "k-123").
		Reply(http.StatusOK).
		BodyString(`{"properties":{"title":"Staff"},"sheets":[{"properties":{"title":"Sheet1"}},{"properties":{"title":"Archive 2023"}}]}`)

	md, err := c.Metadata(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Staff", md.Title)
	assert.Equal(t, []string{"Sheet1", "Archive 2023"}, md.Sheets)
}

func TestFetchValues_EscapesSheetName(t *testing.T) {
	c := newTestClient(t, configured())

	gock.New(testBase).
		Get("/v4/spreadsheets/sheet-1/values/Archive 2023").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			return req.URL.EscapedPath() == "/v4/spreadsheets/sheet-1/values/Archive%202023", nil
		}).
		Reply(http.StatusOK).
		BodyString(`{"values":[["Name"]]}`)

	values, err := c.FetchValues(context.Background(), "Archive 2023", false)

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name"}}, values)
	assert.True(t, gock.IsDone())
}
