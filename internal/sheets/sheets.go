package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Client reads the question table from one spreadsheet and appends
// result rows to it. It authenticates once at construction with a
// service account; there is no retry policy, callers treat failures as
// best-effort where the flow allows it.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// New builds a Sheets client from service-account credentials. The
// private key is commonly double-escaped when it travels through .env
// files, so literal "\n" sequences are unescaped here.
func New(ctx context.Context, clientEmail, privateKey, spreadsheetID string) (*Client, error) {
	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(strings.ReplaceAll(privateKey, `\n`, "\n")),
		Scopes:     []string{sheetsapi.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// FetchQuestionTable returns the given range as a 2-D text grid. Cells
// arrive from the API as interface values and are stringified as-is; no
// trimming or case folding happens here, scoring depends on the literal
// cell text.
func (c *Client) FetchQuestionTable(ctx context.Context, readRange string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %q: %w", readRange, err)
	}
	grid := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, fmt.Sprint(v))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// AppendResultRow appends one row of raw values after the given range.
func (c *Client) AppendResultRow(ctx context.Context, writeRange string, values []string) error {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %q: %w", writeRange, err)
	}
	return nil
}
