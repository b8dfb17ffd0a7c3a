// Package google adapts the Sheets API to the table port. Each tab of one
// spreadsheet becomes a Table; the client caches numeric sheet ids because
// the batchUpdate calls address tabs by id, not by name.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	ports "gastos/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

var _ ports.Tables = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

func (c *Client) Table(name string) ports.Table {
	return &table{client: c, name: strings.TrimSpace(name)}
}

// EnsureSheet creates the named tab if the spreadsheet does not have it.
func (c *Client) EnsureSheet(ctx context.Context, name string) error {
	if _, err := c.sheetID(ctx, name); err == nil {
		return nil
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: name},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	c.mu.Lock()
	delete(c.sheetIDs, name)
	c.mu.Unlock()
	return nil
}

// sheetID resolves a tab name to its numeric id, caching the lookup.
func (c *Client) sheetID(ctx context.Context, name string) (int64, error) {
	c.mu.Lock()
	if id, ok := c.sheetIDs[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range meta.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	if id, ok := c.sheetIDs[name]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", name)
}

type table struct {
	client *Client
	name   string
}

func (t *table) GetRows(ctx context.Context) ([][]string, error) {
	resp, err := t.client.svc.Spreadsheets.Values.Get(t.client.spreadsheetID, t.name).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", t.name, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strings.TrimSpace(fmt.Sprint(v))
		}
		rows[i] = cells
	}
	return rows, nil
}

func (t *table) AppendRow(ctx context.Context, values []string) error {
	vr := &gsheet.ValueRange{Values: [][]any{toAnyRow(values)}}
	_, err := t.client.svc.Spreadsheets.Values.Append(t.client.spreadsheetID, t.name, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", t.name, err)
	}
	return nil
}

func (t *table) UpdateRow(ctx context.Context, index int, values []string) error {
	if index < 1 {
		return fmt.Errorf("update row %d in sheet %s: out of range", index, t.name)
	}
	rng := fmt.Sprintf("%s!A%d", t.name, index)
	vr := &gsheet.ValueRange{Values: [][]any{toAnyRow(values)}}
	_, err := t.client.svc.Spreadsheets.Values.Update(t.client.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d in sheet %s: %w", index, t.name, err)
	}
	return nil
}

func (t *table) InsertRowBefore(ctx context.Context, index int) error {
	if index < 1 {
		return fmt.Errorf("insert before row %d in sheet %s: out of range", index, t.name)
	}
	sheetID, err := t.client.sheetID(ctx, t.name)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			InsertDimension: &gsheet.InsertDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(index - 1),
					EndIndex:   int64(index),
				},
				InheritFromBefore: false,
			},
		}},
	}
	_, err = t.client.svc.Spreadsheets.BatchUpdate(t.client.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert row %d in sheet %s: %w", index, t.name, err)
	}
	return nil
}

func (t *table) ClearRow(ctx context.Context, index int) error {
	if index < 1 {
		return fmt.Errorf("clear row %d in sheet %s: out of range", index, t.name)
	}
	rng := fmt.Sprintf("%s!%d:%d", t.name, index, index)
	_, err := t.client.svc.Spreadsheets.Values.Clear(t.client.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", index, t.name, err)
	}
	return nil
}

func toAnyRow(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
