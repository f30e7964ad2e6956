package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fieldlog/internal/core"
	"fieldlog/internal/report"
)

// SheetsSink mirrors each company's export into a tab named after the
// company. Cells hold parsed values, so no BOM is written.
type SheetsSink struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// NewSheetsSinkFromEnv authenticates with a service account taken from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsSinkFromEnv(ctx context.Context, spreadsheetID string) (*SheetsSink, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		raw, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = raw
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return NewSheetsSink(ctx, spreadsheetID,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewSheetsSink builds a sink from explicit client options.
func NewSheetsSink(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*SheetsSink, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Write(ctx context.Context, company core.CompanyID, _ string, text string) error {
	rows, err := report.ParseCSV(text)
	if err != nil {
		return fmt.Errorf("parse export: %w", err)
	}

	values := make([][]any, 0, len(rows)+1)
	header := make([]any, len(report.CSVHeader))
	for i, h := range report.CSVHeader {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range rows {
		values = append(values, []any{r.Date, r.TypeLabel, r.Quantity, r.Notes})
	}

	rng := fmt.Sprintf("%s!A:D", company)
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	target := fmt.Sprintf("%s!A1", company)
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, target, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", target, err)
	}

	slog.DebugContext(ctx, "Export mirrored to sheet", "company", company, "rows", len(rows))
	return nil
}
