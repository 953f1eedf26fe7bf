// Package sheets mirrors rendered reports into a Google spreadsheet, one
// sheet per report, overwritten on every export.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"zoexpense/internal/export"
	"zoexpense/internal/log"
)

var ErrMissingCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	CredentialsJSON    string
	CredentialsFile    string
	ExtraClientOptions []goption.ClientOption
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New builds the Sheets service from service account credentials, inline
// JSON first and then the file.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	opts := cfg.ExtraClientOptions
	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Report"
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, ErrMissingCredentials
	}
}

// SheetFor names the sheet a report window is written to.
func (e *Exporter) SheetFor(doc export.Document) string {
	return e.sheetName + " " + doc.Report.Window.Label
}

// Export clears the report's sheet and writes the sectioned table from A1.
// RAW input keeps formatted amounts as text.
func (e *Exporter) Export(ctx context.Context, doc export.Document) error {
	sheet := quoteSheet(e.SheetFor(doc))
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, sheet, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	table := export.Table(doc)
	values := make([][]interface{}, len(table))
	for i, row := range table {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	vr := &gsheet.ValueRange{Values: values}
	resp, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, sheet+"!A1", vr).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}

	fields := log.NewFields().
		WithOperation(log.OpExport).
		WithReport(doc.Report.Window.Start, doc.Report.Window.End, doc.Report.TotalCount).
		WithExport("sheets", sheet)
	e.logger.InfoContext(ctx, "Report exported to sheet", append(fields.ToSlice(), "updated_cells", resp.UpdatedCells)...)
	return nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
