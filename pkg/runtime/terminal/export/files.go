package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

var reportColumns = []string{
	"Subscription", "SubscriptionID", "Rsc Type", "Resource Name", "RscID", "Status", "Information",
}

// FileWriter persists the exempt and failed record sets.
type FileWriter struct {
	ExemptPath string
	FailedPath string
}

// Write always produces both files, even when a set is empty.
func (w FileWriter) Write(ctx context.Context, result domain.RunResult) error {
	failed := result.Failed()
	if err := WriteRecords(w.ExemptPath, result.Exempt); err != nil {
		return fmt.Errorf("failed to write exempt report: %w", err)
	}
	if err := WriteRecords(w.FailedPath, failed); err != nil {
		return fmt.Errorf("failed to write failed report: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("exempt_report", w.ExemptPath).
		Int("exempt", len(result.Exempt)).
		Str("failed_report", w.FailedPath).
		Int("failed", len(failed)).
		Msg("reports written")
	return nil
}

// WriteRecords writes records to path in the format implied by its extension.
func WriteRecords(path string, records []*domain.ResourceRecord) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return writeJSON(path, records)
	case ".xlsx":
		return writeXLSX(path, records)
	default:
		return writeCSV(path, records)
	}
}

func row(rec *domain.ResourceRecord) []string {
	return []string{
		rec.Subscription,
		rec.SubscriptionID,
		rec.RawType,
		rec.Name,
		rec.ID,
		rec.Status.String(),
		rec.Information,
	}
}

func writeCSV(path string, records []*domain.ResourceRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	cw := csv.NewWriter(f)
	if err := cw.Write(reportColumns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(row(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(path string, records []*domain.ResourceRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if records == nil {
		records = []*domain.ResourceRecord{}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeXLSX(path string, records []*domain.ResourceRecord) (err error) {
	f := excelize.NewFile()
	defer func() { err = multierr.Append(err, f.Close()) }()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &reportColumns); err != nil {
		return err
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(rec)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
