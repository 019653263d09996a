package inventory

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Inventory and exemption column headers.
const (
	ColSubscription   = "Subscription"
	ColSubscriptionID = "SubscriptionID"
	ColResourceType   = "Rsc Type"
	ColResourceName   = "Resource Name"
	ColResourceID     = "RscID"
	ColExemptSubID    = "Sub ID"
)

var ErrMissingColumn = errors.New("missing required column")

var inventoryColumns = []string{ColSubscription, ColSubscriptionID, ColResourceType, ColResourceName, ColResourceID}

// Loader reads tabular files into rows keyed by header.
type Loader interface {
	LoadInventory(ctx context.Context, path string) ([]domain.InventoryRow, error)
	LoadExemptions(ctx context.Context, path string) (domain.ExemptionSet, error)
}

type fileLoader struct{}

func NewLoader() Loader {
	return &fileLoader{}
}

func (l *fileLoader) LoadInventory(ctx context.Context, path string) ([]domain.InventoryRow, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory %s: %w", path, err)
	}
	if err := table.require(inventoryColumns...); err != nil {
		return nil, fmt.Errorf("invalid inventory %s: %w", path, err)
	}

	rows := make([]domain.InventoryRow, 0, len(table.rows))
	for _, r := range table.rows {
		rows = append(rows, domain.InventoryRow{
			Subscription:   table.value(r, ColSubscription),
			SubscriptionID: table.value(r, ColSubscriptionID),
			ResourceType:   table.value(r, ColResourceType),
			ResourceName:   table.value(r, ColResourceName),
			ResourceID:     table.value(r, ColResourceID),
		})
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("rows", len(rows)).Msg("inventory loaded")
	return rows, nil
}

func (l *fileLoader) LoadExemptions(ctx context.Context, path string) (domain.ExemptionSet, error) {
	table, err := readTable(path)
	if err != nil {
		return domain.ExemptionSet{}, fmt.Errorf("failed to read exemptions %s: %w", path, err)
	}
	if err := table.require(ColExemptSubID); err != nil {
		return domain.ExemptionSet{}, fmt.Errorf("invalid exemptions %s: %w", path, err)
	}

	ids := make([]string, 0, len(table.rows))
	for _, r := range table.rows {
		ids = append(ids, table.value(r, ColExemptSubID))
	}
	set := domain.NewExemptionSet(ids...)

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("subscriptions", set.Len()).Msg("exemptions loaded")
	return set, nil
}

// table is a header-indexed view over raw records.
type table struct {
	index map[string]int
	rows  [][]string
}

func newTable(header []string, rows [][]string) *table {
	t := &table{index: make(map[string]int, len(header)), rows: rows}
	for i, h := range header {
		t.index[normalizeHeader(h)] = i
	}
	return t
}

func (t *table) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.index[normalizeHeader(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func (t *table) value(row []string, column string) string {
	i, ok := t.index[normalizeHeader(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func readTable(path string) (*table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSON(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return readCSV(path)
	}
}

func readCSV(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return newTable(nil, nil), nil
	}
	if err != nil {
		return nil, err
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return newTable(header, skipBlank(records)), nil
}

func readXLSX(path string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return newTable(nil, nil), nil
	}
	return newTable(rows[0], skipBlank(rows[1:])), nil
}

// readJSON accepts an array of objects keyed by column name.
func readJSON(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Numbers keep their source text, so IDs like 1000000 are not reformatted.
	dec := json.NewDecoder(f)
	dec.UseNumber()

	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return nil, err
	}

	var header []string
	seen := make(map[string]int)
	for _, obj := range objects {
		for k := range obj {
			if _, ok := seen[k]; !ok {
				seen[k] = len(header)
				header = append(header, k)
			}
		}
	}

	rows := make([][]string, 0, len(objects))
	for _, obj := range objects {
		row := make([]string, len(header))
		for k, v := range obj {
			if v == nil {
				continue
			}
			row[seen[k]] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return newTable(header, rows), nil
}

func skipBlank(records [][]string) [][]string {
	out := records[:0]
	for _, rec := range records {
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}
