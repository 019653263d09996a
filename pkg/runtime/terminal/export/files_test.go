package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResult() domain.RunResult {
	exempt := domain.NewResourceRecord(domain.InventoryRow{
		Subscription: "legal", SubscriptionID: "sub-1", ResourceType: "VM", ResourceName: "vm-x", ResourceID: "/vm-x",
	}, true)
	ok := domain.NewResourceRecord(domain.InventoryRow{
		Subscription: "prod", SubscriptionID: "sub-2", ResourceType: "VM", ResourceName: "vm-1", ResourceID: "/vm-1",
	}, false)
	_ = ok.Complete(domain.Outcome{Status: domain.StatusSuccess})
	bad := domain.NewResourceRecord(domain.InventoryRow{
		Subscription: "prod", SubscriptionID: "sub-2", ResourceType: "AKS", ResourceName: "aks-1", ResourceID: "/aks-1",
	}, false)
	_ = bad.Complete(domain.Outcome{Status: domain.StatusCannotBeStopped, Information: "advice"})

	return domain.RunResult{
		Exempt:     []*domain.ResourceRecord{exempt},
		Actionable: []*domain.ResourceRecord{ok, bad},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestFileWriter_Write_CSV(t *testing.T) {
	// Given
	dir := t.TempDir()
	w := FileWriter{
		ExemptPath: filepath.Join(dir, "exempt.csv"),
		FailedPath: filepath.Join(dir, "out", "failed.csv"),
	}

	// When
	err := w.Write(context.Background(), sampleResult())

	// Then
	require.NoError(t, err)

	exempt := readCSV(t, w.ExemptPath)
	require.Len(t, exempt, 2)
	assert.Equal(t, reportColumns, exempt[0])
	assert.Equal(t, "vm-x", exempt[1][3])

	failed := readCSV(t, w.FailedPath)
	require.Len(t, failed, 2)
	assert.Equal(t, []string{"prod", "sub-2", "AKS", "aks-1", "/aks-1", "CannotBeStopped", "advice"}, failed[1])
}

func TestFileWriter_Write_EmptySetsStillProduceFiles(t *testing.T) {
	dir := t.TempDir()
	w := FileWriter{ExemptPath: filepath.Join(dir, "exempt.csv"), FailedPath: filepath.Join(dir, "failed.csv")}

	require.NoError(t, w.Write(context.Background(), domain.RunResult{}))

	assert.Equal(t, [][]string{reportColumns}, readCSV(t, w.ExemptPath))
	assert.Equal(t, [][]string{reportColumns}, readCSV(t, w.FailedPath))
}

func TestWriteRecords_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.json")

	require.NoError(t, WriteRecords(path, sampleResult().Failed()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "CannotBeStopped", got[0]["status"])
	assert.Equal(t, "/aks-1", got[0]["id"])
}

func TestWriteRecords_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exempt.xlsx")

	require.NoError(t, WriteRecords(path, sampleResult().Exempt))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Subscription", rows[0][0])
	assert.Equal(t, "/vm-x", rows[1][4])
}
