package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadInventory_CSV_MapsColumns(t *testing.T) {
	// Given
	path := writeFile(t, "inventory.csv", "\ufeffSubscription,SubscriptionID,Rsc Type,Resource Name,RscID\n"+
		"prod,SUB-1,microsoft.compute/virtualmachines,vm-1,/subscriptions/SUB-1/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm-1\n"+
		",,,,\n"+
		"dev, sub-2 ,aks,cluster-1,/subscriptions/sub-2/resourceGroups/rg/providers/Microsoft.ContainerService/managedClusters/cluster-1\n")

	// When
	rows, err := NewLoader().LoadInventory(context.Background(), path)

	// Then
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.InventoryRow{
		Subscription:   "prod",
		SubscriptionID: "SUB-1",
		ResourceType:   "microsoft.compute/virtualmachines",
		ResourceName:   "vm-1",
		ResourceID:     "/subscriptions/SUB-1/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm-1",
	}, rows[0])
	assert.Equal(t, "sub-2", rows[1].SubscriptionID)
}

func TestLoadInventory_MissingColumn_ReturnsError(t *testing.T) {
	path := writeFile(t, "inventory.csv", "Subscription,SubscriptionID,Resource Name\nprod,SUB-1,vm-1\n")

	_, err := NewLoader().LoadInventory(context.Background(), path)

	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Rsc Type")
	assert.Contains(t, err.Error(), "RscID")
}

func TestLoadInventory_MissingFile_ReturnsError(t *testing.T) {
	_, err := NewLoader().LoadInventory(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInventory_JSON(t *testing.T) {
	path := writeFile(t, "inventory.json", `[
  {"Subscription": "prod", "SubscriptionID": "SUB-1", "Rsc Type": "VMSS", "Resource Name": "ss-1", "RscID": "/id/ss-1"}
]`)

	rows, err := NewLoader().LoadInventory(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "VMSS", rows[0].ResourceType)
	assert.Equal(t, "/id/ss-1", rows[0].ResourceID)
}

func TestLoadInventory_JSON_NumbersKeepSourceText(t *testing.T) {
	// Given
	path := writeFile(t, "inventory.json", `[
  {"Subscription": 1000000, "SubscriptionID": "sub-1", "Rsc Type": "VM", "Resource Name": 12345678901234567890, "RscID": "/id/vm"}
]`)
	exemptPath := writeFile(t, "exempt.json", `[{"Sub ID": 1000000}]`)

	// When
	rows, err := NewLoader().LoadInventory(context.Background(), path)
	require.NoError(t, err)
	exemptions, err := NewLoader().LoadExemptions(context.Background(), exemptPath)
	require.NoError(t, err)

	// Then
	require.Len(t, rows, 1)
	assert.Equal(t, "1000000", rows[0].Subscription)
	assert.Equal(t, "12345678901234567890", rows[0].ResourceName)
	assert.True(t, exemptions.Contains("1000000"))
}

func TestLoadInventory_XLSX(t *testing.T) {
	// Given
	path := filepath.Join(t.TempDir(), "inventory.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	values := [][]any{
		{"Subscription", "SubscriptionID", "Rsc Type", "Resource Name", "RscID"},
		{"prod", "SUB-1", "VM", "vm-1", "/id/vm-1"},
	}
	for r, row := range values {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	// When
	rows, err := NewLoader().LoadInventory(context.Background(), path)

	// Then
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "vm-1", rows[0].ResourceName)
}

func TestLoadExemptions(t *testing.T) {
	path := writeFile(t, "exempt.csv", "Name,Sub ID\nlegal,sub-1\nfinance,SUB-9\n")

	set, err := NewLoader().LoadExemptions(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("SUB-1"))
	assert.True(t, set.Contains("sub-9"))
}

func TestLoadExemptions_MissingColumn(t *testing.T) {
	path := writeFile(t, "exempt.csv", "Subscription\nsub-1\n")

	_, err := NewLoader().LoadExemptions(context.Background(), path)

	assert.ErrorIs(t, err, ErrMissingColumn)
}
