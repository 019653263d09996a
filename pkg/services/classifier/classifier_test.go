package classifier

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows() []domain.InventoryRow {
	return []domain.InventoryRow{
		{Subscription: "legal", SubscriptionID: "SUB-1", ResourceType: "VM", ResourceName: "vm-exempt", ResourceID: "/a"},
		{Subscription: "prod", SubscriptionID: "sub-2", ResourceType: "microsoft.compute/virtualmachines", ResourceName: "vm-1", ResourceID: "/b"},
		{Subscription: "prod", SubscriptionID: "sub-2", ResourceType: "VMSS", ResourceName: "ss-1", ResourceID: "/c"},
		{Subscription: "prod", SubscriptionID: "sub-2", ResourceType: "AKS", ResourceName: "aks-1", ResourceID: "/d"},
		{Subscription: "prod", SubscriptionID: "sub-2", ResourceType: "microsoft.web/sites", ResourceName: "site", ResourceID: "/e"},
		{Subscription: "legal", SubscriptionID: "sub-1", ResourceType: "garbage", ResourceName: "x", ResourceID: "/f"},
	}
}

func TestClassify_PartitionIsExclusive(t *testing.T) {
	// Given
	in := rows()
	exemptions := domain.NewExemptionSet("sub-1")

	// When
	got := Classify(context.Background(), in, exemptions)

	// Then
	require.Equal(t, len(in), len(got.Exempt)+len(got.Actionable))
	seen := make(map[string]int)
	for _, rec := range got.Exempt {
		assert.True(t, rec.Exempt)
		seen[rec.ID]++
	}
	for _, rec := range got.Actionable {
		assert.False(t, rec.Exempt)
		seen[rec.ID]++
	}
	for _, row := range in {
		assert.Equal(t, 1, seen[row.ResourceID], row.ResourceID)
	}
}

func TestClassify_ExemptionIgnoresCase(t *testing.T) {
	got := Classify(context.Background(), rows()[:1], domain.NewExemptionSet("sub-1"))

	require.Len(t, got.Exempt, 1)
	assert.Equal(t, "vm-exempt", got.Exempt[0].Name)
	assert.Empty(t, got.Actionable)
}

func TestClassify_CountersCoverActionableOnly(t *testing.T) {
	got := Classify(context.Background(), rows(), domain.NewExemptionSet("sub-1"))

	assert.Equal(t, domain.RunCounters{VM: 1, ScaleSet: 1, ManagedCluster: 1, Unknown: 1}, got.Counters)
	assert.Equal(t, len(got.Actionable), got.Counters.Total())
}

func TestClassify_RecordsStartUnprocessed(t *testing.T) {
	got := Classify(context.Background(), rows(), domain.NewExemptionSet())

	require.Len(t, got.Actionable, 6)
	for _, rec := range got.Actionable {
		assert.Equal(t, domain.StatusUnprocessedInitial, rec.Status)
		assert.False(t, rec.Completed())
	}
	assert.Equal(t, domain.KindUnknown, got.Actionable[5].Kind)
}

func TestClassify_LogsEachExemptResource(t *testing.T) {
	// Given
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	// When
	Classify(ctx, rows(), domain.NewExemptionSet("SUB-1"))

	// Then
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "skipped: subscription is exempt"))
	assert.Contains(t, out, "4 resources to process, 2 exempt")
}

func TestClassify_ExemptRecordsKeepInitialState(t *testing.T) {
	got := Classify(context.Background(), rows(), domain.NewExemptionSet("sub-1"))

	require.Len(t, got.Exempt, 2)
	for _, rec := range got.Exempt {
		assert.Equal(t, domain.StatusUnprocessedInitial, rec.Status)
		assert.Empty(t, rec.Information)
		assert.False(t, rec.Completed())
	}
}
