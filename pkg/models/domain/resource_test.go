package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		raw  string
		want ResourceKind
	}{
		{"microsoft.compute/virtualMachines", KindVM},
		{"Microsoft.Compute/virtualMachineScaleSets", KindScaleSet},
		{"  microsoft.containerservice/managedclusters ", KindManagedCluster},
		{"VMSS", KindScaleSet},
		{"aks", KindManagedCluster},
		{"microsoft.storage/storageaccounts", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.raw))
		})
	}
}

func TestExemptionSet_ContainsIgnoresCase(t *testing.T) {
	set := NewExemptionSet("sub-1", " ", "Sub-2 ")

	assert.True(t, set.Contains("SUB-1"))
	assert.True(t, set.Contains("sub-2"))
	assert.False(t, set.Contains("sub-3"))
	assert.Equal(t, 2, set.Len())
}

func TestResourceRecord_CompleteOnce(t *testing.T) {
	// Given
	rec := NewResourceRecord(InventoryRow{ResourceID: "/x", ResourceType: "VM"}, false)
	require.Equal(t, StatusUnprocessedInitial, rec.Status)

	// When
	err := rec.Complete(Outcome{Status: StatusErrorDuringStopAction, Err: errors.New("boom")})

	// Then
	require.NoError(t, err)
	assert.Equal(t, StatusErrorDuringStopAction, rec.Status)
	assert.Equal(t, "boom", rec.Information)

	err = rec.Complete(Outcome{Status: StatusSuccess})
	assert.Error(t, err)
	assert.Equal(t, StatusErrorDuringStopAction, rec.Status)
}

func TestRunCounters_Total(t *testing.T) {
	var c RunCounters
	for _, k := range []ResourceKind{KindVM, KindVM, KindScaleSet, KindManagedCluster, KindUnknown} {
		c.Add(k)
	}

	assert.Equal(t, RunCounters{VM: 2, ScaleSet: 1, ManagedCluster: 1, Unknown: 1}, c)
	assert.Equal(t, 5, c.Total())
}

func TestRunResult_Failed(t *testing.T) {
	ok := &ResourceRecord{ID: "a", Status: StatusSuccess}
	bad := &ResourceRecord{ID: "b", Status: StatusNotFound}
	untouched := &ResourceRecord{ID: "c"}

	failed := RunResult{Actionable: []*ResourceRecord{ok, bad, untouched}}.Failed()

	assert.Equal(t, []*ResourceRecord{bad, untouched}, failed)
}
