package classifier

import (
	"context"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Classification partitions an inventory. Every row lands in exactly one of Exempt or Actionable.
type Classification struct {
	Exempt     []*domain.ResourceRecord
	Actionable []*domain.ResourceRecord
	Counters   domain.RunCounters
}

// Classify splits rows by exemption and counts actionable records per kind.
// Exempt records are logged as skipped and are not counted.
func Classify(ctx context.Context, rows []domain.InventoryRow, exemptions domain.ExemptionSet) Classification {
	logger := zerolog.Ctx(ctx)

	result := Classification{
		Exempt:     make([]*domain.ResourceRecord, 0),
		Actionable: make([]*domain.ResourceRecord, 0, len(rows)),
	}

	for _, row := range rows {
		exempt := exemptions.Contains(row.SubscriptionID)
		rec := domain.NewResourceRecord(row, exempt)

		if exempt {
			result.Exempt = append(result.Exempt, rec)
			logger.Info().
				Str("resource", rec.Name).
				Str("subscription", rec.Subscription).
				Str("subscription_id", rec.SubscriptionID).
				Msg("skipped: subscription is exempt")
			continue
		}

		result.Counters.Add(rec.Kind)
		result.Actionable = append(result.Actionable, rec)
	}

	logger.Info().
		Int("total", len(rows)).
		Int("exempt", len(result.Exempt)).
		Int("actionable", len(result.Actionable)).
		Int("vm", result.Counters.VM).
		Int("scale_set", result.Counters.ScaleSet).
		Int("managed_cluster", result.Counters.ManagedCluster).
		Int("unknown", result.Counters.Unknown).
		Msgf("%d resources to process, %d exempt", len(result.Actionable), len(result.Exempt))

	return result
}
