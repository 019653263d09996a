package dispatcher

import (
	"context"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Deactivator decides and performs the action for a single record.
type Deactivator interface {
	Deactivate(ctx context.Context, rec *domain.ResourceRecord) domain.Outcome
}

// Simulated leaves every record in its initial state.
type Simulated struct{}

func (Simulated) Deactivate(_ context.Context, _ *domain.ResourceRecord) domain.Outcome {
	return domain.Outcome{
		Status:      domain.StatusUnprocessedInitial,
		Information: domain.InfoSimulated,
	}
}

type Dispatcher struct {
	deactivator Deactivator
}

func New(deactivator Deactivator) *Dispatcher {
	return &Dispatcher{deactivator: deactivator}
}

// Run processes records one at a time, in order, and logs every outcome as it happens.
// Exempt records are never passed to the deactivator.
func (d *Dispatcher) Run(ctx context.Context, records []*domain.ResourceRecord) {
	logger := zerolog.Ctx(ctx)

	for i, rec := range records {
		if rec.Exempt || rec.Completed() {
			continue
		}

		outcome := d.deactivator.Deactivate(ctx, rec)
		if err := rec.Complete(outcome); err != nil {
			logger.Error().Err(err).Str("resource", rec.ID).Msg("outcome discarded")
			continue
		}

		event := logger.Info()
		if rec.Status != domain.StatusSuccess && rec.Status != domain.StatusUnprocessedInitial {
			event = logger.Warn()
		}
		event.
			Int("n", i+1).
			Int("of", len(records)).
			Str("kind", rec.Kind.String()).
			Str("resource", rec.Name).
			Str("resource_id", rec.ID).
			Stringer("status", rec.Status).
			Str("information", outcome.Information).
			AnErr("error", outcome.Err).
			Msg("resource processed")
	}
}
