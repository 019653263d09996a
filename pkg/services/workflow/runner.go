package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/fleet-stop/pkg/models/domain"
	"github.com/de-tools/fleet-stop/pkg/services/classifier"
	"github.com/de-tools/fleet-stop/pkg/services/dispatcher"
	"github.com/de-tools/fleet-stop/pkg/services/inventory"
	"github.com/rs/zerolog"
)

// ErrAborted is returned when the operator did not confirm the run.
var ErrAborted = errors.New("run aborted by operator")

type Confirmer interface {
	ConfirmProceed(ctx context.Context) (bool, error)
}

type ReportWriter interface {
	Write(ctx context.Context, result domain.RunResult) error
}

// Presenter shows the summary before confirmation and the outcome after the run.
type Presenter interface {
	Plan(summary domain.RunSummary) error
	Done(result domain.RunResult) error
}

type RunnerConfig struct {
	RunID          string
	InventoryPath  string
	ExemptionsPath string
	Simulate       bool
	// GracePeriod is the pause between confirmation and the first action. It is the last
	// point where the run can be cancelled.
	GracePeriod time.Duration
}

type Runner struct {
	config      RunnerConfig
	loader      inventory.Loader
	confirmer   Confirmer
	deactivator dispatcher.Deactivator
	reports     ReportWriter
	presenter   Presenter
}

func NewRunner(
	config RunnerConfig,
	loader inventory.Loader,
	confirmer Confirmer,
	deactivator dispatcher.Deactivator,
	reports ReportWriter,
	presenter Presenter,
) *Runner {
	return &Runner{
		config:      config,
		loader:      loader,
		confirmer:   confirmer,
		deactivator: deactivator,
		reports:     reports,
		presenter:   presenter,
	}
}

// Plan loads and classifies the inventory and shows the summary. Nothing is mutated.
func (r *Runner) Plan(ctx context.Context) (classifier.Classification, error) {
	rows, exemptions, err := r.load(ctx)
	if err != nil {
		return classifier.Classification{}, err
	}

	c := classifier.Classify(ctx, rows, exemptions)
	if err := r.presenter.Plan(r.summary(c)); err != nil {
		return classifier.Classification{}, fmt.Errorf("failed to present summary: %w", err)
	}
	return c, nil
}

// Run executes the whole pipeline. It returns ErrAborted, and writes no report, when the
// operator declines or cancels during the grace period.
func (r *Runner) Run(ctx context.Context) (*domain.RunResult, error) {
	logger := zerolog.Ctx(ctx)

	c, err := r.Plan(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := r.confirmer.ConfirmProceed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm run: %w", err)
	}
	if !ok {
		logger.Warn().Msg("confirmation not given, no resource was touched")
		return nil, ErrAborted
	}

	if r.config.GracePeriod > 0 {
		logger.Warn().Dur("grace_period", r.config.GracePeriod).Msg("starting after grace period, interrupt now to cancel")
		if err := sleep(ctx, r.config.GracePeriod); err != nil {
			logger.Warn().Msg("cancelled during grace period, no resource was touched")
			return nil, fmt.Errorf("%w: %v", ErrAborted, err)
		}
	}

	// Past this point the run always completes.
	runCtx := context.WithoutCancel(ctx)
	dispatcher.New(r.deactivator).Run(runCtx, c.Actionable)

	result := domain.RunResult{
		Exempt:     c.Exempt,
		Actionable: c.Actionable,
	}
	result.Summary = r.summary(c)
	result.Summary.Failed = len(result.Failed())
	result.Summary.ByStatus = countByStatus(c.Actionable)

	if err := r.reports.Write(runCtx, result); err != nil {
		return &result, err
	}
	if err := r.presenter.Done(result); err != nil {
		return &result, fmt.Errorf("failed to present result: %w", err)
	}

	logger.Info().
		Int("actionable", result.Summary.Actionable).
		Int("failed", result.Summary.Failed).
		Msg("run finished")
	return &result, nil
}

func (r *Runner) load(ctx context.Context) ([]domain.InventoryRow, domain.ExemptionSet, error) {
	rows, err := r.loader.LoadInventory(ctx, r.config.InventoryPath)
	if err != nil {
		return nil, domain.ExemptionSet{}, err
	}

	exemptions, err := r.loader.LoadExemptions(ctx, r.config.ExemptionsPath)
	if err != nil {
		return nil, domain.ExemptionSet{}, err
	}
	return rows, exemptions, nil
}

func (r *Runner) summary(c classifier.Classification) domain.RunSummary {
	return domain.RunSummary{
		RunID:      r.config.RunID,
		Counters:   c.Counters,
		Exempt:     len(c.Exempt),
		Actionable: len(c.Actionable),
		Simulated:  r.config.Simulate,
	}
}

func countByStatus(records []*domain.ResourceRecord) map[string]int {
	out := make(map[string]int)
	for _, rec := range records {
		out[rec.Status.String()]++
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
