package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/fleet-stop/pkg/runtime/terminal/export"
	"github.com/de-tools/fleet-stop/pkg/services/config"
	"github.com/de-tools/fleet-stop/pkg/services/dispatcher"
	"github.com/de-tools/fleet-stop/pkg/services/inventory"
	"github.com/de-tools/fleet-stop/pkg/services/workflow"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type StopCmd struct {
	session   *Session
	presenter workflow.Presenter
}

func NewStopCmd(session *Session, presenter workflow.Presenter) *cobra.Command {
	sc := &StopCmd{session: session, presenter: presenter}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Deallocate every non-exempt resource listed in the inventory",
		Long: "Loads the inventory, skips resources of exempt subscriptions, asks for confirmation " +
			"and then stops virtual machines, scale sets and managed clusters one by one. " +
			"Exempt and not stopped resources are written to report files.",
		RunE: sc.run,
	}

	addInputFlags(cmd)
	cmd.Flags().Bool("simulate", false, "Run every step but leave resources untouched")
	cmd.Flags().String("confirm-token", "YES", "Answer required to proceed (case-sensitive)")
	cmd.Flags().Duration("grace-period", 10*time.Second, "Pause after confirmation during which the run can be interrupted")
	cmd.Flags().String("exempt-report", "exempt_resources.csv", "Path of the exempt resources report (.csv, .json, .xlsx)")
	cmd.Flags().String("failed-report", "failed_resources.csv", "Path of the not stopped resources report (.csv, .json, .xlsx)")
	cmd.Flags().Bool("stop-managed-clusters", false, "Stop scale set backed managed clusters instead of skipping them")
	cmd.Flags().String("azure-credential", "cli", "Azure credential: cli or default")
	cmd.Flags().String("azure-tenant", "", "Azure tenant ID")
	cmd.Flags().String("azure-profile", "", "Section of ~/.azure/config used for defaults")

	return cmd
}

func (sc *StopCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := sc.session.load(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, runID, err := sc.session.start(ctx, cfg)
	if err != nil {
		return err
	}
	logger := zerolog.Ctx(ctx)

	deactivator, err := sc.deactivator(ctx, cfg, runID)
	if err != nil {
		return err
	}

	runner := workflow.NewRunner(
		workflow.RunnerConfig{
			RunID:          runID,
			InventoryPath:  cfg.Inventory,
			ExemptionsPath: cfg.Exemptions,
			Simulate:       cfg.Simulate,
			GracePeriod:    cfg.GracePeriod,
		},
		inventory.NewLoader(),
		sc.session.confirmer(cfg.ConfirmToken),
		deactivator,
		export.FileWriter{ExemptPath: cfg.ExemptReport, FailedPath: cfg.FailedReport},
		sc.presenter,
	)

	if _, err := runner.Run(ctx); err != nil {
		if errors.Is(err, workflow.ErrAborted) {
			fmt.Fprintln(sc.session.output(), "Aborted, no resource was touched.")
			return nil
		}
		return err
	}
	logger.Debug().Msg("stop command done")
	return nil
}

func (sc *StopCmd) deactivator(ctx context.Context, cfg *config.Config, runID string) (dispatcher.Deactivator, error) {
	if cfg.Simulate {
		zerolog.Ctx(ctx).Warn().Msg("simulate mode: no resource will be changed")
		return dispatcher.Simulated{}, nil
	}
	if sc.session.Deactivators == nil {
		return nil, errors.New("no deactivator configured")
	}
	d, err := sc.session.Deactivators(ctx, *cfg, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create deactivator: %w", err)
	}
	return d, nil
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("inventory", "i", "", "Inventory file (.csv, .json, .xlsx)")
	cmd.Flags().StringP("exemptions", "e", "", "Exempt subscriptions file with a 'Sub ID' column")
}
