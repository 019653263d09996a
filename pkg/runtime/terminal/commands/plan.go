package commands

import (
	"github.com/de-tools/fleet-stop/pkg/services/dispatcher"
	"github.com/de-tools/fleet-stop/pkg/services/inventory"
	"github.com/de-tools/fleet-stop/pkg/services/workflow"
	"github.com/spf13/cobra"
)

type PlanCmd struct {
	session   *Session
	presenter workflow.Presenter
}

func NewPlanCmd(session *Session, presenter workflow.Presenter) *cobra.Command {
	pc := &PlanCmd{session: session, presenter: presenter}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Classify the inventory and print what stop would do",
		RunE:  pc.run,
	}
	addInputFlags(cmd)
	return cmd
}

func (pc *PlanCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := pc.session.load(cmd)
	if err != nil {
		return err
	}

	ctx, runID, err := pc.session.start(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	runner := workflow.NewRunner(
		workflow.RunnerConfig{
			RunID:          runID,
			InventoryPath:  cfg.Inventory,
			ExemptionsPath: cfg.Exemptions,
			Simulate:       true,
		},
		inventory.NewLoader(),
		nil,
		dispatcher.Simulated{},
		nil,
		pc.presenter,
	)

	_, err = runner.Plan(ctx)
	return err
}
