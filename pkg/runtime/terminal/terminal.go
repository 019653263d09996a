package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/fleet-stop/pkg/runtime/terminal/commands"
	"github.com/de-tools/fleet-stop/pkg/services/config"
	"github.com/de-tools/fleet-stop/pkg/services/dispatcher"
	"github.com/de-tools/fleet-stop/pkg/services/provider/azure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLI represents the command-line interface
type CLI struct {
	session  *commands.Session
	reporter *Reporter
	envFile  string
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output    io.Writer
	LogOutput io.Writer
	// Viper defaults to config.NewViper().
	Viper        *viper.Viper
	Deactivators commands.DeactivatorFactory
	Confirmers   commands.ConfirmerFactory
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Viper == nil {
		opts.Viper = config.NewViper()
	}
	if opts.Deactivators == nil {
		opts.Deactivators = AzureDeactivator
	}

	cli := &CLI{
		session: &commands.Session{
			Viper:        opts.Viper,
			ConfigFile:   new(string),
			Output:       opts.Output,
			LogOutput:    opts.LogOutput,
			Deactivators: opts.Deactivators,
			Confirmers:   opts.Confirmers,
		},
		reporter: NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context, args ...string) error {
	if args != nil {
		cli.rootCmd.SetArgs(args)
	}
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fleetstop",
		Short:         "Bulk deallocation of Azure compute resources from an inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadDotEnv(cli.envFile)
		},
	}
	cmd.SetOut(cli.session.Output)

	cmd.PersistentFlags().StringVarP(cli.session.ConfigFile, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&cli.envFile, "env-file", ".env", "File with FLEETSTOP_* variables")
	cmd.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "console", "Log format: console or json")

	cmd.AddCommand(commands.NewStopCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewPlanCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewKindsCmd(cli.session))

	return cmd
}

// AzureDeactivator wires the live deactivator to the Azure Resource Manager.
func AzureDeactivator(_ context.Context, cfg config.Config, runID string) (dispatcher.Deactivator, error) {
	cred, err := azure.NewCredential(cfg.Azure)
	if err != nil {
		return nil, err
	}
	clients := azure.NewClientsFactory(cred, azure.ClientOptions(runID))
	return dispatcher.NewLive(azure.NewProvider(clients), dispatcher.LiveOptions{
		StopManagedClusters: cfg.StopManagedClusters,
	}), nil
}
