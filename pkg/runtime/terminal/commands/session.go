package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/fleet-stop/pkg/runtime/logging"
	"github.com/de-tools/fleet-stop/pkg/runtime/terminal/prompt"
	"github.com/de-tools/fleet-stop/pkg/services/config"
	"github.com/de-tools/fleet-stop/pkg/services/dispatcher"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DeactivatorFactory builds the live deactivator for a run. It is not called in simulate mode.
type DeactivatorFactory func(ctx context.Context, cfg config.Config, runID string) (dispatcher.Deactivator, error)

// ConfirmerFactory builds the confirmation gate for the given token.
type ConfirmerFactory func(token string) prompt.Confirmer

// Session holds what every command shares: settings sources and the process streams.
type Session struct {
	Viper        *viper.Viper
	ConfigFile   *string
	Output       io.Writer
	LogOutput    io.Writer
	Deactivators DeactivatorFactory
	Confirmers   ConfirmerFactory
}

var flagKeys = map[string]string{
	"inventory":             config.KeyInventory,
	"exemptions":            config.KeyExemptions,
	"simulate":              config.KeySimulate,
	"confirm-token":         config.KeyConfirmToken,
	"grace-period":          config.KeyGracePeriod,
	"exempt-report":         config.KeyExemptReport,
	"failed-report":         config.KeyFailedReport,
	"stop-managed-clusters": config.KeyStopManagedClusters,
	"log-level":             config.KeyLogLevel,
	"log-format":            config.KeyLogFormat,
	"azure-credential":      config.KeyAzureCredential,
	"azure-tenant":          config.KeyAzureTenantID,
	"azure-profile":         config.KeyAzureProfile,
}

// load binds the flags of the running command only, so that subcommands sharing a flag
// name do not shadow each other.
func (s *Session) load(cmd *cobra.Command) (*config.Config, error) {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = s.Viper.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	file := ""
	if s.ConfigFile != nil {
		file = *s.ConfigFile
	}
	return config.Load(s.Viper, file)
}

// start attaches a run logger to ctx.
func (s *Session) start(ctx context.Context, cfg *config.Config) (context.Context, string, error) {
	runID := uuid.NewString()
	logger, err := logging.New(s.LogOutput, cfg.LogLevel, cfg.LogFormat, runID)
	if err != nil {
		return ctx, "", err
	}
	return logger.WithContext(ctx), runID, nil
}

func (s *Session) output() io.Writer {
	if s.Output == nil {
		return os.Stdout
	}
	return s.Output
}

func (s *Session) confirmer(token string) prompt.Confirmer {
	if s.Confirmers != nil {
		return s.Confirmers(token)
	}
	return prompt.New(os.Stdin, s.output(), token)
}
