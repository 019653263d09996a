package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/de-tools/fleet-stop/pkg/services/provider/azure"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const EnvPrefix = "FLEETSTOP"

const (
	KeyInventory           = "inventory"
	KeyExemptions          = "exemptions"
	KeySimulate            = "simulate"
	KeyConfirmToken        = "confirm_token"
	KeyGracePeriod         = "grace_period"
	KeyExemptReport        = "exempt_report"
	KeyFailedReport        = "failed_report"
	KeyStopManagedClusters = "stop_managed_clusters"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyAzureCredential     = "azure.credential"
	KeyAzureTenantID       = "azure.tenant_id"
	KeyAzureProfile        = "azure.profile"
)

type Config struct {
	Inventory           string        `mapstructure:"inventory" validate:"required"`
	Exemptions          string        `mapstructure:"exemptions" validate:"required"`
	Simulate            bool          `mapstructure:"simulate"`
	ConfirmToken        string        `mapstructure:"confirm_token" validate:"required"`
	GracePeriod         time.Duration `mapstructure:"grace_period" validate:"gte=0"`
	ExemptReport        string        `mapstructure:"exempt_report" validate:"required"`
	FailedReport        string        `mapstructure:"failed_report" validate:"required"`
	StopManagedClusters bool          `mapstructure:"stop_managed_clusters"`
	LogLevel            string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat           string        `mapstructure:"log_format" validate:"oneof=console json"`
	Azure               azure.Config  `mapstructure:"azure"`
}

// SetDefaults registers every key so that env variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyInventory, "")
	v.SetDefault(KeyExemptions, "")
	v.SetDefault(KeySimulate, false)
	v.SetDefault(KeyConfirmToken, "YES")
	v.SetDefault(KeyGracePeriod, 10*time.Second)
	v.SetDefault(KeyExemptReport, "exempt_resources.csv")
	v.SetDefault(KeyFailedReport, "failed_resources.csv")
	v.SetDefault(KeyStopManagedClusters, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyAzureCredential, azure.CredentialCLI)
	v.SetDefault(KeyAzureTenantID, "")
	v.SetDefault(KeyAzureProfile, "")
}

// NewViper returns a viper instance reading FLEETSTOP_* variables, with defaults set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// LoadDotEnv loads variables from a .env file. A missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the optional config file, then decodes and validates the merged settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Azure.ApplyProfileDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	err := validator.New().Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var combined error
	for _, fe := range verrs {
		combined = multierr.Append(combined, fmt.Errorf("invalid %s: %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %w", combined)
}
