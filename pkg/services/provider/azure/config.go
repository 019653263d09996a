package azure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"gopkg.in/ini.v1"
)

const (
	DefaultProfile = "default"

	CredentialCLI     = "cli"
	CredentialDefault = "default"
)

type Config struct {
	// Credential selects the azidentity credential: "cli" or "default".
	Credential string `mapstructure:"credential" validate:"omitempty,oneof=cli default"`
	TenantID   string `mapstructure:"tenant_id"`
	// Profile is a section of ~/.azure/config used to fill in a missing tenant.
	Profile string `mapstructure:"profile"`
}

// ApplyProfileDefaults fills TenantID from the profile section of ~/.azure/config.
// A missing config file is not an error.
func (c *Config) ApplyProfileDefaults() error {
	if c.TenantID != "" {
		return nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("unable to get home directory: %w", err)
	}
	return c.applyProfileFile(filepath.Join(homeDir, ".azure", "config"))
}

func (c *Config) applyProfileFile(path string) error {
	profile := c.Profile
	if profile == "" {
		profile = DefaultProfile
	}

	cfg, err := ini.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to load Azure config file: %w", err)
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		if c.Profile == "" {
			return nil
		}
		return fmt.Errorf("profile %s not found in Azure config: %w", profile, err)
	}
	c.TenantID = section.Key("tenant").String()
	return nil
}

// NewCredential builds the token credential used by every ARM client.
func NewCredential(cfg Config) (azcore.TokenCredential, error) {
	switch cfg.Credential {
	case CredentialDefault:
		cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			TenantID: cfg.TenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create default Azure credential: %w", err)
		}
		return cred, nil
	case CredentialCLI, "":
		cred, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: cfg.TenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure CLI credential: %w", err)
		}
		return cred, nil
	default:
		return nil, fmt.Errorf("unsupported credential type %q", cfg.Credential)
	}
}
