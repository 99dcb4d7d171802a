package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is used when no flag, variable or profile names a service.
const DefaultBaseURL = "http://localhost:5000"

// Config represents the CLI configuration
type Config struct {
	DefaultProfile string             `yaml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is one named prediction service.
type Profile struct {
	BaseURL string `yaml:"base_url"`
}

// GetConfigPath returns the path to the config file. ERISK_CONFIG overrides
// the default location under the home directory.
func GetConfigPath() (string, error) {
	if p := os.Getenv("ERISK_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".erisk", "config.yaml"), nil
}

// LoadConfig loads the configuration from file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Profiles: make(map[string]Profile)}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveBaseURL picks the service to talk to.
// Priority: --base-url flag > ERISK_BASE_URL > config profile > DefaultBaseURL
func ResolveBaseURL(profile, baseURLFlag string) (string, error) {
	if baseURLFlag != "" {
		return baseURLFlag, nil
	}
	if envBaseURL := os.Getenv("ERISK_BASE_URL"); envBaseURL != "" {
		return envBaseURL, nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}

	if profile == "" {
		profile = cfg.DefaultProfile
	}
	if profile == "" {
		return DefaultBaseURL, nil
	}

	p, ok := cfg.Profiles[profile]
	if !ok {
		return "", fmt.Errorf("profile '%s' not found in config", profile)
	}
	if p.BaseURL == "" {
		return "", fmt.Errorf("base_url must be configured for profile '%s'", profile)
	}
	return p.BaseURL, nil
}

// InitConfig creates a default config file
func InitConfig() error {
	cfg := &Config{
		DefaultProfile: "local",
		Profiles: map[string]Profile{
			"local": {BaseURL: DefaultBaseURL},
		},
	}

	return SaveConfig(cfg)
}
