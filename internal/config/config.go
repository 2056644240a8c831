package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the typed application configuration. Every key can also be set
// through QEFDATA_* environment variables (dots become underscores) or CLI
// flags bound by LoadConfig.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`
	Language string `mapstructure:"language" yaml:"language"`
	// DataDir is where fetched datasets land, laid out as in the data repository.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	Index   struct {
		URL     string `mapstructure:"url" yaml:"url"`
		Package string `mapstructure:"package" yaml:"package"`
	} `mapstructure:"index" yaml:"index"`
	Git struct {
		URL     string `mapstructure:"url" yaml:"url"`
		DataURL string `mapstructure:"data_url" yaml:"data_url"`
	} `mapstructure:"git" yaml:"git"`
	Archive struct {
		URL string `mapstructure:"url" yaml:"url"`
	} `mapstructure:"archive" yaml:"archive"`
	Raw struct {
		URL string `mapstructure:"url" yaml:"url"`
	} `mapstructure:"raw" yaml:"raw"`
	SFTP struct {
		Host string `mapstructure:"host" yaml:"host"`
		User string `mapstructure:"user" yaml:"user"`
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"sftp" yaml:"sftp"`
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "QEFData")
		default: // Linux, macOS, etc.
			configDir = "/etc/qefdata"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "qefdata")
	}

	return filepath.Join(configDir, "qefdata.yaml"), nil
}

func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additional_config_file_path *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths (new format: qefdata.yaml)
	v.SetConfigName("qefdata")
	v.SetConfigType("yaml")

	// 3. Add explicit config file path if provided via --config flag.
	// This has the highest precedence for file-based configuration.
	if additional_config_file_path != nil {
		v.SetConfigFile(*additional_config_file_path)
	}

	// 3. Add standard config locations
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for qefdata.yaml in current dir

	// 5. Read in the primary config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	} else if used := v.ConfigFileUsed(); used != "" {
		// Treat a zero-length candidate as not found so first-run setup can
		// write a real default file in its place.
		if fi, statErr := os.Stat(used); statErr == nil && fi.Size() == 0 {
			return c, viper.ConfigFileNotFoundError{}
		}
	}

	// 6. For backward compatibility, check for and merge `.qefdata.yaml` in the current directory.
	mergeLegacyConfig(v)

	// 7. Read from environment variables
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("qefdata")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// cli
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	// parse config
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// mergeLegacyConfig checks for a `.qefdata.yaml` file in the current directory
// and merges it into the viper configuration if found. This is for backward compatibility.
func mergeLegacyConfig(v *viper.Viper) {
	legacyConfigFile := ".qefdata.yaml"
	if _, err := os.Stat(legacyConfigFile); err == nil {
		// File exists, let's try to merge it.
		v.SetConfigFile(legacyConfigFile)
		// MergeInConfig will not error on file not found, but we already checked.
		// It will error on a malformed file, which is the desired behavior.
		// We can ignore the error for this compatibility layer to avoid breaking startup.
		_ = v.MergeInConfig()
		// Reset the config file path to avoid side effects.
		v.SetConfigFile("")
	}
}

func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	err = os.WriteFile(path, data, 0600) // Use 0600 for security, as it may contain secrets
	if err != nil {
		return err
	}

	return nil
}
