package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the process configuration. Values come from, in order of
// precedence, flags bound by the caller, PAPER_* environment variables
// (a .env file is loaded into the environment first), the YAML config file
// and the defaults below.
type Settings struct {
	Addr      string `mapstructure:"addr"`
	StateFile string `mapstructure:"state_file"`
	Token     string `mapstructure:"token"`
	TokenHash string `mapstructure:"token_hash"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("state_file", DefaultStateFile())
	v.SetDefault("token", "dev")
	v.SetDefault("token_hash", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	return v
}

// LoadDotEnv loads .env style files into the environment. Missing files are
// not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads the config file, if any, and decodes the result. An explicitly
// named file must exist; the default ~/.config/paper/config.yaml may not.
func Load(v *viper.Viper, file string) (Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "paper"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return s, nil
}

func DefaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "paper", "state.yaml")
}
