package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// SecurityConfig locates the credential record and audit log on disk.
type SecurityConfig struct {
	CredentialFile string `mapstructure:"credential_file"`
	AuditLogFile   string `mapstructure:"audit_log_file"`
	SigningKey     string `mapstructure:"signing_key"`
}

type AuthConfig struct {
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 9990)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("security.credential_file", "admin_password.txt")
	v.SetDefault("security.audit_log_file", "security.log")
	v.SetDefault("security.signing_key", "change-this-in-production")
	v.SetDefault("auth.session_secret", "change-this-in-production")
	v.SetDefault("auth.session_ttl", "15m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/hearthguard")
	}

	// Environment variables override
	v.SetEnvPrefix("HEARTHGUARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration. It never reads a config file,
// so it cannot fail even when a malformed config.yaml sits in the working
// directory.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// The defaults above always unmarshal into Config.
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return &cfg
}
