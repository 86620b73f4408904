// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	JobLocator JobLocatorConfig `mapstructure:"joblocator"`
	Proxy      ProxyConfig      `mapstructure:"proxy"`
	Logging    LoggingConfig    `mapstructure:"logging"`

	// Patterns and EndpointPathPatterns are opaque to the service; they are
	// handed to UI clients through the config endpoint.
	Patterns             map[string]string `mapstructure:"patterns"`
	EndpointPathPatterns map[string]string `mapstructure:"endpoint_path_patterns"`

	JobsCacheTTLSeconds int      `mapstructure:"jobs_cache_ttl"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
	Debug               bool     `mapstructure:"debug"`
	AppVersion          string   `mapstructure:"app_version"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownSeconds int `mapstructure:"shutdown_seconds"`
}

// JobLocatorConfig selects and parameterizes the job lookup strategy.
type JobLocatorConfig struct {
	K8sOperator K8sOperatorConfig `mapstructure:"k8s_operator"`
}

// K8sOperatorConfig parameterizes the Kubernetes-operator-backed locator.
type K8sOperatorConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	NamespaceToWatch string `mapstructure:"namespace_to_watch"`
	LabelSelector    string `mapstructure:"label_selector"`
}

// ProxyConfig configures backend resolution for the streaming proxy.
type ProxyConfig struct {
	// TargetMap maps application names to backend base URLs,
	// e.g. {"orders": "http://orders-ui:8081"}.
	TargetMap map[string]string `mapstructure:"target_map"`
	// DefaultPort is used when synthesizing a backend URL for an unmapped
	// application name.
	DefaultPort int `mapstructure:"default_port"`
}

// LoggingConfig toggles zap development features and file output.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	FilePath    string `mapstructure:"file_path"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLINKVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8088)
	v.SetDefault("server.shutdown_seconds", 10)
	v.SetDefault("joblocator.k8s_operator.enabled", true)
	v.SetDefault("joblocator.k8s_operator.namespace_to_watch", "default")
	v.SetDefault("joblocator.k8s_operator.label_selector", "")
	v.SetDefault("proxy.default_port", 8081)
	v.SetDefault("proxy.target_map", map[string]string{})
	v.SetDefault("jobs_cache_ttl", 10)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("debug", false)
	v.SetDefault("app_version", "")
	v.SetDefault("patterns", map[string]string{})
	v.SetDefault("endpoint_path_patterns", map[string]string{})
	v.SetDefault("logging.development", false)
	// Keys without a meaningful default still need one registered, or
	// AutomaticEnv never surfaces their FLINKVIEW_* overrides to Unmarshal.
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size_mb", 0)
	v.SetDefault("logging.max_backups", 0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Proxy.DefaultPort <= 0 || c.Proxy.DefaultPort > 65535 {
		return fmt.Errorf("proxy.default_port must be a valid port")
	}
	if c.JobLocator.K8sOperator.Enabled && c.JobLocator.K8sOperator.NamespaceToWatch == "" {
		return fmt.Errorf("joblocator.k8s_operator.namespace_to_watch must be set")
	}
	return nil
}

// JobsCacheTTL returns the cache TTL as a duration. Zero or negative
// configuration disables caching.
func (c Config) JobsCacheTTL() time.Duration {
	return time.Duration(c.JobsCacheTTLSeconds) * time.Second
}

// ResolvedAppVersion returns the configured version or the build fallback.
func (c Config) ResolvedAppVersion(fallback string) string {
	if c.AppVersion != "" {
		return c.AppVersion
	}
	return fallback
}
