package cmd

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// probeConfig mirrors the subset of acm.Options a demo run needs, loaded
// from a YAML file and environment variables (ACM_PROBE_ prefix), with the
// environment taking precedence. No command-line flag sets these fields.
type probeConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	Namespace      string        `mapstructure:"namespace"`
	AccessKey      string        `mapstructure:"access_key"`
	SecretKey      string        `mapstructure:"secret_key"`
	TLSEnabled     bool          `mapstructure:"tls_enabled"`
	CAIEnabled     bool          `mapstructure:"cai_enabled"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	PullingTimeout time.Duration `mapstructure:"pulling_timeout"`
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("tls_enabled", false)
	v.SetDefault("cai_enabled", true)
	v.SetDefault("default_timeout", "3s")
	v.SetDefault("pulling_timeout", "30s")
}

// loadConfig reads probeConfig from configPath (if non-empty) plus
// ACM_PROBE_-prefixed environment overrides, the way the teacher's
// LoadConfig layers a YAML file under AutomaticEnv.
func loadConfig(configPath string) (probeConfig, error) {
	v := viper.New()
	setConfigDefaults(v)

	v.SetEnvPrefix("ACM_PROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"endpoint", "namespace", "access_key", "secret_key"} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return probeConfig{}, err
			}
		}
	}

	var cfg probeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return probeConfig{}, err
	}
	return cfg, nil
}
