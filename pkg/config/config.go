// Package config loads monitor configuration from an optional YAML file and
// SPARK_MONITOR_* environment variables, with sane defaults for everything.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/batchfabric/spark-app-monitor/pkg/monitor"
)

// Config is the full process configuration.
type Config struct {
	// Kubeconfig is the path to a kubeconfig file, used only outside the
	// cluster. Empty means in-cluster config with the usual fallbacks.
	Kubeconfig string

	// Namespace the monitored applications run in. Empty means the pod's
	// own namespace, or "default" outside the cluster.
	Namespace string

	// MetricsAddr is the address the Prometheus endpoint binds to.
	MetricsAddr string

	LogCacheSize      int
	LookupTimeout     time.Duration
	PollInterval      time.Duration
	LeakCheckInterval time.Duration
	LeakRetention     time.Duration
	HistoryServerURL  string
}

// Load reads the configuration. Precedence: environment > config file >
// defaults. path may be empty, in which case no file is read.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("kubeconfig", "")
	v.SetDefault("namespace", "")
	v.SetDefault("metrics-addr", ":8080")
	v.SetDefault("log-cache-size", monitor.DefaultLogCacheSize)
	v.SetDefault("lookup-timeout", monitor.DefaultLookupTimeout)
	v.SetDefault("poll-interval", monitor.DefaultPollInterval)
	v.SetDefault("leak-check-interval", monitor.DefaultLeakCheckInterval)
	v.SetDefault("leak-retention", monitor.DefaultLeakRetention)
	v.SetDefault("history-server-url", "")

	v.SetEnvPrefix("SPARK_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	return &Config{
		Kubeconfig:        v.GetString("kubeconfig"),
		Namespace:         v.GetString("namespace"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogCacheSize:      v.GetInt("log-cache-size"),
		LookupTimeout:     v.GetDuration("lookup-timeout"),
		PollInterval:      v.GetDuration("poll-interval"),
		LeakCheckInterval: v.GetDuration("leak-check-interval"),
		LeakRetention:     v.GetDuration("leak-retention"),
		HistoryServerURL:  v.GetString("history-server-url"),
	}, nil
}

// MonitorOptions converts the loaded configuration into engine options.
func (c *Config) MonitorOptions() monitor.Options {
	return monitor.Options{
		LogCacheSize:      c.LogCacheSize,
		LookupTimeout:     c.LookupTimeout,
		PollInterval:      c.PollInterval,
		LeakCheckInterval: c.LeakCheckInterval,
		LeakRetention:     c.LeakRetention,
		HistoryServerURL:  c.HistoryServerURL,
	}
}
