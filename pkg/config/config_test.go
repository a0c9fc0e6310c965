package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/batchfabric/spark-app-monitor/pkg/monitor"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := &Config{
		MetricsAddr:       ":8080",
		LogCacheSize:      monitor.DefaultLogCacheSize,
		LookupTimeout:     monitor.DefaultLookupTimeout,
		PollInterval:      monitor.DefaultPollInterval,
		LeakCheckInterval: monitor.DefaultLeakCheckInterval,
		LeakRetention:     monitor.DefaultLeakRetention,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("namespace: spark-jobs\npoll-interval: 5s\nhistory-server-url: http://history:18080\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Namespace != "spark-jobs" {
		t.Errorf("Namespace mismatch: got %q", cfg.Namespace)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval mismatch: got %v", cfg.PollInterval)
	}
	if cfg.HistoryServerURL != "http://history:18080" {
		t.Errorf("HistoryServerURL mismatch: got %q", cfg.HistoryServerURL)
	}
	// Untouched keys keep their defaults.
	if cfg.LookupTimeout != monitor.DefaultLookupTimeout {
		t.Errorf("LookupTimeout mismatch: got %v", cfg.LookupTimeout)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("namespace: from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPARK_MONITOR_NAMESPACE", "from-env")
	t.Setenv("SPARK_MONITOR_LEAK_RETENTION", "30m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Namespace != "from-env" {
		t.Errorf("Namespace mismatch: got %q, want from-env", cfg.Namespace)
	}
	if cfg.LeakRetention != 30*time.Minute {
		t.Errorf("LeakRetention mismatch: got %v", cfg.LeakRetention)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestMonitorOptions(t *testing.T) {
	cfg := &Config{
		LogCacheSize:      50,
		LookupTimeout:     time.Minute,
		PollInterval:      2 * time.Second,
		LeakCheckInterval: 30 * time.Second,
		LeakRetention:     time.Hour,
		HistoryServerURL:  "http://history:18080",
	}

	want := monitor.Options{
		LogCacheSize:      50,
		LookupTimeout:     time.Minute,
		PollInterval:      2 * time.Second,
		LeakCheckInterval: 30 * time.Second,
		LeakRetention:     time.Hour,
		HistoryServerURL:  "http://history:18080",
	}
	if diff := cmp.Diff(want, cfg.MonitorOptions()); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}
