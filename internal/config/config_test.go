package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %s, want %s", cfg.ListenAddr, DefaultListenAddr)
	}

	if cfg.DiscoveryTimeout() != DefaultDiscoveryTimeout {
		t.Errorf("DiscoveryTimeout() = %v, want %v", cfg.DiscoveryTimeout(), DefaultDiscoveryTimeout)
	}

	if cfg.FrameInterval() != DefaultFrameInterval {
		t.Errorf("FrameInterval() = %v, want %v", cfg.FrameInterval(), DefaultFrameInterval)
	}

	if cfg.FrameRetryInterval() != DefaultFrameRetryInterval {
		t.Errorf("FrameRetryInterval() = %v, want %v", cfg.FrameRetryInterval(), DefaultFrameRetryInterval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %s, want default %s", cfg.ListenAddr, DefaultListenAddr)
	}
}

func TestLoad_FullFile(t *testing.T) {
	content := `listen_addr: ":9090"
log_level: "debug"
discovery:
  timeout_ms: 2500
  enable_mdns: true
relay:
  frame_interval_ms: 100
  frame_retry_ms: 500
  extractor_url: "http://frames.internal"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %s, want :9090", cfg.ListenAddr)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}

	if !cfg.Discovery.EnableMDNS {
		t.Error("EnableMDNS should be true")
	}

	if cfg.DiscoveryTimeout() != 2500*time.Millisecond {
		t.Errorf("DiscoveryTimeout() = %v, want 2.5s", cfg.DiscoveryTimeout())
	}

	if cfg.FrameInterval() != 100*time.Millisecond {
		t.Errorf("FrameInterval() = %v, want 100ms", cfg.FrameInterval())
	}

	if cfg.FrameRetryInterval() != 500*time.Millisecond {
		t.Errorf("FrameRetryInterval() = %v, want 500ms", cfg.FrameRetryInterval())
	}

	if cfg.Relay.ExtractorURL != "http://frames.internal" {
		t.Errorf("ExtractorURL = %s, want http://frames.internal", cfg.Relay.ExtractorURL)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	// Fields absent from the file keep their defaults
	content := "listen_addr: \":7000\"\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":7000" {
		t.Errorf("ListenAddr = %s, want :7000", cfg.ListenAddr)
	}

	if cfg.DiscoveryTimeout() != DefaultDiscoveryTimeout {
		t.Errorf("DiscoveryTimeout() = %v, want default", cfg.DiscoveryTimeout())
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [not: valid"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestDurationHelpers_ZeroAndNegative(t *testing.T) {
	cfg := &Config{}

	if cfg.DiscoveryTimeout() != DefaultDiscoveryTimeout {
		t.Errorf("zero TimeoutMs should fall back to default, got %v", cfg.DiscoveryTimeout())
	}

	cfg.Discovery.TimeoutMs = -100
	if cfg.DiscoveryTimeout() != DefaultDiscoveryTimeout {
		t.Errorf("negative TimeoutMs should fall back to default, got %v", cfg.DiscoveryTimeout())
	}
}
