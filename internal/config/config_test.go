package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func resetGlobalConfig() {
	globalConfig = &Config{
		BindAddr:           "0.0.0.0",
		DatabasePath:       ".educhain",
		MetricsPort:        12980,
		BlobPlugin:         DefaultBlobPlugin,
		MetadataPlugin:     DefaultMetadataPlugin,
		ShutdownTimeout:    DefaultShutdownTimeout,
		RequiredSignatures: 2,
	}
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
bindAddr: "127.0.0.1"
databasePath: ".educhain-test"
metricsPort: 8088
shutdownTimeout: "10s"
signers:
  - "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
  - "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
  - "0x90F79bf6EB2c4f870365E785982E1f101E93b906"
requiredSignatures: 2
verifiers:
  - "0xbDA5747bFD65F08deb54cb465eB87D40e51B197E"
tracing: true
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-educhain.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	defer os.Remove(tmpFile)

	expected := &Config{
		BindAddr:        "127.0.0.1",
		DatabasePath:    ".educhain-test",
		MetricsPort:     8088,
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		ShutdownTimeout: "10s",
		Signers: []string{
			"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
			"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
			"0x90F79bf6EB2c4f870365E785982E1f101E93b906",
		},
		RequiredSignatures: 2,
		Verifiers: []string{
			"0xbDA5747bFD65F08deb54cb465eB87D40e51B197E",
		},
		Tracing: true,
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()

	// Without Config file
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Expected is the original default values from globalConfig
	expected := &Config{
		BindAddr:           "0.0.0.0",
		DatabasePath:       ".educhain",
		MetricsPort:        12980,
		BlobPlugin:         DefaultBlobPlugin,
		MetadataPlugin:     DefaultMetadataPlugin,
		ShutdownTimeout:    DefaultShutdownTimeout,
		RequiredSignatures: 2,
	}

	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf(
			"config mismatch without file:\nExpected: %+v\nGot:      %+v",
			expected,
			cfg,
		)
	}
}

func TestLoad_WithConfigSection(t *testing.T) {
	resetGlobalConfig()

	// Test with a nested config section alongside plugin sections
	yamlContent := `
config:
  metricsPort: 9000
  requiredSignatures: 3
database:
  blob:
    plugin: badger
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-config-section.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.MetricsPort != 9000 {
		t.Errorf("expected MetricsPort to be 9000, got: %d", cfg.MetricsPort)
	}
	if cfg.RequiredSignatures != 3 {
		t.Errorf(
			"expected RequiredSignatures to be 3, got: %d",
			cfg.RequiredSignatures,
		)
	}
	if cfg.BlobPlugin != "badger" {
		t.Errorf("expected BlobPlugin to be badger, got: %s", cfg.BlobPlugin)
	}
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	resetGlobalConfig()

	yamlContent := `
shutdownTimeout: "not-a-duration"
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-shutdown-timeout.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := LoadConfig(tmpFile); err == nil {
		t.Fatal("expected error for invalid shutdownTimeout, got nil")
	}
}
