package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestConfigMergePrecedence(t *testing.T) {
	// Generator for a non-empty string field value.
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	// Generator for a Config with each field either unset or set.
	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasBackendURL") {
			cfg.BackendURL = nonEmptyString.Draw(t, "backendURL")
		}
		if rapid.Bool().Draw(t, "hasBridgeAddr") {
			cfg.BridgeAddr = nonEmptyString.Draw(t, "bridgeAddr")
		}
		if rapid.Bool().Draw(t, "hasLogLevel") {
			cfg.LogLevel = nonEmptyString.Draw(t, "logLevel")
		}
		if rapid.Bool().Draw(t, "hasLogFile") {
			cfg.LogFile = nonEmptyString.Draw(t, "logFile")
		}
		if rapid.Bool().Draw(t, "hasFlushInterval") {
			cfg.FlushIntervalSeconds = rapid.IntRange(1, 600).Draw(t, "flushInterval")
		}
		if rapid.Bool().Draw(t, "hasBurstThreshold") {
			cfg.BurstThreshold = rapid.IntRange(1, 500).Draw(t, "burstThreshold")
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "BackendURL",
			global.BackendURL, project.BackendURL, defaults.BackendURL,
			merged.BackendURL)
		checkStringField(t, "BridgeAddr",
			global.BridgeAddr, project.BridgeAddr, defaults.BridgeAddr,
			merged.BridgeAddr)
		checkStringField(t, "LogLevel",
			global.LogLevel, project.LogLevel, defaults.LogLevel,
			merged.LogLevel)
		checkStringField(t, "LogFile",
			global.LogFile, project.LogFile, defaults.LogFile,
			merged.LogFile)
		checkIntField(t, "FlushIntervalSeconds",
			global.FlushIntervalSeconds, project.FlushIntervalSeconds,
			defaults.FlushIntervalSeconds, merged.FlushIntervalSeconds)
		checkIntField(t, "BurstThreshold",
			global.BurstThreshold, project.BurstThreshold,
			defaults.BurstThreshold, merged.BurstThreshold)
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set — expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set — expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set — expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

// checkIntField is checkStringField for numeric fields, where zero means unset.
func checkIntField(t *rapid.T, name string, globalVal, projectVal, defaultVal, mergedVal int) {
	t.Helper()
	switch {
	case projectVal > 0:
		if mergedVal != projectVal {
			t.Fatalf("%s: both set — expected project value %d, got %d", name, projectVal, mergedVal)
		}
	case globalVal > 0:
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set — expected global value %d, got %d", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set — expected default %d, got %d", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.FlushIntervalSeconds != 20 {
		t.Errorf("FlushIntervalSeconds: want 20, got %d", d.FlushIntervalSeconds)
	}
	if d.BurstThreshold != 20 {
		t.Errorf("BurstThreshold: want 20, got %d", d.BurstThreshold)
	}
	if d.BackendURL == "" {
		t.Error("BackendURL: want a default, got empty")
	}
	if d.IgnorePatterns == nil || len(d.IgnorePatterns) != 0 {
		t.Errorf("IgnorePatterns: want empty slice, got %v", d.IgnorePatterns)
	}
	if got := d.FlushInterval(); got != 20*time.Second {
		t.Errorf("FlushInterval(): want 20s, got %v", got)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	defaults := Defaults()
	if cfg.BackendURL != defaults.BackendURL {
		t.Errorf("BackendURL: want %q, got %q", defaults.BackendURL, cfg.BackendURL)
	}
	if cfg.FlushIntervalSeconds != defaults.FlushIntervalSeconds {
		t.Errorf("FlushIntervalSeconds: want %d, got %d", defaults.FlushIntervalSeconds, cfg.FlushIntervalSeconds)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	tmp := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	// Write an invalid JSON file where LoadGlobal expects it.
	cfgDir := filepath.Join(tmp, ".config", "edittrail")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	want := Defaults()
	want.BackendURL = "http://backend.example:9000"
	want.BurstThreshold = 30

	path, err := GlobalPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if got.BackendURL != want.BackendURL {
		t.Errorf("BackendURL: want %q, got %q", want.BackendURL, got.BackendURL)
	}
	if got.BurstThreshold != want.BurstThreshold {
		t.Errorf("BurstThreshold: want %d, got %d", want.BurstThreshold, got.BurstThreshold)
	}
}
