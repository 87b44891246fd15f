package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dp.conf")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "[Global]\n")
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.LevelLimit != DefaultLevelLimit {
		t.Fatalf("LevelLimit = %d, want %d", c.LevelLimit, DefaultLevelLimit)
	}
	if c.LogLevel != "INFO" {
		t.Fatalf("LogLevel = %q, want INFO", c.LogLevel)
	}
	if c.Cores != 1 {
		t.Fatalf("Cores = %d, want 1", c.Cores)
	}
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	path := writeTempConfig(t, "[Global]\nLogLevel=NOT_A_LEVEL\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an invalid log level")
	}
}

func TestEnvOverridesFileValue(t *testing.T) {
	path := writeTempConfig(t, "[Global]\nLevelLimit=2\n")
	t.Setenv(envLevelLimit, "3")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.LevelLimit != 3 {
		t.Fatalf("LevelLimit = %d, want 3 (env override)", c.LevelLimit)
	}
}
