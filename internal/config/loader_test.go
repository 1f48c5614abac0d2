package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	clearEnv := func(t *testing.T) {
		t.Helper()
		for _, key := range []string{
			"TRAININGCRM_HTTP_PORT",
			"TRAININGCRM_SQLITE_DSN",
			"TRAININGCRM_SHUTDOWN_TIMEOUT",
			"TRAININGCRM_CONFLICT_BUFFER",
			"TRAININGCRM_DAY_START",
			"TRAININGCRM_DAY_END",
			"TRAININGCRM_SLOT_STEP",
			"TRAININGCRM_MAX_SUGGESTIONS",
			"TRAININGCRM_MAX_OCCURRENCES",
			"TRAININGCRM_GROUPING_MAJORITY",
			"TRAININGCRM_GROUPING_MIN_CLUSTER",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}
	}

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:trainingcrm.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.ConflictBuffer != 15*time.Minute {
			t.Fatalf("unexpected default conflict buffer: %v", cfg.ConflictBuffer)
		}
		if cfg.MaxOccurrences != 365 {
			t.Fatalf("unexpected default occurrence cap: %d", cfg.MaxOccurrences)
		}
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRAININGCRM_HTTP_PORT", "9090")
		t.Setenv("TRAININGCRM_SQLITE_DSN", "file:other.db")
		t.Setenv("TRAININGCRM_CONFLICT_BUFFER", "20m")
		t.Setenv("TRAININGCRM_MAX_SUGGESTIONS", "3")
		t.Setenv("TRAININGCRM_GROUPING_MAJORITY", "0.8")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:other.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.ConflictBuffer != 20*time.Minute {
			t.Fatalf("unexpected conflict buffer: %v", cfg.ConflictBuffer)
		}
		if cfg.MaxSuggestions != 3 {
			t.Fatalf("unexpected suggestion cap: %d", cfg.MaxSuggestions)
		}
		if cfg.GroupingMajority != 0.8 {
			t.Fatalf("unexpected grouping majority: %v", cfg.GroupingMajority)
		}
	})

	t.Run("reports every invalid value at once", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRAININGCRM_HTTP_PORT", "zero")
		t.Setenv("TRAININGCRM_CONFLICT_BUFFER", "-5m")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, key := range []string{"TRAININGCRM_HTTP_PORT", "TRAININGCRM_CONFLICT_BUFFER"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("error %q does not mention %s", err.Error(), key)
			}
		}
	})

	t.Run("rejects a day window that never opens", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRAININGCRM_DAY_START", "22h")
		t.Setenv("TRAININGCRM_DAY_END", "6h")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for inverted day window")
		}
		if !strings.Contains(err.Error(), "TRAININGCRM_DAY_END") {
			t.Fatalf("error %q does not mention the day window", err.Error())
		}
	})
}
