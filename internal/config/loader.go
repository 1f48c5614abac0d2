package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the CRM service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	ShutdownTimeout time.Duration

	// Conflict detection and slot suggestion knobs.
	ConflictBuffer time.Duration
	DayStart       time.Duration
	DayEnd         time.Duration
	SlotStep       time.Duration
	MaxSuggestions int

	// Recurrence expansion cap.
	MaxOccurrences int

	// Pattern detection knobs.
	GroupingMajority       float64
	GroupingMinClusterSize int
}

// Load parses configuration values from the current process environment.
//
// Every value has a sensible default so the service starts with an empty
// environment; set values are validated and rejected with a single error
// listing each offending variable.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:trainingcrm.db?_foreign_keys=on",
		ShutdownTimeout: 10 * time.Second,
		ConflictBuffer:  15 * time.Minute,
		DayStart:        6 * time.Hour,
		DayEnd:          21 * time.Hour,
		SlotStep:        30 * time.Minute,
		MaxSuggestions:  5,
		MaxOccurrences:  365,
	}

	invalid := make([]string, 0, 2)

	readInt := func(key string, min int, dst *int) {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			return
		}
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < min {
			invalid = append(invalid, key)
			return
		}
		*dst = parsed
	}

	readDuration := func(key string, dst *time.Duration) {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			return
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, key)
			return
		}
		*dst = parsed
	}

	readInt("TRAININGCRM_HTTP_PORT", 1, &cfg.HTTPPort)
	if dsn := strings.TrimSpace(os.Getenv("TRAININGCRM_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	readDuration("TRAININGCRM_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	readDuration("TRAININGCRM_CONFLICT_BUFFER", &cfg.ConflictBuffer)
	readDuration("TRAININGCRM_DAY_START", &cfg.DayStart)
	readDuration("TRAININGCRM_DAY_END", &cfg.DayEnd)
	readDuration("TRAININGCRM_SLOT_STEP", &cfg.SlotStep)
	readInt("TRAININGCRM_MAX_SUGGESTIONS", 1, &cfg.MaxSuggestions)
	readInt("TRAININGCRM_MAX_OCCURRENCES", 1, &cfg.MaxOccurrences)
	readInt("TRAININGCRM_GROUPING_MIN_CLUSTER", 2, &cfg.GroupingMinClusterSize)

	if value := strings.TrimSpace(os.Getenv("TRAININGCRM_GROUPING_MAJORITY")); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			invalid = append(invalid, "TRAININGCRM_GROUPING_MAJORITY")
		} else {
			cfg.GroupingMajority = parsed
		}
	}

	if cfg.DayEnd <= cfg.DayStart {
		invalid = append(invalid, "TRAININGCRM_DAY_END")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
