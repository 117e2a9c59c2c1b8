package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/robfig/cron"
)

// Backend names accepted by LEDGER_BACKEND.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Default data file names. The snapshot allow-list is built from these.
const (
	UsersFile        = "users.json"
	LedgerCSVFile    = "transactions.csv"
	LedgerDBFile     = "ledger.db"
	RecurrencesFile  = "recurrences.db"
	defaultBackupDir = "backups"
)

type Config struct {
	// Storage
	DataDir         string
	LedgerBackend   string
	LedgerCSVPath   string
	SQLiteDBPath    string
	UsersPath       string
	RecurrencesPath string
	BackupDir       string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker, robfig/cron specs with a leading seconds field
	RecurringSchedule string
	BackupSchedule    string

	LogLevel string
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")
	inData := func(name string) string { return filepath.Join(dataDir, name) }

	return &Config{
		DataDir:         dataDir,
		LedgerBackend:   getEnv("LEDGER_BACKEND", BackendCSV),
		LedgerCSVPath:   getEnv("LEDGER_CSV_PATH", inData(LedgerCSVFile)),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", inData(LedgerDBFile)),
		UsersPath:       getEnv("USERS_PATH", inData(UsersFile)),
		RecurrencesPath: getEnv("RECURRENCES_PATH", inData(RecurrencesFile)),
		BackupDir:       getEnv("BACKUP_DIR", inData(defaultBackupDir)),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		RecurringSchedule: getEnv("RECURRING_SCHEDULE", "0 0 6 * * *"),
		BackupSchedule:    getEnv("BACKUP_SCHEDULE", "0 30 2 * * *"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{BackendCSV, BackendSQLite, BackendMemory}
	if !slices.Contains(validBackends, c.LedgerBackend) {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}

	switch c.LedgerBackend {
	case BackendCSV:
		if c.LedgerCSVPath == "" {
			errors = append(errors, "ledger CSV path cannot be empty when using csv backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	}

	required := []struct{ name, value string }{
		{"USERS_PATH", c.UsersPath},
		{"RECURRENCES_PATH", c.RecurrencesPath},
		{"BACKUP_DIR", c.BackupDir},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", r.name))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	schedules := []struct{ name, spec string }{
		{"RECURRING_SCHEDULE", c.RecurringSchedule},
		{"BACKUP_SCHEDULE", c.BackupSchedule},
	}
	for _, s := range schedules {
		if s.spec == "" {
			continue
		}
		if _, err := cron.Parse(s.spec); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", s.name, s.spec, err))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// LedgerPath returns the on-disk file of the selected backend, or "" for
// the memory backend.
func (c *Config) LedgerPath() string {
	switch c.LedgerBackend {
	case BackendCSV:
		return c.LedgerCSVPath
	case BackendSQLite:
		return c.SQLiteDBPath
	default:
		return ""
	}
}

// SnapshotFiles lists the data files a backup covers. Missing ones are
// skipped when the archive is built.
func (c *Config) SnapshotFiles() []string {
	files := []string{c.UsersPath}
	if p := c.LedgerPath(); p != "" {
		files = append(files, p)
	}
	return append(files, c.RecurrencesPath)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
