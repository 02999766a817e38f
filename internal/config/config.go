package config

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mrlokans/circulation/internal/entities"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Circulation
		Audit
		Tasks
		OverdueReport
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path        string
		LogLevel    string // silent, error, warn or info
		BusyTimeout time.Duration
	}
	Circulation struct {
		DeletePolicy   entities.DeletePolicy
		LoanPeriodDays int // Due date offset when a checkout omits one
	}
	Audit struct {
		Dir                 string // Overdue report snapshots
		RetentionDays       int    // Days to keep audit events (default: 90)
		FailedRetentionDays int    // Days to keep failed events such as rejected checkouts (default: 365)
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	OverdueReport struct {
		Enabled  bool
		Schedule string // Cron format: "0 8 * * *" = daily at 08:00
	}
)

// LoadDotEnv reads variables from the given files (".env" when none are
// given) into the process environment. Missing files are ignored and
// variables that are already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		log.Printf("Loaded environment from %s", file)
	}
	return nil
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")
	v.SetDefault("database_busy_timeout", "5s")
	v.SetDefault("delete_policy", string(entities.DeleteRejectIfReferenced))
	v.SetDefault("loan_period_days", 30)
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_failed_retention_days", 365)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("overdue_report_enabled", false)
	v.SetDefault("overdue_report_schedule", "0 8 * * *") // Daily at 08:00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:        v.GetString("DATABASE_PATH"),
			LogLevel:    v.GetString("DATABASE_LOG_LEVEL"),
			BusyTimeout: v.GetDuration("DATABASE_BUSY_TIMEOUT"),
		},
		Circulation: Circulation{
			DeletePolicy:   entities.ParseDeletePolicy(v.GetString("DELETE_POLICY")),
			LoanPeriodDays: v.GetInt("LOAN_PERIOD_DAYS"),
		},
		Audit: Audit{
			Dir:                 v.GetString("AUDIT_DIR"),
			RetentionDays:       v.GetInt("AUDIT_RETENTION_DAYS"),
			FailedRetentionDays: v.GetInt("AUDIT_FAILED_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		OverdueReport: OverdueReport{
			Enabled:  v.GetBool("OVERDUE_REPORT_ENABLED"),
			Schedule: v.GetString("OVERDUE_REPORT_SCHEDULE"),
		},
	}
}
