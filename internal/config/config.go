package config

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type JobsConfig struct {
	// LeaseTimeout is how long a RUNNING ledger row holds its lock before the next
	// run reclaims it. Zero disables reclamation.
	LeaseTimeout          time.Duration     `mapstructure:"lease_timeout"`
	RunRetentionDays      int               `mapstructure:"run_retention_days"`
	DefaultCommissionRate string            `mapstructure:"default_commission_rate"`
	Schedules             map[string]string `mapstructure:"schedules"`
}

type BackupConfig struct {
	Store         string `mapstructure:"store"`
	Bucket        string `mapstructure:"bucket"`
	Prefix        string `mapstructure:"prefix"`
	RetentionDays int    `mapstructure:"retention_days"`
	GCSEndpoint   string `mapstructure:"gcs_endpoint"`
}

type TemporalConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	HostPort    string `mapstructure:"host_port"`
	Namespace   string `mapstructure:"namespace"`
	TaskQueue   string `mapstructure:"task_queue"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type Config struct {
	DatabaseURL string         `mapstructure:"database_url"`
	ServerPort  string         `mapstructure:"server_port"`
	JWTSecret   string         `mapstructure:"jwt_secret"`
	CORSOrigins []string       `mapstructure:"cors_origins"`
	Jobs        JobsConfig     `mapstructure:"jobs"`
	Backup      BackupConfig   `mapstructure:"backup"`
	Temporal    TemporalConfig `mapstructure:"temporal"`
}

const (
	BackupStoreMock = "mock"
	BackupStoreGCS  = "gcs"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Load reads config.yaml from . or ./config, applies SOLAR_ environment overrides
// and exits the process on any problem.
func Load() *Config {
	cfg, err := LoadFrom("")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return cfg
}

// LoadFrom reads the given file, or searches the default locations when path is
// empty. A missing file is tolerated when every required value comes from the
// environment.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envKeys = []string{
	"database_url",
	"server_port",
	"jwt_secret",
	"cors_origins",
	"jobs.lease_timeout",
	"jobs.run_retention_days",
	"jobs.default_commission_rate",
	"backup.store",
	"backup.bucket",
	"backup.prefix",
	"backup.retention_days",
	"backup.gcs_endpoint",
	"temporal.enabled",
	"temporal.host_port",
	"temporal.namespace",
	"temporal.task_queue",
	"temporal.max_attempts",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("jobs.lease_timeout", 2*time.Hour)
	v.SetDefault("jobs.run_retention_days", 30)
	v.SetDefault("jobs.default_commission_rate", "5")
	v.SetDefault("jobs.schedules", map[string]string{
		"commission-job": "0 2 * * *",
		"phone-gate-job": "30 2 * * *",
		"cleanup-job":    "0 3 * * *",
		"backup-job":     "0 4 * * *",
	})
	v.SetDefault("backup.store", BackupStoreMock)
	v.SetDefault("backup.prefix", "backups")
	v.SetDefault("backup.retention_days", 30)
	v.SetDefault("temporal.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "SOLAR_JOBS")
	v.SetDefault("temporal.max_attempts", 3)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if c.Jobs.LeaseTimeout < 0 {
		return fmt.Errorf("jobs.lease_timeout must not be negative")
	}
	if _, err := c.CommissionRate(); err != nil {
		return err
	}
	if c.Jobs.RunRetentionDays <= 0 {
		return fmt.Errorf("jobs.run_retention_days must be positive")
	}
	for _, name := range c.JobNames() {
		if _, err := cronParser.Parse(c.Jobs.Schedules[name]); err != nil {
			return fmt.Errorf("jobs.schedules.%s: %w", name, err)
		}
	}
	switch c.Backup.Store {
	case BackupStoreMock:
	case BackupStoreGCS:
		if strings.TrimSpace(c.Backup.Bucket) == "" {
			return fmt.Errorf("backup.bucket is required for the gcs store")
		}
	default:
		return fmt.Errorf("backup.store must be %q or %q, got %q", BackupStoreMock, BackupStoreGCS, c.Backup.Store)
	}
	if c.Backup.RetentionDays <= 0 {
		return fmt.Errorf("backup.retention_days must be positive")
	}
	if c.Temporal.MaxAttempts <= 0 {
		return fmt.Errorf("temporal.max_attempts must be positive")
	}
	return nil
}

// JobNames lists the scheduled jobs in order.
func (c *Config) JobNames() []string {
	names := make([]string, 0, len(c.Jobs.Schedules))
	for name := range c.Jobs.Schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextRun returns the next activation of the job's schedule after t.
func (c *Config) NextRun(jobName string, t time.Time) (time.Time, error) {
	expr, ok := c.Jobs.Schedules[jobName]
	if !ok {
		return time.Time{}, fmt.Errorf("no schedule for %s", jobName)
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t), nil
}

// CommissionRate is the default partner commission percentage.
func (c *Config) CommissionRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.Jobs.DefaultCommissionRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("jobs.default_commission_rate: %w", err)
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("jobs.default_commission_rate must be within (0, 100]")
	}
	return rate, nil
}
