package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "scheduler_config.yaml"

	envDatabaseURL    = "SCHEDULER_DATABASE_URL"
	envDatabaseDriver = "SCHEDULER_DATABASE_DRIVER"
)

// DatabaseConfig selects and tunes the backing store
type DatabaseConfig struct {
	Driver           string        `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	URL              string        `yaml:"url" validate:"required"`
	OperationTimeout time.Duration `yaml:"operationTimeout,omitempty"`
	BusyTimeout      time.Duration `yaml:"busyTimeout,omitempty"`
}

// ReservationConfig tunes the reservation engine
type ReservationConfig struct {
	MaxAttempts int `yaml:"maxAttempts,omitempty" validate:"omitempty,min=1,max=50"`
	IDAttempts  int `yaml:"idAttempts,omitempty" validate:"omitempty,min=1,max=100"`
	// RestrictCancelToParticipants limits cancel to the appointment's own
	// patient or caregiver. Off by default: any logged-in user may cancel.
	RestrictCancelToParticipants bool `yaml:"restrictCancelToParticipants,omitempty"`
}

// HashingConfig holds argon2id parameters
type HashingConfig struct {
	MemoryKiB   uint32 `yaml:"memoryKiB,omitempty" validate:"omitempty,min=8"`
	Iterations  uint32 `yaml:"iterations,omitempty" validate:"omitempty,min=1"`
	Parallelism uint8  `yaml:"parallelism,omitempty" validate:"omitempty,min=1"`
	SaltLength  uint32 `yaml:"saltLength,omitempty" validate:"omitempty,min=8"`
	KeyLength   uint32 `yaml:"keyLength,omitempty" validate:"omitempty,min=16"`
}

// AuthConfig configures login throttling and password hashing
type AuthConfig struct {
	LoginAttemptsPerMinute int           `yaml:"loginAttemptsPerMinute,omitempty" validate:"omitempty,min=1"`
	LoginBurst             int           `yaml:"loginBurst,omitempty" validate:"omitempty,min=1"`
	Hashing                HashingConfig `yaml:"hashing,omitempty"`
}

// ClinicConfig holds clinic-wide calendar rules
type ClinicConfig struct {
	// ClosedDays are RRULE strings; matching dates cannot be booked
	ClosedDays []string `yaml:"closedDays,omitempty" validate:"dive,required"`
}

// Config represents the application configuration
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Reservation ReservationConfig `yaml:"reservation,omitempty"`
	Auth        AuthConfig        `yaml:"auth,omitempty"`
	Clinic      ClinicConfig      `yaml:"clinic,omitempty"`
	LogsDir     string            `yaml:"logsDir,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration for an environment.
// An empty env reads scheduler_config.yaml; env="test" reads
// "scheduler_config.test.yaml" and ".env.test". The file is looked up in the
// current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	if err := loadDotEnv(env); err != nil {
		return nil, err
	}

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Environment overrides are applied before validation.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, rule := range cfg.Clinic.ClosedDays {
		if _, err := rrule.StrToROption(rule); err != nil {
			return fmt.Errorf("invalid rrule in clinic.closedDays[%d]: %w", i, err)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.OperationTimeout == 0 {
		cfg.Database.OperationTimeout = 10 * time.Second
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = 5 * time.Second
	}
	if cfg.Reservation.MaxAttempts == 0 {
		cfg.Reservation.MaxAttempts = 5
	}
	if cfg.Reservation.IDAttempts == 0 {
		cfg.Reservation.IDAttempts = 10
	}
	if cfg.Auth.LoginAttemptsPerMinute == 0 {
		cfg.Auth.LoginAttemptsPerMinute = 10
	}
	if cfg.Auth.LoginBurst == 0 {
		cfg.Auth.LoginBurst = 5
	}

	h := &cfg.Auth.Hashing
	if h.MemoryKiB == 0 {
		h.MemoryKiB = 64 * 1024
	}
	if h.Iterations == 0 {
		h.Iterations = 3
	}
	if h.Parallelism == 0 {
		h.Parallelism = 2
	}
	if h.SaltLength == 0 {
		h.SaltLength = 16
	}
	if h.KeyLength == 0 {
		h.KeyLength = 32
	}

	if cfg.LogsDir == "" {
		cfg.LogsDir = "logs"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv(envDatabaseDriver); v != "" {
		cfg.Database.Driver = v
	}
}

// loadDotEnv loads .env and .env.<env> if present. Variables already set in
// the process environment win.
func loadDotEnv(env string) error {
	files := []string{".env"}
	if env != "" {
		files = append([]string{".env." + env}, files...)
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// findConfigFile searches for the config file in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "scheduler_config.test.yaml")
func findConfigFile(env string) (string, error) {
	fileName := configFileName
	if env != "" {
		fileName = "scheduler_config." + env + ".yaml"
	}

	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", fileName)
}
