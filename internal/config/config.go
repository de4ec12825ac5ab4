package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Lending  LendingConfig  `mapstructure:"lending"`
	Email    EmailConfig    `mapstructure:"email"`
	Storage  StorageConfig  `mapstructure:"storage"`
	// Bootstrap creates the first admin account at startup when the
	// password is set and the username is still free.
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory driver keeps everything
	// in process and is meant for demos and tests.
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	Migrate  bool   `mapstructure:"migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	PrivateKey  string `mapstructure:"private_key"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// LendingConfig holds the circulation rules applied by the lending service.
type LendingConfig struct {
	LoanDays       int     `mapstructure:"loan_days"`
	FinePerDay     float64 `mapstructure:"fine_per_day"`
	MaxActiveLoans int     `mapstructure:"max_active_loans"`
	MaxRenewals    int     `mapstructure:"max_renewals"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromEmail    string `mapstructure:"from_email"`
	FromName     string `mapstructure:"from_name"`
	UseTLS       bool   `mapstructure:"use_tls"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	AdminEmail   string `mapstructure:"admin_email"`
	TimeoutSecs  int    `mapstructure:"timeout_seconds"`
}

type StorageConfig struct {
	Driver  string          `mapstructure:"driver"`
	BaseDir string          `mapstructure:"base_dir"`
	BaseURL string          `mapstructure:"base_url"`
	S3      S3StorageConfig `mapstructure:"s3"`
}

type BootstrapConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

type S3StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// ConnString builds the postgres connection string, preferring an explicit URL.
func (d DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.ngolib")
	v.AddConfigPath("/etc/ngolib")

	v.SetEnvPrefix("NGOLIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Platform-provided URLs win over the file
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.max_upload_bytes", 5<<20)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ngolib")
	v.SetDefault("database.name", "ngolib")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migrate", true)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("jwt.private_key", "")
	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("lending.loan_days", 14)
	v.SetDefault("lending.fine_per_day", 5.0)
	v.SetDefault("lending.max_active_loans", 5)
	v.SetDefault("lending.max_renewals", 2)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.smtp_username", "")
	v.SetDefault("email.smtp_password", "")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.admin_email", "")
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.from_name", "Community Library")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.timeout_seconds", 10)
	v.SetDefault("storage.driver", "fs")
	v.SetDefault("storage.base_dir", "./uploads")
	v.SetDefault("storage.base_url", "http://localhost:8080/uploads")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("storage.s3.public_base_url", "")
	v.SetDefault("bootstrap.admin_username", "admin")
	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")
}

// Validate reports configuration mistakes that would otherwise surface deep
// inside a request.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "fs", "memory":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Server.MaxUploadBytes < 1 {
		return errors.New("server.max_upload_bytes must be positive")
	}

	if c.Lending.LoanDays < 1 {
		return errors.New("lending.loan_days must be at least 1")
	}
	if c.Lending.FinePerDay < 0 {
		return errors.New("lending.fine_per_day cannot be negative")
	}
	if c.Lending.MaxActiveLoans < 1 {
		return errors.New("lending.max_active_loans must be at least 1")
	}
	if c.Lending.MaxRenewals < 0 {
		return errors.New("lending.max_renewals cannot be negative")
	}

	return nil
}
