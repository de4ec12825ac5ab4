package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "load with defaults",
			env:     map[string]string{},
			wantErr: false,
		},
		{
			name: "load with environment variables",
			env: map[string]string{
				"NGOLIB_SERVER_PORT":   "9090",
				"NGOLIB_DATABASE_HOST": "testhost",
				"NGOLIB_REDIS_HOST":    "testredis",
			},
			wantErr: false,
		},
		{
			name: "unknown database driver",
			env: map[string]string{
				"NGOLIB_DATABASE_DRIVER": "mysql",
			},
			wantErr: true,
		},
		{
			name: "s3 storage without bucket",
			env: map[string]string{
				"NGOLIB_STORAGE_DRIVER": "s3",
			},
			wantErr: true,
		},
		{
			name: "zero upload limit",
			env: map[string]string{
				"NGOLIB_SERVER_MAX_UPLOAD_BYTES": "0",
			},
			wantErr: true,
		},
		{
			name: "negative fine",
			env: map[string]string{
				"NGOLIB_LENDING_FINE_PER_DAY": "-1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("DATABASE_URL")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if cfg == nil {
					t.Error("Load() returned nil config")
					return
				}
				if cfg.Server.Port == "" {
					t.Error("Server port not set")
				}
				if cfg.Database.Host == "" {
					t.Error("Database host not set")
				}
				if cfg.Redis.Host == "" {
					t.Error("Redis host not set")
				}
			}
		})
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("NGOLIB_SERVER_PORT", "9090")
	t.Setenv("NGOLIB_LENDING_LOAN_DAYS", "21")
	t.Setenv("NGOLIB_EMAIL_SMTP_HOST", "smtp.example.org")
	t.Setenv("NGOLIB_SERVER_ALLOWED_ORIGINS", "https://library.example.org,https://admin.example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Lending.LoanDays != 21 {
		t.Errorf("Expected loan days 21, got %d", cfg.Lending.LoanDays)
	}
	if cfg.Email.SMTPHost != "smtp.example.org" {
		t.Errorf("Expected smtp host smtp.example.org, got %s", cfg.Email.SMTPHost)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://admin.example.org" {
		t.Errorf("Expected two allowed origins, got %v", cfg.Server.AllowedOrigins)
	}
}

func TestConfigDefaults(t *testing.T) {
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Mode != "debug" {
		t.Errorf("Expected default mode debug, got %s", cfg.Server.Mode)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected default database driver postgres, got %s", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default database port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Expected default Redis port 6379, got %d", cfg.Redis.Port)
	}
	if cfg.JWT.ExpiryHours != 24 {
		t.Errorf("Expected default JWT expiry 24 hours, got %d", cfg.JWT.ExpiryHours)
	}
	if cfg.Lending.LoanDays != 14 {
		t.Errorf("Expected default loan days 14, got %d", cfg.Lending.LoanDays)
	}
	if cfg.Lending.MaxActiveLoans != 5 {
		t.Errorf("Expected default max active loans 5, got %d", cfg.Lending.MaxActiveLoans)
	}
	if cfg.Server.MaxUploadBytes != 5<<20 {
		t.Errorf("Expected default upload limit 5MiB, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Bootstrap.AdminPassword != "" {
		t.Error("Expected no bootstrap admin by default")
	}
	if cfg.Storage.Driver != "fs" {
		t.Errorf("Expected default storage driver fs, got %s", cfg.Storage.Driver)
	}
}

func TestConnString(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "lib",
		Password: "secret",
		Name:     "ngolib",
		SSLMode:  "require",
	}

	want := "postgres://lib:secret@db:5433/ngolib?sslmode=require"
	if got := d.ConnString(); got != want {
		t.Errorf("ConnString() = %s, want %s", got, want)
	}

	d.URL = "postgres://override"
	if got := d.ConnString(); got != "postgres://override" {
		t.Errorf("ConnString() should prefer URL, got %s", got)
	}
}
