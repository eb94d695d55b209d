package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App          AppSettings
	HTTP         HTTPSettings
	Auth         AuthSettings
	Log          LogSettings
	NFSeAPI      NFSeAPISettings
	CEP          CEPSettings
	Certificates CertificateSettings
	Notas        NotasSettings
	State        StateSettings
	Database     DatabaseSettings
	Circuit      CircuitSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

// NFSeAPISettings points at the invoicing backend.
type NFSeAPISettings struct {
	BaseURL       string
	Timeout       time.Duration
	LogBodies     bool
	MaxBodySize   int
	CompaniesPath string
}

// CEPSettings points at the postal-code lookup service.
type CEPSettings struct {
	BaseURL string
	Timeout time.Duration
}

type CertificateSettings struct {
	StatusConcurrency int
	ExpiryWarningDays int
}

// ExpiryWarning is the window before expiry in which a certificate is
// flagged as about to expire.
func (c CertificateSettings) ExpiryWarning() time.Duration {
	return time.Duration(c.ExpiryWarningDays) * 24 * time.Hour
}

type NotasSettings struct {
	PageSize         int
	ReceivedPageSize int
}

// StateSettings selects where the client keeps its persisted selection.
type StateSettings struct {
	Driver     string
	SQLitePath string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type CircuitSettings struct {
	MaxFailures int
	Cooldown    time.Duration
}

const (
	StateDriverSQLite   = "sqlite"
	StateDriverPostgres = "postgres"
	StateDriverMemory   = "memory"
)

// Load resolves the application configuration from environment variables.
// Variables from a .env file are loaded first; variables already set in the
// environment take precedence.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "nfse-client"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			RequestTimeout:  getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 45*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		NFSeAPI: NFSeAPISettings{
			BaseURL:       strings.TrimRight(strings.TrimSpace(getEnv("NFSE_API_BASE_URL", "http://localhost:3000/api")), "/"),
			Timeout:       getEnvAsDuration("NFSE_API_TIMEOUT", 30*time.Second),
			LogBodies:     getEnvAsBool("NFSE_API_LOG_BODIES", false),
			MaxBodySize:   getEnvAsInt("NFSE_API_MAX_BODY_SIZE", 102400),
			CompaniesPath: getEnv("NFSE_COMPANIES_PATH", "/empresas/ativas"),
		},
		CEP: CEPSettings{
			BaseURL: strings.TrimRight(strings.TrimSpace(getEnv("CEP_BASE_URL", "https://viacep.com.br/ws")), "/"),
			Timeout: getEnvAsDuration("CEP_TIMEOUT", 10*time.Second),
		},
		Certificates: CertificateSettings{
			StatusConcurrency: getEnvAsInt("CERT_STATUS_CONCURRENCY", 8),
			ExpiryWarningDays: getEnvAsInt("CERT_EXPIRY_WARNING_DAYS", 30),
		},
		Notas: NotasSettings{
			PageSize:         getEnvAsInt("NOTAS_PAGE_SIZE", 50),
			ReceivedPageSize: getEnvAsInt("NOTAS_RECEBIDAS_PAGE_SIZE", 10),
		},
		State: StateSettings{
			Driver:     strings.ToLower(strings.TrimSpace(getEnv("STATE_DRIVER", StateDriverSQLite))),
			SQLitePath: strings.TrimSpace(os.Getenv("STATE_SQLITE_PATH")),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "nfse_client"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Circuit: CircuitSettings{
			MaxFailures: getEnvAsInt("CIRCUIT_MAX_FAILURES", 5),
			Cooldown:    getEnvAsDuration("CIRCUIT_COOLDOWN", 30*time.Second),
		},
	}

	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = defaultStatePath()
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c AppConfig) Validate() error {
	if c.NFSeAPI.BaseURL == "" {
		return errors.New("invalid config: NFSE_API_BASE_URL is required")
	}
	if u, err := url.Parse(c.NFSeAPI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid config: NFSE_API_BASE_URL %q is not an absolute URL", c.NFSeAPI.BaseURL)
	}
	if !strings.HasPrefix(c.NFSeAPI.CompaniesPath, "/") {
		return errors.New("invalid config: NFSE_COMPANIES_PATH must start with '/'")
	}
	if c.Certificates.StatusConcurrency <= 0 {
		return errors.New("invalid config: CERT_STATUS_CONCURRENCY must be greater than 0")
	}
	if c.Certificates.StatusConcurrency > 64 {
		return errors.New("invalid config: CERT_STATUS_CONCURRENCY cannot exceed 64")
	}
	if c.Certificates.ExpiryWarningDays < 0 {
		return errors.New("invalid config: CERT_EXPIRY_WARNING_DAYS cannot be negative")
	}
	if c.Notas.PageSize <= 0 || c.Notas.ReceivedPageSize <= 0 {
		return errors.New("invalid config: NOTAS_PAGE_SIZE and NOTAS_RECEBIDAS_PAGE_SIZE must be greater than 0")
	}

	switch c.State.Driver {
	case StateDriverSQLite, StateDriverPostgres, StateDriverMemory:
	default:
		return fmt.Errorf("invalid config: STATE_DRIVER must be one of sqlite, postgres or memory, got %q", c.State.Driver)
	}

	if c.Auth.Enabled {
		if c.Auth.IssuerURI == "" {
			return errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if c.Auth.JWKSetURI == "" {
			return errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}
	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".nfse", "state.db")
	}
	return filepath.Join(home, ".nfse", "state.db")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
