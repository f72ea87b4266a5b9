package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/student-tracker/internal/domain/profile"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
	"github.com/riskibarqy/student-tracker/internal/platform/resilience"
)

// Config stores runtime configuration for the dashboard service.
type Config struct {
	AppEnv                       string
	ServiceName                  string
	ServiceVersion               string
	HTTPAddr                     string
	ReadTimeout                  time.Duration
	WriteTimeout                 time.Duration
	ShutdownTimeout              time.Duration
	CORSAllowedOrigins           []string
	SwaggerEnabled               bool
	TrackerAPIBaseURL            string
	TrackerAPITimeout            time.Duration
	TrackerCircuitEnabled        bool
	TrackerCircuitFailureCount   int
	TrackerCircuitOpenTimeout    time.Duration
	TrackerCircuitHalfOpenMaxReq int
	RosterDispatchWorkers        int
	RosterLoadOnStart            bool
	ProfileDefaultWindow         profile.Window
	ProfileSessionTTL            time.Duration
	MetricsEnabled               bool
	PprofEnabled                 bool
	PprofAddr                    string
	UptraceEnabled               bool
	UptraceDSN                   string
	UptraceLogsEnabled           bool
	PyroscopeEnabled             bool
	PyroscopeServerAddress       string
	PyroscopeAppName             string
	PyroscopeAuthToken           string
	PyroscopeBasicAuthUser       string
	PyroscopeBasicAuthPassword   string
	PyroscopeUploadRate          time.Duration
	LogLevel                     logging.Level
}

// TrackerCircuitBreaker is the breaker configuration for the tracker API client.
func (c Config) TrackerCircuitBreaker() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          c.TrackerCircuitEnabled,
		FailureThreshold: c.TrackerCircuitFailureCount,
		OpenTimeout:      c.TrackerCircuitOpenTimeout,
		HalfOpenMaxReq:   c.TrackerCircuitHalfOpenMaxReq,
	}
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	trackerBaseURL, err := parseBaseURL(getEnv("TRACKER_API_BASE_URL", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRACKER_API_BASE_URL: %w", err)
	}
	trackerTimeout, err := time.ParseDuration(getEnv("TRACKER_API_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRACKER_API_TIMEOUT: %w", err)
	}
	if trackerTimeout <= 0 {
		return Config{}, fmt.Errorf("TRACKER_API_TIMEOUT must be > 0")
	}

	trackerCircuitEnabled, err := strconv.ParseBool(getEnv("TRACKER_API_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRACKER_API_CIRCUIT_ENABLED: %w", err)
	}
	trackerCircuitFailureCount, err := getEnvAsInt("TRACKER_API_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse TRACKER_API_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if trackerCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("TRACKER_API_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	trackerCircuitOpenTimeout, err := time.ParseDuration(getEnv("TRACKER_API_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TRACKER_API_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if trackerCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("TRACKER_API_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	trackerCircuitHalfOpenMaxReq, err := getEnvAsInt("TRACKER_API_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse TRACKER_API_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if trackerCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("TRACKER_API_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	rosterDispatchWorkers, err := getEnvAsInt("ROSTER_DISPATCH_WORKERS", 16)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_DISPATCH_WORKERS: %w", err)
	}
	if rosterDispatchWorkers < 1 {
		return Config{}, fmt.Errorf("ROSTER_DISPATCH_WORKERS must be >= 1")
	}
	rosterLoadOnStart, err := strconv.ParseBool(getEnv("ROSTER_LOAD_ON_START", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_LOAD_ON_START: %w", err)
	}

	profileDefaultWindow, err := profile.ParseWindow(getEnv("PROFILE_DEFAULT_WINDOW_DAYS", "90"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROFILE_DEFAULT_WINDOW_DAYS: %w", err)
	}
	profileSessionTTL, err := time.ParseDuration(getEnv("PROFILE_SESSION_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROFILE_SESSION_TTL: %w", err)
	}
	if profileSessionTTL <= 0 {
		return Config{}, fmt.Errorf("PROFILE_SESSION_TTL must be > 0")
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                       appEnv,
		ServiceName:                  getEnv("APP_SERVICE_NAME", "student-tracker-dashboard"),
		ServiceVersion:               getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                     getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins:           splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:               swaggerEnabled,
		TrackerAPIBaseURL:            trackerBaseURL,
		TrackerAPITimeout:            trackerTimeout,
		TrackerCircuitEnabled:        trackerCircuitEnabled,
		TrackerCircuitFailureCount:   trackerCircuitFailureCount,
		TrackerCircuitOpenTimeout:    trackerCircuitOpenTimeout,
		TrackerCircuitHalfOpenMaxReq: trackerCircuitHalfOpenMaxReq,
		RosterDispatchWorkers:        rosterDispatchWorkers,
		RosterLoadOnStart:            rosterLoadOnStart,
		ProfileDefaultWindow:         profileDefaultWindow,
		ProfileSessionTTL:            profileSessionTTL,
		MetricsEnabled:               metricsEnabled,
		PprofEnabled:                 pprofEnabled,
		PprofAddr:                    pprofAddr,
		UptraceEnabled:               uptraceEnabled,
		UptraceDSN:                   uptraceDSN,
		UptraceLogsEnabled:           uptraceLogsEnabled,
		PyroscopeEnabled:             pyroscopeEnabled,
		PyroscopeServerAddress:       pyroscopeServerAddress,
		PyroscopeAuthToken:           strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:       strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:   strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:          pyroscopeUploadRate,
		LogLevel:                     logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(getEnv("APP_SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_SHUTDOWN_TIMEOUT: %w", err)
	}
	if shutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be > 0")
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.ShutdownTimeout = shutdownTimeout

	return cfg, nil
}

// parseBaseURL requires an absolute http(s) URL and drops any trailing slash.
func parseBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("base url is required")
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", value, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base url %q must use http or https", value)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("base url %q has no host", value)
	}

	return strings.TrimRight(value, "/"), nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
