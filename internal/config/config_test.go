package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/student-tracker/internal/domain/profile"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("TRACKER_API_BASE_URL", "https://tracker.example.com/api/")
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "false")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "student-tracker-dashboard" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
	if cfg.TrackerAPIBaseURL != "https://tracker.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.TrackerAPIBaseURL)
	}
	if cfg.TrackerAPITimeout != 15*time.Second {
		t.Fatalf("unexpected TrackerAPITimeout: %s", cfg.TrackerAPITimeout)
	}
	if cfg.ProfileDefaultWindow != profile.WindowQuarter {
		t.Fatalf("unexpected ProfileDefaultWindow: %d", cfg.ProfileDefaultWindow.Days())
	}
	if cfg.RosterDispatchWorkers != 16 {
		t.Fatalf("unexpected RosterDispatchWorkers: %d", cfg.RosterDispatchWorkers)
	}
	if !cfg.RosterLoadOnStart {
		t.Fatalf("expected RosterLoadOnStart=true by default")
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected ShutdownTimeout: %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_TrackerBaseURLValidation(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "missing", value: ""},
		{name: "no scheme", value: "tracker.example.com"},
		{name: "unsupported scheme", value: "ftp://tracker.example.com"},
		{name: "no host", value: "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("TRACKER_API_BASE_URL", tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for TRACKER_API_BASE_URL=%q", tt.value)
			}
		})
	}
}

func TestLoad_TrackerCircuitBreaker(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TRACKER_API_CIRCUIT_FAILURE_COUNT", "3")
	t.Setenv("TRACKER_API_CIRCUIT_OPEN_TIMEOUT", "45s")
	t.Setenv("TRACKER_API_CIRCUIT_HALF_OPEN_MAX_REQ", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	breaker := cfg.TrackerCircuitBreaker()
	if !breaker.Enabled || breaker.FailureThreshold != 3 || breaker.OpenTimeout != 45*time.Second || breaker.HalfOpenMaxReq != 2 {
		t.Fatalf("unexpected breaker config: %+v", breaker)
	}

	t.Setenv("TRACKER_API_CIRCUIT_FAILURE_COUNT", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero failure count")
	}
}

func TestLoad_ProfileWindowValidation(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PROFILE_DEFAULT_WINDOW_DAYS", "365")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ProfileDefaultWindow != profile.WindowYear {
		t.Fatalf("unexpected ProfileDefaultWindow: %d", cfg.ProfileDefaultWindow.Days())
	}

	t.Setenv("PROFILE_DEFAULT_WINDOW_DAYS", "45")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported window")
	}
}

func TestLoad_DispatchWorkersMustBePositive(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ROSTER_DISPATCH_WORKERS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for ROSTER_DISPATCH_WORKERS=0")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "foo=bar, uptrace-dsn=\"https://token@api.uptrace.dev/1\"")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://pyroscope:4040")
	t.Setenv("APP_SERVICE_NAME", "roster-dashboard")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "roster-dashboard" {
		t.Fatalf("unexpected PyroscopeAppName: %q", cfg.PyroscopeAppName)
	}
}
