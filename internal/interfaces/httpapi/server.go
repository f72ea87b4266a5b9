package httpapi

import (
	"net/http"

	"github.com/riskibarqy/student-tracker/internal/platform/id"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
)

type RouterConfig struct {
	Logger             *logging.Logger
	Metrics            HTTPRecorder
	MetricsHandler     http.Handler
	RequestIDs         id.Generator
	ServiceName        string
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.MetricsHandler, cfg.SwaggerEnabled)
	registerRosterRoutes(mux, handler)
	registerProfileRoutes(mux, handler)

	return RequestTracing(cfg.ServiceName,
		RequestID(cfg.RequestIDs,
			RequestLogging(logger, cfg.Metrics,
				CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
