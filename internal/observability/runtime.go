package observability

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/student-tracker/internal/config"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
)

// Runtime holds the process-wide telemetry started for one dashboard process.
type Runtime struct {
	logger          *logging.Logger
	uptraceShutdown func(context.Context) error
	pyroscopeStop   func() error
	pprofServer     *http.Server
}

// Start brings up tracing, profiling and the pprof listener in that order. A failure
// stops whatever already started.
func Start(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}

	rt := &Runtime{logger: logger}

	uptraceShutdown, err := InitUptrace(cfg, logger)
	if err != nil {
		return nil, errors.Wrap(err, "init uptrace")
	}
	rt.uptraceShutdown = uptraceShutdown

	pyroscopeStop, err := InitPyroscope(cfg, logger)
	if err != nil {
		_ = rt.Shutdown(context.Background())
		return nil, errors.Wrap(err, "init pyroscope")
	}
	rt.pyroscopeStop = pyroscopeStop

	rt.pprofServer = StartPprofServer(cfg, logger)

	return rt, nil
}

// Shutdown stops everything in reverse start order and reports every failure.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}

	var err error
	if pprofErr := StopPprofServer(ctx, r.pprofServer, r.logger); pprofErr != nil {
		err = errors.CombineErrors(err, errors.Wrap(pprofErr, "stop pprof"))
	}
	if r.pyroscopeStop != nil {
		if stopErr := r.pyroscopeStop(); stopErr != nil {
			err = errors.CombineErrors(err, errors.Wrap(stopErr, "stop pyroscope"))
		}
	}
	if r.uptraceShutdown != nil {
		if shutdownErr := r.uptraceShutdown(ctx); shutdownErr != nil {
			err = errors.CombineErrors(err, errors.Wrap(shutdownErr, "shutdown uptrace"))
		}
	}

	return err
}
