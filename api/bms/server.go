package bms

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/kilianp07/bms12v/core/logger"
	coremon "github.com/kilianp07/bms12v/core/monitoring"
	infralog "github.com/kilianp07/bms12v/infra/logger"
)

// recoveryLogger reports handler panics to the log and the monitor.
type recoveryLogger struct {
	log logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Errorf("http handler panic: %v", v)
	if len(v) > 0 {
		coremon.Current().CapturePanic(v[len(v)-1])
	}
}

// accessLog forwards access lines at debug level.
type accessLog struct {
	log logger.Logger
}

func (a accessLog) Write(p []byte) (int, error) {
	a.log.Debugf("%s", strings.TrimRight(string(p), "\r\n"))
	return len(p), nil
}

// NewRouter builds the API handler with CORS, panic recovery and access
// logging.
func NewRouter(h *Handler, origins []string) http.Handler {
	r := mux.NewRouter()
	h.Register(r)
	log := infralog.New("api")
	var out http.Handler = r
	out = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(out)
	out = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log: log}))(out)
	return handlers.LoggingHandler(accessLog{log: log}, out)
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	log := infralog.New("api-server")
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
	}()
	log.Infof("serving api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
