package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imi6/dandan/internal/controllers"
	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/realtime"
	"github.com/imi6/dandan/internal/store"
	"github.com/imi6/dandan/internal/structures"
)

type App struct {
	WebServer *http.Server
}

func NewApp(
	wsController *controllers.WsController,
	healthController *controllers.HealthController,
	videos store.VideoStoreInterface,
	hub *realtime.Hub,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) (*App, error) {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with recovery, metrics and response compression
	instrumentedAPI := gzhttp.GzipHandler(
		providers.MetricsMiddleware(metrics, recoveryMiddleware(logger, conf.Debug, apiMux)),
	)

	// Outer mux: infrastructure + realtime + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/ws/{clientId}", wsController.Serve)
	mux.Handle("/api/", instrumentedAPI)
	if conf.Static.Enabled && conf.Static.Dir != "" {
		mux.Handle("/", http.FileServer(http.Dir(conf.Static.Dir)))
	}

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)

	app := &App{
		// No global read/write timeouts: uploads and streams are long
		// lived and bounded by their request contexts instead.
		WebServer: &http.Server{
			Addr:              conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		return nil, fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}
	hub.CloseAll()
	if err := videos.Close(); err != nil {
		logger.Errorf(providers.TypeApp, "Store close error: %s", err)
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}

// recoveryMiddleware keeps a handler panic from killing the connection
// without a response; the boundary answers with a generic 500 body.
func recoveryMiddleware(logger providers.Logger, debug bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "Panic serving %s: %v", r.URL.Path, rec)
				body := `{"success":false,"error":"An unexpected error occurred","type":"InternalError"}`
				if debug {
					body = fmt.Sprintf(`{"success":false,"error":%q,"type":"InternalError"}`, fmt.Sprint(rec))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(body))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
