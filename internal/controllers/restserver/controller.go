package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/rfxweather/internal/ingest"
	"github.com/chrissnell/rfxweather/internal/log"
	"github.com/chrissnell/rfxweather/internal/sinks"
	"github.com/chrissnell/rfxweather/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Service is what the REST API exposes: the ingest path and sink health.
type Service struct {
	Ingestor *ingest.Ingestor
	// Health may be nil when no sinks are configured.
	Health *sinks.HealthTracker
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	service    Service
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, svc Service, logger *zap.SugaredLogger) (*Controller, error) {
	if svc.Ingestor == nil {
		return nil, fmt.Errorf("REST server requires an ingestor")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		service:    svc,
		logger:     logger,
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Handler returns the fully wrapped router.
func (c *Controller) Handler() http.Handler {
	var h http.Handler = c.setupRouter()
	if c.restConfig.EnableCORS {
		h = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(h)
	}
	h = log.HTTPMiddleware(c.logger)(h)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server controller on %s", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Warnw("REST server shutdown did not complete", "error", err)
		}
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(c.handlers.MethodNotAllowed)
	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)

	// Routes stay on the root router: a PathPrefix subrouter answers a method
	// mismatch with 404 instead of 405.
	router.HandleFunc("/api/v1/frames", c.handlers.PostFrame).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/families", c.handlers.GetFamilies).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/stats", c.handlers.GetStats).Methods(http.MethodGet)

	router.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)

	return router
}
