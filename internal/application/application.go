package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/conductor-config/internal/api"
	"github.com/eugenenazirov/conductor-config/internal/conductor"
	"github.com/eugenenazirov/conductor-config/internal/config"
	"github.com/eugenenazirov/conductor-config/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	loader  *conductor.Loader
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
// The session source named by cfg.Source (or the default source, when present) is resolved
// once at startup and becomes the initial snapshot.
func New(cfg config.Config, logger *zap.Logger, overrides conductor.Overrides) (*App, error) {
	loader := conductor.NewLoader(conductor.WithLogger(logger.Named("conductor")))
	store := storage.NewMemoryStorage()

	if err := loadInitialSnapshot(loader, store, cfg.Source, overrides); err != nil {
		return nil, fmt.Errorf("failed to resolve initial configuration: %w", err)
	}

	handler := api.NewHandler(loader, store, api.WithOverrides(overrides))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		storage: store,
		loader:  loader,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

func loadInitialSnapshot(loader *conductor.Loader, store storage.Storage, source string, overrides conductor.Overrides) error {
	var (
		cfg  *conductor.Config
		data []byte
		err  error
	)

	if source != "" {
		data, err = os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("read source %s: %w", source, err)
		}
		cfg, err = loader.LoadBytes(data, overrides)
	} else {
		cfg, err = loader.LoadDefault(overrides)
	}
	if err != nil {
		return err
	}

	return store.SetSnapshot(storage.Snapshot{
		Config:     cfg,
		Source:     data,
		ResolvedAt: time.Now().UTC(),
	})
}

// BuildRootHandler mounts the API under /api/ and answers everything else with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/config", http.StatusFound)
	}))
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
