// Package serve exposes the match engine over HTTP.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tokensift/tokensift/pkg/config"
	"github.com/tokensift/tokensift/pkg/engine"
	"github.com/tokensift/tokensift/pkg/logging"
	"github.com/tokensift/tokensift/pkg/rule"
	"github.com/tokensift/tokensift/pkg/scanner"
	"github.com/tokensift/tokensift/pkg/types"
)

// Server serves scan requests against a swappable engine. Collections are
// immutable; a rules reload builds a fresh engine and swaps it in under the
// lock, so in-flight requests always see a consistent rule set.
type Server struct {
	cfg    *config.Config
	logger *logging.Logger

	mu  sync.RWMutex
	scn *scanner.Scanner

	rulesDir   string // "" when serving embedded rules; disables watching
	loaderOpts []rule.LoaderOption

	router  *mux.Router
	httpSrv *http.Server
	limiter *rateLimiter
	watcher *rulesWatcher
}

// New creates a server over an already-built collection. rulesDir names
// the directory the collection came from so reloads can rebuild it; pass
// "" when the collection has no directory to watch. An empty collection is
// refused: a scan API with no rules answers nothing useful.
func New(cfg *config.Config, coll *types.RuleCollection, rulesDir string, log *logging.Logger, opts ...rule.LoaderOption) (*Server, error) {
	if coll.Empty() {
		return nil, fmt.Errorf("refusing to serve an empty rule collection")
	}
	if log == nil {
		log = logging.Nop()
	}

	s := &Server{
		cfg:        cfg,
		logger:     log.WithComponent("serve"),
		scn:        scanner.New(engine.New(coll)),
		rulesDir:   rulesDir,
		loaderOpts: opts,
		router:     mux.NewRouter(),
	}
	if cfg.Server.RateLimit.Enabled {
		s.limiter = newRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	}
	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	if s.limiter != nil {
		s.router.Use(s.rateLimitMiddleware)
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/rules", s.handleRules).Methods("GET")
	v1.HandleFunc("/scan", s.handleScan).Methods("POST")
	v1.HandleFunc("/scan/batch", s.handleScanBatch).Methods("POST")
}

// Start begins watching the rules directory when configured and serves
// until the listener fails or Stop is called.
func (s *Server) Start() error {
	if s.cfg.Server.WatchRules && s.rulesDir != "" {
		w, err := newRulesWatcher(s, s.rulesDir)
		if err != nil {
			return fmt.Errorf("watching rules directory: %w", err)
		}
		s.watcher = w
	}

	coll := s.current().Engine().Collection()
	s.logger.Info("starting scan API",
		zap.String("addr", s.cfg.Server.Addr),
		zap.Int("files", coll.FileCount()),
		zap.Int("rules", coll.TotalRules),
		zap.Bool("watch_rules", s.watcher != nil),
	)
	return s.httpSrv.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping scan API")
	if s.watcher != nil {
		s.watcher.stop()
	}
	if s.limiter != nil {
		s.limiter.stop()
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) current() *scanner.Scanner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scn
}

func (s *Server) swap(coll *types.RuleCollection) {
	s.mu.Lock()
	s.scn = scanner.New(engine.New(coll))
	s.mu.Unlock()
}

// reloadRules rebuilds the collection from the rules directory and swaps
// it in. A failed or empty rebuild keeps the current collection; a running
// server never downgrades to zero rules because someone mid-edited a file.
func (s *Server) reloadRules() {
	coll, err := rule.BuildCollection(s.rulesDir, s.loaderOpts...)
	if err != nil {
		s.logger.Warn("rules reload failed, keeping current collection", zap.Error(err))
		return
	}
	if coll.Empty() {
		s.logger.Warn("rules reload found no usable files, keeping current collection",
			zap.String("dir", s.rulesDir))
		return
	}
	s.swap(coll)
	s.logger.Info("rules reloaded",
		zap.Int("files", coll.FileCount()),
		zap.Int("rules", coll.TotalRules),
	)
}
