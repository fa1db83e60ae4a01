package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/config"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/content"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/i18n"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/metrics"
	mw "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/middleware"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/session"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/status"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/wizard"
)

const statusCacheTTL = 30 * time.Second

// paths locates the on-disk resources served by the binary.
type paths struct {
	templates string
	public    string
	locales   string
	content   string
}

// server bundles the collaborators shared by every handler.
type server struct {
	cfg      config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	api      *apiclient.Client
	wizard   *wizard.Wizard
	guard    *wizard.Guard
	sessions *session.Manager
	bundle   *i18n.Bundle
	content  *content.Store
	status   *status.Checker
	assets   *mw.Assets
	limiter  *mw.RateLimiter
	views    *views
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		addr string
		p    paths
	)
	flag.StringVar(&addr, "addr", cfg.Addr(), "HTTP listen address")
	flag.StringVar(&p.templates, "templates", "templates", "templates directory")
	flag.StringVar(&p.public, "public", "public", "public assets directory")
	flag.StringVar(&p.locales, "locales", "locales", "locales directory")
	flag.StringVar(&p.content, "content", "content", "content directory")
	flag.Parse()

	baseLogger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("web")

	srv, err := newServer(cfg, p, logger)
	if err != nil {
		logger.Fatal("failed to initialise server", zap.Error(err))
	}
	if srv.api.Fake() {
		logger.Warn("no backend configured; using the in-process fake API", zap.String("code", apiclient.FakeCode))
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newRouter(srv),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", addr), zap.Bool("dev", cfg.Server.DevMode))
	go func() {
		serverLogger.Info("jobconcierge web listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newServer wires the collaborators from configuration.
func newServer(cfg config.Config, p paths, logger *zap.Logger, apiOpts ...apiclient.Option) (*server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := metrics.New()

	opts := []apiclient.Option{
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithIdentityHeader(cfg.API.IdentityHeader),
		apiclient.WithObserver(m.ObserveBackend),
	}
	api := apiclient.New(cfg.API.BaseURL, append(opts, apiOpts...)...)

	wiz := wizard.New(api, wizard.WithHooks(wizard.Hooks{
		Transition: func(from, to wizard.Step) {
			m.RecordTransition(from.String(), to.String())
		},
		Failure: func(step wizard.Step, kind wizard.ErrorKind) {
			m.RecordStepError(step.String(), string(kind))
		},
	}))

	hashKey := []byte(cfg.Session.HashKey)
	if len(hashKey) == 0 {
		logger.Warn("session hash key not configured; generated an ephemeral key")
		hashKey = session.EphemeralKey()
	}
	sessions, err := session.NewManager(session.Config{
		CookieName: cfg.Session.CookieName,
		HashKey:    hashKey,
		BlockKey:   []byte(cfg.Session.BlockKey),
		Secure:     cfg.Session.Secure,
		Lifetime:   cfg.Session.Lifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	bundle, err := i18n.Load(p.locales, cfg.Site.DefaultLanguage, cfg.Site.Languages)
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}

	var storeOpts []content.Option
	if cfg.Server.DevMode {
		storeOpts = append(storeOpts, content.WithCacheTTL(time.Second))
	}

	limiter := mw.NewRateLimiter(cfg.RateLimits.CodeSendsPerMinute, cfg.RateLimits.CodeSendBurst)
	limiter.OnReject(m.RecordRateLimited)

	assets := mw.NewAssets(filepath.Join(p.public, "assets"), "/assets")

	v, err := newViews(p.templates, cfg.Server.DevMode, templateFuncs(bundle, assets))
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &server{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		api:      api,
		wizard:   wiz,
		guard:    wizard.NewGuard(),
		sessions: sessions,
		bundle:   bundle,
		content:  content.NewStore(p.content, cfg.Site.DefaultLanguage, storeOpts...),
		status:   status.NewChecker(api, statusCacheTTL),
		assets:   assets,
		limiter:  limiter,
		views:    v,
	}, nil
}
