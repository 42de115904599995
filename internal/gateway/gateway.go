// ABOUTME: Gateway orchestrator that wires the store, relay pipeline, and HTTP server
// ABOUTME: Manages webhook intake, admin UI, JSON API, and lifecycle

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oakline/wagate/internal/completion"
	"github.com/oakline/wagate/internal/config"
	"github.com/oakline/wagate/internal/dedupe"
	"github.com/oakline/wagate/internal/relay"
	"github.com/oakline/wagate/internal/store"
	"github.com/oakline/wagate/internal/webadmin"
	"github.com/oakline/wagate/internal/whatsapp"
)

const (
	// dedupeTTL is how long a webhook event id is remembered.
	dedupeTTL = 10 * time.Minute
	// dedupeMaxSize caps the dedupe cache.
	dedupeMaxSize = 10000

	// turnTimeout bounds one full pipeline run for an inbound message.
	// The webhook has already been acked by the time this clock starts.
	turnTimeout = 60 * time.Second
)

// inboundHandler is the part of the relay the webhook intake needs.
type inboundHandler interface {
	HandleInbound(ctx context.Context, in *whatsapp.Inbound) error
}

// Gateway orchestrates the wagate server components.
type Gateway struct {
	config     *config.Config
	store      store.Store
	relay      inboundHandler
	dedupe     *dedupe.Cache
	webAdmin   *webadmin.Admin
	httpServer *http.Server
	logger     *slog.Logger

	verifyToken string
}

// New creates a Gateway with all components wired from config.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	completer := completion.New(completion.Config{
		APIKey:       cfg.Completion.APIKey,
		BaseURL:      cfg.Completion.BaseURL,
		Model:        cfg.Completion.Model,
		SystemPrompt: cfg.Completion.SystemPrompt,
		Timeout:      cfg.Completion.Timeout,
	})

	dispatcher := whatsapp.NewClient(whatsapp.Config{
		AccessToken:   cfg.WhatsApp.AccessToken,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		APIBase:       cfg.WhatsApp.APIBase,
		Timeout:       cfg.WhatsApp.SendTimeout,
	})

	seen := dedupe.New(dedupeTTL, dedupeMaxSize)

	relaySvc := relay.New(relay.Config{
		Store:        st,
		Completer:    completer,
		Dispatcher:   dispatcher,
		Seen:         seen,
		ContextLimit: cfg.Completion.ContextLimit,
		Logger:       logger,
	})

	g := &Gateway{
		config:      cfg,
		store:       st,
		relay:       relaySvc,
		dedupe:      seen,
		webAdmin:    webadmin.New(st, relaySvc, logger),
		logger:      logger.With("component", "gateway"),
		verifyToken: cfg.WhatsApp.VerifyToken,
	}

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// routes builds the HTTP mux for webhook, health, API, and admin endpoints.
func (g *Gateway) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /webhook", g.handleWebhookVerify)
	mux.HandleFunc("POST /webhook", g.handleWebhookEvent)
	mux.HandleFunc("GET /health", g.handleHealth)

	mux.HandleFunc("GET /api/threads", g.handleAPIThreads)
	mux.HandleFunc("GET /api/threads/{sender}/messages", g.handleAPIThreadMessages)

	g.webAdmin.RegisterRoutes(mux)

	return mux
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails. Shutdown is always attempted before returning.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("http server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
	case serverErr = <-errCh:
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the store and dedupe cache.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	g.dedupe.Close()

	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
