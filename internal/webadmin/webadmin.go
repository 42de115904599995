// ABOUTME: Admin web UI package for browsing threads and sending manual replies
// ABOUTME: Read-only thread views plus an operator reply form

package webadmin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oakline/wagate/internal/store"
)

// Replier sends an operator-typed message through the outbound pipeline.
type Replier interface {
	SendManual(ctx context.Context, sender, body string) error
}

// Admin handles admin UI routes
type Admin struct {
	store   store.Store
	replier Replier
	logger  *slog.Logger
}

// New creates an Admin handler
func New(st store.Store, replier Replier, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{
		store:   st,
		replier: replier,
		logger:  logger.With("component", "webadmin"),
	}
}

// RegisterRoutes registers all admin routes on the given mux
func (a *Admin) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin", a.handleThreadsPage)
	mux.HandleFunc("GET /admin/{$}", a.handleThreadsPage)
	mux.HandleFunc("GET /admin/threads/{sender}", a.handleThreadDetail)
	mux.HandleFunc("POST /admin/reply", a.handleReply)
}

// handleThreadsPage lists all conversation threads, most recent first
func (a *Admin) handleThreadsPage(w http.ResponseWriter, r *http.Request) {
	threads, err := a.store.ListThreadSummaries(r.Context())
	if err != nil {
		a.logger.Error("failed to list threads", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.renderThreadsPage(w, threads)
}

// handleThreadDetail shows a single conversation with a reply form
func (a *Admin) handleThreadDetail(w http.ResponseWriter, r *http.Request) {
	sender := r.PathValue("sender")
	if sender == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	messages, err := a.store.ListMessages(r.Context(), sender)
	if err != nil {
		a.logger.Error("failed to load thread", "sender", sender, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	presence, err := a.store.GetPresence(r.Context(), sender)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.logger.Error("failed to load presence", "sender", sender, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	count, err := a.store.CountMessages(r.Context(), sender)
	if err != nil {
		a.logger.Error("failed to count messages", "sender", sender, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderThreadDetail(w, sender, presence, messages, count)
}

// handleReply dispatches an operator reply and redirects back to the thread
func (a *Admin) handleReply(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sender := r.FormValue("sender")
	body := r.FormValue("body")
	if sender == "" || body == "" {
		http.Error(w, "sender and body are required", http.StatusBadRequest)
		return
	}

	if err := a.replier.SendManual(r.Context(), sender, body); err != nil {
		a.logger.Error("manual reply failed", "sender", sender, "error", err)
		http.Error(w, "failed to send reply", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, "/admin/threads/"+sender, http.StatusSeeOther)
}
