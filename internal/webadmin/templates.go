// ABOUTME: Template rendering functions for admin UI
// ABOUTME: Loads templates from embedded filesystem and renders them

package webadmin

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/oakline/wagate/internal/store"
)

// Template data types
type threadsPageData struct {
	Title   string
	Threads []*store.ThreadSummary
}

type messageItem struct {
	Direction store.Direction
	Body      template.HTML
	Timestamp string
}

type threadDetailData struct {
	Title        string
	Sender       string
	Presence     *store.SenderPresence
	MessageCount int64
	Messages     []messageItem
}

// renderThreadsPage renders the threads list page
func (a *Admin) renderThreadsPage(w http.ResponseWriter, threads []*store.ThreadSummary) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/threads.html"))

	data := threadsPageData{
		Title:   "Threads",
		Threads: threads,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render threads page", "error", err)
	}
}

// renderThreadDetail renders a single thread with its messages
func (a *Admin) renderThreadDetail(w http.ResponseWriter, sender string, presence *store.SenderPresence, messages []*store.Message, count int64) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/thread_detail.html"))

	items := make([]messageItem, 0, len(messages))
	for _, msg := range messages {
		items = append(items, messageItem{
			Direction: msg.Direction,
			Body:      a.renderBody(msg),
			Timestamp: msg.Timestamp.Format("2006-01-02 15:04:05"),
		})
	}

	data := threadDetailData{
		Title:        "Thread " + sender,
		Sender:       sender,
		Presence:     presence,
		MessageCount: count,
		Messages:     items,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render thread detail", "error", err)
	}
}

// renderBody converts outbound message bodies from markdown to HTML,
// since model replies routinely contain markdown. Inbound bodies are
// plain user text and stay escaped.
func (a *Admin) renderBody(msg *store.Message) template.HTML {
	if msg.Direction != store.DirectionOutbound {
		return template.HTML(template.HTMLEscapeString(msg.Body))
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(msg.Body), &htmlBuf); err != nil {
		a.logger.Error("failed to render message markdown", "message_id", msg.ID, "error", err)
		return template.HTML(template.HTMLEscapeString(msg.Body))
	}
	return template.HTML(htmlBuf.String())
}
