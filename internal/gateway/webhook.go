// ABOUTME: Webhook intake handlers for WhatsApp Cloud API callbacks
// ABOUTME: Handles the subscription verification handshake and event delivery

package gateway

import (
	"context"
	"io"
	"net/http"

	"github.com/oakline/wagate/internal/whatsapp"
)

// maxWebhookBody caps how much of a webhook payload is read.
const maxWebhookBody = 1 << 20 // 1 MiB

// handleWebhookVerify answers the Cloud API subscription handshake.
// Meta sends hub.mode, hub.verify_token, and hub.challenge as query
// parameters; a matching token is echoed back with the challenge.
func (g *Gateway) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := whatsapp.VerifySubscription(
		q.Get("hub.mode"),
		q.Get("hub.verify_token"),
		q.Get("hub.challenge"),
		g.verifyToken,
	)
	if !ok {
		g.logger.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	g.logger.Info("webhook verified")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// handleWebhookEvent accepts a webhook delivery, acks it immediately, and
// runs the relay pipeline in the background. Meta redelivers on anything but
// a prompt 200, so the ack never waits on storage, the completion provider,
// or outbound delivery.
func (g *Gateway) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		g.logger.Warn("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)

	in, ok := whatsapp.ParseInbound(body)
	if !ok {
		// Status updates and other non-message events land here.
		g.logger.Debug("ignoring webhook event without a text message")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		if err := g.relay.HandleInbound(ctx, in); err != nil {
			g.logger.Error("inbound pipeline failed", "sender", in.From, "error", err)
		}
	}()
}
