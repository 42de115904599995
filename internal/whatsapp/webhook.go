// ABOUTME: Inbound webhook payload handling for the WhatsApp Cloud API
// ABOUTME: Extracts the first text message from an event and handles verification

package whatsapp

import (
	"github.com/tidwall/gjson"
)

// Inbound is the extracted content of one webhook message event.
type Inbound struct {
	// ID is the platform's message id, used for redelivery dedupe. May be empty.
	ID string
	// From is the sender's phone-number-like identifier.
	From string
	// Text is the message body.
	Text string
}

// ParseInbound extracts the first message from a webhook delivery payload.
// The Cloud API nests it at entry[0].changes[0].value.messages[0]. Payloads
// without a sender and a text body (status updates, media, malformed JSON)
// return ok=false and must produce no side effects.
func ParseInbound(body []byte) (*Inbound, bool) {
	msg := gjson.GetBytes(body, "entry.0.changes.0.value.messages.0")
	if !msg.Exists() {
		return nil, false
	}

	from := msg.Get("from").String()
	text := msg.Get("text.body").String()
	if from == "" || text == "" {
		return nil, false
	}

	return &Inbound{
		ID:   msg.Get("id").String(),
		From: from,
		Text: text,
	}, true
}

// VerifySubscription implements the webhook handshake: a subscribe request
// whose verify token matches the configured secret gets the challenge echoed
// back. Returns the response body and whether verification succeeded.
func VerifySubscription(mode, token, challenge, verifyToken string) (string, bool) {
	if mode != "subscribe" || verifyToken == "" || token != verifyToken {
		return "", false
	}
	return challenge, true
}
