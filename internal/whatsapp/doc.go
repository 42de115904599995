// Package whatsapp talks to the WhatsApp Cloud API in both directions.
//
// ParseInbound and VerifySubscription cover the webhook side: extracting a
// text message from an event delivery and answering the subscription
// handshake. Client covers the outbound side, posting text messages to the
// Graph API messages endpoint.
//
// Delivery failures are reported as ErrDelivery so callers can tell a
// transport problem from a completion problem.
package whatsapp
