// Package gateway orchestrates the wagate server components.
//
// # Overview
//
// The gateway package is the central coordinator of the wagate server. It
// owns and manages all major components: the HTTP server, the message store,
// the relay pipeline, the dedupe cache, and the web admin interface.
//
// # HTTP API
//
// The gateway exposes these HTTP endpoints:
//
//   - GET  /webhook - WhatsApp subscription verification handshake
//   - POST /webhook - WhatsApp Cloud API event deliveries
//   - GET  /api/threads - List conversation threads
//   - GET  /api/threads/{sender}/messages - Full history for one sender
//   - GET  /health - Liveness check
//   - GET  /admin, /admin/threads/{sender}, POST /admin/reply - Admin UI
//
// # Webhook Intake
//
// Event deliveries are acked with 200 before any processing happens; the
// relay pipeline runs in a background goroutine with its own timeout. Meta
// redelivers events that are not acked promptly, so intake never blocks on
// storage, the completion provider, or outbound delivery.
//
// # Lifecycle
//
// Start the gateway:
//
//	gw, err := gateway.New(cfg, logger)
//	err = gw.Run(ctx)
//
// Run blocks until the context is canceled or the server fails, then
// performs a graceful shutdown.
//
// # Key Files
//
//   - gateway.go: Gateway struct, initialization, Run/Shutdown
//   - webhook.go: Verification handshake and event intake
//   - api.go: JSON API handlers
package gateway
