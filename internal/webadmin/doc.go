// Package webadmin serves the operator UI: a thread list, per-thread
// message history, and a manual reply form. Templates are embedded in the
// binary; outbound message bodies are rendered from markdown.
package webadmin
