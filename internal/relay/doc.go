// Package relay runs the message pipeline: persist an inbound message,
// rebuild its conversation context, obtain a completion, deliver the reply,
// and persist the outbound half.
//
// The pipeline records first and acts second: a message that cannot be
// stored is never sent to the completion provider. Failures after delivery
// are reported as lost-record conditions rather than retried, since the
// recipient already has the reply.
package relay
