// ABOUTME: Relay orchestrator wiring ingestion, persistence, completion, and delivery
// ABOUTME: One HandleInbound call is one full turn; failures stay local to the turn

package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oakline/wagate/internal/dedupe"
	"github.com/oakline/wagate/internal/store"
	"github.com/oakline/wagate/internal/transcript"
	"github.com/oakline/wagate/internal/whatsapp"
)

// Pipeline stages, recorded on every abort so operators can tell how far a
// turn got before it failed.
const (
	stagePersistInbound  = "persist_inbound"
	stageBuildContext    = "build_context"
	stageComplete        = "complete"
	stageDispatch        = "dispatch"
	stagePersistOutbound = "persist_outbound"
)

// Completer produces one reply for an assembled transcript.
type Completer interface {
	Complete(ctx context.Context, transcript string) (string, error)
}

// Dispatcher delivers a text reply to a sender.
type Dispatcher interface {
	SendText(ctx context.Context, to, body string) error
}

// Service runs the relay pipeline. It holds no per-conversation state; the
// store is the only shared resource across turns.
type Service struct {
	store        store.Store
	completer    Completer
	dispatcher   Dispatcher
	seen         *dedupe.Cache
	contextLimit int
	logger       *slog.Logger
}

// Config assembles a Service from its collaborators.
type Config struct {
	Store      store.Store
	Completer  Completer
	Dispatcher Dispatcher
	// Seen is the redelivery dedupe cache; nil disables dedupe.
	Seen *dedupe.Cache
	// ContextLimit caps the transcript handed to the completer, in bytes.
	// Zero or negative disables the sliding window.
	ContextLimit int
	Logger       *slog.Logger
}

// New creates a relay service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        cfg.Store,
		completer:    cfg.Completer,
		dispatcher:   cfg.Dispatcher,
		seen:         cfg.Seen,
		contextLimit: cfg.ContextLimit,
		logger:       logger.With("component", "relay"),
	}
}

// HandleInbound runs one full turn for an inbound message:
// persist the inbound message, rebuild the conversation context, obtain a
// completion, deliver it, and persist the outbound message.
//
// Key principle: record first, then act. The inbound message is persisted
// before any external call; we never ask the provider about a message we
// failed to record. A nil or empty event is a no-op with no side effects.
func (s *Service) HandleInbound(ctx context.Context, in *whatsapp.Inbound) error {
	if in == nil || in.From == "" || in.Text == "" {
		return nil
	}

	if in.ID != "" && s.seen != nil && s.seen.Seen(in.ID) {
		s.logger.Debug("dropping redelivered event", "sender", in.From, "event_id", in.ID)
		return nil
	}

	if err := s.store.UpsertPresence(ctx, in.From); err != nil {
		return s.abort(in.From, stagePersistInbound, fmt.Errorf("upserting presence: %w", err))
	}
	if _, err := s.store.AppendMessage(ctx, in.From, in.Text, store.DirectionInbound); err != nil {
		return s.abort(in.From, stagePersistInbound, fmt.Errorf("recording inbound message: %w", err))
	}

	// The context must include the message just appended.
	messages, err := s.store.ListMessages(ctx, in.From)
	if err != nil {
		return s.abort(in.From, stageBuildContext, fmt.Errorf("loading thread: %w", err))
	}
	prompt := transcript.Build(messages, s.contextLimit)

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		// No reply is sent and no outbound message is recorded.
		return s.abort(in.From, stageComplete, err)
	}

	if err := s.dispatcher.SendText(ctx, in.From, reply); err != nil {
		return s.abort(in.From, stageDispatch, err)
	}

	if err := s.recordOutbound(ctx, in.From, reply); err != nil {
		return err
	}

	s.logger.Info("turn completed", "sender", in.From, "thread_len", len(messages)+1)
	return nil
}

// SendManual delivers an operator-typed reply and persists it, the same as the
// outbound half of the automated pipeline.
func (s *Service) SendManual(ctx context.Context, sender, body string) error {
	if sender == "" || body == "" {
		return fmt.Errorf("sender and body are required")
	}

	if err := s.dispatcher.SendText(ctx, sender, body); err != nil {
		return s.abort(sender, stageDispatch, err)
	}
	return s.recordOutbound(ctx, sender, body)
}

// recordOutbound persists a delivered reply and bumps sender presence.
// Failure here is a lost-record condition: the user already has the reply, so
// it is reported loudly rather than retried.
func (s *Service) recordOutbound(ctx context.Context, sender, body string) error {
	if _, err := s.store.AppendMessage(ctx, sender, body, store.DirectionOutbound); err != nil {
		s.logger.Error("reply delivered but not recorded",
			"sender", sender,
			"stage", stagePersistOutbound,
			"error", err,
		)
		return fmt.Errorf("recording outbound message: %w", err)
	}
	if err := s.store.UpsertPresence(ctx, sender); err != nil {
		// The message itself is recorded; a stale presence row is tolerable.
		s.logger.Warn("failed to bump presence after reply", "sender", sender, "error", err)
	}
	return nil
}

// abort logs and wraps a turn failure with the stage it died in.
func (s *Service) abort(sender, stage string, err error) error {
	s.logger.Error("turn aborted", "sender", sender, "stage", stage, "error", err)
	return fmt.Errorf("%s: %w", stage, err)
}
