// ABOUTME: Tests for the relay pipeline using in-memory fakes
// ABOUTME: Covers failure isolation at every stage and the exact context handed to the completer

package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/wagate/internal/completion"
	"github.com/oakline/wagate/internal/dedupe"
	"github.com/oakline/wagate/internal/store"
	"github.com/oakline/wagate/internal/whatsapp"
)

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, transcript string) (string, error) {
	f.prompts = append(f.prompts, transcript)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeDispatcher struct {
	err  error
	sent []sentText
}

type sentText struct {
	to   string
	body string
}

func (f *fakeDispatcher) SendText(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentText{to: to, body: body})
	return nil
}

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	store.Store
	failAppendDirection store.Direction
	failUpsert          bool
	failList            bool
}

var errStorage = errors.New("disk on fire")

func (f *failingStore) AppendMessage(ctx context.Context, sender, body string, direction store.Direction) (*store.Message, error) {
	if f.failAppendDirection == direction {
		return nil, errStorage
	}
	return f.Store.AppendMessage(ctx, sender, body, direction)
}

func (f *failingStore) UpsertPresence(ctx context.Context, sender string) error {
	if f.failUpsert {
		return errStorage
	}
	return f.Store.UpsertPresence(ctx, sender)
}

func (f *failingStore) ListMessages(ctx context.Context, sender string) ([]*store.Message, error) {
	if f.failList {
		return nil, errStorage
	}
	return f.Store.ListMessages(ctx, sender)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newService(t *testing.T, st store.Store, c Completer, d Dispatcher) *Service {
	t.Helper()
	return New(Config{
		Store:      st,
		Completer:  c,
		Dispatcher: d,
	})
}

func TestHandleInboundFullTurn(t *testing.T) {
	st := newTestStore(t)
	comp := &fakeCompleter{reply: "Hello! How can I help?"}
	disp := &fakeDispatcher{}
	svc := newService(t, st, comp, disp)

	err := svc.HandleInbound(context.Background(), &whatsapp.Inbound{
		ID:   "wamid.1",
		From: "15551234567",
		Text: "hi",
	})
	require.NoError(t, err)

	require.Len(t, disp.sent, 1)
	assert.Equal(t, "15551234567", disp.sent[0].to)
	assert.Equal(t, "Hello! How can I help?", disp.sent[0].body)

	messages, err := st.ListMessages(context.Background(), "15551234567")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.DirectionInbound, messages[0].Direction)
	assert.Equal(t, "hi", messages[0].Body)
	assert.Equal(t, store.DirectionOutbound, messages[1].Direction)
	assert.Equal(t, "Hello! How can I help?", messages[1].Body)

	presence, err := st.GetPresence(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, "15551234567", presence.Sender)
}

func TestHandleInboundContextIncludesHistory(t *testing.T) {
	st := newTestStore(t)
	comp := &fakeCompleter{reply: "ok"}
	disp := &fakeDispatcher{}
	svc := newService(t, st, comp, disp)

	ctx := context.Background()
	require.NoError(t, svc.HandleInbound(ctx, &whatsapp.Inbound{From: "15550001111", Text: "hi"}))

	// First turn: the completer sees only the message that triggered it.
	require.Len(t, comp.prompts, 1)
	assert.Equal(t, "user: hi", comp.prompts[0])

	require.NoError(t, svc.HandleInbound(ctx, &whatsapp.Inbound{From: "15550001111", Text: "book a table"}))

	require.Len(t, comp.prompts, 2)
	assert.Equal(t, "user: hi\nbot: ok\nuser: book a table", comp.prompts[1])
}

func TestHandleInboundNilAndMalformedAreNoOps(t *testing.T) {
	st := newTestStore(t)
	comp := &fakeCompleter{reply: "ok"}
	disp := &fakeDispatcher{}
	svc := newService(t, st, comp, disp)

	ctx := context.Background()
	require.NoError(t, svc.HandleInbound(ctx, nil))
	require.NoError(t, svc.HandleInbound(ctx, &whatsapp.Inbound{From: "", Text: "hi"}))
	require.NoError(t, svc.HandleInbound(ctx, &whatsapp.Inbound{From: "15550001111", Text: ""}))

	assert.Empty(t, comp.prompts)
	assert.Empty(t, disp.sent)
	summaries, err := st.ListThreadSummaries(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestHandleInboundDropsRedeliveredEvent(t *testing.T) {
	st := newTestStore(t)
	comp := &fakeCompleter{reply: "ok"}
	disp := &fakeDispatcher{}
	seen := dedupe.New(time.Minute, 100)
	t.Cleanup(seen.Close)

	svc := New(Config{Store: st, Completer: comp, Dispatcher: disp, Seen: seen})

	ctx := context.Background()
	in := &whatsapp.Inbound{ID: "wamid.dup", From: "15550001111", Text: "hi"}
	require.NoError(t, svc.HandleInbound(ctx, in))
	require.NoError(t, svc.HandleInbound(ctx, in))

	// Second delivery must not run the pipeline again.
	assert.Len(t, comp.prompts, 1)
	assert.Len(t, disp.sent, 1)

	messages, err := st.ListMessages(ctx, "15550001111")
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestHandleInboundStorageFailureAbortsBeforeCompletion(t *testing.T) {
	st := &failingStore{Store: newTestStore(t), failAppendDirection: store.DirectionInbound}
	comp := &fakeCompleter{reply: "ok"}
	disp := &fakeDispatcher{}
	svc := newService(t, st, comp, disp)

	err := svc.HandleInbound(context.Background(), &whatsapp.Inbound{From: "15550001111", Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStorage)

	// Neither the provider nor the dispatcher was touched.
	assert.Empty(t, comp.prompts)
	assert.Empty(t, disp.sent)
}

func TestHandleInboundCompletionFailureLeavesInboundOnly(t *testing.T) {
	st := newTestStore(t)
	comp := &fakeCompleter{err: completion.ErrUnavailable}
	disp := &fakeDispatcher{}
	svc := newService(t, st, comp, disp)

	ctx := context.Background()
	err := svc.HandleInbound(ctx, &whatsapp.Inbound{From: "15550001111", Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, completion.ErrUnavailable)

	assert.Empty(t, disp.sent)
	messages, err := st.ListMessages(ctx, "15550001111")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, store.DirectionInbound, messages[0].Direction)
}

func TestHandleInboundDeliveryFailureRecordsNoOutbound(t *testing.T) {
	st := newTestStore(t)
	comp := &fakeCompleter{reply: "ok"}
	disp := &fakeDispatcher{err: whatsapp.ErrDelivery}
	svc := newService(t, st, comp, disp)

	ctx := context.Background()
	err := svc.HandleInbound(ctx, &whatsapp.Inbound{From: "15550001111", Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, whatsapp.ErrDelivery)
	assert.NotErrorIs(t, err, completion.ErrUnavailable)

	messages, err := st.ListMessages(ctx, "15550001111")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, store.DirectionInbound, messages[0].Direction)
}

func TestHandleInboundOutboundRecordFailureIsReported(t *testing.T) {
	st := &failingStore{Store: newTestStore(t), failAppendDirection: store.DirectionOutbound}
	comp := &fakeCompleter{reply: "ok"}
	disp := &fakeDispatcher{}
	svc := newService(t, st, comp, disp)

	err := svc.HandleInbound(context.Background(), &whatsapp.Inbound{From: "15550001111", Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStorage)

	// The reply was already delivered before the record failed.
	assert.Len(t, disp.sent, 1)
}

func TestHandleInboundContextWindowClipsOldest(t *testing.T) {
	st := newTestStore(t)
	comp := &fakeCompleter{reply: "ok"}
	disp := &fakeDispatcher{}
	svc := New(Config{Store: st, Completer: comp, Dispatcher: disp, ContextLimit: 30})

	ctx := context.Background()
	require.NoError(t, svc.HandleInbound(ctx, &whatsapp.Inbound{From: "15550001111", Text: "first message here"}))
	require.NoError(t, svc.HandleInbound(ctx, &whatsapp.Inbound{From: "15550001111", Text: "second"}))

	require.Len(t, comp.prompts, 2)
	// The oldest lines fall off; the triggering message always survives.
	assert.Equal(t, "bot: ok\nuser: second", comp.prompts[1])
}

func TestSendManualDispatchesAndPersists(t *testing.T) {
	st := newTestStore(t)
	disp := &fakeDispatcher{}
	svc := newService(t, st, &fakeCompleter{}, disp)

	ctx := context.Background()
	require.NoError(t, svc.SendManual(ctx, "15550001111", "we are open until 10pm"))

	require.Len(t, disp.sent, 1)
	assert.Equal(t, "we are open until 10pm", disp.sent[0].body)

	messages, err := st.ListMessages(ctx, "15550001111")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, store.DirectionOutbound, messages[0].Direction)

	presence, err := st.GetPresence(ctx, "15550001111")
	require.NoError(t, err)
	assert.Equal(t, "15550001111", presence.Sender)
}

func TestSendManualDeliveryFailurePersistsNothing(t *testing.T) {
	st := newTestStore(t)
	disp := &fakeDispatcher{err: whatsapp.ErrDelivery}
	svc := newService(t, st, &fakeCompleter{}, disp)

	ctx := context.Background()
	err := svc.SendManual(ctx, "15550001111", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, whatsapp.ErrDelivery)

	messages, err := st.ListMessages(ctx, "15550001111")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendManualRejectsEmptyInput(t *testing.T) {
	svc := newService(t, newTestStore(t), &fakeCompleter{}, &fakeDispatcher{})
	assert.Error(t, svc.SendManual(context.Background(), "", "hello"))
	assert.Error(t, svc.SendManual(context.Background(), "15550001111", ""))
}
