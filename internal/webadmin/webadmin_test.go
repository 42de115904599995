// ABOUTME: Tests for admin UI routes using httptest and an in-memory store
// ABOUTME: Covers thread listing, detail rendering, markdown replies, and the reply form

package webadmin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/wagate/internal/store"
)

type fakeReplier struct {
	err    error
	sender string
	body   string
	calls  int
}

func (f *fakeReplier) SendManual(_ context.Context, sender, body string) error {
	f.calls++
	f.sender = sender
	f.body = body
	return f.err
}

func newTestAdmin(t *testing.T, replier Replier) (*Admin, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, replier, slog.New(slog.NewTextHandler(io.Discard, nil))), st
}

func newTestServer(t *testing.T, admin *Admin) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	admin.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func seedConversation(t *testing.T, st store.Store, sender string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.UpsertPresence(ctx, sender))
	_, err := st.AppendMessage(ctx, sender, "hi there", store.DirectionInbound)
	require.NoError(t, err)
	_, err = st.AppendMessage(ctx, sender, "Hello! **Welcome**", store.DirectionOutbound)
	require.NoError(t, err)
}

func TestThreadsPageEmpty(t *testing.T) {
	admin, _ := newTestAdmin(t, &fakeReplier{})
	srv := newTestServer(t, admin)

	resp, err := http.Get(srv.URL + "/admin")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No conversations yet")
}

func TestThreadsPageListsSenders(t *testing.T) {
	admin, st := newTestAdmin(t, &fakeReplier{})
	seedConversation(t, st, "15551234567")
	srv := newTestServer(t, admin)

	resp, err := http.Get(srv.URL + "/admin")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "15551234567")
	assert.Contains(t, string(body), "/admin/threads/15551234567")
}

func TestThreadDetailRendersMessages(t *testing.T) {
	admin, st := newTestAdmin(t, &fakeReplier{})
	seedConversation(t, st, "15551234567")
	srv := newTestServer(t, admin)

	resp, err := http.Get(srv.URL + "/admin/threads/15551234567")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "hi there")
	// Outbound markdown is rendered, inbound stays plain.
	assert.Contains(t, string(body), "<strong>Welcome</strong>")
	assert.Contains(t, string(body), "First seen")
}

func TestThreadDetailUnknownSender(t *testing.T) {
	admin, _ := newTestAdmin(t, &fakeReplier{})
	srv := newTestServer(t, admin)

	resp, err := http.Get(srv.URL + "/admin/threads/19990000000")
	require.NoError(t, err)
	defer resp.Body.Close()

	// An unknown sender is just an empty thread, not an error.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No messages in this thread")
}

func TestReplyDispatchesAndRedirects(t *testing.T) {
	replier := &fakeReplier{}
	admin, _ := newTestAdmin(t, replier)
	srv := newTestServer(t, admin)

	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.PostForm(srv.URL+"/admin/reply", url.Values{
		"sender": {"15551234567"},
		"body":   {"we close at 10pm"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/threads/15551234567", resp.Header.Get("Location"))
	assert.Equal(t, 1, replier.calls)
	assert.Equal(t, "15551234567", replier.sender)
	assert.Equal(t, "we close at 10pm", replier.body)
}

func TestReplyMissingFields(t *testing.T) {
	replier := &fakeReplier{}
	admin, _ := newTestAdmin(t, replier)
	srv := newTestServer(t, admin)

	resp, err := http.Post(srv.URL+"/admin/reply", "application/x-www-form-urlencoded",
		strings.NewReader("sender=15551234567"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, replier.calls)
}

func TestReplyDeliveryFailure(t *testing.T) {
	replier := &fakeReplier{err: errors.New("delivery refused")}
	admin, _ := newTestAdmin(t, replier)
	srv := newTestServer(t, admin)

	resp, err := http.PostForm(srv.URL+"/admin/reply", url.Values{
		"sender": {"15551234567"},
		"body":   {"hello"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
