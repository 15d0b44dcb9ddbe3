package event

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/go-github/v65/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDispatcher_InvokesMatchedHandlerOnce(t *testing.T) {
	d := NewDispatcher(testLogger())

	calls := 0
	var gotPayload *Payload
	var gotClient *github.Client
	d.Register("issues", "opened", func(ctx context.Context, p *Payload, c *github.Client) error {
		calls++
		gotPayload = p
		gotClient = c
		return nil
	})

	payload := &Payload{Action: "opened", Issue: &Issue{Number: 7}}
	client := github.NewClient(nil)

	handled, err := d.Dispatch(context.Background(), "issues", payload, client)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, calls)
	assert.Same(t, payload, gotPayload)
	assert.Same(t, client, gotClient)
}

func TestDispatcher_UnmatchedIsNoOpSuccess(t *testing.T) {
	d := NewDispatcher(testLogger())

	d.Register("issues", "opened", func(ctx context.Context, p *Payload, c *github.Client) error {
		t.Fatal("handler must not run for issues.closed")
		return nil
	})

	handled, err := d.Dispatch(context.Background(), "issues", &Payload{Action: "closed"}, nil)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestDispatcher_HandlerFailureWrapped(t *testing.T) {
	d := NewDispatcher(testLogger())

	boom := errors.New("label API exploded")
	d.Register("issues", "opened", func(ctx context.Context, p *Payload, c *github.Client) error {
		return boom
	})

	handled, err := d.Dispatch(context.Background(), "issues", &Payload{Action: "opened"}, nil)
	assert.True(t, handled)
	require.Error(t, err)

	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "issues", herr.Event)
	assert.Equal(t, "opened", herr.Action)
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_ActionlessEvent(t *testing.T) {
	d := NewDispatcher(testLogger())

	calls := 0
	d.Register("ping", "", func(ctx context.Context, p *Payload, c *github.Client) error {
		calls++
		return nil
	})

	handled, err := d.Dispatch(context.Background(), "ping", &Payload{}, nil)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, calls)
}

func TestParsePayload(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		raw := []byte(`{
			"action": "opened",
			"repository": {"id": 1, "name": "demo", "full_name": "octo/demo", "owner": {"login": "octo"}},
			"issue": {"number": 42, "title": "It broke"},
			"installation": {"id": 999},
			"sender": {"login": "someone"}
		}`)

		p, err := ParsePayload(raw)
		require.NoError(t, err)
		assert.Equal(t, "opened", p.Action)
		assert.Equal(t, "octo/demo", p.Repository.FullName)
		assert.Equal(t, 42, p.Issue.Number)

		id, ok := p.InstallationID()
		assert.True(t, ok)
		assert.Equal(t, int64(999), id)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParsePayload([]byte(`{"action": `))
		require.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("no installation", func(t *testing.T) {
		p, err := ParsePayload([]byte(`{"action":"opened"}`))
		require.NoError(t, err)
		_, ok := p.InstallationID()
		assert.False(t, ok)
	})
}
