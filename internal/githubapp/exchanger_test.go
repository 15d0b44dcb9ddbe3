package githubapp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchanger_Success(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/app/installations/99/access_tokens", r.URL.Path)
		assert.Equal(t, "Bearer test-assertion", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"token":"ghs_testtoken","expires_at":"2026-03-01T13:00:00Z"}`)
	}))
	defer srv.Close()

	ex := NewExchanger(srv.URL, time.Second)
	tok, err := ex.Exchange(context.Background(), "test-assertion", 99)
	require.NoError(t, err)

	assert.Equal(t, "ghs_testtoken", tok.Value)
	assert.Equal(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), tok.ExpiresAt.UTC())

	// Exactly one outbound request per invocation
	assert.Equal(t, int32(1), calls.Load())
}

func TestExchanger_RemoteRejection(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"secret internals"}`, status)
			}))
			defer srv.Close()

			ex := NewExchanger(srv.URL, time.Second)
			_, err := ex.Exchange(context.Background(), "a", 7)
			require.ErrorIs(t, err, ErrAuthentication)

			// Remote error bodies never leak into our error text
			assert.NotContains(t, err.Error(), "secret internals")
		})
	}
}

func TestExchanger_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ex := NewExchanger(srv.URL, time.Second)
	_, err := ex.Exchange(context.Background(), "a", 7)
	require.ErrorIs(t, err, ErrTransient)
}

func TestExchanger_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ex := NewExchanger(srv.URL, 20*time.Millisecond)
	_, err := ex.Exchange(context.Background(), "a", 7)
	require.ErrorIs(t, err, ErrTransient)
}

func TestExchanger_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	ex := NewExchanger(srv.URL, time.Second)
	_, err := ex.Exchange(ctx, "a", 7)
	require.ErrorIs(t, err, ErrTransient)
}

func TestExchanger_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	ex := NewExchanger(srv.URL, time.Second)
	_, err := ex.Exchange(context.Background(), "a", 7)
	require.ErrorIs(t, err, ErrTransient)
}
