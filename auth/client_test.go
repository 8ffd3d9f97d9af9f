package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != LoginPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		if r.FormValue("username") == "alice" && r.FormValue("password") == "s3cret" {
			_, _ = w.Write([]byte(`{"message":"Login successful"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginSuccess(t *testing.T) {
	srv := newBackend(t)
	c := NewClient(srv.URL+"/", time.Second, nil)
	require.NoError(t, c.Login(context.Background(), "alice", "s3cret"))
}

func TestLoginRejected(t *testing.T) {
	srv := newBackend(t)
	c := NewClient(srv.URL, time.Second, nil)

	err := c.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, se.Error(), "Invalid credentials")
}

func TestLoginTransportError(t *testing.T) {
	srv := newBackend(t)
	url := srv.URL
	srv.Close()

	err := NewClient(url, time.Second, nil).Login(context.Background(), "alice", "s3cret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginHonoursContext(t *testing.T) {
	srv := newBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewClient(srv.URL, 0, nil).Login(ctx, "alice", "s3cret")
	assert.ErrorIs(t, err, context.Canceled)
}
