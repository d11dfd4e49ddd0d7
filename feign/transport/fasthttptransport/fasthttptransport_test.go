package fasthttptransport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_Do_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "bar", r.Header.Get("X-Foo"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "hello", string(body))

		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("world"))
	}))
	defer srv.Close()

	tr := New(WithReadTimeout(5 * time.Second))

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("hello"))
	require.NoError(t, err)
	req.Header.Set("X-Foo", "bar")

	resp, err := tr.Do(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "yes", resp.Header.Get("X-Reply"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "world", string(body))
}

func TestTransport_Do_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := New()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = tr.Do(ctx, req)
	assert.Error(t, err)
}
