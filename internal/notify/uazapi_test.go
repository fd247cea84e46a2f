package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSendText_PostsNumberAndText(t *testing.T) {
	var got sendTextRequest
	var gotToken, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"sent"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok en", time.Second, zap.NewNop())
	require.NoError(t, c.SendText(context.Background(), "5491123456789", "Hola!"))

	assert.Equal(t, "/send/text", gotPath)
	assert.Equal(t, "tok en", gotToken)
	assert.Equal(t, sendTextRequest{Number: "5491123456789", Text: "Hola!"}, got)
	srv.Client().CloseIdleConnections()
	c.http.CloseIdleConnections()
}

func TestSendText_RejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "instance disconnected", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, nil)
	err := c.SendText(context.Background(), "5491123456789", "Hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uazapi http 502")
	c.http.CloseIdleConnections()
}

func TestSendText_EmptyPhone(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", time.Second, nil)
	err := c.SendText(context.Background(), " ", "Hola")
	assert.True(t, errors.Is(err, ErrInvalidPhone))
}
