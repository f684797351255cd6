package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "203.0.113.42:5123", want: "203.0.113.0"},
		{in: "203.0.113.42", want: "203.0.113.0"},
		{in: "127.0.0.1:80", want: "127.0.0.1"},
		{in: "[2001:db8:1:2:3:4:5:6]:443", want: "2001:db8:1:2::"},
		{in: "[::1]:443", want: "127.0.0.1"},
		{in: "not-an-ip", want: "unknown_ip"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, anonymizeIP(tt.in))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	initWith(&buf, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger())
	r.Get("/api/chats/{chatId}/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	serve := func(target string) map[string]any {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = "198.51.100.7:40000"
		r.ServeHTTP(httptest.NewRecorder(), req)

		if buf.Len() == 0 {
			return nil
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		return entry
	}

	entry := serve("/api/chats/c1/messages?token=secret")
	require.NotNil(t, entry)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/api/chats/{chatId}/messages", entry["route"])
	assert.Equal(t, "/api/chats/c1/messages", entry["request_path"])
	assert.Equal(t, "198.51.100.0", entry["remote_ip"])
	assert.EqualValues(t, http.StatusForbidden, entry["status"])
	assert.NotContains(t, buf.String(), "secret")

	// Health checks log at debug, below the configured info level.
	assert.Nil(t, serve("/health"))
}

func TestError_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	initWith(&buf, false)

	Error(errors.New("store down"), "send failed", "chat_id", "c1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "store down", entry["error"])
	assert.Equal(t, "c1", entry["chat_id"])
	assert.Equal(t, "send failed", entry["message"])
}

func TestInfo_OddFieldsAreDropped(t *testing.T) {
	var buf bytes.Buffer
	initWith(&buf, false)

	Info("hello", "dangling")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.NotContains(t, entry, "dangling")
}
