package telegram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-punch-server/telegram"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := telegram.New("test-token", telegram.WithBaseURL(server.URL))
	err := client.SendMessage(context.Background(), "12345", "hello there")

	require.NoError(t, err)
	require.Equal(t, "/bottest-token/sendMessage", gotPath)
	require.Equal(t, map[string]string{"chat_id": "12345", "text": "hello there"}, gotBody)
}

func TestSendMessageSkipsEmptyText(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := telegram.New("test-token", telegram.WithBaseURL(server.URL))
	err := client.SendMessage(context.Background(), "12345", "")

	require.NoError(t, err)
	require.False(t, called)
}

func TestSendMessageReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	client := telegram.New("test-token", telegram.WithBaseURL(server.URL))
	err := client.SendMessage(context.Background(), "12345", "hello")

	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
	require.Contains(t, err.Error(), "chat not found")
}

func TestSendMessageReportsTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse connections

	client := telegram.New("test-token", telegram.WithBaseURL(server.URL))
	err := client.SendMessage(context.Background(), "12345", "hello")

	require.Error(t, err)
}
