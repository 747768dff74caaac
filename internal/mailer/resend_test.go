package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/emails", req.URL.Path)
		assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "onboarding@resend.dev", body["from"])
		assert.Equal(t, []interface{}{"fox@example.com"}, body["to"])
		assert.Equal(t, "2 New Jobs Matching Your Criteria", body["subject"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "email-123"})
	}))
	defer srv.Close()

	m := NewResendMailer(&Config{APIKey: "test-key", BaseURL: srv.URL})
	require.True(t, m.Configured())

	id, err := m.Send(context.Background(), "fox@example.com", "2 New Jobs Matching Your Criteria", "<html></html>")
	assert.NoError(t, err)
	assert.Equal(t, "email-123", id)
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "API key is invalid"})
	}))
	defer srv.Close()

	m := NewResendMailer(&Config{APIKey: "bad-key", BaseURL: srv.URL})
	id, err := m.Send(context.Background(), "fox@example.com", "subject", "<html></html>")
	require.Error(t, err)
	assert.Empty(t, id)
	assert.Contains(t, err.Error(), "HTTP 403")
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestSendUnconfigured(t *testing.T) {
	m := NewResendMailer(&Config{})
	assert.False(t, m.Configured())

	_, err := m.Send(context.Background(), "fox@example.com", "subject", "<html></html>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is not set")
}

func TestSenderOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "digests@searching-the-fox.dev", body["from"])
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "email-456"})
	}))
	defer srv.Close()

	m := NewResendMailer(&Config{APIKey: "k", Sender: "digests@searching-the-fox.dev", BaseURL: srv.URL})
	id, err := m.Send(context.Background(), "fox@example.com", "s", "<b>hi</b>")
	assert.NoError(t, err)
	assert.Equal(t, "email-456", id)
}
