package notifications

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWebhook_SignsPayload(t *testing.T) {
	const secret = "test-secret"

	var gotSignature string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	payload := map[string]string{"event": "transaction.created"}
	require.NoError(t, SendWebhook(server.URL, payload, secret))

	assert.Equal(t, Sign(gotBody, secret), gotSignature)
	assert.JSONEq(t, `{"event":"transaction.created"}`, string(gotBody))
}

func TestSendWebhook_SubscriberError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := SendWebhook(server.URL, map[string]string{"event": "x"}, "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSendWebhook_UnreachableURL(t *testing.T) {
	err := SendWebhook("http://127.0.0.1:1/unreachable", nil, "s")
	assert.Error(t, err)
}
