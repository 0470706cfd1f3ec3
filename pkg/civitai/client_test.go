package civitai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civsync/pkg/errors"
	"civsync/pkg/logger"
)

func TestNewClient(t *testing.T) {
	log := logger.NewNopLogger()
	client := NewClient(20*time.Second, 30*time.Second, "secret", log)

	assert.NotNil(t, client)
	assert.NotNil(t, client.listingClient)
	assert.NotNil(t, client.assetClient)
	assert.Equal(t, 20*time.Second, client.listingClient.Timeout)
	assert.Equal(t, 30*time.Second, client.assetClient.Timeout)
}

func TestFetchImagesPage(t *testing.T) {
	var gotAuth, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{
			"items": [
				{"id": 101, "url": "https://img.example/101.jpeg", "username": "alice", "width": 512, "height": 768}
			],
			"metadata": {"nextPage": "https://api.example/images?cursor=abc"}
		}`))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 5*time.Second, "secret", logger.NewNopLogger())

	envelope, err := client.FetchImagesPage(server.URL)
	require.NoError(t, err)
	require.Len(t, envelope.Items, 1)

	assert.Equal(t, int64(101), envelope.Items[0].ID)
	assert.Equal(t, "alice", envelope.Items[0].Username)
	assert.Equal(t, "https://api.example/images?cursor=abc", envelope.Metadata.NextPage)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "civsync/1.0", gotAgent)
}

func TestFetchImagesPageWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"items": [], "metadata": {}}`))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 5*time.Second, "", logger.NewNopLogger())

	_, err := client.FetchImagesPage(server.URL)
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "anonymous requests must not send an Authorization header")
}

func TestFetchImagesPageStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType errors.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrorTypeAuth},
		{"forbidden", http.StatusForbidden, errors.ErrorTypeAuth},
		{"not found", http.StatusNotFound, errors.ErrorTypeNotFound},
		{"rate limited", http.StatusTooManyRequests, errors.ErrorTypeRateLimit},
		{"server error", http.StatusInternalServerError, errors.ErrorTypeServerError},
		{"teapot", http.StatusTeapot, errors.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(5*time.Second, 5*time.Second, "", logger.NewNopLogger())

			_, err := client.FetchImagesPage(server.URL)
			require.Error(t, err)

			apiErr, ok := err.(*errors.Error)
			require.True(t, ok, "expected *errors.Error, got %T", err)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.status, apiErr.Code)
		})
	}
}

func TestFetchImagesPageMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 5*time.Second, "", logger.NewNopLogger())

	_, err := client.FetchImagesPage(server.URL)
	require.Error(t, err)

	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeParsing, apiErr.Type)
}

func TestFetchImagesPageNetworkError(t *testing.T) {
	client := NewClient(time.Second, time.Second, "", logger.NewNopLogger())

	_, err := client.FetchImagesPage("http://127.0.0.1:1/unreachable")
	require.Error(t, err)

	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNetwork, apiErr.Type)
}

func TestDownloadImage(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 5*time.Second, "secret", logger.NewNopLogger())

	data, err := client.DownloadImage(server.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Empty(t, gotAuth, "asset fetches must never carry the token")
}

func TestDownloadImageNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, 5*time.Second, "", logger.NewNopLogger())

	_, err := client.DownloadImage(server.URL)
	require.Error(t, err)

	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNotFound, apiErr.Type)
}
