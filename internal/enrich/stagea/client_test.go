package stagea

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	cerrors "newsgate/internal/core/errors"
)

func TestAnalyze(t *testing.T) {
	var gotAuth string

	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/analyze-comprehensive", r.URL.Path)

		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Result{Success: true, ProcessingTimeMS: 42})
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	client := New(srv.URL, "secret", 5*time.Second, 100, &logger)

	res, err := client.Analyze(context.Background(), "https://example.com/story", "full")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, int64(42), res.ProcessingTimeMS)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "https://example.com/story", gotBody["url"])
	require.Equal(t, "full", gotBody["tier"])
}

func TestAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	client := New(srv.URL, "secret", 5*time.Second, 100, &logger)

	_, err := client.Analyze(context.Background(), "https://example.com/story", "medium")
	require.Error(t, err)
}

func TestAnalyzeDisabled(t *testing.T) {
	logger := zerolog.Nop()
	client := New("", "", 5*time.Second, 100, &logger)

	require.False(t, client.Enabled())

	_, err := client.Analyze(context.Background(), "https://example.com/story", "full")
	require.ErrorIs(t, err, cerrors.ErrClientDisabled)
}
