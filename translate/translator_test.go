package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

func completionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: content}})
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestTranslator(t *testing.T, baseURL string) *Translator {
	t.Helper()
	tr, err := New(Config{BaseURL: baseURL, Model: "test-model", AllowPrivate: true})
	require.NoError(t, err)
	return tr
}

func TestTranslate(t *testing.T) {
	srv := completionServer(t, "SELECT region FROM cells", http.StatusOK)
	defer srv.Close()

	sqlText, err := newTestTranslator(t, srv.URL).Translate(context.Background(), "show regions", "cells(region, total)")
	require.NoError(t, err)
	assert.Equal(t, "SELECT region FROM cells", sqlText)
}

func TestTranslateStripsFences(t *testing.T) {
	srv := completionServer(t, "```sql\nSELECT 1;\n```", http.StatusOK)
	defer srv.Close()

	sqlText, err := newTestTranslator(t, srv.URL).Translate(context.Background(), "one", "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", sqlText)
}

func TestTranslateServerError(t *testing.T) {
	srv := completionServer(t, "", http.StatusInternalServerError)
	defer srv.Close()

	_, err := newTestTranslator(t, srv.URL).Translate(context.Background(), "boom", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrTranslation))
}

func TestTranslateEmptyCompletion(t *testing.T) {
	srv := completionServer(t, "   ", http.StatusOK)
	defer srv.Close()

	_, err := newTestTranslator(t, srv.URL).Translate(context.Background(), "nothing", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrTranslation))
}

func TestNewRejectsBadEndpoint(t *testing.T) {
	_, err := New(Config{BaseURL: "ftp://example.com", Model: "m"})
	assert.Error(t, err)

	// Private endpoints need AllowPrivate
	_, err = New(Config{BaseURL: "http://localhost:11434", Model: "m"})
	assert.Error(t, err)
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"SELECT 1":                      "SELECT 1",
		"SELECT 1;":                     "SELECT 1",
		"```\nSELECT 1\n```":            "SELECT 1",
		"```sql\nSELECT 1\n```":         "SELECT 1",
		"  ```sql\nSELECT 1;\n```  ":    "SELECT 1",
		"```sql\nSELECT a\nFROM b\n```": "SELECT a\nFROM b",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripFences(in), "%q", in)
	}
}
