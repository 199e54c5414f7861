package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "medcred/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type selectRequest struct {
	UserID string `json:"userId"`
}

func (r *selectRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

func (r *selectRequest) Validate() error {
	if strings.Contains(r.UserID, "/") {
		return errors.New("userId must not contain '/'")
	}
	return nil
}

type strictRequest struct {
	Name string `json:"name"`
}

func (r *strictRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeUnknownUser, "name is required")
	}
	return nil
}

func TestDecodeOptionalJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("decodes and normalizes body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"userId":"  u1 "}`))
		w := httptest.NewRecorder()

		result, ok := DecodeOptionalJSON[selectRequest](w, req, logger, ctx, "req-1")

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Equal(t, "u1", result.UserID)
	})

	t.Run("empty body yields zero value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		w := httptest.NewRecorder()

		result, ok := DecodeOptionalJSON[selectRequest](w, req, logger, ctx, "req-1")

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Empty(t, result.UserID)
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{invalid`))
		w := httptest.NewRecorder()

		result, ok := DecodeOptionalJSON[selectRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var errResp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.Equal(t, "bad_request", errResp["error"])
	})

	t.Run("plain validation error maps to validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"userId":"a/b"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeOptionalJSON[selectRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "validation_error")
	})

	t.Run("domain validation error keeps its code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()

		_, ok := DecodeOptionalJSON[strictRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown_user")
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"configuration", dErrors.New(dErrors.CodeConfiguration, "AUTHORITY_DID is not set"), http.StatusInternalServerError, "configuration_error"},
		{"upstream auth", dErrors.New(dErrors.CodeUpstreamAuth, "forbidden"), http.StatusBadGateway, "upstream_auth_error"},
		{"upstream issuance", dErrors.New(dErrors.CodeUpstreamIssuance, "bad manifest"), http.StatusBadGateway, "upstream_issuance_error"},
		{"timeout", dErrors.New(dErrors.CodeUpstreamTimeout, "deadline"), http.StatusGatewayTimeout, "upstream_timeout"},
		{"unknown user", dErrors.New(dErrors.CodeUnknownUser, "unknown user"), http.StatusBadRequest, "unknown_user"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["error"])
			assert.Equal(t, tc.err.Error(), body["error_description"])
		})
	}
}

func TestWriteRawJSON(t *testing.T) {
	w := httptest.NewRecorder()
	body := []byte(`{"url":"openid://...", "requestId":"abc"}`)

	WriteRawJSON(w, http.StatusOK, body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, body, w.Body.Bytes())
}
