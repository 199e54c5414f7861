package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medcred/internal/issuance/models"
	"medcred/internal/platform/config"
	dErrors "medcred/pkg/domain-errors"
)

type ClientSuite struct {
	suite.Suite
	handler http.HandlerFunc
	server  *httptest.Server
	payload models.Payload
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
	s.payload = models.Payload{
		Authority: "did:web:issuer.example",
		Type:      models.AMACredential,
		Manifest:  "https://demo.example/manifests/ama/manifest.json",
		Callback:  models.Callback{URL: "https://demo.example/api/callback", State: "st-1"},
		Claims:    models.Claims{"firstName": "Ann"},
	}
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) client(mutate ...func(*config.IssuanceConfig)) *Client {
	cfg := config.IssuanceConfig{APIBase: s.server.URL + "/", TenantID: "tenant-1", Timeout: time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg)
}

func (s *ClientSuite) TestCreateIssuanceRequest() {
	s.Run("posts the payload with bearer auth", func() {
		var gotPath, gotAuth, gotCT string
		var gotBody map[string]any
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			gotPath, gotAuth, gotCT = r.URL.Path, r.Header.Get("Authorization"), r.Header.Get("Content-Type")
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &gotBody)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"requestId":"abc","url":"openid-vc://?request_uri=x","expiry":1}`))
		}

		resp, err := s.client().CreateIssuanceRequest(context.Background(), "tok", s.payload)
		s.Require().NoError(err)

		s.Equal("/v1.0/tenant-1/verifiableCredentials/issuanceRequests", gotPath)
		s.Equal("Bearer tok", gotAuth)
		s.Equal("application/json", gotCT)
		s.Equal("did:web:issuer.example", gotBody["authority"])
		s.NotContains(gotBody, "registration")

		s.Equal(http.StatusCreated, resp.StatusCode)
		s.Equal("abc", resp.RequestID)
		s.JSONEq(`{"requestId":"abc","url":"openid-vc://?request_uri=x","expiry":1}`, string(resp.Body))
	})

	s.Run("non-2xx carries the upstream body and status", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"badRequest","message":"manifest not found"}}`))
		}

		_, err := s.client().CreateIssuanceRequest(context.Background(), "tok", s.payload)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamIssuance))
		s.ErrorContains(err, "manifest not found")

		var statusErr *StatusError
		s.Require().True(errors.As(err, &statusErr))
		s.Equal(http.StatusBadRequest, statusErr.StatusCode)
	})

	s.Run("non-JSON success body is malformed", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}
		_, err := s.client().CreateIssuanceRequest(context.Background(), "tok", s.payload)
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedResponse))
	})

	s.Run("slow upstream times out", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}
		c := s.client(func(cfg *config.IssuanceConfig) { cfg.Timeout = 20 * time.Millisecond })
		_, err := c.CreateIssuanceRequest(context.Background(), "tok", s.payload)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamTimeout), "got %v", err)
	})

	s.Run("missing tenant is a configuration error", func() {
		c := s.client(func(cfg *config.IssuanceConfig) { cfg.TenantID = "" })
		_, err := c.CreateIssuanceRequest(context.Background(), "tok", s.payload)
		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}
