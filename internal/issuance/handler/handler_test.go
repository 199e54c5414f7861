package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	directory "medcred/internal/directory/models"
	"medcred/internal/issuance/catalog"
	"medcred/internal/issuance/handler/mocks"
	"medcred/internal/issuance/models"
	dErrors "medcred/pkg/domain-errors"
	"medcred/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)

	h := New(s.service, catalog.Default("https://app.example"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func (s *HandlerSuite) TestIssue() {
	s.Run("returns the upstream body verbatim", func() {
		s.service.EXPECT().RequestIssuance(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.IssueRequest) (models.Response, error) {
				s.Equal(models.UnitedHealthEmployeeCredential, req.Descriptor.Type)
				s.Equal("https://app.example/manifests/unitedhealth/manifest.json", req.Descriptor.Manifest)
				s.True(req.UserID.IsNil())
				return models.Response{Body: []byte(`{"requestId":"r1","url":"openid-vc://?x"}`), StatusCode: 201, State: "st-1"}, nil
			})

		w := s.serve(httptest.NewRequest(http.MethodPost, "/api/issue/unitedhealth", nil))
		s.Equal(http.StatusOK, w.Code)
		s.Equal("application/json", w.Header().Get("Content-Type"))
		s.Equal(`{"requestId":"r1","url":"openid-vc://?x"}`, w.Body.String())
		s.Equal("st-1", w.Header().Get(StateHeader))
	})

	s.Run("GET takes the user from the query", func() {
		s.service.EXPECT().RequestIssuance(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.IssueRequest) (models.Response, error) {
				s.Equal(directory.UserID("u2"), req.UserID)
				return models.Response{Body: []byte(`{}`)}, nil
			})

		w := s.serve(httptest.NewRequest(http.MethodGet, "/api/issue/ama?userId=u2", nil))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("POST takes the user from the body", func() {
		s.service.EXPECT().RequestIssuance(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.IssueRequest) (models.Response, error) {
				s.Equal(directory.UserID("u3"), req.UserID)
				return models.Response{Body: []byte(`{}`)}, nil
			})

		w := s.serve(httptest.NewRequest(http.MethodPost, "/api/issue/cms", strings.NewReader(`{"userId":" u3 "}`)))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("passes client platform through", func() {
		s.service.EXPECT().RequestIssuance(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.IssueRequest) (models.Response, error) {
				s.Equal("Safari 17 on iOS", req.Client.Platform)
				return models.Response{Body: []byte(`{}`)}, nil
			})

		req := httptest.NewRequest(http.MethodGet, "/api/issue/johns-hopkins", nil)
		req = req.WithContext(requestcontext.WithClientPlatform(req.Context(), "Safari 17 on iOS"))
		s.Equal(http.StatusOK, s.serve(req).Code)
	})

	s.Run("unknown credential is 404", func() {
		w := s.serve(httptest.NewRequest(http.MethodGet, "/api/issue/nope", nil))
		s.Equal(http.StatusNotFound, w.Code)
		s.Equal("not_found", s.errorCode(w))
	})

	s.Run("malformed body is 400", func() {
		w := s.serve(httptest.NewRequest(http.MethodPost, "/api/issue/ama", strings.NewReader(`{"userId":`)))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("invalid user id is rejected", func() {
		w := s.serve(httptest.NewRequest(http.MethodGet, "/api/issue/ama?userId=a%2Fb", nil))
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation_error", s.errorCode(w))
	})
}

func (s *HandlerSuite) TestIssueErrorMapping() {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"configuration", dErrors.New(dErrors.CodeConfiguration, "AUTHORITY_DID is not configured"), http.StatusInternalServerError, "configuration_error"},
		{"identity rejected", dErrors.New(dErrors.CodeUpstreamAuth, "identity endpoint returned 403: forbidden"), http.StatusBadGateway, "upstream_auth_error"},
		{"issuance rejected", dErrors.New(dErrors.CodeUpstreamIssuance, "issuance service returned 400: bad"), http.StatusBadGateway, "upstream_issuance_error"},
		{"malformed", dErrors.New(dErrors.CodeMalformedResponse, "no access_token"), http.StatusBadGateway, "malformed_response"},
		{"timeout", dErrors.New(dErrors.CodeUpstreamTimeout, "timed out"), http.StatusGatewayTimeout, "upstream_timeout"},
		{"unknown user", dErrors.New(dErrors.CodeUnknownUser, "unknown user"), http.StatusBadRequest, "unknown_user"},
		{"dangling active user", dErrors.New(dErrors.CodeUnknownActiveUser, "dangling"), http.StatusConflict, "unknown_active_user"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().RequestIssuance(gomock.Any(), gomock.Any()).Return(models.Response{}, tc.err)

			w := s.serve(httptest.NewRequest(http.MethodPost, "/api/issue/unitedhealth", nil))
			s.Equal(tc.status, w.Code)

			var body map[string]string
			s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
			s.Equal(tc.code, body["error"])
			s.Equal(tc.err.Error(), body["error_description"])
		})
	}
}

func (s *HandlerSuite) TestCallback() {
	s.Run("authenticated callbacks are processed with raw bytes", func() {
		raw := `{"requestId":"r1","requestStatus":"request_retrieved","state":"st"}`
		s.service.EXPECT().AuthenticateCallback("k").Return(true)
		s.service.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev models.CallbackEvent) error {
				s.Equal("st", ev.State)
				s.Equal("request_retrieved", ev.RequestStatus)
				s.JSONEq(raw, string(ev.Raw))
				return nil
			})

		req := httptest.NewRequest(http.MethodPost, "/api/callback", strings.NewReader(raw))
		req.Header.Set("api-key", "k")
		s.Equal(http.StatusOK, s.serve(req).Code)
	})

	s.Run("mismatched key is dropped but acknowledged", func() {
		s.service.EXPECT().AuthenticateCallback("bad").Return(false)
		s.service.EXPECT().RecordDroppedCallback()

		req := httptest.NewRequest(http.MethodPost, "/api/callback", strings.NewReader(`{}`))
		req.Header.Set("api-key", "bad")
		s.Equal(http.StatusOK, s.serve(req).Code)
	})

	s.Run("non-JSON bodies are acknowledged", func() {
		s.service.EXPECT().AuthenticateCallback("").Return(true)
		s.service.EXPECT().RecordDroppedCallback()

		w := s.serve(httptest.NewRequest(http.MethodPost, "/api/callback", strings.NewReader(`hello`)))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("processing failures are acknowledged", func() {
		s.service.EXPECT().AuthenticateCallback("").Return(true)
		s.service.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).Return(dErrors.New(dErrors.CodeInternal, "boom"))

		w := s.serve(httptest.NewRequest(http.MethodPost, "/api/callback", strings.NewReader(`{"state":"x"}`)))
		s.Equal(http.StatusOK, w.Code)
	})
}

func (s *HandlerSuite) TestSession() {
	s.Run("returns the session", func() {
		s.service.EXPECT().Session(gomock.Any(), "st").Return(models.Session{
			State:  "st",
			Status: models.StatusIssuanceSuccessful,
			Type:   models.AMACredential,
		}, nil)

		w := s.serve(httptest.NewRequest(http.MethodGet, "/api/issuance/st", nil))
		s.Equal(http.StatusOK, w.Code)

		var got models.Session
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&got))
		s.Equal(models.StatusIssuanceSuccessful, got.Status)
	})

	s.Run("unknown state is 404", func() {
		s.service.EXPECT().Session(gomock.Any(), "missing").
			Return(models.Session{}, dErrors.New(dErrors.CodeNotFound, "issuance session not found"))

		w := s.serve(httptest.NewRequest(http.MethodGet, "/api/issuance/missing", nil))
		s.Equal(http.StatusNotFound, w.Code)
	})
}
