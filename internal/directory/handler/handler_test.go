package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"medcred/internal/directory/handler/mocks"
	"medcred/internal/directory/models"
	dErrors "medcred/pkg/domain-errors"
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

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterAdmin(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) TestSetActive() {
	s.Run("switches to a known user", func() {
		s.service.EXPECT().SetActive(gomock.Any(), models.UserID("u2")).
			Return(models.User{ID: "u2", FirstName: "Raj", LastName: "Patel"}, nil)

		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/setUser/u2", nil))

		s.Equal(http.StatusOK, w.Code)
		var resp ActiveUserResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.Equal(models.UserID("u2"), resp.ActiveUserID)
		s.Equal("Raj", resp.User.FirstName)
	})

	s.Run("unknown user is a 400 with error envelope", func() {
		s.service.EXPECT().SetActive(gomock.Any(), models.UserID("nobody")).
			Return(models.User{}, dErrors.New(dErrors.CodeUnknownUser, `unknown user "nobody"`))

		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/setUser/nobody", nil))

		s.Equal(http.StatusBadRequest, w.Code)
		var body map[string]string
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
		s.Equal("unknown_user", body["error"])
		s.Contains(body["error_description"], "nobody")
	})

	s.Run("GET is not routed", func() {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/setUser/u1", nil))
		s.Equal(http.StatusMethodNotAllowed, w.Code)
	})
}

func (s *HandlerSuite) TestList() {
	s.service.EXPECT().ActiveID().Return(models.UserID("u1"))
	s.service.EXPECT().List(gomock.Any()).Return([]models.UserSummary{
		{ID: "u1", FirstName: "Ann", LastName: "Lee"},
		{ID: "u2", FirstName: "Raj", LastName: "Patel"},
	})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	s.Equal(http.StatusOK, w.Code)
	var resp UserListResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal(models.UserID("u1"), resp.ActiveUserID)
	s.Len(resp.Users, 2)
}
