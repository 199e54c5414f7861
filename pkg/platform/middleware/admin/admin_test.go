package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"medcred/pkg/secrets"
)

// AdminMiddlewareSuite checks that a wrong token never reaches the handler.
type AdminMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AdminMiddlewareSuite) serve(expected, presented string, setHeader bool) (*httptest.ResponseRecorder, bool) {
	called := false
	h := RequireToken(expected, s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/setUser/u1", nil)
	if setHeader {
		req.Header.Set(HeaderName, presented)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, called
}

func (s *AdminMiddlewareSuite) TestTokenValidation() {
	s.Run("correct token passes to next handler", func() {
		w, called := s.serve("secret", "secret", true)
		s.True(called)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("wrong token returns 401 and blocks handler", func() {
		w, called := s.serve("secret", "wrong", true)
		s.False(called)
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Contains(w.Body.String(), `"error":"unauthorized"`)
	})

	s.Run("missing token returns 401", func() {
		w, called := s.serve("secret", "", false)
		s.False(called)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("bcrypt hashed token is verified", func() {
		hash, err := secrets.Hash("secret")
		s.Require().NoError(err)

		w, called := s.serve(hash, "secret", true)
		s.True(called)
		s.Equal(http.StatusOK, w.Code)

		w, called = s.serve(hash, hash, true)
		s.False(called)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("empty expected token disables the guard", func() {
		w, called := s.serve("", "", false)
		s.True(called)
		s.Equal(http.StatusOK, w.Code)
	})
}
